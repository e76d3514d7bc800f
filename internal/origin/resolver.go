package origin

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"dailycast/internal/services"
)

// DailyResolver resolves which item id is today's free item for a locale.
// The origin has shipped two mechanisms over time; both are implemented and
// the deployment picks one, so neither is baked into the pipeline.
type DailyResolver interface {
	ResolveDailyItemID(ctx context.Context, nav Navigator, locale string) (string, error)
}

// PageResolver scrapes the locale's daily overview page for the item link,
// then reads the item id attribute off the linked detail page.
type PageResolver struct {
	BaseURL string
}

// ResolveDailyItemID navigates the daily page and extracts the item id.
func (r *PageResolver) ResolveDailyItemID(ctx context.Context, nav Navigator, locale string) (string, error) {
	overviewURL := fmt.Sprintf("%s/%s/nc/daily/", r.BaseURL, locale)
	markup, err := nav.NavigateAndGetMarkup(ctx, overviewURL)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "resolve", "load daily page", overviewURL, err)
	}

	href, err := attrFromMarkup(markup, "a.daily-book__cta", "href")
	if err != nil {
		return "", services.Wrap(services.ErrMalformed, "resolve", "daily page", "no daily item link", err)
	}

	detailURL := href
	if strings.HasPrefix(href, "/") {
		detailURL = r.BaseURL + href
	}
	markup, err = nav.NavigateAndGetMarkup(ctx, detailURL)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "resolve", "load item page", detailURL, err)
	}

	id, err := attrFromMarkup(markup, "[data-book-id]", "data-book-id")
	if err != nil {
		return "", services.Wrap(services.ErrMalformed, "resolve", "item page", "no item id attribute", err)
	}
	return id, nil
}

// APIResolver calls the locale-keyed free-daily endpoint.
type APIResolver struct {
	BaseURL string
}

// ResolveDailyItemID fetches the free-daily payload from inside the session.
func (r *APIResolver) ResolveDailyItemID(ctx context.Context, nav Navigator, locale string) (string, error) {
	url := fmt.Sprintf("%s/api/free_daily?locale=%s", r.BaseURL, locale)
	var payload detailResponse
	if err := nav.FetchJSON(ctx, url, &payload); err != nil {
		return "", services.Wrap(services.ErrTransient, "resolve", "fetch free daily", locale, err)
	}
	if payload.Book.ID == "" {
		return "", services.Wrap(services.ErrMalformed, "resolve", "free daily", "empty item id", nil)
	}
	return payload.Book.ID, nil
}

func attrFromMarkup(markup, selector, attr string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", err
	}
	value, ok := doc.Find(selector).First().Attr(attr)
	if !ok || strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("selector %q: attribute %q not found", selector, attr)
	}
	return strings.TrimSpace(value), nil
}
