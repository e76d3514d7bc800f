package origin

import (
	"context"
	"encoding/json"
	"strings"

	"dailycast/internal/store"
)

// AuthenticatedFetcher performs HTTP GETs that carry the origin's
// authentication context (cookies, anti-bot headers). The browser session
// implements it by fetching from inside the rendered page; PlainFetcher is
// the direct-HTTP fallback for origins that do not gate these endpoints.
type AuthenticatedFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
	FetchJSON(ctx context.Context, url string, v any) error
}

// Navigator is the browser surface the daily-id resolvers need.
type Navigator interface {
	AuthenticatedFetcher
	NavigateAndGetMarkup(ctx context.Context, url string) (string, error)
}

const squareImageType = "1_1"

// detailResponse mirrors the origin's item-detail payload.
type detailResponse struct {
	Book itemPayload `json:"book"`
}

type itemPayload struct {
	ID       string           `json:"id"`
	Title    string           `json:"title"`
	Subtitle string           `json:"subtitle"`
	Author   string           `json:"author"`
	About    string           `json:"about_the_book"`
	ImageURL string           `json:"image_url"`
	Images   imagesPayload    `json:"images"`
	Chapters []chapterPayload `json:"chapters"`
}

type imagesPayload struct {
	Types       []string      `json:"types"`
	Sizes       []json.Number `json:"sizes"`
	URLTemplate string        `json:"url_template"`
}

type chapterPayload struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// audioResponse mirrors the signed-audio-URL payload.
type audioResponse struct {
	URL string `json:"url"`
}

// Detail is the resolved view of one origin item: the storable record plus
// the chosen cover URL.
type Detail struct {
	Item     *store.Item
	CoverURL string
}

func (p itemPayload) toItem() *store.Item {
	chapters := make([]store.Chapter, 0, len(p.Chapters))
	for _, ch := range p.Chapters {
		chapters = append(chapters, store.Chapter{ID: ch.ID, Title: ch.Title})
	}
	return &store.Item{
		ID:       p.ID,
		Title:    p.Title,
		Subtitle: p.Subtitle,
		Author:   p.Author,
		Synopsis: p.About,
		ImageURL: p.ImageURL,
		Chapters: chapters,
	}
}

// coverURL prefers the largest advertised square variant; origins without a
// square type fall back to the default image URL verbatim.
func (p itemPayload) coverURL() string {
	hasSquare := false
	for _, t := range p.Images.Types {
		if t == squareImageType {
			hasSquare = true
			break
		}
	}
	if !hasSquare || p.Images.URLTemplate == "" || len(p.Images.Sizes) == 0 {
		return p.ImageURL
	}
	maxSize := p.Images.Sizes[len(p.Images.Sizes)-1].String()
	url := strings.ReplaceAll(p.Images.URLTemplate, "%type%", squareImageType)
	return strings.ReplaceAll(url, "%size%", maxSize)
}
