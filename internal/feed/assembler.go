package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"

	"dailycast/internal/logging"
	"dailycast/internal/media/audio"
	"dailycast/internal/services"
	"dailycast/internal/store"
)

const (
	itunesNamespace  = "http://www.itunes.com/dtds/podcast-1.0.dtd"
	atomNamespace    = "http://www.w3.org/2005/Atom"
	contentNamespace = "http://purl.org/rss/1.0/modules/content/"
	enclosureType    = "audio/mp4"
)

// ChannelInfo carries the channel-level presentation fields.
type ChannelInfo struct {
	Title       string
	Description string
	Author      string
}

// Assembler renders paginated podcast feeds from the content store.
type Assembler struct {
	store    *store.Store
	prober   store.DurationProber
	info     ChannelInfo
	pageSize int
	logger   *slog.Logger
}

// NewAssembler builds an Assembler. pageSize bounds how many episodes one
// feed page carries.
func NewAssembler(st *store.Store, prober store.DurationProber, info ChannelInfo, pageSize int, logger *slog.Logger) *Assembler {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &Assembler{
		store:    st,
		prober:   prober,
		info:     info,
		pageSize: pageSize,
		logger:   logging.NewComponentLogger(logger, "feed"),
	}
}

// Render produces one page of the locale's feed as XML. Pages are 1-based;
// a page below 1 renders the entire index without pagination links.
// baseURL is the externally visible root used for every absolute URL in
// the document.
func (a *Assembler) Render(ctx context.Context, locale string, page int, baseURL string) ([]byte, error) {
	baseURL = strings.TrimRight(baseURL, "/")

	offset, limit := 0, 0
	if page >= 1 {
		offset, limit = (page-1)*a.pageSize, a.pageSize
	}
	indexPage, err := a.store.ReadIndexPage(locale, offset, limit)
	if err != nil {
		return nil, err
	}

	ch := channel{
		Title:       a.info.Title,
		Link:        baseURL,
		Description: a.info.Description,
		Language:    locale,
		Author:      a.info.Author,
		AtomLinks:   a.atomLinks(locale, page, indexPage.HasMore, baseURL),
	}
	if modTime, err := a.store.IndexLastModified(locale); err == nil {
		ch.PubDate = modTime.Format(time.RFC1123Z)
	}

	for _, id := range indexPage.IDs {
		item, err := a.renderItem(ctx, id, baseURL)
		if err != nil {
			// A listed id with broken artifacts must not take the
			// whole feed down.
			a.logger.Warn("skipping unrenderable episode",
				logging.String(logging.FieldLocale, locale),
				logging.String(logging.FieldItemID, id),
				logging.Error(err))
			continue
		}
		ch.Items = append(ch.Items, item)
		if len(ch.Items) > 0 && ch.Image == nil {
			ch.Image = item.Image
		}
	}

	doc := rssDocument{
		Version:      "2.0",
		XmlnsItunes:  itunesNamespace,
		XmlnsAtom:    atomNamespace,
		XmlnsContent: contentNamespace,
		Channel:      ch,
	}
	data, err := xml.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, services.Wrap(services.ErrMalformed, "feed", "render", locale, err)
	}
	return append([]byte(xml.Header), data...), nil
}

func (a *Assembler) atomLinks(locale string, page int, hasMore bool, baseURL string) []atomLink {
	pageURL := func(p int) string {
		if p <= 1 {
			return fmt.Sprintf("%s/feed/%s", baseURL, locale)
		}
		return fmt.Sprintf("%s/feed/%s?page=%d", baseURL, locale, p)
	}

	links := []atomLink{{Href: pageURL(page), Rel: "self", Type: "application/rss+xml"}}
	if page > 1 {
		links = append(links, atomLink{Href: pageURL(page - 1), Rel: "previous", Type: "application/rss+xml"})
	}
	if hasMore {
		links = append(links, atomLink{Href: pageURL(page + 1), Rel: "next", Type: "application/rss+xml"})
	}
	return links
}

func (a *Assembler) renderItem(ctx context.Context, id, baseURL string) (rssItem, error) {
	item, err := a.store.ReadRecord(id)
	if err != nil {
		return rssItem{}, err
	}
	meta, err := a.store.ReadOrBuildMetadata(ctx, item, a.prober)
	if err != nil {
		return rssItem{}, err
	}

	audioInfo, err := os.Stat(a.store.FinalAudioPath(id))
	if err != nil {
		return rssItem{}, services.Wrap(services.ErrNotFound, "feed", "stat final audio", id, err)
	}

	body := a.renderBody(item, meta)
	coverURL := fmt.Sprintf("%s/book/%s/cover", baseURL, id)
	return rssItem{
		Title:       item.Title,
		GUID:        guid{IsPermaLink: false, Value: item.ID},
		PubDate:     meta.PublishedAt.Format(time.RFC1123Z),
		Author:      item.Author,
		Subtitle:    item.Subtitle,
		Duration:    int(math.Round(meta.Duration)),
		Image:       &image{Href: coverURL},
		Description: cdata{Text: body},
		Content:     cdata{Text: body},
		Enclosure: enclosure{
			URL:    fmt.Sprintf("%s/book/%s/audio", baseURL, id),
			Length: audioInfo.Size(),
			Type:   enclosureType,
		},
	}, nil
}

// renderBody builds the episode description: the synopsis followed by a
// chapter listing with start offsets.
func (a *Assembler) renderBody(item *store.Item, meta store.Metadata) string {
	var b strings.Builder
	if item.Synopsis != "" {
		b.WriteString(item.Synopsis)
		b.WriteString("<br><br>")
	}

	titles := make([]string, 0, len(item.Chapters))
	for _, chapter := range item.Chapters {
		titles = append(titles, chapter.Title)
	}
	for i, mark := range audio.ChapterMarks(titles, meta.ChapterLengths) {
		if i > 0 {
			b.WriteString("<br>")
		}
		offset := audio.FormatOffset(float64(mark.StartMS) / 1000)
		fmt.Fprintf(&b, "%s %s", offset, mark.Title)
	}
	return b.String()
}
