package store

import "time"

// Chapter is one ordered section of an item. Position is implied by slice
// order; duration is computed from the downloaded audio, never supplied by
// the origin.
type Chapter struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Item is one ingested piece of content. It is immutable once written: the
// record is persisted exactly once and its file modification time doubles as
// the publish date.
type Item struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Subtitle string    `json:"subtitle"`
	Author   string    `json:"author"`
	Synopsis string    `json:"synopsis"`
	ImageURL string    `json:"image_url"`
	Chapters []Chapter `json:"chapters"`
}

// Metadata is the derived, immutable-once-written summary for one item.
// Audio is never rewritten after creation, so there is no invalidation path.
type Metadata struct {
	Duration       float64   `json:"duration"`
	PublishedAt    time.Time `json:"published_at"`
	ChapterLengths []float64 `json:"chapter_lengths"`
}

// Page is one window of a locale index read.
type Page struct {
	IDs     []string
	HasMore bool
}
