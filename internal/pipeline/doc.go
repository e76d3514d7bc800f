// Package pipeline orchestrates one daily ingest per configured locale:
// resolve the day's item, fetch its metadata and cover, download the chapter
// audio, merge and enrich the track, then publish it into the content store
// and the locale index. Every stage is idempotent at the item level; a day
// whose record already exists is skipped outright.
package pipeline
