// Package store owns the on-disk content layout: per-item directories with
// the JSON record, cover, audio artifacts, and derived metadata cache, plus
// one newest-first index file per locale.
//
// All other components reach items exclusively through this package; nothing
// else constructs paths under the data root. Writes are plain last-write-wins
// (no write-to-temp-then-rename), so a crash mid-write can leave a truncated
// record behind. That gap is inherited from the system this replaces and is
// deliberately left open here.
package store
