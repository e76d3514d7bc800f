// Package audio drives ffmpeg to turn downloaded per-chapter tracks into a
// single publishable file: stream concatenation to one AAC track, then a mux
// that embeds chapter marks and the cover image as an attached picture.
//
// Chapter boundary arithmetic lives here too; the feed assembler reuses it
// to render listing offsets from cached chapter lengths without re-probing.
package audio
