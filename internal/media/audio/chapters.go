package audio

import (
	"fmt"
	"math"
	"strings"
)

// ChapterMark is one chapter boundary in the enriched track, in
// milliseconds from the start of the track.
type ChapterMark struct {
	Title   string
	StartMS int64
	EndMS   int64
}

// ChapterMarks accumulates per-chapter lengths (seconds) into boundary
// marks. The first chapter starts at zero; each subsequent chapter starts
// where the previous one ended. Order is preserved exactly as given.
func ChapterMarks(titles []string, lengths []float64) []ChapterMark {
	marks := make([]ChapterMark, 0, len(lengths))
	var cursor float64
	for i, length := range lengths {
		title := ""
		if i < len(titles) {
			title = titles[i]
		}
		end := cursor + length
		marks = append(marks, ChapterMark{
			Title:   title,
			StartMS: int64(math.Round(cursor * 1000)),
			EndMS:   int64(math.Round(end * 1000)),
		})
		cursor = end
	}
	return marks
}

// FormatOffset renders a second offset as a zero-padded mm:ss listing label.
func FormatOffset(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// renderMetadata produces an FFMETADATA1 document carrying the track title,
// artist, and one [CHAPTER] block per mark with millisecond timebase.
func renderMetadata(title, artist string, marks []ChapterMark) string {
	var sb strings.Builder
	sb.WriteString(";FFMETADATA1\n")
	sb.WriteString("title=" + escapeMetadata(title) + "\n")
	sb.WriteString("artist=" + escapeMetadata(artist) + "\n")
	for _, mark := range marks {
		sb.WriteString("[CHAPTER]\n")
		sb.WriteString("TIMEBASE=1/1000\n")
		fmt.Fprintf(&sb, "START=%d\n", mark.StartMS)
		fmt.Fprintf(&sb, "END=%d\n", mark.EndMS)
		sb.WriteString("title=" + escapeMetadata(mark.Title) + "\n")
	}
	return sb.String()
}

// escapeMetadata escapes the characters the FFMETADATA format treats
// specially.
func escapeMetadata(value string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		"=", `\=`,
		";", `\;`,
		"#", `\#`,
		"\n", `\`+"\n",
	)
	return replacer.Replace(value)
}
