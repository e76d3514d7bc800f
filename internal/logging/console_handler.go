package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

const (
	ansiReset  = "\x1b[0m"
	ansiDim    = "\x1b[2m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// consoleHandler renders human-oriented single-line output. JSON output for
// machine consumers comes from slog's stock handler instead.
type consoleHandler struct {
	mu     *sync.Mutex
	writer interface{ Write([]byte) (int, error) }
	level  slog.Level
	color  bool
	attrs  []slog.Attr
	groups []string
}

func newConsoleHandler(w interface{ Write([]byte) (int, error) }, level slog.Level, color bool) *consoleHandler {
	return &consoleHandler{
		mu:     &sync.Mutex{},
		writer: w,
		level:  level,
		color:  color,
	}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	var sb strings.Builder
	sb.Grow(128)

	if !record.Time.IsZero() {
		h.dim(&sb, record.Time.Format("15:04:05"))
		sb.WriteByte(' ')
	}
	sb.WriteString(h.levelTag(record.Level))
	sb.WriteByte(' ')
	sb.WriteString(record.Message)

	for _, attr := range h.attrs {
		h.appendAttr(&sb, attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		h.appendAttr(&sb, attr)
		return true
	})
	sb.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.writer.Write([]byte(sb.String()))
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), h.qualify(attrs)...)
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

func (h *consoleHandler) qualify(attrs []slog.Attr) []slog.Attr {
	if len(h.groups) == 0 {
		return attrs
	}
	prefix := strings.Join(h.groups, ".")
	qualified := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		attr.Key = prefix + "." + attr.Key
		qualified = append(qualified, attr)
	}
	return qualified
}

func (h *consoleHandler) appendAttr(sb *strings.Builder, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}
	sb.WriteByte(' ')
	h.dim(sb, attr.Key+"=")
	sb.WriteString(fmt.Sprintf("%v", attr.Value.Any()))
}

func (h *consoleHandler) levelTag(level slog.Level) string {
	tag := strings.ToUpper(level.String())
	if !h.color {
		return tag
	}
	switch {
	case level >= slog.LevelError:
		return ansiRed + tag + ansiReset
	case level >= slog.LevelWarn:
		return ansiYellow + tag + ansiReset
	case level <= slog.LevelDebug:
		return ansiDim + tag + ansiReset
	default:
		return ansiBlue + tag + ansiReset
	}
}

func (h *consoleHandler) dim(sb *strings.Builder, s string) {
	if h.color {
		sb.WriteString(ansiDim)
		sb.WriteString(s)
		sb.WriteString(ansiReset)
		return
	}
	sb.WriteString(s)
}
