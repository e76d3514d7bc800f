package audio

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"dailycast/internal/logging"
	"dailycast/internal/media/ffprobe"
)

var commandContext = exec.CommandContext

// ProgressUpdate captures one ffmpeg progress event.
type ProgressUpdate struct {
	Operation string
	OutTime   time.Duration
	Speed     string
}

// TrackInfo carries the item-level tags muxed into the enriched track.
type TrackInfo struct {
	Title  string
	Author string
}

// Processor wraps the ffmpeg command-line tool.
type Processor struct {
	binary   string
	prober   *ffprobe.Prober
	logger   *slog.Logger
	observer func(ProgressUpdate)
}

// Option configures the processor.
type Option func(*Processor)

// WithObserver installs a progress callback invoked from ffmpeg progress
// output. The callback runs on the reader goroutine and must not block.
func WithObserver(fn func(ProgressUpdate)) Option {
	return func(p *Processor) {
		p.observer = fn
	}
}

// NewProcessor builds a processor. An empty binary falls back to "ffmpeg"
// on PATH.
func NewProcessor(binary string, prober *ffprobe.Prober, logger *slog.Logger, opts ...Option) *Processor {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	p := &Processor{
		binary: binary,
		prober: prober,
		logger: logging.NewComponentLogger(logger, "audio"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Concatenate merges the ordered chapter tracks into one continuous track at
// outPath. Inputs are re-encoded to a single AAC stream so chapters with
// mismatched codecs always merge.
func (p *Processor) Concatenate(ctx context.Context, chapterPaths []string, outPath string) error {
	if len(chapterPaths) == 0 {
		return errors.New("concatenate: no chapter tracks")
	}

	args := make([]string, 0, len(chapterPaths)*2+10)
	for _, path := range chapterPaths {
		args = append(args, "-i", path)
	}
	args = append(args,
		"-filter_complex", fmt.Sprintf("concat=n=%d:v=0:a=1", len(chapterPaths)),
		"-c:a", "aac",
		"-movflags", "+faststart",
	)
	return p.run(ctx, "concatenate", args, outPath)
}

// Enrich muxes the raw track, a generated chapter-mark manifest, and the
// cover image into the final container. The cover becomes an attached
// picture; audio is copied without re-encoding. Chapter boundaries come from
// probing each chapter track in sequence order.
func (p *Processor) Enrich(ctx context.Context, rawPath string, info TrackInfo, chapterTitles, chapterPaths []string, coverPath, outPath string) error {
	lengths := make([]float64, 0, len(chapterPaths))
	for _, path := range chapterPaths {
		length, err := p.prober.DurationSeconds(ctx, path)
		if err != nil {
			return fmt.Errorf("probe chapter %s: %w", path, err)
		}
		lengths = append(lengths, length)
	}
	marks := ChapterMarks(chapterTitles, lengths)

	manifest, err := os.CreateTemp("", "dailycast-chapters-*.txt")
	if err != nil {
		return fmt.Errorf("create chapter manifest: %w", err)
	}
	manifestPath := manifest.Name()
	// Scratch file: removed in every outcome, mux success or failure.
	defer os.Remove(manifestPath)

	if _, err := manifest.WriteString(renderMetadata(info.Title, info.Author, marks)); err != nil {
		manifest.Close()
		return fmt.Errorf("write chapter manifest: %w", err)
	}
	if err := manifest.Close(); err != nil {
		return fmt.Errorf("close chapter manifest: %w", err)
	}

	args := []string{
		"-i", rawPath,
		"-i", manifestPath,
		"-i", coverPath,
		"-map_metadata", "1",
		"-map", "0:a",
		"-map", "2",
		"-c", "copy",
		"-disposition:v:0", "attached_pic",
	}
	return p.run(ctx, "enrich", args, outPath)
}

func (p *Processor) run(ctx context.Context, operation string, args []string, outPath string) error {
	full := append([]string{"-hide_banner", "-nostats", "-progress", "pipe:1", "-y"}, args...)
	full = append(full, outPath)

	cmd := commandContext(ctx, p.binary, full...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	cmd.Stderr = cmd.Stdout

	p.logger.Debug("starting ffmpeg",
		logging.String("operation", operation),
		logging.String("output", outPath))
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	update := ProgressUpdate{Operation: operation}
	for scanner.Scan() {
		key, value, found := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !found {
			continue
		}
		switch key {
		case "out_time_us":
			if us, err := strconv.ParseInt(value, 10, 64); err == nil {
				update.OutTime = time.Duration(us) * time.Microsecond
			}
		case "speed":
			update.Speed = value
		case "progress":
			if p.observer != nil {
				p.observer(update)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		_ = cmd.Wait()
		return fmt.Errorf("read ffmpeg output: %w", err)
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg %s failed: %w", operation, err)
	}
	return nil
}
