package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"dailycast/internal/browser"
	"dailycast/internal/logging"
	"dailycast/internal/media/audio"
	"dailycast/internal/origin"
	"dailycast/internal/services"
	"dailycast/internal/store"
)

// chapterDownloadLimit caps concurrent chapter downloads per item.
const chapterDownloadLimit = 4

// Sessions hands out a live authenticated browser surface.
type Sessions interface {
	Session(ctx context.Context) (origin.Navigator, error)
}

// ManagedBrowser adapts a browser.Manager to the Sessions interface.
type ManagedBrowser struct {
	Manager *browser.Manager
}

func (b ManagedBrowser) Session(ctx context.Context) (origin.Navigator, error) {
	return b.Manager.Session(ctx)
}

type originClient interface {
	ItemDetails(ctx context.Context, fetcher origin.AuthenticatedFetcher, id string) (origin.Detail, error)
	ChapterAudioURL(ctx context.Context, fetcher origin.AuthenticatedFetcher, itemID, chapterID string) (string, error)
	DownloadBinary(ctx context.Context, url string) ([]byte, error)
}

type audioProcessor interface {
	Concatenate(ctx context.Context, chapterPaths []string, outPath string) error
	Enrich(ctx context.Context, rawPath string, info audio.TrackInfo, chapterTitles, chapterPaths []string, coverPath, outPath string) error
}

// RunJournal records run outcomes for the status surface.
type RunJournal interface {
	RecordStart(ctx context.Context, runID, locale string, startedAt time.Time) error
	RecordFinish(ctx context.Context, runID string, outcome Outcome, itemID, detail string) error
}

// Notifier pushes ingest outcomes to an external channel.
type Notifier interface {
	IngestCompleted(ctx context.Context, locale, title string)
	IngestFailed(ctx context.Context, locale string, err error)
}

// Outcome classifies how a locale run ended.
type Outcome string

const (
	OutcomeIngested Outcome = "ingested"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeFailed   Outcome = "failed"
)

// Result is the outcome of one locale's run.
type Result struct {
	RunID   string
	Locale  string
	ItemID  string
	Title   string
	Outcome Outcome
	Err     error
}

// Options collect the Runner's collaborators. Store, Sessions, Resolver,
// Origin, Audio and Prober are required; Journal and Notifier may be nil.
type Options struct {
	Locales  []string
	Parallel bool

	Store    *store.Store
	Sessions Sessions
	Resolver origin.DailyResolver
	Origin   originClient
	Audio    audioProcessor
	Prober   store.DurationProber
	Journal  RunJournal
	Notifier Notifier
	Logger   *slog.Logger
}

// Runner drives daily ingests across the configured locales.
type Runner struct {
	locales  []string
	parallel bool

	store    *store.Store
	sessions Sessions
	resolver origin.DailyResolver
	origin   originClient
	audio    audioProcessor
	prober   store.DurationProber
	journal  RunJournal
	notifier Notifier
	logger   *slog.Logger
}

// NewRunner builds a Runner from opts.
func NewRunner(opts Options) (*Runner, error) {
	switch {
	case opts.Store == nil:
		return nil, errors.New("pipeline: store required")
	case opts.Sessions == nil:
		return nil, errors.New("pipeline: session provider required")
	case opts.Resolver == nil:
		return nil, errors.New("pipeline: daily resolver required")
	case opts.Origin == nil:
		return nil, errors.New("pipeline: origin client required")
	case opts.Audio == nil:
		return nil, errors.New("pipeline: audio processor required")
	case opts.Prober == nil:
		return nil, errors.New("pipeline: duration prober required")
	case len(opts.Locales) == 0:
		return nil, errors.New("pipeline: at least one locale required")
	}

	journal := opts.Journal
	if journal == nil {
		journal = noopJournal{}
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = noopNotifier{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		locales:  opts.Locales,
		parallel: opts.Parallel,
		store:    opts.Store,
		sessions: opts.Sessions,
		resolver: opts.Resolver,
		origin:   opts.Origin,
		audio:    opts.Audio,
		prober:   opts.Prober,
		journal:  journal,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
	}, nil
}

// RunAll ingests every configured locale and returns one result per locale,
// in configuration order. A failed locale never stops its siblings.
func (r *Runner) RunAll(ctx context.Context) []Result {
	results := make([]Result, len(r.locales))
	if !r.parallel {
		for i, locale := range r.locales {
			results[i] = r.RunLocale(ctx, locale)
		}
		return results
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for i, locale := range r.locales {
		group.Go(func() error {
			results[i] = r.RunLocale(groupCtx, locale)
			return nil
		})
	}
	_ = group.Wait()
	return results
}

// RunLocale ingests the daily item for one locale.
func (r *Runner) RunLocale(ctx context.Context, locale string) Result {
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	ctx = services.WithLocale(ctx, locale)
	logger := r.logger.With(
		logging.String(logging.FieldRunID, runID),
		logging.String(logging.FieldLocale, locale))

	result := Result{RunID: runID, Locale: locale}
	if err := r.journal.RecordStart(ctx, runID, locale, time.Now()); err != nil {
		logger.Warn("failed to journal run start", logging.Error(err))
	}

	result = r.ingest(ctx, logger, result)
	switch result.Outcome {
	case OutcomeIngested:
		logger.Info("daily item ingested",
			logging.String(logging.FieldItemID, result.ItemID),
			logging.String("title", result.Title))
		r.notifier.IngestCompleted(ctx, locale, result.Title)
	case OutcomeSkipped:
		logger.Info("daily item already present", logging.String(logging.FieldItemID, result.ItemID))
	case OutcomeFailed:
		logger.Error("ingest failed", logging.Error(result.Err))
		r.notifier.IngestFailed(ctx, locale, result.Err)
	}

	detail := ""
	if result.Err != nil {
		detail = result.Err.Error()
	}
	if err := r.journal.RecordFinish(ctx, runID, result.Outcome, result.ItemID, detail); err != nil {
		logger.Warn("failed to journal run finish", logging.Error(err))
	}
	return result
}

func (r *Runner) ingest(ctx context.Context, logger *slog.Logger, result Result) Result {
	sess, err := r.sessions.Session(ctx)
	if err != nil {
		return fail(result, err)
	}

	itemID, err := r.resolver.ResolveDailyItemID(ctx, sess, result.Locale)
	if err != nil {
		return fail(result, err)
	}
	result.ItemID = itemID

	if r.store.Exists(itemID) {
		result.Outcome = OutcomeSkipped
		return result
	}
	logger.Info("ingesting daily item", logging.String(logging.FieldItemID, itemID))

	detail, err := r.origin.ItemDetails(ctx, sess, itemID)
	if err != nil {
		return fail(result, err)
	}
	item := detail.Item
	result.Title = item.Title

	cover, err := r.origin.DownloadBinary(ctx, detail.CoverURL)
	if err != nil {
		return fail(result, err)
	}
	if err := r.store.SaveCover(itemID, cover); err != nil {
		return fail(result, err)
	}

	if err := r.downloadChapters(ctx, sess, item); err != nil {
		return fail(result, err)
	}

	chapterPaths := make([]string, 0, len(item.Chapters))
	chapterTitles := make([]string, 0, len(item.Chapters))
	for _, chapter := range item.Chapters {
		chapterPaths = append(chapterPaths, r.store.ChapterAudioPath(itemID, chapter.ID))
		chapterTitles = append(chapterTitles, chapter.Title)
	}

	rawPath := r.store.RawAudioPath(itemID)
	if err := r.audio.Concatenate(ctx, chapterPaths, rawPath); err != nil {
		return fail(result, err)
	}

	info := audio.TrackInfo{Title: item.Title, Author: item.Author}
	if err := r.audio.Enrich(ctx, rawPath, info, chapterTitles, chapterPaths, r.store.CoverPath(itemID), r.store.FinalAudioPath(itemID)); err != nil {
		return fail(result, err)
	}

	// The record write is the commit point: once it lands the item counts
	// as ingested and later runs skip it.
	if err := r.store.SaveRecord(item); err != nil {
		return fail(result, err)
	}
	// Metadata probes the chapter tracks, so it must land before cleanup.
	if _, err := r.store.ReadOrBuildMetadata(ctx, item, r.prober); err != nil {
		return fail(result, err)
	}
	if err := r.store.AppendToIndex(result.Locale, itemID); err != nil {
		return fail(result, err)
	}
	if err := r.store.DeleteTempArtifacts(item); err != nil {
		logger.Warn("temp artifact cleanup incomplete", logging.Error(err))
	}

	result.Outcome = OutcomeIngested
	return result
}

// downloadChapters resolves each chapter's signed URL and downloads the
// audio, a few chapters at a time. Resolution must go through the session;
// the signed URL itself needs no authentication.
func (r *Runner) downloadChapters(ctx context.Context, sess origin.Navigator, item *store.Item) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(chapterDownloadLimit)
	for _, chapter := range item.Chapters {
		group.Go(func() error {
			url, err := r.origin.ChapterAudioURL(groupCtx, sess, item.ID, chapter.ID)
			if err != nil {
				return err
			}
			data, err := r.origin.DownloadBinary(groupCtx, url)
			if err != nil {
				return err
			}
			return r.store.SaveChapterAudio(item.ID, chapter.ID, data)
		})
	}
	return group.Wait()
}

func fail(result Result, err error) Result {
	result.Outcome = OutcomeFailed
	result.Err = err
	return result
}

type noopJournal struct{}

func (noopJournal) RecordStart(context.Context, string, string, time.Time) error {
	return nil
}

func (noopJournal) RecordFinish(context.Context, string, Outcome, string, string) error {
	return nil
}

type noopNotifier struct{}

func (noopNotifier) IngestCompleted(context.Context, string, string) {}

func (noopNotifier) IngestFailed(context.Context, string, error) {}
