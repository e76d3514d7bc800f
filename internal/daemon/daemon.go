package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/robfig/cron/v3"

	"dailycast/internal/config"
	"dailycast/internal/feed"
	"dailycast/internal/journal"
	"dailycast/internal/logging"
	"dailycast/internal/pipeline"
	"dailycast/internal/store"
)

// Daemon owns the scheduled ingest loop and the HTTP surface.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	runner   *pipeline.Runner
	shutdown func()

	lockPath string
	lock     *flock.Flock

	scheduler *cron.Cron
	server    *http.Server

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Options collect the daemon's collaborators.
type Options struct {
	Config    *config.Config
	Logger    *slog.Logger
	Runner    *pipeline.Runner
	Store     *store.Store
	Assembler *feed.Assembler
	Journal   *journal.Journal
	// Shutdown is invoked once after the run loop and server stop, for
	// releasing resources the daemon does not own directly.
	Shutdown func()
}

// New builds a Daemon. The lock file lives next to the logs so stale locks
// are easy to find.
func New(opts Options) (*Daemon, error) {
	switch {
	case opts.Config == nil:
		return nil, errors.New("daemon: config required")
	case opts.Runner == nil:
		return nil, errors.New("daemon: pipeline runner required")
	case opts.Store == nil:
		return nil, errors.New("daemon: store required")
	case opts.Assembler == nil:
		return nil, errors.New("daemon: feed assembler required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.MkdirAll(opts.Config.Paths.LogDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure log dir: %w", err)
	}
	lockPath := filepath.Join(opts.Config.Paths.LogDir, "dailycast.lock")

	server := newServer(opts.Config, opts.Store, opts.Assembler, opts.Journal, logger)
	return &Daemon{
		cfg:      opts.Config,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		runner:   opts.Runner,
		shutdown: opts.Shutdown,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		server:   server,
	}, nil
}

// Start acquires the daemon lock, starts the HTTP server and schedules
// ingests. One ingest round runs immediately.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another instance holds %s", d.lockPath)
	}

	d.ctx, d.cancel = context.WithCancel(context.Background())
	d.running.Store(true)

	d.scheduler = cron.New()
	if _, err := d.scheduler.AddFunc(d.cfg.Scrape.Cron, func() {
		d.runOnce("schedule")
	}); err != nil {
		d.releaseLock()
		d.running.Store(false)
		return fmt.Errorf("schedule %q: %w", d.cfg.Scrape.Cron, err)
	}

	go func() {
		d.logger.Info("http server listening", logging.String("bind", d.cfg.Paths.Bind))
		if err := d.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.logger.Error("http server failed", logging.Error(err))
		}
	}()

	d.scheduler.Start()
	go d.runOnce("startup")

	d.logger.Info("daemon started",
		logging.String("cron", d.cfg.Scrape.Cron),
		logging.Any("locales", d.cfg.Locales))

	go func() {
		<-ctx.Done()
		d.Stop()
	}()
	return nil
}

func (d *Daemon) runOnce(trigger string) {
	if !d.running.Load() {
		return
	}
	d.logger.Info("ingest round starting", logging.String("trigger", trigger))
	results := d.runner.RunAll(d.ctx)
	ingested, failed := 0, 0
	for _, result := range results {
		switch result.Outcome {
		case pipeline.OutcomeIngested:
			ingested++
		case pipeline.OutcomeFailed:
			failed++
		}
	}
	d.logger.Info("ingest round finished",
		logging.String("trigger", trigger),
		logging.Int("ingested", ingested),
		logging.Int("failed", failed))
}

// Stop halts the scheduler, drains the HTTP server, and releases the lock.
// It is safe to call more than once.
func (d *Daemon) Stop() {
	if !d.running.CompareAndSwap(true, false) {
		return
	}
	d.logger.Info("daemon stopping")

	if d.scheduler != nil {
		schedCtx := d.scheduler.Stop()
		select {
		case <-schedCtx.Done():
		case <-time.After(30 * time.Second):
			d.logger.Warn("scheduled run did not finish before shutdown deadline")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.server.Shutdown(shutdownCtx); err != nil {
		d.logger.Warn("http server shutdown incomplete", logging.Error(err))
	}

	d.cancel()
	if d.shutdown != nil {
		d.shutdown()
	}
	d.releaseLock()
	d.logger.Info("daemon stopped")
}

func (d *Daemon) releaseLock() {
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release lock", logging.Error(err))
	}
	_ = os.Remove(d.lockPath)
}
