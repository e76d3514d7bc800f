package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"dailycast/internal/browser"
	"dailycast/internal/config"
	"dailycast/internal/feed"
	"dailycast/internal/journal"
	"dailycast/internal/logging"
	"dailycast/internal/media/audio"
	"dailycast/internal/media/ffprobe"
	"dailycast/internal/notifications"
	"dailycast/internal/origin"
	"dailycast/internal/pipeline"
	"dailycast/internal/store"
)

// app bundles the wired subsystems a command needs.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *store.Store
	browser   *browser.Manager
	runner    *pipeline.Runner
	assembler *feed.Assembler
	journal   *journal.Journal
	notifier  notifications.Service
}

func buildApp(cfg *config.Config) (*app, error) {
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	st := store.New(cfg.Paths.DataDir, logger)
	prober := ffprobe.NewProber(cfg.Audio.FfprobeBinary, time.Duration(cfg.Audio.ProbeTimeout)*time.Second)
	processor := audio.NewProcessor(cfg.Audio.FfmpegBinary, prober, logger)

	client, err := origin.New(cfg.Scrape.OriginURL, cfg.Scrape.OriginAPIURL)
	if err != nil {
		return nil, fmt.Errorf("build origin client: %w", err)
	}
	var resolver origin.DailyResolver
	if cfg.Scrape.Resolver == "page" {
		resolver = &origin.PageResolver{BaseURL: cfg.Scrape.OriginURL}
	} else {
		resolver = &origin.APIResolver{BaseURL: cfg.Scrape.OriginURL}
	}

	manager := browser.NewManager(browser.Options{
		ChromeBinary:      cfg.Scrape.ChromeBinary,
		Headless:          cfg.Scrape.Headless,
		NavigationTimeout: time.Duration(cfg.Scrape.NavigationTimeout) * time.Second,
	}, logger)

	jrnl, err := journal.Open(filepath.Join(cfg.Paths.LogDir, "journal.db"))
	if err != nil {
		return nil, fmt.Errorf("open run journal: %w", err)
	}

	notifier := notifications.NewService(cfg, logger)
	runner, err := pipeline.NewRunner(pipeline.Options{
		Locales:  cfg.Locales,
		Parallel: cfg.Scrape.Parallel,
		Store:    st,
		Sessions: pipeline.ManagedBrowser{Manager: manager},
		Resolver: resolver,
		Origin:   client,
		Audio:    processor,
		Prober:   prober,
		Journal:  jrnl,
		Notifier: notifier,
		Logger:   logger,
	})
	if err != nil {
		_ = jrnl.Close()
		return nil, fmt.Errorf("build pipeline: %w", err)
	}

	assembler := feed.NewAssembler(st, prober, feed.ChannelInfo{
		Title:       cfg.Feed.Title,
		Description: cfg.Feed.Description,
		Author:      cfg.Feed.Author,
	}, cfg.Feed.PageSize, logger)

	return &app{
		cfg:       cfg,
		logger:    logger,
		store:     st,
		browser:   manager,
		runner:    runner,
		assembler: assembler,
		journal:   jrnl,
		notifier:  notifier,
	}, nil
}

func (a *app) close() {
	_ = a.browser.Close()
	_ = a.journal.Close()
}
