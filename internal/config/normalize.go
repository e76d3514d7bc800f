package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.Bind = strings.TrimSpace(c.Paths.Bind)
	if c.Paths.Bind == "" {
		c.Paths.Bind = defaultBind
	}

	for i, locale := range c.Locales {
		c.Locales[i] = strings.ToLower(strings.TrimSpace(locale))
	}

	c.Scrape.Cron = strings.TrimSpace(c.Scrape.Cron)
	if c.Scrape.Cron == "" {
		c.Scrape.Cron = defaultCron
	}
	c.Scrape.Resolver = strings.ToLower(strings.TrimSpace(c.Scrape.Resolver))
	if c.Scrape.Resolver == "" {
		c.Scrape.Resolver = defaultResolver
	}
	c.Scrape.OriginURL = strings.TrimRight(strings.TrimSpace(c.Scrape.OriginURL), "/")
	c.Scrape.OriginAPIURL = strings.TrimRight(strings.TrimSpace(c.Scrape.OriginAPIURL), "/")
	if c.Scrape.NavigationTimeout <= 0 {
		c.Scrape.NavigationTimeout = defaultNavigationTimeout
	}

	c.Audio.FfmpegBinary = strings.TrimSpace(c.Audio.FfmpegBinary)
	if c.Audio.FfmpegBinary == "" {
		c.Audio.FfmpegBinary = defaultFfmpegBinary
	}
	c.Audio.FfprobeBinary = strings.TrimSpace(c.Audio.FfprobeBinary)
	if c.Audio.FfprobeBinary == "" {
		c.Audio.FfprobeBinary = defaultFfprobeBinary
	}
	if c.Audio.ProbeTimeout <= 0 {
		c.Audio.ProbeTimeout = defaultProbeTimeout
	}

	if c.Feed.PageSize <= 0 {
		c.Feed.PageSize = defaultFeedPageSize
	}
	if strings.TrimSpace(c.Feed.Title) == "" {
		c.Feed.Title = defaultFeedTitle
	}
	if strings.TrimSpace(c.Feed.Description) == "" {
		c.Feed.Description = defaultFeedDescription
	}

	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
	return nil
}
