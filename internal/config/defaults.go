package config

const (
	defaultDataDir           = "~/.local/share/dailycast/data"
	defaultLogDir            = "~/.local/share/dailycast/logs"
	defaultBind              = "127.0.0.1:8080"
	defaultCron              = "0 * * * *"
	defaultResolver          = "api"
	defaultNavigationTimeout = 60
	defaultFfmpegBinary      = "ffmpeg"
	defaultFfprobeBinary     = "ffprobe"
	defaultProbeTimeout      = 30
	defaultFeedPageSize      = 50
	defaultFeedTitle         = "Daily Digest"
	defaultFeedDescription   = "Daily licensed audio digests, republished as a podcast"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultNotifyTimeout     = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Locales:   []string{"en"},
		LogLevel:  defaultLogLevel,
		LogFormat: defaultLogFormat,
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			Bind:    defaultBind,
		},
		Scrape: Scrape{
			Cron:              defaultCron,
			Parallel:          false,
			Headless:          true,
			Resolver:          defaultResolver,
			NavigationTimeout: defaultNavigationTimeout,
		},
		Audio: Audio{
			FfmpegBinary:  defaultFfmpegBinary,
			FfprobeBinary: defaultFfprobeBinary,
			ProbeTimeout:  defaultProbeTimeout,
		},
		Feed: Feed{
			PageSize:    defaultFeedPageSize,
			Title:       defaultFeedTitle,
			Description: defaultFeedDescription,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Ingest:         true,
			Errors:         true,
		},
	}
}
