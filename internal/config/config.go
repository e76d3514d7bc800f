package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
	Bind    string `toml:"bind"`
}

// Scrape contains configuration for the acquisition pipeline and the
// browser session it drives.
type Scrape struct {
	Cron              string `toml:"cron"`
	Parallel          bool   `toml:"parallel"`
	Headless          bool   `toml:"headless"`
	Resolver          string `toml:"resolver"` // "page" or "api"
	OriginURL         string `toml:"origin_url"`
	OriginAPIURL      string `toml:"origin_api_url"`
	NavigationTimeout int    `toml:"navigation_timeout"`
	ChromeBinary      string `toml:"chrome_binary"`
}

// Audio contains configuration for ffmpeg/ffprobe invocation.
type Audio struct {
	FfmpegBinary  string `toml:"ffmpeg_binary"`
	FfprobeBinary string `toml:"ffprobe_binary"`
	ProbeTimeout  int    `toml:"probe_timeout"`
}

// Feed contains configuration for the published RSS feed.
type Feed struct {
	PageSize    int    `toml:"page_size"`
	Title       string `toml:"title"`
	Description string `toml:"description"`
	Author      string `toml:"author"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Ingest         bool   `toml:"ingest"`
	Errors         bool   `toml:"errors"`
}

// Config encapsulates all configuration values for dailycast.
//
// Configuration sections by subsystem:
//   - Locales: the language/region streams to ingest, one item per day each
//   - Paths: content store root, log directory, HTTP bind address
//   - Scrape: schedule, browser settings, origin endpoints, resolver choice
//   - Audio: external ffmpeg/ffprobe binaries and probe timeout
//   - Feed: page size and channel presentation fields
//   - Notifications: ntfy push notification settings
type Config struct {
	Locales   []string `toml:"locales"`
	LogLevel  string   `toml:"log_level"`
	LogFormat string   `toml:"log_format"`

	Paths         Paths         `toml:"paths"`
	Scrape        Scrape        `toml:"scrape"`
	Audio         Audio         `toml:"audio"`
	Feed          Feed          `toml:"feed"`
	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/dailycast/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a config file was actually found at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// WriteSample writes the embedded sample configuration to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config already exists at %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("ensure config dir: %w", err)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

// HasLocale reports whether the locale is configured.
func (c *Config) HasLocale(locale string) bool {
	for _, l := range c.Locales {
		if l == locale {
			return true
		}
	}
	return false
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	projectPath, err := filepath.Abs("dailycast.toml")
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	return filepath.Abs(trimmed)
}
