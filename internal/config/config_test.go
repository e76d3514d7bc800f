package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, minimalConfig(""))

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !exists {
		t.Fatalf("expected config at %s to exist", resolved)
	}
	if cfg.Scrape.Cron != defaultCron {
		t.Fatalf("expected default cron, got %q", cfg.Scrape.Cron)
	}
	if cfg.Feed.PageSize != defaultFeedPageSize {
		t.Fatalf("expected default page size, got %d", cfg.Feed.PageSize)
	}
	if cfg.Audio.FfmpegBinary != "ffmpeg" {
		t.Fatalf("expected default ffmpeg binary, got %q", cfg.Audio.FfmpegBinary)
	}
}

func TestLoadRejectsInvalidLocale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, minimalConfig(`locales = ["en", "not a tag"]`))

	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected invalid locale to fail validation")
	}
}

func TestLoadRejectsDuplicateLocale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, minimalConfig(`locales = ["en", "en"]`))

	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected duplicate locale to fail validation")
	}
}

func TestLoadRejectsUnknownResolver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := strings.Replace(minimalConfig(""), `resolver = "api"`, `resolver = "guess"`, 1)
	writeConfig(t, path, content)

	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected unknown resolver to fail validation")
	}
}

func TestLoadRequiresOriginURLs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, `
locales = ["en"]
[paths]
data_dir = "/tmp/dailycast"
`)

	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected missing origin urls to fail validation")
	}
}

func TestHasLocale(t *testing.T) {
	cfg := Default()
	cfg.Locales = []string{"en", "de"}
	if !cfg.HasLocale("de") {
		t.Fatal("expected de to be configured")
	}
	if cfg.HasLocale("fr") {
		t.Fatal("did not expect fr to be configured")
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := WriteSample(path); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	if err := WriteSample(path); err == nil {
		t.Fatal("expected second write to refuse overwrite")
	}
}

func minimalConfig(localesLine string) string {
	if localesLine == "" {
		localesLine = `locales = ["en"]`
	}
	return localesLine + `
[paths]
data_dir = "/tmp/dailycast-test"

[scrape]
resolver = "api"
origin_url = "https://origin.example"
origin_api_url = "https://api.origin.example"
`
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}
