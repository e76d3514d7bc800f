package config

import (
	"errors"
	"fmt"

	"golang.org/x/text/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLocales(); err != nil {
		return err
	}
	if err := c.validateScrape(); err != nil {
		return err
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLocales() error {
	if len(c.Locales) == 0 {
		return errors.New("locales must list at least one locale")
	}
	seen := map[string]struct{}{}
	for _, locale := range c.Locales {
		if locale == "" {
			return errors.New("locales must not contain empty entries")
		}
		if _, err := language.Parse(locale); err != nil {
			return fmt.Errorf("locales: %q is not a valid language tag: %w", locale, err)
		}
		if _, dup := seen[locale]; dup {
			return fmt.Errorf("locales: %q listed twice", locale)
		}
		seen[locale] = struct{}{}
	}
	return nil
}

func (c *Config) validateScrape() error {
	switch c.Scrape.Resolver {
	case "page", "api":
	default:
		return fmt.Errorf("scrape.resolver must be \"page\" or \"api\", got %q", c.Scrape.Resolver)
	}
	if c.Scrape.OriginURL == "" {
		return errors.New("scrape.origin_url must be set")
	}
	if c.Scrape.OriginAPIURL == "" {
		return errors.New("scrape.origin_api_url must be set")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}
