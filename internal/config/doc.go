// Package config loads, normalizes, and validates the TOML configuration
// driving dailycast: locale streams, scrape scheduling and browser settings,
// external audio tool binaries, feed presentation, and notification routing.
package config
