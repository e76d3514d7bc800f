// Package logging assembles the structured slog loggers used across
// dailycast components.
//
// It owns the console/JSON handler selection, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can
// automatically tag log lines with locale, item, and run identifiers. The
// package also provides a no-op logger for tests and wiring code that
// cannot fail.
package logging
