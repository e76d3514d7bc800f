// Package notifications delivers ingest events via ntfy.
//
// The service publishes to the topic configured in config.toml and degrades
// to a no-op when no topic is set, so pipeline code never needs to care
// whether notifications are enabled. Delivery failures are logged, not
// returned: a dropped push must never fail an ingest.
package notifications
