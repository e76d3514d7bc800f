// Package daemon coordinates the long-running dailycast process.
//
// It wires the browser manager, ingest pipeline, run journal and HTTP
// server into a single lifecycle with flock-based locking to prevent
// multiple instances. Ingests run on the configured cron schedule plus once
// immediately at startup; the HTTP server publishes the feeds and stored
// artifacts for podcast clients.
package daemon
