// Package journal persists ingest run history in SQLite. The journal is an
// operational record only: the content store stays authoritative for what
// was ingested, and losing the journal loses nothing but history.
package journal
