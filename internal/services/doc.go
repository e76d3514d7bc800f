// Package services holds the cross-cutting plumbing shared by dailycast
// components: the error classification sentinels used to route failures at
// the pipeline and HTTP boundaries, and the context annotation helpers that
// let loggers tag output with locale, item, and run identifiers.
package services
