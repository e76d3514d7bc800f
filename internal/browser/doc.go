// Package browser manages a headless Chrome session used to scrape the
// origin. The Manager owns the session lifecycle through an explicit state
// machine and transparently reopens the browser after a crash or disconnect,
// so callers always work against a live session. Sessions block heavyweight
// page resources and rotate the user agent on every navigation.
package browser
