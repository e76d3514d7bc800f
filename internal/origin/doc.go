// Package origin talks to the upstream content origin: resolving which item
// is free today for a locale, fetching full item metadata, resolving signed
// per-chapter audio URLs, and selecting the best cover variant.
//
// Requests that need the page's authentication context go through an
// AuthenticatedFetcher (normally the live browser session); plain binary
// downloads use a direct HTTP client.
package origin
