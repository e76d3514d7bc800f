// Package feed renders the per-locale podcast feed: RSS 2.0 with the
// iTunes, Atom and content extensions podcast clients expect. Feeds are
// paginated over the locale index with self/prev/next Atom links, and each
// episode carries its cached duration, chapter listing, cover and enclosure.
package feed
