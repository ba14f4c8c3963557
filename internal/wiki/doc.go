// Package wiki provides HTTP access to Wikipedia articles and helpers for
// working with article titles.
//
// The package exposes a single network operation, Client.Fetch, which
// downloads the raw HTML of one article. Retry policy, prefetching, and
// caching are deliberately not handled here; the prefetch package layers
// those concerns on top.
//
// # Politeness
//
// The client is designed to be polite to Wikipedia:
//   - A token-bucket rate limiter caps outgoing request frequency
//   - robots.txt can be consulted once at construction time
//   - Response bodies are size-limited to avoid reading huge pages
package wiki
