// Package log provides structured logging setup for wikirun.
//
// The traversal regularly logs values that are small in spirit but large
// in bytes: context snippets, document fragments, candidate lists. The
// TrimHandler wraps any slog.Handler and truncates oversized string
// attributes so debug logging stays readable instead of dumping page-sized
// values into the terminal.
package log
