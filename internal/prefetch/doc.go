// Package prefetch overlaps page downloads with the traversal's
// extraction and scoring work.
//
// # Architecture
//
// A fixed pool of workers drains a job channel. Prefetch enqueues
// speculative downloads and never blocks; GetDocument is the single
// blocking read the traversal loop performs. Results move through three
// states per title: not tracked, pending (a worker owns it), and
// completed (cached, awaiting consumption). A title is in at most one
// state at a time.
//
// GetDocument sweeps finished pending work into the completed cache on
// every call. This polling reconciliation is deliberate: it keeps the
// worker side free of callbacks and the loop free of a collector
// goroutine, and the sweep is cheap because the maps hold at most a
// handful of entries.
//
// Completed documents are consumed exactly once. The traversal never
// revisits a page, so single consumption bounds memory without a second
// eviction mechanism.
package prefetch
