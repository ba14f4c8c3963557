package prefetch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Fetcher downloads the raw document for one page title.
// The wiki client satisfies this; tests use fakes.
type Fetcher interface {
	Fetch(ctx context.Context, title string) (string, error)
}

// handle is one in-flight fetch. The worker stores the document and then
// closes done; after done is closed the doc field is immutable.
type handle struct {
	done chan struct{}
	doc  string
}

// job pairs a title with the handle its result is published through.
type job struct {
	title string
	h     *handle
}

// Cache tracks in-flight and completed page downloads.
//
// Design decision: fetch failures yield an empty document rather than an
// error. The traversal treats an empty document as a page with no links,
// which flows into its normal dead-end handling; surfacing transport
// errors here would force every caller through a second failure path for
// no behavioral difference.
type Cache struct {
	fetcher Fetcher

	// waitTimeout bounds how long GetDocument waits on an in-flight fetch
	// before degrading to a synchronous fetch of its own.
	waitTimeout time.Duration

	// mu guards pending and completed.
	mu        sync.Mutex
	pending   map[string]*handle
	completed map[string]string

	// jobs feeds the worker pool. Bounded; see Prefetch.
	jobs chan job

	// cancel stops the workers. Outstanding fetches are abandoned, not
	// awaited; their results are simply never observed.
	cancel context.CancelFunc
	group  *errgroup.Group
}

// Option configures a Cache.
type Option func(*cacheConfig)

type cacheConfig struct {
	workers     int
	waitTimeout time.Duration
	queueDepth  int
}

// WithWorkers sets the number of concurrent fetch workers.
func WithWorkers(n int) Option {
	return func(c *cacheConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithWaitTimeout bounds how long GetDocument blocks on an in-flight
// fetch before falling back to a synchronous fetch.
func WithWaitTimeout(d time.Duration) Option {
	return func(c *cacheConfig) {
		if d > 0 {
			c.waitTimeout = d
		}
	}
}

// NewCache creates a Cache and starts its worker pool.
// Call Close when done to release the workers.
func NewCache(fetcher Fetcher, opts ...Option) *Cache {
	cfg := cacheConfig{
		workers:     4,
		waitTimeout: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.queueDepth = cfg.workers * 8

	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	c := &Cache{
		fetcher:     fetcher,
		waitTimeout: cfg.waitTimeout,
		pending:     make(map[string]*handle),
		completed:   make(map[string]string),
		jobs:        make(chan job, cfg.queueDepth),
		cancel:      cancel,
		group:       g,
	}

	for range cfg.workers {
		g.Go(func() error {
			c.worker(ctx)
			return nil
		})
	}

	return c
}

// worker drains the job channel until the cache is closed.
func (c *Cache) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-c.jobs:
			doc, err := c.fetcher.Fetch(ctx, j.title)
			if err != nil {
				doc = ""
			}
			j.h.doc = doc
			close(j.h.done)
		}
	}
}

// Prefetch submits background downloads for titles not already tracked.
// It never blocks: titles that don't fit in the job queue are silently
// skipped, since a speculative fetch that can't start immediately is
// worth less than stalling the traversal loop. Re-requesting a pending or
// completed title is a no-op.
func (c *Cache) Prefetch(titles []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, title := range titles {
		if _, ok := c.completed[title]; ok {
			continue
		}
		if _, ok := c.pending[title]; ok {
			continue
		}

		h := &handle{done: make(chan struct{})}
		select {
		case c.jobs <- job{title: title, h: h}:
			c.pending[title] = h
		default:
			// Pool saturated; drop the speculation.
		}
	}
}

// GetDocument returns the document for a title, blocking as needed.
//
// Resolution order: sweep finished background work into the completed
// cache, serve (and remove) a completed entry, wait bounded time on an
// in-flight fetch, and finally fetch synchronously. The synchronous
// fallback guarantees forward progress even when prefetching starved or
// the awaited fetch is stuck.
func (c *Cache) GetDocument(ctx context.Context, title string) string {
	c.mu.Lock()
	c.reconcileLocked()

	if doc, ok := c.completed[title]; ok {
		delete(c.completed, title)
		c.mu.Unlock()
		return doc
	}

	h, inflight := c.pending[title]
	if inflight {
		// Consume the pending entry now. If the wait below times out the
		// fetch keeps running, but its eventual result is abandoned and
		// the synchronous fallback owns the title from here on.
		delete(c.pending, title)
	}
	c.mu.Unlock()

	if inflight {
		timer := time.NewTimer(c.waitTimeout)
		defer timer.Stop()
		select {
		case <-h.done:
			return h.doc
		case <-timer.C:
			// Fall through to the synchronous fetch.
		case <-ctx.Done():
			return ""
		}
	}

	doc, err := c.fetcher.Fetch(ctx, title)
	if err != nil {
		return ""
	}
	return doc
}

// reconcileLocked moves finished pending fetches into the completed cache.
// Caller must hold mu.
func (c *Cache) reconcileLocked() {
	for title, h := range c.pending {
		select {
		case <-h.done:
			c.completed[title] = h.doc
			delete(c.pending, title)
		default:
		}
	}
}

// Stats reports the current cache occupancy, for logging.
func (c *Cache) Stats() (pending, completed int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending), len(c.completed)
}

// Close stops the worker pool without waiting for in-flight fetches.
func (c *Cache) Close() {
	c.cancel()
}

// Wait blocks until all workers have exited. Close must be called first.
// The traversal does not use this; tests do, to avoid goroutines outliving
// the test binary's fake servers.
func (c *Cache) Wait() {
	_ = c.group.Wait() //nolint:errcheck // Workers never return errors
}
