package prefetch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeFetcher is a Fetcher with per-title canned responses and a fetch
// counter. An optional gate makes fetches block until released.
type fakeFetcher struct {
	mu    sync.Mutex
	docs  map[string]string
	errs  map[string]error
	gate  chan struct{}
	count atomic.Int64
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		docs: make(map[string]string),
		errs: make(map[string]error),
	}
}

func (f *fakeFetcher) Fetch(ctx context.Context, title string) (string, error) {
	f.count.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errs[title]; ok {
		return "", err
	}
	return f.docs[title], nil
}

// waitForCompleted polls until the cache reports at least n completed
// entries or the deadline passes.
func waitForCompleted(t *testing.T, c *Cache, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		c.reconcileLocked()
		done := len(c.completed)
		c.mu.Unlock()
		if done >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d completed fetches", n)
}

func TestCachePrefetchAndConsume(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.docs["Go"] = "<html>go</html>"

	c := NewCache(fetcher, WithWorkers(2))
	defer func() { c.Close(); c.Wait() }()

	c.Prefetch([]string{"Go"})
	waitForCompleted(t, c, 1)

	t.Run("completed entry served from cache", func(t *testing.T) {
		doc := c.GetDocument(context.Background(), "Go")
		if doc != "<html>go</html>" {
			t.Errorf("expected cached document, got %q", doc)
		}
		if got := fetcher.count.Load(); got != 1 {
			t.Errorf("expected 1 fetch, got %d", got)
		}
	})

	t.Run("entry consumed on first read", func(t *testing.T) {
		// The second read misses the cache and fetches again.
		doc := c.GetDocument(context.Background(), "Go")
		if doc != "<html>go</html>" {
			t.Errorf("expected refetched document, got %q", doc)
		}
		if got := fetcher.count.Load(); got != 2 {
			t.Errorf("expected second fetch after consumption, got %d", got)
		}
	})
}

func TestCachePrefetchIdempotent(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.docs["Go"] = "doc"

	c := NewCache(fetcher, WithWorkers(2))
	defer func() { c.Close(); c.Wait() }()

	c.Prefetch([]string{"Go"})
	c.Prefetch([]string{"Go", "Go"})
	waitForCompleted(t, c, 1)
	c.Prefetch([]string{"Go"})

	time.Sleep(20 * time.Millisecond)
	if got := fetcher.count.Load(); got != 1 {
		t.Errorf("expected exactly 1 fetch for repeated prefetches, got %d", got)
	}
}

func TestCacheGetDocumentWaitsForInflight(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.docs["Slow"] = "slow doc"
	fetcher.gate = make(chan struct{})

	c := NewCache(fetcher, WithWorkers(1), WithWaitTimeout(2*time.Second))
	defer func() { c.Close(); c.Wait() }()

	c.Prefetch([]string{"Slow"})

	// Release the in-flight fetch shortly after GetDocument starts waiting.
	go func() {
		time.Sleep(30 * time.Millisecond)
		close(fetcher.gate)
	}()

	doc := c.GetDocument(context.Background(), "Slow")
	if doc != "slow doc" {
		t.Errorf("expected the awaited document, got %q", doc)
	}
	if got := fetcher.count.Load(); got != 1 {
		t.Errorf("expected the in-flight fetch to be reused, got %d fetches", got)
	}
}

func TestCacheWaitTimeoutFallsBackToSyncFetch(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.docs["Stuck"] = "eventually"
	fetcher.gate = make(chan struct{})

	c := NewCache(fetcher, WithWorkers(1), WithWaitTimeout(20*time.Millisecond))
	defer func() { c.Close(); c.Wait() }()

	c.Prefetch([]string{"Stuck"})
	time.Sleep(10 * time.Millisecond) // Let the worker pick the job up

	// The first fetch is gated forever from this test's perspective; after
	// the wait times out, GetDocument fetches synchronously. Release the
	// gate so the synchronous call can proceed.
	go func() {
		time.Sleep(40 * time.Millisecond)
		close(fetcher.gate)
	}()

	doc := c.GetDocument(context.Background(), "Stuck")
	if doc != "eventually" {
		t.Errorf("expected fallback fetch to succeed, got %q", doc)
	}
	if got := fetcher.count.Load(); got != 2 {
		t.Errorf("expected wait timeout to trigger a second fetch, got %d", got)
	}
}

func TestCacheUnknownTitleFetchedSynchronously(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.docs["Fresh"] = "fresh doc"

	c := NewCache(fetcher)
	defer func() { c.Close(); c.Wait() }()

	doc := c.GetDocument(context.Background(), "Fresh")
	if doc != "fresh doc" {
		t.Errorf("expected synchronous fetch, got %q", doc)
	}
	if got := fetcher.count.Load(); got != 1 {
		t.Errorf("expected 1 fetch, got %d", got)
	}
}

func TestCacheFetchFailureYieldsEmptyDocument(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.errs["Broken"] = errors.New("connection refused")

	c := NewCache(fetcher, WithWorkers(1))
	defer func() { c.Close(); c.Wait() }()

	t.Run("synchronous failure", func(t *testing.T) {
		if doc := c.GetDocument(context.Background(), "Broken"); doc != "" {
			t.Errorf("expected empty document, got %q", doc)
		}
	})

	t.Run("prefetched failure", func(t *testing.T) {
		c.Prefetch([]string{"Broken"})
		waitForCompleted(t, c, 1)
		if doc := c.GetDocument(context.Background(), "Broken"); doc != "" {
			t.Errorf("expected empty document from failed prefetch, got %q", doc)
		}
	})
}

func TestCacheGetDocumentHonorsContext(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.docs["Slow"] = "doc"
	fetcher.gate = make(chan struct{})
	defer close(fetcher.gate)

	c := NewCache(fetcher, WithWorkers(1), WithWaitTimeout(5*time.Second))
	defer func() { c.Close(); c.Wait() }()

	c.Prefetch([]string{"Slow"})
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	doc := c.GetDocument(ctx, "Slow")
	if doc != "" {
		t.Errorf("expected empty document on cancellation, got %q", doc)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancellation took too long: %v", elapsed)
	}
}

func TestCacheStats(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.docs["A"] = "a"
	fetcher.docs["B"] = "b"

	c := NewCache(fetcher, WithWorkers(2))
	defer func() { c.Close(); c.Wait() }()

	c.Prefetch([]string{"A", "B"})
	waitForCompleted(t, c, 2)

	pending, completed := c.Stats()
	if pending != 0 || completed != 2 {
		t.Errorf("expected 0 pending / 2 completed, got %d / %d", pending, completed)
	}
}
