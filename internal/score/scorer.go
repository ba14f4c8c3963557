package score

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/155xp/WikiSpeedrun-Solver/internal/embed"
	"github.com/155xp/WikiSpeedrun-Solver/internal/extract"
)

// ErrNoCandidates is returned when Rank is called with an empty slice.
// Callers should treat an empty candidate set as a dead end before ranking.
var ErrNoCandidates = errors.New("no candidates to rank")

// Ranking is the result of scoring one candidate set.
type Ranking struct {
	// Best is the title of the highest-scoring candidate.
	Best string

	// BestScore is its cosine similarity to the target.
	BestScore float64

	// Top holds up to topN titles, best first. Top[0] == Best.
	Top []string
}

// Scorer ranks candidates against a fixed target embedding.
//
// The memo table is shared mutable state: the traversal loop calls Rank
// while cache workers are idle, but nothing prevents future concurrent
// use, and the table survives across calls. A single mutex is enough;
// entries are small and access is rare relative to network latency.
type Scorer struct {
	embedder embed.Embedder

	// mu guards memo.
	mu sync.Mutex

	// memo maps a context string to its embedding. Content-addressed, not
	// page-addressed: the same snippet on two pages costs one embed call.
	memo map[string][]float32
}

// NewScorer creates a Scorer using the given embedder.
func NewScorer(embedder embed.Embedder) *Scorer {
	return &Scorer{
		embedder: embedder,
		memo:     make(map[string][]float32),
	}
}

// MemoSize returns the number of memoized context embeddings.
func (s *Scorer) MemoSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.memo)
}

// Rank scores candidates against the target embedding and returns them
// ordered best first, truncated to topN.
//
// Ordering is deterministic: descending score with ties broken by the
// candidates' original order (stable sort). Embedding errors are returned
// as-is; they are fatal to the run by design.
func (s *Scorer) Rank(ctx context.Context, candidates []extract.Candidate, target []float32, topN int) (Ranking, error) {
	if len(candidates) == 0 {
		return Ranking{}, ErrNoCandidates
	}

	if err := s.embedMissing(ctx, candidates); err != nil {
		return Ranking{}, err
	}

	// Single candidate: no ordering to compute, but the caller still
	// wants a real score for progress output.
	if len(candidates) == 1 {
		c := candidates[0]
		sc := Cosine(s.lookup(c.Context), target)
		return Ranking{Best: c.Title, BestScore: sc, Top: []string{c.Title}}, nil
	}

	type scored struct {
		title string
		score float64
	}
	all := make([]scored, len(candidates))
	for i, c := range candidates {
		all[i] = scored{title: c.Title, score: Cosine(s.lookup(c.Context), target)}
	}

	// Stable keeps insertion order for equal scores, which makes ranking
	// reproducible in tests and across runs.
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].score > all[j].score
	})

	n := min(topN, len(all))
	top := make([]string, n)
	for i := range n {
		top[i] = all[i].title
	}

	return Ranking{Best: all[0].title, BestScore: all[0].score, Top: top}, nil
}

// embedMissing computes embeddings for every distinct context string not
// yet in the memo table, in one batched call.
func (s *Scorer) embedMissing(ctx context.Context, candidates []extract.Candidate) error {
	s.mu.Lock()
	missing := make([]string, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if _, ok := s.memo[c.Context]; ok || seen[c.Context] {
			continue
		}
		seen[c.Context] = true
		missing = append(missing, c.Context)
	}
	s.mu.Unlock()

	if len(missing) == 0 {
		return nil
	}

	vectors, err := s.embedder.EmbedBatch(ctx, missing)
	if err != nil {
		return fmt.Errorf("embed %d contexts: %w", len(missing), err)
	}

	s.mu.Lock()
	for i, text := range missing {
		s.memo[text] = vectors[i]
	}
	s.mu.Unlock()

	return nil
}

// lookup returns the memoized embedding for a context string.
func (s *Scorer) lookup(text string) []float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memo[text]
}

// Cosine returns the cosine similarity between two vectors.
// Mismatched lengths or zero vectors score 0 rather than erroring; a
// degenerate embedding should rank last, not kill the run.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
