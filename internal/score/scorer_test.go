package score

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/155xp/WikiSpeedrun-Solver/internal/extract"
)

// fakeEmbedder maps known texts to fixed vectors and counts texts embedded.
type fakeEmbedder struct {
	vectors  map[string][]float32
	embedded atomic.Int64
	err      error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.embedded.Add(int64(len(texts)))
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if v, ok := f.vectors[text]; ok {
			out[i] = v
		} else {
			out[i] = []float32{0, 0, 1}
		}
	}
	return out, nil
}

func TestCosine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical vectors", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"opposite vectors", []float32{1, 0}, []float32{-1, 0}, -1},
		{"orthogonal vectors", []float32{1, 0}, []float32{0, 1}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"mismatched lengths", []float32{1, 2}, []float32{1, 2, 3}, 0},
		{"empty vectors", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Cosine(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cosine(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestRankOrdersByDescendingScore(t *testing.T) {
	t.Parallel()

	target := []float32{1, 0, 0}
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"about cats":  {0, 1, 0},   // orthogonal, score 0
		"about paris": {1, 0, 0},   // identical, score 1
		"about food":  {1, 1, 0},   // score ~0.707
		"about rocks": {-1, 0, 0},  // score -1
		"about wine":  {0.5, 1, 0}, // score ~0.447
	}}

	candidates := []extract.Candidate{
		{Title: "Cat", Context: "about cats"},
		{Title: "Paris", Context: "about paris"},
		{Title: "Food", Context: "about food"},
		{Title: "Rock", Context: "about rocks"},
		{Title: "Wine", Context: "about wine"},
	}

	scorer := NewScorer(embedder)
	ranking, err := scorer.Rank(context.Background(), candidates, target, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ranking.Best != "Paris" {
		t.Errorf("expected best Paris, got %s", ranking.Best)
	}
	if math.Abs(ranking.BestScore-1) > 1e-6 {
		t.Errorf("expected best score 1, got %v", ranking.BestScore)
	}

	want := []string{"Paris", "Food", "Wine"}
	if len(ranking.Top) != len(want) {
		t.Fatalf("expected top %v, got %v", want, ranking.Top)
	}
	for i := range want {
		if ranking.Top[i] != want[i] {
			t.Errorf("top[%d]: expected %s, got %s", i, want[i], ranking.Top[i])
		}
	}
}

func TestRankBreaksTiesByInsertionOrder(t *testing.T) {
	t.Parallel()

	target := []float32{1, 0}
	// Identical contexts embed identically, so all scores tie.
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"same snippet": {1, 0},
	}}

	candidates := []extract.Candidate{
		{Title: "First", Context: "same snippet"},
		{Title: "Second", Context: "same snippet"},
		{Title: "Third", Context: "same snippet"},
	}

	scorer := NewScorer(embedder)
	for run := 0; run < 3; run++ {
		ranking, err := scorer.Rank(context.Background(), candidates, target, 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ranking.Best != "First" {
			t.Errorf("run %d: tie should go to the earliest candidate, got %s", run, ranking.Best)
		}
		want := []string{"First", "Second", "Third"}
		for i := range want {
			if ranking.Top[i] != want[i] {
				t.Errorf("run %d: top[%d] = %s, want %s", run, i, ranking.Top[i], want[i])
			}
		}
	}
}

func TestRankMemoizesContexts(t *testing.T) {
	t.Parallel()

	target := []float32{1, 0}
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"shared context": {1, 0},
		"unique context": {0, 1},
	}}

	scorer := NewScorer(embedder)

	// Two candidates carry the same snippet: one embed call for it.
	first := []extract.Candidate{
		{Title: "A", Context: "shared context"},
		{Title: "B", Context: "shared context"},
		{Title: "C", Context: "unique context"},
	}
	if _, err := scorer.Rank(context.Background(), first, target, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := embedder.embedded.Load(); got != 2 {
		t.Errorf("expected 2 distinct contexts embedded, got %d", got)
	}
	if scorer.MemoSize() != 2 {
		t.Errorf("expected memo size 2, got %d", scorer.MemoSize())
	}

	// A later page reusing a known snippet embeds nothing new.
	second := []extract.Candidate{
		{Title: "D", Context: "shared context"},
	}
	if _, err := scorer.Rank(context.Background(), second, target, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := embedder.embedded.Load(); got != 2 {
		t.Errorf("expected no new embeds for a memoized context, got %d", got)
	}
}

func TestRankSingleCandidate(t *testing.T) {
	t.Parallel()

	target := []float32{1, 0}
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"only option": {1, 1},
	}}

	scorer := NewScorer(embedder)
	ranking, err := scorer.Rank(context.Background(), []extract.Candidate{
		{Title: "Only", Context: "only option"},
	}, target, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ranking.Best != "Only" {
		t.Errorf("expected Only, got %s", ranking.Best)
	}
	if math.Abs(ranking.BestScore-1/math.Sqrt2) > 1e-6 {
		t.Errorf("expected a real score for a single candidate, got %v", ranking.BestScore)
	}
	if len(ranking.Top) != 1 || ranking.Top[0] != "Only" {
		t.Errorf("expected top [Only], got %v", ranking.Top)
	}
}

func TestRankErrors(t *testing.T) {
	t.Parallel()

	t.Run("empty candidates", func(t *testing.T) {
		t.Parallel()
		scorer := NewScorer(&fakeEmbedder{})
		_, err := scorer.Rank(context.Background(), nil, []float32{1}, 5)
		if !errors.Is(err, ErrNoCandidates) {
			t.Errorf("expected ErrNoCandidates, got %v", err)
		}
	})

	t.Run("embedder failure propagates", func(t *testing.T) {
		t.Parallel()
		wantErr := errors.New("embedding server down")
		scorer := NewScorer(&fakeEmbedder{err: wantErr})
		_, err := scorer.Rank(context.Background(), []extract.Candidate{
			{Title: "A", Context: "ctx"},
		}, []float32{1}, 5)
		if !errors.Is(err, wantErr) {
			t.Errorf("expected wrapped embedder error, got %v", err)
		}
	})
}

func TestRankTruncatesToTopN(t *testing.T) {
	t.Parallel()

	embedder := &fakeEmbedder{vectors: map[string][]float32{}}
	candidates := make([]extract.Candidate, 10)
	for i := range candidates {
		candidates[i] = extract.Candidate{
			Title:   string(rune('A' + i)),
			Context: "context " + string(rune('A'+i)),
		}
	}

	scorer := NewScorer(embedder)
	ranking, err := scorer.Rank(context.Background(), candidates, []float32{0, 0, 1}, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranking.Top) != 4 {
		t.Errorf("expected top truncated to 4, got %d", len(ranking.Top))
	}
}
