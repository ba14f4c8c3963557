package solver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/155xp/WikiSpeedrun-Solver/internal/extract"
	"github.com/155xp/WikiSpeedrun-Solver/internal/score"
)

// Status is the terminal state of a run.
type Status string

// Terminal states. DeadEnd and BudgetExceeded are normal, reportable
// outcomes, not errors.
const (
	// StatusFound means the target page was reached.
	StatusFound Status = "found"

	// StatusDeadEnd means a page yielded no unvisited candidates.
	StatusDeadEnd Status = "dead-end"

	// StatusBudgetExceeded means the step budget ran out before the
	// target was reached.
	StatusBudgetExceeded Status = "budget-exceeded"
)

// DocumentSource supplies page documents. Satisfied by prefetch.Cache.
type DocumentSource interface {
	// GetDocument returns the document for a title, or "" on failure.
	GetDocument(ctx context.Context, title string) string

	// Prefetch warms the cache for likely next hops. Never blocks.
	Prefetch(titles []string)
}

// Ranker orders candidates by similarity to the target embedding.
// Satisfied by score.Scorer.
type Ranker interface {
	Rank(ctx context.Context, candidates []extract.Candidate, target []float32, topN int) (score.Ranking, error)
}

// Step records one committed hop.
type Step struct {
	// Page is the title the engine moved to.
	Page string `json:"page"`

	// Score is the cosine similarity that selected the page.
	// Zero for direct hits, which bypass scoring.
	Score float64 `json:"score"`

	// DirectHit marks a hop taken because the page linked straight to
	// the target.
	DirectHit bool `json:"direct_hit,omitempty"`

	// Candidates is how many post-filter candidates were considered.
	Candidates int `json:"candidates"`

	// Elapsed is the wall time of the whole step, fetch included.
	Elapsed time.Duration `json:"elapsed"`
}

// Result is the externally observable outcome of a run.
type Result struct {
	// Start and Target are canonical article titles.
	Start  string `json:"start"`
	Target string `json:"target"`

	// Status is the terminal state reached.
	Status Status `json:"status"`

	// Path is the ordered sequence of visited titles, starting at Start.
	Path []string `json:"path"`

	// Steps holds per-hop details, parallel to Path[1:].
	Steps []Step `json:"steps"`

	// Elapsed is the total run duration.
	Elapsed time.Duration `json:"elapsed"`
}

// Hops returns the number of edges traversed.
func (r *Result) Hops() int {
	return len(r.Path) - 1
}

// Engine orchestrates the traversal loop.
type Engine struct {
	source DocumentSource
	ranker Ranker

	// maxLinks caps post-filter candidates per step, in extraction order.
	// Bounds scoring cost on link-dense pages at the accepted risk of
	// cutting a better late candidate.
	maxLinks int

	// topN is how many ranked candidates to report and prefetch.
	topN int

	// maxSteps bounds the walk on pathological graphs.
	maxSteps int

	// stepDelay is optional pacing between steps.
	stepDelay time.Duration

	logger *slog.Logger

	// progress, when set, is called after each committed hop.
	progress func(Step)
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithMaxLinks caps the number of candidates scored per step.
func WithMaxLinks(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxLinks = n
		}
	}
}

// WithTopN sets how many ranked candidates are speculatively prefetched.
func WithTopN(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.topN = n
		}
	}
}

// WithMaxSteps bounds the number of hops before the run is declared over
// budget.
func WithMaxSteps(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxSteps = n
		}
	}
}

// WithStepDelay inserts a pause between steps as a politeness setting.
func WithStepDelay(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d >= 0 {
			e.stepDelay = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithProgress registers a callback invoked after every committed hop.
// The callback runs on the traversal goroutine; it must not block for
// long or it stalls the run.
func WithProgress(fn func(Step)) EngineOption {
	return func(e *Engine) {
		e.progress = fn
	}
}

// NewEngine creates an Engine over the given document source and ranker.
func NewEngine(source DocumentSource, ranker Ranker, opts ...EngineOption) *Engine {
	e := &Engine{
		source:    source,
		ranker:    ranker,
		maxLinks:  150,
		topN:      8,
		maxSteps:  100,
		stepDelay: 200 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}

	return e
}

// Run walks from start toward target and returns the terminal result.
//
// The returned error is non-nil only for conditions fatal to the run:
// embedding failure or context cancellation. In both cases the partial
// result accumulated so far is returned alongside the error. Dead ends
// and exhausted budgets are normal results.
func (e *Engine) Run(ctx context.Context, start, target string, targetEmbedding []float32) (*Result, error) {
	result := &Result{
		Start:  start,
		Target: target,
		Path:   []string{start},
	}

	current := start
	visited := map[string]bool{start: true}
	runStart := time.Now()

	defer func() {
		result.Elapsed = time.Since(runStart)
	}()

	if current == target {
		result.Status = StatusFound
		return result, nil
	}

	for hop := 0; ; hop++ {
		if hop >= e.maxSteps {
			e.logger.Warn("step budget exhausted",
				"maxSteps", e.maxSteps,
				"pathLen", len(result.Path),
			)
			result.Status = StatusBudgetExceeded
			return result, nil
		}

		stepStart := time.Now()

		doc := e.source.GetDocument(ctx, current)
		if err := ctx.Err(); err != nil {
			return result, err
		}

		candidates := e.collectCandidates(doc, visited)

		e.logger.Debug("step candidates",
			"page", current,
			"candidates", len(candidates),
		)

		if len(candidates) == 0 {
			result.Status = StatusDeadEnd
			return result, nil
		}

		// A page linking straight to the target is always taken; no
		// amount of ranking beats an edge into the goal.
		if containsTitle(candidates, target) {
			step := Step{
				Page:       target,
				DirectHit:  true,
				Candidates: len(candidates),
				Elapsed:    time.Since(stepStart),
			}
			result.Path = append(result.Path, target)
			result.Steps = append(result.Steps, step)
			result.Status = StatusFound
			e.report(step)
			return result, nil
		}

		ranking, err := e.ranker.Rank(ctx, candidates, targetEmbedding, e.topN)
		if err != nil {
			return result, fmt.Errorf("rank candidates on %q: %w", current, err)
		}

		// Warm the cache for the likely next hops. Visited titles can
		// never be selected again, so fetching them would be pure waste.
		e.source.Prefetch(withoutVisited(ranking.Top, visited))

		visited[ranking.Best] = true
		result.Path = append(result.Path, ranking.Best)
		current = ranking.Best

		step := Step{
			Page:       ranking.Best,
			Score:      ranking.BestScore,
			Candidates: len(candidates),
			Elapsed:    time.Since(stepStart),
		}
		result.Steps = append(result.Steps, step)
		e.report(step)

		if current == target {
			result.Status = StatusFound
			return result, nil
		}

		if e.stepDelay > 0 {
			timer := time.NewTimer(e.stepDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return result, ctx.Err()
			case <-timer.C:
			}
		}
	}
}

// collectCandidates extracts links from a document, removes visited
// titles, and truncates to the per-step cap in extraction order.
func (e *Engine) collectCandidates(doc string, visited map[string]bool) []extract.Candidate {
	all := extract.Extract(doc)

	candidates := make([]extract.Candidate, 0, len(all))
	for _, c := range all {
		if visited[c.Title] {
			continue
		}
		candidates = append(candidates, c)
		if len(candidates) == e.maxLinks {
			break
		}
	}
	return candidates
}

// report invokes the progress callback if one is registered.
func (e *Engine) report(step Step) {
	if e.progress != nil {
		e.progress(step)
	}
}

// containsTitle reports whether any candidate targets the given title.
func containsTitle(candidates []extract.Candidate, title string) bool {
	for _, c := range candidates {
		if c.Title == title {
			return true
		}
	}
	return false
}

// withoutVisited filters visited titles out of a slice, preserving order.
func withoutVisited(titles []string, visited map[string]bool) []string {
	out := make([]string, 0, len(titles))
	for _, t := range titles {
		if !visited[t] {
			out = append(out, t)
		}
	}
	return out
}
