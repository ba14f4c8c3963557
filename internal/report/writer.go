package report

import (
	"io"

	"github.com/155xp/WikiSpeedrun-Solver/internal/solver"
)

// Writer defines the interface for result output.
//
// Design decision: An interface so the CLI can select a format at runtime
// and tests can assert against a bytes.Buffer with any implementation.
type Writer interface {
	// Write outputs the result to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(result *solver.Result) (int, error)
}

// baseWriter provides common state for result writers.
type baseWriter struct {
	output io.Writer

	// baseURL, when set, turns path titles into full article URLs.
	baseURL string
}

// pageURL returns the article URL for a title, or the title itself when
// no base URL is configured.
func (b baseWriter) pageURL(title string) string {
	if b.baseURL == "" {
		return title
	}
	return b.baseURL + title
}
