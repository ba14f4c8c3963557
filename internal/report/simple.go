package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/155xp/WikiSpeedrun-Solver/internal/solver"
	"github.com/155xp/WikiSpeedrun-Solver/internal/wiki"
)

// SimpleWriter outputs human-readable text results.
//
// Design decision: Plain text with ASCII formatting rather than ANSI
// colors because it works in every terminal and pipes cleanly into files
// and other tools.
type SimpleWriter struct {
	baseWriter
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithPageURLs configures the writer to print full article URLs in the
// path listing.
func WithPageURLs(baseURL string) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.baseURL = baseURL
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: baseWriter{output: output}}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the result as a text report.
func (w *SimpleWriter) Write(result *solver.Result) (int, error) {
	var sb strings.Builder

	divider := strings.Repeat("=", 60)

	sb.WriteString(divider + "\n")
	fmt.Fprintf(&sb, "%s -> %s\n", wiki.Display(result.Start), wiki.Display(result.Target))
	fmt.Fprintf(&sb, "Status: %s | Hops: %d | Time: %s\n",
		result.Status, result.Hops(), result.Elapsed.Round(10*time.Millisecond))
	sb.WriteString(divider + "\n\n")

	sb.WriteString("Path taken:\n")
	for _, title := range result.Path {
		fmt.Fprintf(&sb, "  %s\n", w.pageURL(title))
	}

	if len(result.Steps) > 0 {
		sb.WriteString("\nSteps:\n")
		for i, step := range result.Steps {
			label := fmt.Sprintf("score: %.3f", step.Score)
			if step.DirectHit {
				label = "direct hit"
			}
			fmt.Fprintf(&sb, "  %2d. %s (%s) [%s]\n",
				i+1, wiki.Display(step.Page), label, step.Elapsed.Round(10*time.Millisecond))
		}
	}

	return w.output.Write([]byte(sb.String()))
}
