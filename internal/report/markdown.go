package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"

	"github.com/155xp/WikiSpeedrun-Solver/internal/solver"
	"github.com/155xp/WikiSpeedrun-Solver/internal/wiki"
)

// MarkdownWriter outputs results in GitHub-flavored Markdown,
// suitable for sharing a run in an issue or README.
//
// Design decision: We use the nao1215/markdown library for fluent,
// type-safe markdown generation instead of string concatenation.
type MarkdownWriter struct {
	baseWriter
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithMarkdownPageURLs configures the writer to link path entries to the
// live articles.
func WithMarkdownPageURLs(baseURL string) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.baseURL = baseURL
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given
// writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{baseWriter: baseWriter{output: output}}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the result in Markdown format.
func (w *MarkdownWriter) Write(result *solver.Result) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Wikipedia Race")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Start", w.pageLink(result.Start)},
			{"Target", w.pageLink(result.Target)},
			{"Status", statusText(result.Status)},
			{"Hops", strconv.Itoa(result.Hops())},
			{"Time", result.Elapsed.Round(10 * time.Millisecond).String()},
		},
	})
	md.PlainText("")

	if len(result.Steps) > 0 {
		md.H2("Path")
		md.PlainText("")

		rows := make([][]string, 0, len(result.Steps))
		for i, step := range result.Steps {
			score := fmt.Sprintf("%.3f", step.Score)
			if step.DirectHit {
				score = "direct hit"
			}
			rows = append(rows, []string{
				strconv.Itoa(i + 1),
				w.pageLink(step.Page),
				score,
				step.Elapsed.Round(10 * time.Millisecond).String(),
			})
		}
		md.Table(markdown.TableSet{
			Header: []string{"#", "Article", "Score", "Step time"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	return len(md.String()), md.Build()
}

// pageLink renders a title as a markdown link when a base URL is set.
func (w *MarkdownWriter) pageLink(title string) string {
	display := wiki.Display(title)
	if w.baseURL == "" {
		return display
	}
	return "[" + display + "](" + w.baseURL + title + ")"
}

// statusText renders a terminal status with an indicator.
func statusText(status solver.Status) string {
	switch status {
	case solver.StatusFound:
		return "✅ " + string(status)
	case solver.StatusDeadEnd:
		return "🚧 " + string(status)
	case solver.StatusBudgetExceeded:
		return "⏱️ " + string(status)
	default:
		return string(status)
	}
}
