package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/155xp/WikiSpeedrun-Solver/internal/solver"
)

// JSONWriter outputs results as indented JSON.
// The solver.Result struct carries JSON tags, so the report is the result
// itself; no separate view model is needed.
type JSONWriter struct {
	baseWriter
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer) *JSONWriter {
	return &JSONWriter{baseWriter: baseWriter{output: output}}
}

// Write outputs the result as JSON.
func (w *JSONWriter) Write(result *solver.Result) (int, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return 0, err
	}
	return w.output.Write(buf.Bytes())
}
