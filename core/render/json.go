// Package render provides output renderers for validation run results.
// This file implements the JSON renderer, the canonical machine-readable
// envelope: run metadata plus the validation report.
package render

import (
	"encoding/json"
	"fmt"

	"github.com/gaurav-prasanna/clausecheck/core"
)

// JSONRenderer produces the structured JSON envelope for a run.
type JSONRenderer struct{}

// NewJSONRenderer creates a JSONRenderer.
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

// Render marshals the run result with indentation.
func (r *JSONRenderer) Render(result core.RunResult) ([]byte, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}
	return data, nil
}

// Extension returns the file extension for JSON output.
func (r *JSONRenderer) Extension() string {
	return ".json"
}
