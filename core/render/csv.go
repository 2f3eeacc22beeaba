// Package render — CSV renderer.
// Flattens the validation report into the standardized review-sheet shape:
// validation_item | extracted_value | status. One row for the aggregate
// status, one per modified section.
package render

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/gaurav-prasanna/clausecheck/core"
)

// CSVRenderer produces the flat spreadsheet-style report.
type CSVRenderer struct{}

// NewCSVRenderer creates a CSVRenderer.
func NewCSVRenderer() *CSVRenderer {
	return &CSVRenderer{}
}

// Render writes the report rows as CSV.
func (r *CSVRenderer) Render(result core.RunResult) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	rows := [][]string{
		{"validation_item", "extracted_value", "status"},
		{"service_description.validation_status", "", string(result.Validation.ValidationStatus)},
	}
	for _, verdict := range result.Validation.ModifiedSections {
		rows = append(rows, []string{
			fmt.Sprintf("service_description.%s", verdict.Section),
			verdict.DifferenceSummary,
			string(verdict.Status),
		})
	}

	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("writing CSV: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing CSV: %w", err)
	}
	return buf.Bytes(), nil
}

// Extension returns the file extension for CSV output.
func (r *CSVRenderer) Extension() string {
	return ".csv"
}
