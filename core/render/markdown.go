// Package render — Markdown renderer.
// Produces the human-readable summary of a validation run.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/gaurav-prasanna/clausecheck/core"
)

// MarkdownRenderer writes the run result as a readable markdown report.
type MarkdownRenderer struct{}

// NewMarkdownRenderer creates a MarkdownRenderer.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// Render formats the report as markdown.
func (r *MarkdownRenderer) Render(result core.RunResult) ([]byte, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "# Contract Validation Report\n\n")
	if result.Metadata.FileName != "" {
		fmt.Fprintf(&b, "- **Document:** %s\n", result.Metadata.FileName)
	}
	fmt.Fprintf(&b, "- **Run:** %s\n", result.Metadata.RunID)
	fmt.Fprintf(&b, "- **Processed:** %s\n", result.Metadata.ProcessedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- **Status:** %s\n\n", result.Validation.ValidationStatus)

	switch result.Validation.ValidationStatus {
	case core.StatusMissing:
		fmt.Fprintf(&b, "The governing clause (Attachment 1: Service Description) was not found in the contract.\n")
	case core.StatusCorrect:
		fmt.Fprintf(&b, "All compared sections match the reference service description.\n")
	case core.StatusMismatch:
		fmt.Fprintf(&b, "## Modified sections\n\n")
		for _, verdict := range result.Validation.ModifiedSections {
			fmt.Fprintf(&b, "### %s\n\n%s\n\n", verdict.Section, verdict.DifferenceSummary)
		}
	}

	return []byte(b.String()), nil
}

// Extension returns the file extension for Markdown output.
func (r *MarkdownRenderer) Extension() string {
	return ".md"
}
