// Package core defines the shared types and stage interfaces for clausecheck.
// Each stage of the validation pipeline is a clean, testable interface.
package core

import (
	"context"
	"encoding/json"
	"time"
)

// ValidationStatus is the aggregate outcome of one validation run.
type ValidationStatus string

const (
	// StatusCorrect means every compared section matched the reference.
	StatusCorrect ValidationStatus = "Correct"
	// StatusMismatch means at least one section was judged Modified.
	StatusMismatch ValidationStatus = "Mismatch"
	// StatusMissing means the governing clause marker was absent from the
	// contract; no sections were compared at all.
	StatusMissing ValidationStatus = "Missing"
)

// VerdictStatus is the oracle's judgment for a single section.
type VerdictStatus string

const (
	VerdictMatch    VerdictStatus = "Match"
	VerdictModified VerdictStatus = "Modified"
)

// Section is a heading-delimited span of a markdown document.
// Index is the position in document order and the only ordering key;
// titles may repeat across unrelated documents.
type Section struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Index int    `json:"order_index"`
}

// Reference is the canonical section list built once from the static
// reference document. Read-only after construction; shared across runs.
type Reference struct {
	Sections []Section
}

// Headings returns the reference titles in document order.
func (r *Reference) Headings() []string {
	titles := make([]string, len(r.Sections))
	for i, s := range r.Sections {
		titles[i] = s.Title
	}
	return titles
}

// AlignedSection pairs a reference section with the contract text located
// for it. ContractText is empty when the heading was not found in the
// contract; absence is represented, never omitted.
type AlignedSection struct {
	Heading       string
	ReferenceText string
	ContractText  string
}

// Verdict is the oracle's per-section judgment.
type Verdict struct {
	Section           string        `json:"section"`
	Status            VerdictStatus `json:"status"`
	DifferenceSummary string        `json:"difference_summary"`
}

// Report is the aggregate result of one validation run.
// ModifiedSections holds only Modified verdicts, in reference order.
type Report struct {
	ValidationStatus ValidationStatus `json:"validation_status"`
	ModifiedSections []Verdict        `json:"modified_sections"`
}

// TokenUsage accumulates oracle token consumption across a run.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add returns the element-wise sum of two usages.
func (u TokenUsage) Add(other TokenUsage) TokenUsage {
	return TokenUsage{
		PromptTokens:     u.PromptTokens + other.PromptTokens,
		CompletionTokens: u.CompletionTokens + other.CompletionTokens,
		TotalTokens:      u.TotalTokens + other.TotalTokens,
	}
}

// OracleResult is the raw outcome of a single oracle call.
type OracleResult struct {
	Content string
	Usage   TokenUsage
}

// Oracle is the external semantic-comparison boundary: one blocking
// chat-style call, free text in, free text out. Implementations surface
// transport failures as errors; interpreting the text is the caller's job.
type Oracle interface {
	Complete(ctx context.Context, system, user string) (*OracleResult, error)
}

// RunMetadata describes one validation run for the output envelope.
type RunMetadata struct {
	RunID           string     `json:"run_id"`
	FileName        string     `json:"file_name,omitempty"`
	Source          string     `json:"source"`
	ProcessedAt     time.Time  `json:"processed_at"`
	DurationSeconds float64    `json:"duration_seconds"`
	Usage           TokenUsage `json:"usage"`
}

// RunResult is a complete validation run: metadata plus the report.
type RunResult struct {
	Metadata   RunMetadata `json:"metadata"`
	Validation Report      `json:"validation"`
}

// AnalysisResult is a complete whole-contract analysis run. Result is the
// extraction JSON exactly as the model produced it; its schema belongs to the
// deployment's templates, not to this program.
type AnalysisResult struct {
	Metadata RunMetadata     `json:"metadata"`
	Result   json.RawMessage `json:"result"`
}

// Renderer converts a run result into a final output format.
type Renderer interface {
	Render(result RunResult) ([]byte, error)
	// Extension returns the file extension for this renderer (e.g. ".json").
	Extension() string
}
