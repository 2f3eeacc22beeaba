// Package validate drives the clause validation pipeline: presence gate,
// clause excerpting, alignment, per-section comparison, aggregation.
package validate

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/gaurav-prasanna/clausecheck/core"
	"github.com/gaurav-prasanna/clausecheck/core/align"
	"github.com/gaurav-prasanna/clausecheck/core/compare"
)

var (
	// clauseMarkerRegex is a loose "Attachment 1: Service Description"
	// pattern, tolerant of punctuation and spacing between the words.
	clauseMarkerRegex = regexp.MustCompile(`(?i)attachment\s*1[^a-zA-Z0-9]*service\s*description`)
	clauseEndRegex    = regexp.MustCompile(`(?i)attachment\s*2`)
)

// Validator validates contract documents against the shared reference.
// The reference is read-only after construction, so one Validator serves
// any number of sequential runs.
type Validator struct {
	ref        *core.Reference
	comparator *compare.Comparator
	logger     *zap.Logger
}

// New creates a Validator bound to a reference and a comparator.
func New(ref *core.Reference, comparator *compare.Comparator, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{ref: ref, comparator: comparator, logger: logger}
}

// Reference exposes the canonical section list the validator compares
// against.
func (v *Validator) Reference() *core.Reference { return v.ref }

// Run validates one contract document. The caller gets either a complete
// report or a single error for the whole run; there is no partial result.
//
// The governing-clause gate runs on the raw pre-normalization text. When the
// marker is absent the report is Missing with an empty verdict list and the
// oracle is never invoked. Aligned sections with empty contract text are
// skipped entirely: "absent" and "identical" are different facts, and the
// report currently records neither at section granularity.
func (v *Validator) Run(ctx context.Context, contractText string) (core.Report, core.TokenUsage, error) {
	report := core.Report{
		ValidationStatus: core.StatusCorrect,
		ModifiedSections: make([]core.Verdict, 0),
	}
	var usage core.TokenUsage

	excerpt, ok := ClauseExcerpt(contractText)
	if !ok {
		report.ValidationStatus = core.StatusMissing
		return report, usage, nil
	}

	for _, sec := range align.Align(excerpt, v.ref) {
		if strings.TrimSpace(sec.ContractText) == "" {
			continue
		}
		verdict, u, err := v.comparator.Compare(ctx, sec)
		if err != nil {
			return core.Report{}, usage, err
		}
		usage = usage.Add(u)
		if verdict.Status == core.VerdictModified {
			report.ModifiedSections = append(report.ModifiedSections, verdict)
		}
	}

	if len(report.ModifiedSections) > 0 {
		report.ValidationStatus = core.StatusMismatch
	}
	v.logger.Info("validation run complete",
		zap.String("status", string(report.ValidationStatus)),
		zap.Int("modified_sections", len(report.ModifiedSections)))
	return report, usage, nil
}

// ClauseExcerpt returns the span of the contract from the governing-clause
// marker up to the next "Attachment 2" marker, or the document end when no
// such marker follows. ok is false when the governing clause is absent.
func ClauseExcerpt(text string) (string, bool) {
	loc := clauseMarkerRegex.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	rest := text[loc[0]:]
	if end := clauseEndRegex.FindStringIndex(rest); end != nil {
		rest = rest[:end[0]]
	}
	return strings.TrimSpace(rest), true
}
