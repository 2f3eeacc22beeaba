// Package compare asks the semantic-comparison oracle for a per-section
// verdict and parses its answer defensively. The oracle is a text-generation
// endpoint: its output is expected to contain one JSON object but is never
// trusted to.
package compare

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/gaurav-prasanna/clausecheck/core"
)

const (
	// Excerpts are truncated independently so each comparison call stays
	// cheap and inside request limits. Lossy; long sections are not chunked.
	maxExcerptChars = 3000
	maxSummaryChars = 400

	systemPrompt = "You are a precise and helpful contract comparison assistant."
)

const promptTemplate = `You are a contract comparison assistant.

Compare the meaning of the following two sections:

Reference heading: %[1]s
Reference text:
"""%[2]s"""

Contract text:
"""%[3]s"""

Instructions:
- Ignore formatting differences, punctuation, spacing, and trivial words like "Internal", "Draft", "Confidential".
- Only detect meaningful semantic differences.
- Refer to the contract text as the contract document and the reference text as the reference document.
- Return strictly JSON:

{
  "section": "%[1]s",
  "status": "Match" or "Modified",
  "difference_summary": "short summary of the difference"
}`

// jsonObjectRegex pulls the first brace-delimited object out of free text.
var jsonObjectRegex = regexp.MustCompile(`(?s)\{.*\}`)

// Comparator turns one aligned section into one verdict via the oracle.
type Comparator struct {
	oracle core.Oracle
	logger *zap.Logger
}

// New creates a Comparator.
func New(oracle core.Oracle, logger *zap.Logger) *Comparator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Comparator{oracle: oracle, logger: logger}
}

// Compare invokes the oracle for one aligned section. Malformed oracle
// output degrades to a conservative Modified verdict; only transport
// failures return an error.
func (c *Comparator) Compare(ctx context.Context, sec core.AlignedSection) (core.Verdict, core.TokenUsage, error) {
	prompt := fmt.Sprintf(promptTemplate,
		sec.Heading,
		truncate(sec.ReferenceText, maxExcerptChars),
		truncate(sec.ContractText, maxExcerptChars),
	)

	result, err := c.oracle.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return core.Verdict{}, core.TokenUsage{}, fmt.Errorf("comparing section %q: %w", sec.Heading, err)
	}
	return c.parseVerdict(sec.Heading, result.Content), result.Usage, nil
}

// parseVerdict extracts the verdict JSON from the oracle's free-text answer:
// structured parse first, then first-brace extraction, then the conservative
// default. An uninterpretable answer counts as evidence of a difference,
// not of a match.
func (c *Comparator) parseVerdict(heading, raw string) core.Verdict {
	var v core.Verdict
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		obj := jsonObjectRegex.FindString(raw)
		if obj == "" || json.Unmarshal([]byte(obj), &v) != nil {
			c.logger.Warn("oracle returned no parseable verdict",
				zap.String("section", heading))
			return fallbackVerdict(heading, raw)
		}
	}
	if v.Status != core.VerdictMatch && v.Status != core.VerdictModified {
		c.logger.Warn("oracle verdict carries unknown status",
			zap.String("section", heading),
			zap.String("status", string(v.Status)))
		return fallbackVerdict(heading, raw)
	}
	if v.Section == "" {
		v.Section = heading
	}
	return v
}

// fallbackVerdict carries a flattened, truncated copy of the raw response
// as the difference summary.
func fallbackVerdict(heading, raw string) core.Verdict {
	return core.Verdict{
		Section:           heading,
		Status:            core.VerdictModified,
		DifferenceSummary: truncate(strings.ReplaceAll(raw, "\n", " "), maxSummaryChars),
	}
}

// truncate cuts s to at most n bytes without splitting a rune; agreement
// text is routinely non-ASCII.
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
