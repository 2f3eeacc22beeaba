package render

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/clausecheck/core"
)

func sampleResult() core.RunResult {
	return core.RunResult{
		Metadata: core.RunMetadata{
			RunID:           "run-123",
			FileName:        "contract.pdf",
			Source:          "upload",
			ProcessedAt:     time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
			DurationSeconds: 4.2,
			Usage:           core.TokenUsage{PromptTokens: 200, CompletionTokens: 80, TotalTokens: 280},
		},
		Validation: core.Report{
			ValidationStatus: core.StatusMismatch,
			ModifiedSections: []core.Verdict{
				{
					Section:           "Term",
					Status:            core.VerdictModified,
					DifferenceSummary: "duration changed from 12 to 6 months",
				},
				{
					Section:           "Remuneration/Invoicing",
					Status:            core.VerdictModified,
					DifferenceSummary: "payment terms extended to 45 days",
				},
			},
		},
	}
}

func correctResult() core.RunResult {
	r := sampleResult()
	r.Validation = core.Report{
		ValidationStatus: core.StatusCorrect,
		ModifiedSections: make([]core.Verdict, 0),
	}
	return r
}

func TestJSONRendererRoundTrips(t *testing.T) {
	data, err := NewJSONRenderer().Render(sampleResult())
	require.NoError(t, err)

	var decoded core.RunResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, sampleResult(), decoded)
	assert.Equal(t, ".json", NewJSONRenderer().Extension())
}

func TestJSONRendererEmptyModifiedSectionsIsArray(t *testing.T) {
	data, err := NewJSONRenderer().Render(correctResult())
	require.NoError(t, err)

	// Reviewers consume this envelope downstream; an absent list and an
	// empty list are not the same thing.
	assert.Contains(t, string(data), `"modified_sections": []`)
}

func TestCSVRendererRows(t *testing.T) {
	data, err := NewCSVRenderer().Render(sampleResult())
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 4)
	assert.Equal(t, []string{"validation_item", "extracted_value", "status"}, rows[0])
	assert.Equal(t, []string{"service_description.validation_status", "", "Mismatch"}, rows[1])
	assert.Equal(t, []string{"service_description.Term", "duration changed from 12 to 6 months", "Modified"}, rows[2])
	assert.Equal(t, "service_description.Remuneration/Invoicing", rows[3][0])
}

func TestCSVRendererCorrectRunHasNoSectionRows(t *testing.T) {
	data, err := NewCSVRenderer().Render(correctResult())
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Correct", rows[1][2])
}

func TestCSVRendererQuotesEmbeddedCommas(t *testing.T) {
	result := sampleResult()
	result.Validation.ModifiedSections[0].DifferenceSummary = "changed terms, dates, and parties"

	data, err := NewCSVRenderer().Render(result)
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "changed terms, dates, and parties", rows[2][1])
}

func TestMarkdownRendererMismatch(t *testing.T) {
	data, err := NewMarkdownRenderer().Render(sampleResult())
	require.NoError(t, err)
	out := string(data)

	assert.True(t, strings.HasPrefix(out, "# Contract Validation Report"))
	assert.Contains(t, out, "contract.pdf")
	assert.Contains(t, out, "run-123")
	assert.Contains(t, out, "## Modified sections")
	assert.Contains(t, out, "### Term")
	assert.Contains(t, out, "duration changed from 12 to 6 months")
	assert.Equal(t, ".md", NewMarkdownRenderer().Extension())
}

func TestMarkdownRendererCorrect(t *testing.T) {
	data, err := NewMarkdownRenderer().Render(correctResult())
	require.NoError(t, err)
	out := string(data)

	assert.Contains(t, out, "match the reference service description")
	assert.NotContains(t, out, "## Modified sections")
}

func TestMarkdownRendererMissing(t *testing.T) {
	result := correctResult()
	result.Validation.ValidationStatus = core.StatusMissing

	data, err := NewMarkdownRenderer().Render(result)
	require.NoError(t, err)
	assert.Contains(t, string(data), "was not found in the contract")
}

func TestMarkdownRendererOmitsEmptyFileName(t *testing.T) {
	result := sampleResult()
	result.Metadata.FileName = ""

	data, err := NewMarkdownRenderer().Render(result)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "**Document:**")
}

func TestPDFRendererProducesDocument(t *testing.T) {
	data, err := NewPDFRenderer().Render(sampleResult())
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
	assert.Greater(t, len(data), 1000)
	assert.Equal(t, ".pdf", NewPDFRenderer().Extension())
}

func TestPDFRendererHandlesEveryStatus(t *testing.T) {
	for _, status := range []core.ValidationStatus{core.StatusCorrect, core.StatusMismatch, core.StatusMissing} {
		result := correctResult()
		result.Validation.ValidationStatus = status

		data, err := NewPDFRenderer().Render(result)
		require.NoError(t, err, "status %s", status)
		assert.True(t, bytes.HasPrefix(data, []byte("%PDF")), "status %s", status)
	}
}
