package analyze

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gaurav-prasanna/clausecheck/core"
)

type fakeOracle struct {
	content string
	err     error

	lastSystem string
	lastUser   string
}

func (f *fakeOracle) Complete(_ context.Context, system, user string) (*core.OracleResult, error) {
	f.lastSystem = system
	f.lastUser = user
	if f.err != nil {
		return nil, f.err
	}
	return &core.OracleResult{
		Content: f.content,
		Usage:   core.TokenUsage{PromptTokens: 500, CompletionTokens: 200, TotalTokens: 700},
	}, nil
}

func writeTemplates(t *testing.T) (promptPath, legalPath, schemaPath string) {
	t.Helper()
	dir := t.TempDir()
	promptPath = filepath.Join(dir, "prompt_template.txt")
	legalPath = filepath.Join(dir, "legal_template.txt")
	schemaPath = filepath.Join(dir, "response_schema.json")
	require.NoError(t, os.WriteFile(promptPath, []byte("You are a contract reviewer."), 0644))
	require.NoError(t, os.WriteFile(legalPath, []byte("LEGAL TEMPLATE: term, payment, liability."), 0644))
	require.NoError(t, os.WriteFile(schemaPath, []byte(`{"term":"","payment":""}`), 0644))
	return promptPath, legalPath, schemaPath
}

func loadTestTemplates(t *testing.T) *Templates {
	t.Helper()
	tpl, err := LoadTemplates(writeTemplates(t))
	require.NoError(t, err)
	return tpl
}

func TestLoadTemplates(t *testing.T) {
	tpl := loadTestTemplates(t)

	assert.Equal(t, "You are a contract reviewer.", tpl.Prompt)
	assert.Contains(t, tpl.LegalTemplate, "LEGAL TEMPLATE")
	assert.JSONEq(t, `{"term":"","payment":""}`, string(tpl.ResponseSchema))
}

func TestLoadTemplatesMissingFile(t *testing.T) {
	promptPath, legalPath, _ := writeTemplates(t)
	_, err := LoadTemplates(promptPath, legalPath, filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "response schema")
}

func TestLoadTemplatesRejectsMalformedSchema(t *testing.T) {
	promptPath, legalPath, _ := writeTemplates(t)
	badSchema := filepath.Join(t.TempDir(), "response_schema.json")
	require.NoError(t, os.WriteFile(badSchema, []byte("{not json"), 0644))

	_, err := LoadTemplates(promptPath, legalPath, badSchema)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")
}

func TestAnalyzeSystemPromptComposition(t *testing.T) {
	oracle := &fakeOracle{content: `{"term": "12 months"}`}
	a := New(oracle, loadTestTemplates(t), zap.NewNop())

	_, _, err := a.Analyze(context.Background(), "contract body")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(oracle.lastSystem, "You are a contract reviewer."))
	assert.Contains(t, oracle.lastSystem, "LEGAL TEMPLATE: term, payment, liability.")
	assert.Contains(t, oracle.lastSystem, "Return response as JSON object matching the following schema:")
	assert.Contains(t, oracle.lastSystem, `"term"`)
	assert.Contains(t, oracle.lastUser, "CONTRACT CONTENT:")
	assert.Contains(t, oracle.lastUser, "contract body")
}

func TestAnalyzePassesResultThrough(t *testing.T) {
	oracle := &fakeOracle{content: "\n" + `{"term": "12 months", "payment": "Net 30"}` + "\n"}
	a := New(oracle, loadTestTemplates(t), zap.NewNop())

	result, usage, err := a.Analyze(context.Background(), "contract body")
	require.NoError(t, err)

	assert.JSONEq(t, `{"term": "12 months", "payment": "Net 30"}`, string(result))
	assert.Equal(t, 700, usage.TotalTokens)
}

func TestAnalyzeInvalidJSONIsError(t *testing.T) {
	oracle := &fakeOracle{content: "I could not produce the extraction."}
	a := New(oracle, loadTestTemplates(t), zap.NewNop())

	_, usage, err := a.Analyze(context.Background(), "contract body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not return valid JSON")
	assert.Contains(t, err.Error(), "could not produce")
	// Usage still counts: the tokens were spent.
	assert.Equal(t, 700, usage.TotalTokens)
}

func TestAnalyzeInvalidJSONErrorTruncated(t *testing.T) {
	oracle := &fakeOracle{content: strings.Repeat("ü", 2000)}
	a := New(oracle, loadTestTemplates(t), zap.NewNop())

	_, _, err := a.Analyze(context.Background(), "contract body")
	require.Error(t, err)
	assert.Less(t, len(err.Error()), 1200)
	assert.True(t, utf8.ValidString(err.Error()))
}

func TestAnalyzeTransportErrorPropagates(t *testing.T) {
	transportErr := errors.New("connection refused")
	a := New(&fakeOracle{err: transportErr}, loadTestTemplates(t), zap.NewNop())

	_, _, err := a.Analyze(context.Background(), "contract body")
	assert.ErrorIs(t, err, transportErr)
}
