// Package analyze runs the whole-contract analysis pass: one oracle call
// whose system prompt is assembled from deployment-provided template files,
// returning the extraction JSON the review tooling consumes. Unlike the
// per-section comparator, the result schema is owned by the templates, so the
// payload passes through opaquely.
package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/gaurav-prasanna/clausecheck/core"
)

// maxErrorContentChars bounds how much of a non-JSON model answer ends up in
// the returned error.
const maxErrorContentChars = 1000

const userTemplate = `Please analyze the following contract document and extract the required information:
CONTRACT CONTENT:
---
%s
---
Extract all required information according to the validation rules specified.`

// Templates are the deployment-provided analysis inputs: the instruction
// prompt, the legal template the contract is judged against, and the JSON
// schema the model must fill. Like the reference document, they live outside
// the repository.
type Templates struct {
	Prompt         string
	LegalTemplate  string
	ResponseSchema json.RawMessage
}

// LoadTemplates reads the three template files. A missing file or a schema
// that is not valid JSON is a configuration error.
func LoadTemplates(promptPath, legalPath, schemaPath string) (*Templates, error) {
	prompt, err := os.ReadFile(promptPath)
	if err != nil {
		return nil, fmt.Errorf("reading analysis prompt template: %w", err)
	}
	legal, err := os.ReadFile(legalPath)
	if err != nil {
		return nil, fmt.Errorf("reading legal template: %w", err)
	}
	schema, err := os.ReadFile(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("reading response schema: %w", err)
	}
	if !json.Valid(schema) {
		return nil, fmt.Errorf("response schema %s is not valid JSON", schemaPath)
	}
	return &Templates{
		Prompt:         string(prompt),
		LegalTemplate:  string(legal),
		ResponseSchema: json.RawMessage(schema),
	}, nil
}

// systemPrompt composes the full instruction: prompt, legal template, then
// the schema the answer must match.
func (t *Templates) systemPrompt() string {
	var schema bytes.Buffer
	if err := json.Indent(&schema, t.ResponseSchema, "", "    "); err != nil {
		schema.Reset()
		schema.Write(t.ResponseSchema)
	}

	var b strings.Builder
	b.WriteString(t.Prompt)
	b.WriteString("\n\n")
	b.WriteString(t.LegalTemplate)
	b.WriteString("\n\nReturn response as JSON object matching the following schema:\n")
	b.Write(schema.Bytes())
	return b.String()
}

// Analyzer performs the whole-contract extraction.
type Analyzer struct {
	oracle core.Oracle
	system string
	logger *zap.Logger
}

// New creates an Analyzer bound to an oracle and a template set.
func New(oracle core.Oracle, tpl *Templates, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{oracle: oracle, system: tpl.systemPrompt(), logger: logger}
}

// Analyze sends the whole contract to the oracle and returns the extraction
// JSON verbatim. A non-JSON answer is an error here, not a degraded verdict:
// there is no conservative default for an arbitrary extraction schema.
func (a *Analyzer) Analyze(ctx context.Context, contractText string) (json.RawMessage, core.TokenUsage, error) {
	result, err := a.oracle.Complete(ctx, a.system, fmt.Sprintf(userTemplate, contractText))
	if err != nil {
		return nil, core.TokenUsage{}, fmt.Errorf("analyzing contract: %w", err)
	}

	content := strings.TrimSpace(result.Content)
	if !json.Valid([]byte(content)) {
		a.logger.Warn("analysis model returned invalid JSON")
		return nil, result.Usage, fmt.Errorf("analysis model did not return valid JSON: %s",
			truncate(content, maxErrorContentChars))
	}
	return json.RawMessage(content), result.Usage, nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
