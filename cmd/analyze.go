// Package cmd — analyze command.
// Runs the whole-contract analysis pass: the full document is sent to the
// oracle with the deployment's prompt/legal/schema templates, and the
// extraction JSON is written alongside the validation reports.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/clausecheck/config"
	"github.com/gaurav-prasanna/clausecheck/core"
	"github.com/gaurav-prasanna/clausecheck/core/analyze"
	"github.com/gaurav-prasanna/clausecheck/core/extract"
	"github.com/gaurav-prasanna/clausecheck/core/output"
	"github.com/gaurav-prasanna/clausecheck/oracle"
)

var flagAnalyzeOutputDir string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <contract file>",
	Short: "Run the whole-contract analysis against the legal template",
	Long: `Analyze sends the entire contract to the comparison endpoint with the
deployment's prompt template, legal template, and response schema, and writes
the resulting extraction JSON.

The template files are deployment data, configured under 'analysis' in the
config file (defaults: prompt_template.txt, legal_template.txt,
response_schema.json in the working directory).

Examples:
  clausecheck analyze contract.md
  clausecheck analyze agreement.html --output_dir ./out`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVar(&flagAnalyzeOutputDir, "output_dir", "", "Output directory (default: current directory)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagAnalyzeOutputDir != "" {
		cfg.OutputDir = flagAnalyzeOutputDir
	}

	analyzer, err := newAnalyzer(cfg)
	if err != nil {
		return err
	}
	writer, err := output.New(cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("initializing output writer: %w", err)
	}

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading contract file: %w", err)
	}
	contract, err := extract.ToMarkdown(path, data)
	if err != nil {
		return fmt.Errorf("converting contract file: %w", err)
	}

	start := time.Now()
	result, usage, err := analyzer.Analyze(context.Background(), contract)
	if err != nil {
		return err
	}

	envelope := core.AnalysisResult{
		Metadata: core.RunMetadata{
			RunID:           uuid.NewString(),
			FileName:        filepath.Base(path),
			Source:          "file",
			ProcessedAt:     time.Now().UTC(),
			DurationSeconds: time.Since(start).Seconds(),
			Usage:           usage,
		},
		Result: result,
	}
	rendered, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling analysis result: %w", err)
	}

	label := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	written, err := writer.WriteAnalysis(label, rendered)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ Written: %s\n", written)
	fmt.Fprintf(os.Stdout, "Analysis complete (%d tokens)\n", usage.TotalTokens)
	return nil
}

// newAnalysisOracle builds the chat-endpoint oracle with the analysis pass's
// generation settings (larger token budget, JSON-object response).
func newAnalysisOracle(cfg *config.Config) (core.Oracle, error) {
	if err := cfg.ValidateOracle(); err != nil {
		return nil, err
	}
	timeout, err := cfg.OracleTimeout()
	if err != nil {
		return nil, err
	}
	return oracle.New(oracle.Config{
		Endpoint:    cfg.Oracle.Endpoint,
		APIKey:      cfg.Oracle.APIKey,
		APIVersion:  cfg.Oracle.APIVersion,
		Model:       cfg.Oracle.Model,
		Temperature: cfg.Analysis.Temperature,
		MaxTokens:   cfg.Analysis.MaxTokens,
		Timeout:     timeout,
		ForceJSON:   true,
	})
}

// newAnalyzer loads the template set and assembles the analysis pipeline.
func newAnalyzer(cfg *config.Config) (*analyze.Analyzer, error) {
	tpl, err := analyze.LoadTemplates(
		cfg.Analysis.PromptPath, cfg.Analysis.LegalTemplatePath, cfg.Analysis.ResponseSchemaPath)
	if err != nil {
		return nil, err
	}
	analysisOracle, err := newAnalysisOracle(cfg)
	if err != nil {
		return nil, err
	}
	return analyze.New(analysisOracle, tpl, logger), nil
}
