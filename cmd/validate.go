// Package cmd — validate command.
// This is the main command that orchestrates the pipeline:
// acquire → convert → gate → align → compare → render → write.
//
// The contract comes from a local file, one ServiceNow request, or a batch
// file of request numbers.
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/clausecheck/config"
	"github.com/gaurav-prasanna/clausecheck/core"
	"github.com/gaurav-prasanna/clausecheck/core/compare"
	"github.com/gaurav-prasanna/clausecheck/core/extract"
	"github.com/gaurav-prasanna/clausecheck/core/output"
	"github.com/gaurav-prasanna/clausecheck/core/render"
	"github.com/gaurav-prasanna/clausecheck/core/segment"
	"github.com/gaurav-prasanna/clausecheck/core/validate"
	"github.com/gaurav-prasanna/clausecheck/oracle"
	"github.com/gaurav-prasanna/clausecheck/servicenow"
)

// Flag variables.
var (
	flagRequest   string
	flagBatch     string
	flagReference string
	flagOutputDir string
	flagJSON      bool
	flagCSV       bool
	flagPDF       bool
	flagMarkdown  bool
)

var validateCmd = &cobra.Command{
	Use:   "validate [contract file]",
	Short: "Validate a contract's service description against the reference",
	Long: `Validate compares the service description clause of an agreement against
the configured reference document and writes a per-section report.

The agreement is a markdown file produced by layout extraction, an HTML
export, or an attachment fetched from ServiceNow by request number.

Examples:
  clausecheck validate contract.md --json
  clausecheck validate agreement.html --json --csv --output_dir ./out
  clausecheck validate --request BUY0001009 --pdf
  clausecheck validate --batch requests.txt --csv`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	// Source flags (mutually exclusive with the positional file).
	validateCmd.Flags().StringVar(&flagRequest, "request", "", "ServiceNow request number to fetch and validate")
	validateCmd.Flags().StringVar(&flagBatch, "batch", "", "File with one ServiceNow request number per line")

	// Output format flags (any combination; JSON is the default).
	validateCmd.Flags().BoolVar(&flagJSON, "json", false, "Write the JSON envelope")
	validateCmd.Flags().BoolVar(&flagCSV, "csv", false, "Write the flat review sheet")
	validateCmd.Flags().BoolVar(&flagPDF, "pdf", false, "Write the PDF report")
	validateCmd.Flags().BoolVar(&flagMarkdown, "markdown", false, "Write the markdown summary")

	validateCmd.Flags().StringVar(&flagReference, "reference", "", "Reference markdown document (overrides config)")
	validateCmd.Flags().StringVar(&flagOutputDir, "output_dir", "", "Output directory (default: current directory)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	if err := validateSourceFlags(args); err != nil {
		return err
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagReference != "" {
		cfg.ReferencePath = flagReference
	}
	if flagOutputDir != "" {
		cfg.OutputDir = flagOutputDir
	}

	oracleClient, err := newOracle(cfg)
	if err != nil {
		return err
	}
	validator, err := newValidator(cfg, oracleClient)
	if err != nil {
		return err
	}

	writer, err := output.New(cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("initializing output writer: %w", err)
	}
	renderers := selectRenderers()

	ctx := context.Background()

	switch {
	case flagBatch != "":
		return runBatch(ctx, cfg, validator, renderers, writer)
	case flagRequest != "":
		sn, err := newServiceNow(cfg)
		if err != nil {
			return err
		}
		return runRequest(ctx, sn, validator, renderers, writer, flagRequest)
	default:
		return runFile(ctx, validator, renderers, writer, args[0])
	}
}

// runFile validates a local markdown or HTML document.
func runFile(
	ctx context.Context,
	validator *validate.Validator,
	renderers []core.Renderer,
	writer *output.Writer,
	path string,
) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading contract file: %w", err)
	}
	contract, err := extract.ToMarkdown(path, data)
	if err != nil {
		return fmt.Errorf("converting contract file: %w", err)
	}

	label := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return processContract(ctx, validator, renderers, writer, contract, filepath.Base(path), "file", label)
}

// runRequest fetches one ServiceNow request's attachment and validates it.
func runRequest(
	ctx context.Context,
	sn *servicenow.Client,
	validator *validate.Validator,
	renderers []core.Renderer,
	writer *output.Writer,
	requestNumber string,
) error {
	record, err := sn.GetRecord(ctx, requestNumber)
	if err != nil {
		return err
	}
	attachment, err := sn.DownloadAttachment(ctx, string(record.SysID))
	if err != nil {
		return err
	}
	contract, err := extract.ToMarkdown(attachment.FileName, attachment.Data)
	if err != nil {
		return fmt.Errorf("converting attachment: %w", err)
	}
	return processContract(ctx, validator, renderers, writer, contract, attachment.FileName, "servicenow", requestNumber)
}

// runBatch validates every request number listed in the batch file,
// continuing past individual failures.
func runBatch(
	ctx context.Context,
	cfg *config.Config,
	validator *validate.Validator,
	renderers []core.Renderer,
	writer *output.Writer,
) error {
	sn, err := newServiceNow(cfg)
	if err != nil {
		return err
	}

	requests, err := readBatchFile(flagBatch)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Found %d requests to process\n", len(requests))

	var errCount int
	for i, requestNumber := range requests {
		fmt.Fprintf(os.Stdout, "[%d/%d] Processing %s\n", i+1, len(requests), requestNumber)

		if err := runRequest(ctx, sn, validator, renderers, writer, requestNumber); err != nil {
			fmt.Fprintf(os.Stderr, "  ✗ Error: %v\n", err)
			errCount++
		}
	}

	if errCount > 0 {
		fmt.Fprintf(os.Stderr, "\n%d/%d requests failed\n", errCount, len(requests))
	}
	return nil
}

// processContract runs one validation and writes every selected report.
func processContract(
	ctx context.Context,
	validator *validate.Validator,
	renderers []core.Renderer,
	writer *output.Writer,
	contract, fileName, source, label string,
) error {
	start := time.Now()
	report, usage, err := validator.Run(ctx, contract)
	if err != nil {
		return err
	}

	result := core.RunResult{
		Metadata: core.RunMetadata{
			RunID:           uuid.NewString(),
			FileName:        fileName,
			Source:          source,
			ProcessedAt:     time.Now().UTC(),
			DurationSeconds: time.Since(start).Seconds(),
			Usage:           usage,
		},
		Validation: report,
	}

	for _, renderer := range renderers {
		data, err := renderer.Render(result)
		if err != nil {
			return fmt.Errorf("rendering report: %w", err)
		}
		path, err := writer.Write(label, data, renderer.Extension())
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "✓ Written: %s\n", path)
	}

	fmt.Fprintf(os.Stdout, "Validation status: %s (%d modified sections)\n",
		report.ValidationStatus, len(report.ModifiedSections))
	return nil
}

// --- pipeline construction helpers ---

// newOracle builds the chat-endpoint oracle from config.
func newOracle(cfg *config.Config) (core.Oracle, error) {
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
		Temperature: cfg.Oracle.Temperature,
		MaxTokens:   cfg.Oracle.MaxTokens,
		Timeout:     timeout,
	})
}

// newValidator loads the reference document and assembles the pipeline.
func newValidator(cfg *config.Config, oracleClient core.Oracle) (*validate.Validator, error) {
	refMD, err := os.ReadFile(cfg.ReferencePath)
	if err != nil {
		return nil, fmt.Errorf("reading reference document: %w", err)
	}
	ref, err := segment.NewReference(string(refMD))
	if err != nil {
		return nil, err
	}
	comparator := compare.New(oracleClient, logger)
	return validate.New(ref, comparator, logger), nil
}

func newServiceNow(cfg *config.Config) (*servicenow.Client, error) {
	if err := cfg.ValidateServiceNow(); err != nil {
		return nil, err
	}
	return servicenow.New(cfg.ServiceNow.Instance, cfg.ServiceNow.Username, cfg.ServiceNow.Password), nil
}

// validateSourceFlags checks that exactly one contract source is given.
func validateSourceFlags(args []string) error {
	sources := 0
	if len(args) == 1 {
		sources++
	}
	if flagRequest != "" {
		sources++
	}
	if flagBatch != "" {
		sources++
	}
	if sources == 0 {
		return fmt.Errorf("exactly one contract source is required: a file argument, --request, or --batch")
	}
	if sources > 1 {
		return fmt.Errorf("only one contract source allowed per run (got %d)", sources)
	}
	return nil
}

// selectRenderers creates the renderers for the chosen output formats.
// JSON is the default when no format flag is set.
func selectRenderers() []core.Renderer {
	var renderers []core.Renderer
	if flagJSON {
		renderers = append(renderers, render.NewJSONRenderer())
	}
	if flagCSV {
		renderers = append(renderers, render.NewCSVRenderer())
	}
	if flagPDF {
		renderers = append(renderers, render.NewPDFRenderer())
	}
	if flagMarkdown {
		renderers = append(renderers, render.NewMarkdownRenderer())
	}
	if len(renderers) == 0 {
		renderers = append(renderers, render.NewJSONRenderer())
	}
	return renderers
}

// readBatchFile reads request numbers, one per line; blank lines and
// '#' comments are skipped.
func readBatchFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading batch file: %w", err)
	}
	defer f.Close()

	var requests []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		requests = append(requests, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning batch file: %w", err)
	}
	if len(requests) == 0 {
		return nil, fmt.Errorf("batch file %s contains no request numbers", path)
	}
	return requests, nil
}
