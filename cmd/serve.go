// Package cmd — serve command.
// Runs the validation HTTP API with Prometheus instrumentation and graceful
// shutdown.
package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gaurav-prasanna/clausecheck/config"
	"github.com/gaurav-prasanna/clausecheck/core/analyze"
	"github.com/gaurav-prasanna/clausecheck/metrics"
	"github.com/gaurav-prasanna/clausecheck/server"
	"github.com/gaurav-prasanna/clausecheck/servicenow"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the validation HTTP API",
	Long: `Serve exposes the pipeline over HTTP:

  POST /validate             multipart document upload
  POST /validate/servicenow  validate by ServiceNow request number
  POST /analyze              whole-contract analysis upload
  GET  /healthz              liveness probe
  GET  /metrics              Prometheus metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	addr := cfg.Server.Addr
	if flagAddr != "" {
		addr = flagAddr
	}

	m := metrics.New()

	oracleClient, err := newOracle(cfg)
	if err != nil {
		return err
	}
	validator, err := newValidator(cfg, m.WrapOracle(oracleClient))
	if err != nil {
		return err
	}

	var analyzer *analyze.Analyzer
	if tpl, err := analyze.LoadTemplates(
		cfg.Analysis.PromptPath, cfg.Analysis.LegalTemplatePath, cfg.Analysis.ResponseSchemaPath,
	); err != nil {
		logger.Warn("analysis templates unavailable; /analyze disabled", zap.Error(err))
	} else {
		analysisOracle, err := newAnalysisOracle(cfg)
		if err != nil {
			return err
		}
		analyzer = analyze.New(m.WrapOracle(analysisOracle), tpl, logger)
	}

	var sn *servicenow.Client
	if cfg.ServiceNowConfigured() {
		sn = servicenow.New(cfg.ServiceNow.Instance, cfg.ServiceNow.Username, cfg.ServiceNow.Password)
	} else {
		logger.Warn("servicenow integration not configured; /validate/servicenow disabled")
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           server.New(validator, analyzer, sn, m, logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting clausecheck API",
		zap.String("addr", addr),
		zap.Int("reference_sections", len(validator.Reference().Sections)))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
