// Package server exposes the validation pipeline over HTTP, mirroring the
// CLI: upload a document or name a ServiceNow request, get the validation
// envelope back.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/gaurav-prasanna/clausecheck/core/analyze"
	"github.com/gaurav-prasanna/clausecheck/core/validate"
	"github.com/gaurav-prasanna/clausecheck/metrics"
	"github.com/gaurav-prasanna/clausecheck/servicenow"
)

// Server bundles the validator with its optional collaborators.
type Server struct {
	validator *validate.Validator
	analyzer  *analyze.Analyzer  // nil when analysis templates are absent
	sn        *servicenow.Client // nil when the integration is not configured
	metrics   *metrics.Metrics   // nil disables instrumentation
	logger    *zap.Logger
}

// New creates a Server.
func New(validator *validate.Validator, analyzer *analyze.Analyzer, sn *servicenow.Client, m *metrics.Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{validator: validator, analyzer: analyzer, sn: sn, metrics: m, logger: logger}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/validate", s.handleValidateUpload)
	r.Post("/validate/servicenow", s.handleValidateServiceNow)
	r.Post("/analyze", s.handleAnalyze)

	return r
}
