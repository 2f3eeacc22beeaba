package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gaurav-prasanna/clausecheck/core"
	"github.com/gaurav-prasanna/clausecheck/core/extract"
	"github.com/gaurav-prasanna/clausecheck/servicenow"
)

// maxUploadBytes caps document uploads at 32 MiB.
const maxUploadBytes = 32 << 20

// validateResponse is the API envelope: the run result, plus the ServiceNow
// record when the document came from the ticketing system.
type validateResponse struct {
	core.RunResult
	ServiceNow *servicenow.Record `json:"servicenow,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleValidateUpload validates a multipart-uploaded document (markdown
// from the layout-extraction service, or an HTML agreement export).
func (s *Server) handleValidateUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "request must carry a 'file' upload")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading upload failed")
		return
	}

	contract, err := extract.ToMarkdown(header.Filename, data)
	if err != nil {
		s.logger.Warn("upload conversion failed",
			zap.String("file", header.Filename), zap.Error(err))
		writeError(w, http.StatusBadRequest, "could not convert document to markdown")
		return
	}

	s.run(r.Context(), w, contract, header.Filename, "upload", nil)
}

// handleAnalyze runs the whole-contract analysis on an uploaded document and
// returns the template-driven extraction JSON.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if s.analyzer == nil {
		writeError(w, http.StatusServiceUnavailable, "contract analysis is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "request must carry a 'file' upload")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading upload failed")
		return
	}

	contract, err := extract.ToMarkdown(header.Filename, data)
	if err != nil {
		s.logger.Warn("upload conversion failed",
			zap.String("file", header.Filename), zap.Error(err))
		writeError(w, http.StatusBadRequest, "could not convert document to markdown")
		return
	}

	start := time.Now()
	result, usage, err := s.analyzer.Analyze(r.Context(), contract)
	if err != nil {
		s.logger.Error("contract analysis failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "analysis failed")
		return
	}

	if s.metrics != nil {
		s.metrics.RecordAnalysis()
	}

	writeJSON(w, http.StatusOK, core.AnalysisResult{
		Metadata: core.RunMetadata{
			RunID:           uuid.NewString(),
			FileName:        header.Filename,
			Source:          "upload",
			ProcessedAt:     time.Now().UTC(),
			DurationSeconds: time.Since(start).Seconds(),
			Usage:           usage,
		},
		Result: result,
	})
}

// handleValidateServiceNow fetches the agreement attached to a ServiceNow
// request and validates it.
func (s *Server) handleValidateServiceNow(w http.ResponseWriter, r *http.Request) {
	if s.sn == nil {
		writeError(w, http.StatusServiceUnavailable, "servicenow integration is not configured")
		return
	}

	var req struct {
		RequestID string `json:"request_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.RequestID) == "" {
		writeError(w, http.StatusBadRequest, "body must be JSON with a non-empty 'request_id'")
		return
	}

	record, err := s.sn.GetRecord(r.Context(), req.RequestID)
	if err != nil {
		if errors.Is(err, servicenow.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "no record found for this request id")
			return
		}
		s.logger.Error("servicenow record lookup failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "servicenow lookup failed")
		return
	}

	attachment, err := s.sn.DownloadAttachment(r.Context(), string(record.SysID))
	if err != nil {
		if errors.Is(err, servicenow.ErrNoAttachment) {
			writeError(w, http.StatusNotFound, "no attachment found for this request")
			return
		}
		s.logger.Error("servicenow attachment download failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "attachment download failed")
		return
	}

	contract, err := extract.ToMarkdown(attachment.FileName, attachment.Data)
	if err != nil {
		s.logger.Warn("attachment conversion failed",
			zap.String("file", attachment.FileName), zap.Error(err))
		writeError(w, http.StatusBadGateway, "could not convert attachment to markdown")
		return
	}

	s.run(r.Context(), w, contract, attachment.FileName, "servicenow", record)
}

// run executes one validation and writes the envelope. A transport failure
// at the oracle boundary aborts the whole run; there is no partial report.
func (s *Server) run(ctx context.Context, w http.ResponseWriter, contract, fileName, source string, record *servicenow.Record) {
	start := time.Now()
	report, usage, err := s.validator.Run(ctx, contract)
	if err != nil {
		s.logger.Error("validation run failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "validation failed: comparison oracle unavailable")
		return
	}

	if s.metrics != nil {
		s.metrics.RecordValidation(report.ValidationStatus)
	}

	writeJSON(w, http.StatusOK, validateResponse{
		RunResult: core.RunResult{
			Metadata: core.RunMetadata{
				RunID:           uuid.NewString(),
				FileName:        fileName,
				Source:          source,
				ProcessedAt:     time.Now().UTC(),
				DurationSeconds: time.Since(start).Seconds(),
				Usage:           usage,
			},
			Validation: report,
		},
		ServiceNow: record,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
