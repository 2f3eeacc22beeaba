// Package render — PDF renderer.
// Produces a styled review document from a validation run using gofpdf:
// run metadata, the aggregate status, and one block per modified section.
package render

import (
	"bytes"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/gaurav-prasanna/clausecheck/core"
)

// PDFRenderer renders a validation run as a PDF document.
type PDFRenderer struct{}

// NewPDFRenderer creates a PDFRenderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// Render converts the run result into PDF bytes.
func (r *PDFRenderer) Render(result core.RunResult) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(0, 8, "Contract Validation Report", "", "L", false)
	pdf.Ln(4)

	// Run metadata.
	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(100, 100, 100)
	if result.Metadata.FileName != "" {
		pdf.MultiCell(0, 5, "Document: "+result.Metadata.FileName, "", "L", false)
	}
	pdf.MultiCell(0, 5, "Run: "+result.Metadata.RunID, "", "L", false)
	pdf.MultiCell(0, 5, "Processed: "+result.Metadata.ProcessedAt.Format(time.RFC3339), "", "L", false)
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(6)

	// Aggregate status, tinted by outcome.
	pdf.SetFont("Helvetica", "B", 13)
	switch result.Validation.ValidationStatus {
	case core.StatusCorrect:
		pdf.SetTextColor(0, 120, 0)
	case core.StatusMismatch:
		pdf.SetTextColor(180, 90, 0)
	case core.StatusMissing:
		pdf.SetTextColor(180, 0, 0)
	}
	pdf.MultiCell(0, 7, "Validation status: "+string(result.Validation.ValidationStatus), "", "L", false)
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	if len(result.Validation.ModifiedSections) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.MultiCell(0, 6, "Modified sections", "", "L", false)
		pdf.Ln(2)

		for _, verdict := range result.Validation.ModifiedSections {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.SetFillColor(245, 245, 245)
			pdf.MultiCell(0, 5.5, verdict.Section, "", "L", true)
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, verdict.DifferenceSummary, "", "L", false)
			pdf.Ln(3)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Extension returns the file extension for PDF output.
func (r *PDFRenderer) Extension() string {
	return ".pdf"
}
