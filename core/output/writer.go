// Package output handles file naming and writing for validation reports.
// Filenames are derived from the document name plus a timestamp
// (e.g. contract_validation_BUY0001009_20260828_101500.json).
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Writer writes rendered reports to disk.
type Writer struct {
	OutputDir string
}

// New creates a Writer targeting the given output directory.
// If outputDir is empty, it defaults to the current working directory.
func New(outputDir string) (*Writer, error) {
	if outputDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		outputDir = wd
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &Writer{OutputDir: outputDir}, nil
}

// Write persists one rendered report. label identifies the validated
// document (file name or request number) and is sanitized into the filename.
func (w *Writer) Write(label string, data []byte, ext string) (string, error) {
	return w.write("contract_validation", label, data, ext)
}

// WriteAnalysis persists one whole-contract analysis envelope.
func (w *Writer) WriteAnalysis(label string, data []byte) (string, error) {
	return w.write("contract_analysis", label, data, ".json")
}

func (w *Writer) write(prefix, label string, data []byte, ext string) (string, error) {
	name := fmt.Sprintf("%s_%s_%s%s",
		prefix, sanitize(label), time.Now().Format("20060102_150405"), ext)
	path := filepath.Join(w.OutputDir, name)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing file %s: %w", path, err)
	}
	return path, nil
}

// sanitize replaces non-alphanumeric characters with underscores.
func sanitize(s string) string {
	var b strings.Builder
	for _, ch := range s {
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') {
			b.WriteRune(ch)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}
