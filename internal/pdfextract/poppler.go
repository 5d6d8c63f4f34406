package pdfextract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
)

// PopplerExtractor extracts text by shelling out to the system `pdftotext`
// binary (poppler-utils). No Go-native PDF library is available to this
// project (see DESIGN.md), so extraction is delegated to the same external
// tool original_source's probe script exercises via PdfTextExtractor.
type PopplerExtractor struct {
	// BinaryPath overrides the resolved `pdftotext` binary, mainly for
	// tests that stub it out with a fake executable.
	BinaryPath string
}

// NewPopplerExtractor creates a PopplerExtractor using the `pdftotext` found
// on PATH.
func NewPopplerExtractor() *PopplerExtractor {
	return &PopplerExtractor{BinaryPath: "pdftotext"}
}

// ExtractText implements Extractor by writing pdfBytes to a temp file and
// invoking `pdftotext -layout <in> -` to capture its stdout.
func (e *PopplerExtractor) ExtractText(ctx context.Context, pdfBytes []byte) (string, error) {
	tmp, err := os.CreateTemp("", "eda-triage-report-*.pdf")
	if err != nil {
		return "", &Error{Stage: "extract", Details: fmt.Sprintf("failed to create temp file: %v", err)}
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := tmp.Write(pdfBytes); err != nil {
		return "", &Error{Stage: "extract", Details: fmt.Sprintf("failed to write temp file: %v", err)}
	}
	if err := tmp.Close(); err != nil {
		return "", &Error{Stage: "extract", Details: fmt.Sprintf("failed to close temp file: %v", err)}
	}

	cmd := exec.CommandContext(ctx, e.BinaryPath, "-layout", tmp.Name(), "-")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", &Error{Stage: "extract", Details: fmt.Sprintf("pdftotext failed: %v: %s", err, stderr.String())}
	}

	return stdout.String(), nil
}
