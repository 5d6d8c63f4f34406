// Package pdfextract defines the out-of-scope report-ingestion boundary
// (§1): process_pdf_case only depends on Downloader and Extractor, never on
// a concrete HTTP client or PDF library. Downloader fetches the attachment
// bytes named by a case's pdf_source_ref; Extractor turns those bytes into
// plain text for the record-number extractor and LLM1.
package pdfextract

import "context"

// Downloader fetches an attachment's raw bytes from an opaque source
// reference (the chat provider's attachment URL).
type Downloader interface {
	Download(ctx context.Context, sourceRef string) ([]byte, error)
}

// Extractor turns a PDF document's raw bytes into plain text.
type Extractor interface {
	ExtractText(ctx context.Context, pdfBytes []byte) (string, error)
}

// Error is a download or extraction failure, tagged with the pipeline stage
// label the job-failure finalizer substring-matches against (§4.12).
type Error struct {
	Stage   string // "download" or "extract"
	Details string
}

func (e *Error) Error() string {
	return e.Stage + ": " + e.Details
}
