package pdfextract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPDownloader fetches attachment bytes over plain HTTP(S), grounded on
// pkg/runbook/github.go's DownloadContent shape (context-aware request,
// status-code check, bounded-timeout client).
type HTTPDownloader struct {
	httpClient *http.Client
}

// NewHTTPDownloader creates an HTTPDownloader with a bounded request timeout.
func NewHTTPDownloader(timeout time.Duration) *HTTPDownloader {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPDownloader{httpClient: &http.Client{Timeout: timeout}}
}

// Download implements Downloader.
func (d *HTTPDownloader) Download(ctx context.Context, sourceRef string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceRef, nil)
	if err != nil {
		return nil, &Error{Stage: "download", Details: fmt.Sprintf("failed to build request: %v", err)}
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Stage: "download", Details: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Stage: "download", Details: fmt.Sprintf("source returned HTTP %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Stage: "download", Details: fmt.Sprintf("failed to read body: %v", err)}
	}

	return body, nil
}
