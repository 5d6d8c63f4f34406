// Package deterministic provides scripted pdfextract.Downloader/Extractor
// test doubles, mirroring internal/llmclient/deterministic's routed-entry
// shape so process_pdf_case handler tests don't need a real HTTP source or
// pdftotext binary.
package deterministic

import (
	"context"
	"fmt"
	"sync"
)

// Downloader returns scripted bytes keyed by source ref.
type Downloader struct {
	mu      sync.Mutex
	byRef   map[string][]byte
	errByRef map[string]error
}

// NewDownloader creates an empty scripted Downloader.
func NewDownloader() *Downloader {
	return &Downloader{byRef: make(map[string][]byte), errByRef: make(map[string]error)}
}

// Set scripts the bytes returned for a given source ref.
func (d *Downloader) Set(sourceRef string, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byRef[sourceRef] = data
}

// SetError scripts the error returned for a given source ref.
func (d *Downloader) SetError(sourceRef string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errByRef[sourceRef] = err
}

// Download implements pdfextract.Downloader.
func (d *Downloader) Download(_ context.Context, sourceRef string) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err, ok := d.errByRef[sourceRef]; ok {
		return nil, err
	}
	data, ok := d.byRef[sourceRef]
	if !ok {
		return nil, fmt.Errorf("no scripted download for source ref %q", sourceRef)
	}
	return data, nil
}

// Extractor returns scripted text keyed by the raw bytes passed in, using
// the byte slice's string form as the lookup key.
type Extractor struct {
	mu    sync.Mutex
	byKey map[string]string
	errByKey map[string]error
}

// NewExtractor creates an empty scripted Extractor.
func NewExtractor() *Extractor {
	return &Extractor{byKey: make(map[string]string), errByKey: make(map[string]error)}
}

// Set scripts the text returned when ExtractText is called with pdfBytes.
func (e *Extractor) Set(pdfBytes []byte, text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.byKey[string(pdfBytes)] = text
}

// SetError scripts the error returned when ExtractText is called with pdfBytes.
func (e *Extractor) SetError(pdfBytes []byte, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errByKey[string(pdfBytes)] = err
}

// ExtractText implements pdfextract.Extractor.
func (e *Extractor) ExtractText(_ context.Context, pdfBytes []byte) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	key := string(pdfBytes)
	if err, ok := e.errByKey[key]; ok {
		return "", err
	}
	text, ok := e.byKey[key]
	if !ok {
		return "", fmt.Errorf("no scripted extraction for given bytes")
	}
	return text, nil
}
