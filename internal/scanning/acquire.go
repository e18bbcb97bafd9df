package scanning

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Cache stores acquired lines between runs. Implemented by internal/cache.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
}

// Acquirer turns a document path into its ordered text lines
type Acquirer struct {
	pdf   PageReader
	ocr   OCR
	cache Cache
}

// NewAcquirer creates a new Acquirer. cache may be nil.
func NewAcquirer(pdf PageReader, ocr OCR, cache Cache) *Acquirer {
	return &Acquirer{pdf: pdf, ocr: ocr, cache: cache}
}

// Lines reads the document at path and returns its text lines. PDFs use the
// embedded text layer; everything else is preprocessed and run through OCR.
// Every failure is an *AcquisitionError.
func (a *Acquirer) Lines(ctx context.Context, path string) ([]string, error) {
	start := time.Now()
	kind := KindOf(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &AcquisitionError{Path: path, Op: "read", Err: err}
	}

	key := a.cacheKey(kind, data)
	if lines, ok := a.cached(key); ok {
		slog.Debug("Using cached lines", "path", path, "kind", kind, "lines", len(lines))
		return lines, nil
	}

	var lines []string
	switch kind {
	case KindPDF:
		lines, err = a.pdfLines(path, data)
	default:
		lines, err = a.imageLines(ctx, path, data)
	}
	if err != nil {
		return nil, err
	}

	slog.Debug("Acquired text", "path", path, "kind", kind, "lines", len(lines), "duration_ms", time.Since(start).Milliseconds())
	a.store(key, lines)
	return lines, nil
}

func (a *Acquirer) pdfLines(path string, data []byte) ([]string, error) {
	pages, err := a.pdf.PageTexts(data)
	if err != nil {
		return nil, &AcquisitionError{Path: path, Op: "pdf " + a.pdf.Name(), Err: err}
	}
	if len(pages) == 0 {
		return nil, &AcquisitionError{Path: path, Op: "pdf " + a.pdf.Name(), Err: ErrNoTextLayer}
	}

	var lines []string
	for i, page := range pages {
		if strings.TrimSpace(page) == "" {
			slog.Warn("PDF page has no text layer", "path", path, "page", i+1)
			return nil, &AcquisitionError{Path: path, Op: "pdf " + a.pdf.Name(), Err: ErrNoTextLayer}
		}
		lines = append(lines, strings.Split(page, "\n")...)
	}
	return lines, nil
}

func (a *Acquirer) imageLines(ctx context.Context, path string, data []byte) ([]string, error) {
	img, err := decodeImage(path, data)
	if err != nil {
		return nil, &AcquisitionError{Path: path, Op: "decode", Err: err}
	}

	png, err := encodePNG(Preprocess(img))
	if err != nil {
		return nil, &AcquisitionError{Path: path, Op: "preprocess", Err: err}
	}

	text, err := a.ocr.Recognize(ctx, png)
	if err != nil {
		return nil, &AcquisitionError{Path: path, Op: "ocr " + a.ocr.Name(), Err: err}
	}
	return strings.Split(text, "\n"), nil
}

// cacheKey covers the file content and the engine that produced the lines
func (a *Acquirer) cacheKey(kind Kind, data []byte) string {
	if a.cache == nil {
		return ""
	}
	hash := sha256.Sum256(data)
	method := a.pdf.Name()
	if kind == KindImage {
		method = a.ocr.CacheID()
	}
	return "lines:v2:" + string(kind) + ":" + method + ":" + hex.EncodeToString(hash[:])
}

func (a *Acquirer) cached(key string) ([]string, bool) {
	if a.cache == nil {
		return nil, false
	}
	data, ok := a.cache.Get(key)
	if !ok {
		return nil, false
	}
	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		slog.Warn("Discarding unreadable cache entry", "key", key, "error", err)
		return nil, false
	}
	return lines, true
}

func (a *Acquirer) store(key string, lines []string) {
	if a.cache == nil {
		return
	}
	data, err := json.Marshal(lines)
	if err != nil {
		slog.Warn("Failed to encode lines for cache", "key", key, "error", err)
		return
	}
	if err := a.cache.Set(key, data, 0); err != nil {
		slog.Warn("Failed to cache lines", "key", key, "error", err)
	}
}
