package invoice

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/zombor/invoice-extractor/internal/extraction"
)

// TextSource produces the text lines of a document. Implemented by scanning.Acquirer.
type TextSource interface {
	Lines(ctx context.Context, path string) ([]string, error)
}

// IDGenerator generates unique names for spooled uploads
type IDGenerator interface {
	Generate() string
}

// defaultIDGenerator generates IDs using UnixNano timestamp
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

var (
	reUnsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	reSpaces      = regexp.MustCompile(`\s+`)
)

// Service runs acquisition and extraction for one document at a time
type Service struct {
	source      TextSource
	extractor   *extraction.Extractor
	storage     Storage
	idGenerator IDGenerator
}

// NewService creates a new Service with the default ID generator
func NewService(source TextSource, extractor *extraction.Extractor, storage Storage) *Service {
	return NewServiceWithDeps(source, extractor, storage, &defaultIDGenerator{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(source TextSource, extractor *extraction.Extractor, storage Storage, idGen IDGenerator) *Service {
	return &Service{
		source:      source,
		extractor:   extractor,
		storage:     storage,
		idGenerator: idGen,
	}
}

// Process extracts fields and the reconciliation verdict from the document at path.
// Acquisition errors are returned unchanged; extraction itself cannot fail.
func (s *Service) Process(ctx context.Context, path string) (extraction.Result, error) {
	lines, err := s.source.Lines(ctx, path)
	if err != nil {
		return extraction.Result{}, err
	}
	return s.extractor.Extract(lines), nil
}

// ProcessUpload spools an uploaded file, processes it and removes it again
func (s *Service) ProcessUpload(ctx context.Context, filename string, data []byte) (Report, error) {
	name, err := s.storage.Save(fmt.Sprintf("%s_%s", s.idGenerator.Generate(), sanitizeFilename(filename)), data)
	if err != nil {
		return Report{}, fmt.Errorf("saving upload: %w", err)
	}
	defer func() {
		if err := s.storage.Delete(name); err != nil {
			slog.Warn("Failed to remove spooled upload", "name", name, "error", err)
		}
	}()

	result, err := s.Process(ctx, s.storage.Path(name))
	if err != nil {
		slog.Error("Failed to process upload",
			"filename", filename,
			"file_size", len(data),
			"error", err,
		)
		return Report{}, err
	}
	return NewReport(filename, result), nil
}

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	// Keep only alphanumeric, spaces, hyphens, and underscores
	base = reUnsafeChars.ReplaceAllString(base, "")
	base = reSpaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	// Truncate to reasonable length (50 chars for base, plus extension)
	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "invoice"
	}
	return base + reUnsafeChars.ReplaceAllString(ext, "")
}
