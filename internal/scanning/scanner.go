package scanning

import "context"

// OCR turns a preprocessed page image into text
type OCR interface {
	// Recognize returns the text found in a PNG-encoded image
	Recognize(ctx context.Context, png []byte) (string, error)
	// Name identifies the engine in logs
	Name() string
	// CacheID identifies the engine and the settings that shape its output
	CacheID() string
	// Close releases the engine's resources
	Close() error
}

// PageReader extracts the embedded text layer of a PDF, one string per page
type PageReader interface {
	PageTexts(pdf []byte) ([]string, error)
	Name() string
}
