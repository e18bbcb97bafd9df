package scanning

import (
	"context"
	"fmt"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract implements OCR with the linked libtesseract
type Tesseract struct {
	mu     sync.Mutex
	client *gosseract.Client
	id     string
}

// NewTesseract creates a new Tesseract engine for a single language
func NewTesseract(lang, tessdataDir string) (*Tesseract, error) {
	if lang == "" {
		lang = "eng"
	}
	client := gosseract.NewClient()
	if err := client.SetLanguage(lang); err != nil {
		client.Close()
		return nil, fmt.Errorf("setting tesseract language: %w", err)
	}
	if tessdataDir != "" {
		if err := client.SetTessdataPrefix(tessdataDir); err != nil {
			client.Close()
			return nil, fmt.Errorf("setting tessdata dir: %w", err)
		}
	}
	return &Tesseract{client: client, id: "tesseract:" + lang + ":" + tessdataDir}, nil
}

// Name implements OCR
func (t *Tesseract) Name() string { return "tesseract" }

// CacheID implements OCR
func (t *Tesseract) CacheID() string { return t.id }

// Recognize implements OCR. The client is not safe for concurrent use, so calls are serialised.
func (t *Tesseract) Recognize(_ context.Context, png []byte) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.client.SetImageFromBytes(png); err != nil {
		return "", fmt.Errorf("loading image into tesseract: %w", err)
	}
	text, err := t.client.Text()
	if err != nil {
		// gosseract initialises the engine lazily, so missing traineddata surfaces here
		return "", fmt.Errorf("%w: %v", ErrOCRUnavailable, err)
	}
	return text, nil
}

// Close releases the tesseract handle
func (t *Tesseract) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.client.Close()
}
