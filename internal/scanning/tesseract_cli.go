package scanning

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// TesseractCLI implements OCR by running the tesseract binary
type TesseractCLI struct {
	bin         string
	lang        string
	tessdataDir string
	runner      Runner
}

// NewTesseractCLI creates a new TesseractCLI engine
func NewTesseractCLI(bin, lang, tessdataDir string) *TesseractCLI {
	return NewTesseractCLIWithRunner(bin, lang, tessdataDir, execRunner{})
}

// NewTesseractCLIWithRunner creates a new TesseractCLI engine with a custom runner for testing
func NewTesseractCLIWithRunner(bin, lang, tessdataDir string, runner Runner) *TesseractCLI {
	if bin == "" {
		bin = "tesseract"
	}
	if lang == "" {
		lang = "eng"
	}
	return &TesseractCLI{bin: bin, lang: lang, tessdataDir: tessdataDir, runner: runner}
}

// Name implements OCR
func (t *TesseractCLI) Name() string { return "tesseract-cli" }

// CacheID implements OCR
func (t *TesseractCLI) CacheID() string {
	return "tesseract-cli:" + t.lang + ":" + t.tessdataDir
}

// Recognize implements OCR
func (t *TesseractCLI) Recognize(ctx context.Context, png []byte) (string, error) {
	f, err := os.CreateTemp("", "invoice-ocr-*.png")
	if err != nil {
		return "", fmt.Errorf("creating temp image: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(png); err != nil {
		f.Close()
		return "", fmt.Errorf("writing temp image: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing temp image: %w", err)
	}

	// tesseract <file> stdout -l <lang>
	args := []string{f.Name(), "stdout", "-l", t.lang}
	if t.tessdataDir != "" {
		args = append(args, "--tessdata-dir", t.tessdataDir)
	}
	out, errb, err := t.runner.Run(ctx, t.bin, args...)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%w: %v", ErrOCRUnavailable, err)
		}
		return "", fmt.Errorf("tesseract: %w: %s", err, strings.TrimSpace(string(errb)))
	}
	return string(out), nil
}

// Close implements OCR
func (t *TesseractCLI) Close() error {
	return nil
}
