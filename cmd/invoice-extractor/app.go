package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/zombor/invoice-extractor/internal/cache"
	"github.com/zombor/invoice-extractor/internal/extraction"
	"github.com/zombor/invoice-extractor/internal/invoice"
	"github.com/zombor/invoice-extractor/internal/scanning"
)

// memoryCleanupInterval is how often expired in-memory cache entries are purged
const memoryCleanupInterval = 10 * time.Minute

// app owns every long-lived resource a command needs
type app struct {
	service *invoice.Service
	closers []func() error
}

// Close releases resources in reverse order of creation
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("Failed to release resource", "error", err)
		}
	}
}

func newApp(cfg *config) (*app, error) {
	if err := setupLogging(cfg.logLevel); err != nil {
		return nil, err
	}

	a := &app{}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	reader, err := newPageReader(cfg.pdfReader)
	if err != nil {
		return nil, err
	}

	engine, err := newOCR(cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, engine.Close)

	var lineCache scanning.Cache
	if cfg.cacheDB != "" {
		slog.Info("Opening acquisition cache...", "path", cfg.cacheDB, "ttl", cfg.cacheTTL)
		disk, err := cache.NewBolt(cfg.cacheDB, cfg.cacheTTL)
		if err != nil {
			return nil, fmt.Errorf("opening cache: %w", err)
		}
		a.closers = append(a.closers, disk.Close)
		lineCache = cache.NewLayered(cache.NewMemory(cfg.cacheTTL, memoryCleanupInterval), disk)
	}

	extractor, err := extraction.NewExtractor(extraction.Options{
		CurrencyGlyphs: splitList(cfg.currencyGlyphs, ","),
		CustomerStops:  splitList(cfg.customerStops, "|"),
	})
	if err != nil {
		return nil, fmt.Errorf("building extractor: %w", err)
	}

	spool, err := os.MkdirTemp("", "invoice-extractor-*")
	if err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	a.closers = append(a.closers, func() error { return os.RemoveAll(spool) })

	store, err := invoice.NewLocalStorage(spool)
	if err != nil {
		return nil, err
	}

	acquirer := scanning.NewAcquirer(reader, engine, lineCache)
	a.service = invoice.NewService(acquirer, extractor, store)
	ok = true
	return a, nil
}

func setupLogging(level string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
	return nil
}

func newPageReader(name string) (scanning.PageReader, error) {
	switch name {
	case "fitz":
		return scanning.NewFitzReader(), nil
	case "native":
		return scanning.NewNativeReader(), nil
	default:
		return nil, fmt.Errorf("invalid pdf reader %q (valid: fitz or native)", name)
	}
}

func newOCR(cfg *config) (scanning.OCR, error) {
	switch cfg.ocrEngine {
	case "tesseract":
		slog.Info("Initializing Tesseract...", "lang", cfg.lang)
		return scanning.NewTesseract(cfg.lang, cfg.tessdata)
	case "tesseract-cli":
		slog.Info("Using Tesseract executable", "bin", cfg.tesseractBin, "lang", cfg.lang)
		return scanning.NewTesseractCLI(cfg.tesseractBin, cfg.lang, cfg.tessdata), nil
	case "gemini":
		// Get Gemini API key from flag or environment
		apiKey := cfg.geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			return nil, errors.New("gemini API key is required: set --gemini-key or GEMINI_API_KEY")
		}
		slog.Info("Initializing Gemini...", "model", cfg.geminiModel)
		return scanning.NewGemini(apiKey, cfg.geminiModel)
	case "ollama":
		slog.Info("Initializing Ollama...", "url", cfg.ollamaURL, "model", cfg.ollamaModel)
		return scanning.NewOllama(cfg.ollamaURL, cfg.ollamaModel)
	default:
		return nil, fmt.Errorf("invalid ocr engine %q (valid: tesseract, tesseract-cli, gemini or ollama)", cfg.ocrEngine)
	}
}

// splitList splits s on sep and drops empty entries. Spaces are kept since
// customer stops may begin with one.
func splitList(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
