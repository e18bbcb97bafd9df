package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/peterbourgon/ff/v4"

	"github.com/zombor/invoice-extractor/internal/evaluate"
	"github.com/zombor/invoice-extractor/internal/invoice"
)

// errUsage marks a command invoked with the wrong arguments
var errUsage = errors.New("invalid arguments")

// config holds every flag of the command tree
type config struct {
	logLevel       string
	ocrEngine      string
	lang           string
	tessdata       string
	tesseractBin   string
	geminiKey      string
	geminiModel    string
	ollamaURL      string
	ollamaModel    string
	pdfReader      string
	cacheDB        string
	cacheTTL       time.Duration
	currencyGlyphs string
	customerStops  string
	showVersion    bool

	jsonOutput bool

	port     int
	authUser string
	authPass string
}

func newRootCommand(cfg *config) *ff.Command {
	rootFlags := ff.NewFlagSet("invoice-extractor")
	rootFlags.StringVar(&cfg.logLevel, 0, "log-level", "info", "Log level: debug, info, warn or error")
	rootFlags.StringVar(&cfg.ocrEngine, 0, "ocr", "tesseract", "OCR engine: tesseract, tesseract-cli, gemini or ollama")
	rootFlags.StringVar(&cfg.lang, 0, "lang", "eng", "Tesseract language")
	rootFlags.StringVar(&cfg.tessdata, 0, "tessdata", "", "Tesseract tessdata directory (optional)")
	rootFlags.StringVar(&cfg.tesseractBin, 0, "tesseract-bin", "tesseract", "Tesseract executable for --ocr tesseract-cli")
	rootFlags.StringVar(&cfg.geminiKey, 0, "gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
	rootFlags.StringVar(&cfg.geminiModel, 0, "gemini-model", "gemini-2.5-pro", "Google Gemini model name")
	rootFlags.StringVar(&cfg.ollamaURL, 0, "ollama-url", "http://localhost:11434", "Ollama API base URL")
	rootFlags.StringVar(&cfg.ollamaModel, 0, "ollama-model", "llava", "Ollama model name (e.g., llava, llava-phi3, bakllava, qwen2-vl)")
	rootFlags.StringVar(&cfg.pdfReader, 0, "pdf-reader", "fitz", "PDF text reader: fitz or native")
	rootFlags.StringVar(&cfg.cacheDB, 0, "cache-db", "", "Cache acquired text in this BoltDB file (empty disables)")
	rootFlags.DurationVar(&cfg.cacheTTL, 0, "cache-ttl", 0, "Cache entry lifetime (0 keeps entries forever)")
	rootFlags.StringVar(&cfg.currencyGlyphs, 0, "currency-glyphs", "₹,â‚¹", "Comma-separated currency glyphs allowed before the total")
	rootFlags.StringVar(&cfg.customerStops, 0, "customer-stops", " Ph:|Place", "Pipe-separated cues that end the customer name")
	rootFlags.BoolVar(&cfg.showVersion, 0, "version", "Show version information")

	root := &ff.Command{
		Name:      "invoice-extractor",
		Usage:     "invoice-extractor [FLAGS] <SUBCOMMAND> ...",
		ShortHelp: "extract fields from scanned invoices and PDFs",
		Flags:     rootFlags,
		Exec: func(ctx context.Context, args []string) error {
			if cfg.showVersion {
				fmt.Println(version)
				return nil
			}
			return ff.ErrNoExec
		},
	}

	extractFlags := ff.NewFlagSet("extract").SetParent(rootFlags)
	extractFlags.BoolVar(&cfg.jsonOutput, 0, "json", "Print the report as JSON")
	extract := &ff.Command{
		Name:      "extract",
		Usage:     "invoice-extractor extract [FLAGS] <file>",
		ShortHelp: "extract the fields of one invoice",
		Flags:     extractFlags,
		Exec: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("extract requires exactly one file: %w", errUsage)
			}
			return runExtract(ctx, cfg, args[0])
		},
	}

	evaluateFlags := ff.NewFlagSet("evaluate").SetParent(rootFlags)
	evaluateCmd := &ff.Command{
		Name:      "evaluate",
		Usage:     "invoice-extractor evaluate [FLAGS] <dir>",
		ShortHelp: "score extraction completeness over a directory of invoices",
		Flags:     evaluateFlags,
		Exec: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("evaluate requires exactly one directory: %w", errUsage)
			}
			return runEvaluate(ctx, cfg, args[0])
		},
	}

	serveFlags := ff.NewFlagSet("serve").SetParent(rootFlags)
	serveFlags.IntVar(&cfg.port, 0, "port", 8080, "HTTP server port")
	serveFlags.StringVar(&cfg.authUser, 0, "auth-user", "", "Basic auth username (optional)")
	serveFlags.StringVar(&cfg.authPass, 0, "auth-pass", "", "Basic auth password (optional)")
	serve := &ff.Command{
		Name:      "serve",
		Usage:     "invoice-extractor serve [FLAGS]",
		ShortHelp: "serve the upload page and extraction API",
		Flags:     serveFlags,
		Exec: func(ctx context.Context, args []string) error {
			return runServe(ctx, cfg)
		},
	}

	root.Subcommands = []*ff.Command{extract, evaluateCmd, serve}
	return root
}

func runExtract(ctx context.Context, cfg *config, path string) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.service.Process(ctx, path)
	if err != nil {
		return err
	}

	report := invoice.NewReport(path, result)
	if cfg.jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	_, err = fmt.Fprint(os.Stdout, report.Text())
	return err
}

func runEvaluate(ctx context.Context, cfg *config, dir string) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	summary, err := evaluate.NewEvaluator(a.service).Run(ctx, dir)
	if err != nil {
		return err
	}
	return summary.Print(os.Stdout)
}

func runServe(ctx context.Context, cfg *config) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	basicAuth := invoice.BasicAuth{
		Username: cfg.authUser,
		Password: cfg.authPass,
	}
	server := invoice.NewServer(a.service, basicAuth)

	addr := fmt.Sprintf(":%d", cfg.port)
	if cfg.authUser != "" || cfg.authPass != "" {
		slog.Info("Basic auth enabled", "user", cfg.authUser)
	}

	// Start returns once in-flight requests are done, before the deferred Close removes the spool
	if err := server.Start(ctx, addr); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
