package evaluate

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/zombor/invoice-extractor/internal/extraction"
)

// Processor runs one document through acquisition and extraction.
// Implemented by invoice.Service.
type Processor interface {
	Process(ctx context.Context, path string) (extraction.Result, error)
}

// FileResult is the score of one document
type FileResult struct {
	Name     string              `json:"name"`
	Missing  int                 `json:"missing"`
	Accuracy float64             `json:"accuracy"`
	Fields   extraction.FieldMap `json:"fields,omitempty"`
	Err      error               `json:"-"`
}

// Summary aggregates a directory run
type Summary struct {
	Files      []FileResult             `json:"files"`
	Failed     []string                 `json:"failed"`
	Accuracy   float64                  `json:"accuracy"`
	AvgMissing float64                  `json:"avg_missing"`
	FieldHits  map[extraction.Field]int `json:"field_hits"`
}

// Evaluator scores extraction completeness over a directory of samples
type Evaluator struct {
	processor Processor
}

// NewEvaluator creates a new Evaluator
func NewEvaluator(processor Processor) *Evaluator {
	return &Evaluator{processor: processor}
}

// Accuracy is the percentage of fields found
func Accuracy(missing int) float64 {
	total := len(extraction.Fields)
	return float64(total-missing) / float64(total) * 100
}

// Run processes every regular file in dir in name order. A document that
// cannot be acquired scores zero and the run continues.
func (e *Evaluator) Run(ctx context.Context, dir string) (Summary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Summary{}, fmt.Errorf("reading directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	summary := Summary{
		Files:     []FileResult{},
		Failed:    []string{},
		FieldHits: make(map[extraction.Field]int, len(extraction.Fields)),
	}
	for _, f := range extraction.Fields {
		summary.FieldHits[f] = 0
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		path := filepath.Join(dir, entry.Name())
		result, err := e.processor.Process(ctx, path)
		if err != nil {
			slog.Error("Failed to process document", "path", path, "error", err)
			summary.Failed = append(summary.Failed, entry.Name())
			summary.Files = append(summary.Files, FileResult{
				Name:     entry.Name(),
				Missing:  len(extraction.Fields),
				Accuracy: 0,
				Err:      err,
			})
			continue
		}

		missing := result.Fields.Missing()
		for _, f := range extraction.Fields {
			if result.Fields.Found(f) {
				summary.FieldHits[f]++
			}
		}
		summary.Files = append(summary.Files, FileResult{
			Name:     entry.Name(),
			Missing:  missing,
			Accuracy: Accuracy(missing),
			Fields:   result.Fields,
		})
		slog.Debug("Scored document", "path", path, "missing", missing)
	}

	if n := len(summary.Files); n > 0 {
		var accuracy float64
		var missing int
		for _, r := range summary.Files {
			accuracy += r.Accuracy
			missing += r.Missing
		}
		summary.Accuracy = accuracy / float64(n)
		summary.AvgMissing = float64(missing) / float64(n)
	}
	return summary, nil
}

// Print writes the per-file lines followed by the summary
func (s Summary) Print(w io.Writer) error {
	total := len(extraction.Fields)
	ew := &errWriter{w: w}

	for _, r := range s.Files {
		ew.printf("Processed file: %s\n", r.Name)
		if r.Err != nil {
			ew.printf("Error: %v\n", r.Err)
		}
		ew.printf("Not found fields: %d out of %d\n", r.Missing, total)
		ew.printf("Accuracy for this file: %.2f%%\n\n", r.Accuracy)
	}

	ew.printf("\nSummary:\n")
	ew.printf("Total files processed: %d\n", len(s.Files))
	ew.printf("Overall accuracy: %.2f%%\n", s.Accuracy)
	if len(s.Files) > 0 {
		ew.printf("Average 'Not found' fields per file: %.2f\n", s.AvgMissing)
	} else {
		ew.printf("N/A\n")
	}
	if len(s.Failed) > 0 {
		ew.printf("Failed files: %d\n", len(s.Failed))
	}

	if len(s.Files) > 0 {
		ew.printf("\nField hits:\n")
		for _, f := range extraction.Fields {
			ew.printf("%s: %d/%d\n", f, s.FieldHits[f], len(s.Files))
		}
	}
	return ew.err
}

// errWriter keeps the first write error
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
