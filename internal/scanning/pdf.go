package scanning

import (
	"bytes"
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"
)

// FitzReader reads PDF text layers with MuPDF
type FitzReader struct{}

// NewFitzReader creates a new FitzReader
func NewFitzReader() *FitzReader {
	return &FitzReader{}
}

// Name implements PageReader
func (FitzReader) Name() string { return "fitz" }

// PageTexts returns the text of every page in page order. MuPDF separates text
// blocks with blank lines; those are dropped so each line is a line of the page.
func (FitzReader) PageTexts(data []byte) ([]string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	pages := make([]string, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err != nil {
			return nil, fmt.Errorf("reading page %d: %w", i+1, err)
		}
		pages = append(pages, dropBlankLines(text))
	}
	return pages, nil
}

// NativeReader reads PDF text layers without cgo
type NativeReader struct{}

// NewNativeReader creates a new NativeReader
func NewNativeReader() *NativeReader {
	return &NativeReader{}
}

// Name implements PageReader
func (NativeReader) Name() string { return "native" }

// Glyphs closer than this fraction of the font size share a row, and a
// horizontal gap wider than wordGap of the font size separates two words.
const (
	rowTolerance = 0.5
	wordGap      = 0.15
)

// PageTexts returns the text of every page in page order, rebuilt line by
// line from glyph positions.
func (NativeReader) PageTexts(data []byte) (pages []string, err error) {
	// the parser panics on malformed content streams
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("reading PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}

	pages = make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, strings.Join(glyphLines(p.Content().Text), "\n"))
	}
	return pages, nil
}

// glyphLines groups glyphs into rows from the top of the page down and joins
// each row left to right.
func glyphLines(glyphs []pdf.Text) []string {
	sorted := slices.Clone(glyphs)
	// stable so glyphs sharing a position keep content-stream order
	slices.SortStableFunc(sorted, func(a, b pdf.Text) int {
		return cmp.Compare(b.Y, a.Y)
	})

	var rows [][]pdf.Text
	for _, g := range sorted {
		if n := len(rows); n > 0 {
			first := rows[n-1][0]
			if math.Abs(first.Y-g.Y) <= rowTolerance*math.Max(first.FontSize, 1) {
				rows[n-1] = append(rows[n-1], g)
				continue
			}
		}
		rows = append(rows, []pdf.Text{g})
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		if line := joinRow(row); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func joinRow(row []pdf.Text) string {
	slices.SortStableFunc(row, func(a, b pdf.Text) int {
		return cmp.Compare(a.X, b.X)
	})

	var b strings.Builder
	var prev *pdf.Text
	for i := range row {
		g := &row[i]
		if prev != nil && g.S != " " && !strings.HasSuffix(b.String(), " ") {
			if g.X-(prev.X+prev.W) > wordGap*math.Max(g.FontSize, 1) {
				b.WriteByte(' ')
			}
		}
		b.WriteString(g.S)
		prev = g
	}
	return strings.TrimSpace(b.String())
}

func dropBlankLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}
