package extraction

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Result is everything extracted from one document's lines
type Result struct {
	Fields  FieldMap          `json:"fields"`
	Items   []decimal.Decimal `json:"items"`
	ItemSum decimal.Decimal   `json:"item_sum"`
	Verdict Verdict           `json:"verdict"`
}

// Extractor applies a compiled rule table. It holds no per-document state.
type Extractor struct {
	rules []Rule
}

// NewExtractor compiles the rule table for the given options
func NewExtractor(opts Options) (*Extractor, error) {
	rules, err := Rules(opts)
	if err != nil {
		return nil, err
	}
	return &Extractor{rules: rules}, nil
}

// Rules returns the compiled rule table
func (e *Extractor) Rules() []Rule {
	return e.rules
}

// Extract maps the lines of one document to fields, item amounts and a verdict
func (e *Extractor) Extract(lines []string) Result {
	text := strings.Join(lines, " ")

	fields := newFieldMap()
	for _, r := range e.rules {
		fields[r.Field] = r.Apply(text)
	}

	items := ItemAmounts(lines)
	sum := SumAmounts(items)

	return Result{
		Fields:  fields,
		Items:   items,
		ItemSum: sum,
		Verdict: Reconcile(fields[TotalAmount], sum),
	}
}
