package invoice

import (
	"fmt"
	"strings"

	"github.com/zombor/invoice-extractor/internal/extraction"
)

// Verdict messages shown to the user
const (
	msgTrusted     = "Sum of calculated item amounts is equal to Total Amount. Extracted Data is Trusted."
	msgNotTrusted  = "Sum of calculated item amounts is NOT equal to Total Amount. Extracted Data is NOT Trusted."
	msgUnparseable = "Total Amount could not be parsed. Please check the extracted data."
)

// FieldRow is one extracted field ready for display
type FieldRow struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Found bool   `json:"found"`
}

// Report is the presentation-ready form of an extraction result
type Report struct {
	Document string             `json:"document"`
	Fields   []FieldRow         `json:"fields"`
	Items    []string           `json:"items"`
	ItemSum  string             `json:"item_sum"`
	Verdict  extraction.Verdict `json:"verdict"`
	Message  string             `json:"message"`
	Missing  int                `json:"missing"`
}

// NewReport formats an extraction result for display. It has no side effects.
func NewReport(document string, result extraction.Result) Report {
	fields := make([]FieldRow, 0, len(extraction.Fields))
	for _, f := range extraction.Fields {
		value, ok := result.Fields[f]
		if !ok {
			value = extraction.NotFound
		}
		fields = append(fields, FieldRow{
			Name:  string(f),
			Value: value,
			Found: value != extraction.NotFound,
		})
	}

	items := make([]string, 0, len(result.Items))
	for _, a := range result.Items {
		items = append(items, a.StringFixed(2))
	}

	return Report{
		Document: document,
		Fields:   fields,
		Items:    items,
		ItemSum:  result.ItemSum.StringFixed(2),
		Verdict:  result.Verdict,
		Message:  verdictMessage(result.Verdict),
		Missing:  result.Fields.Missing(),
	}
}

func verdictMessage(v extraction.Verdict) string {
	switch v {
	case extraction.Trusted:
		return msgTrusted
	case extraction.NotTrusted:
		return msgNotTrusted
	default:
		return msgUnparseable
	}
}

// Text renders the report as plain text
func (r Report) Text() string {
	var b strings.Builder

	b.WriteString("Extracted Invoice Data:\n")
	for _, f := range r.Fields {
		fmt.Fprintf(&b, "%s: %s\n", f.Name, f.Value)
	}

	b.WriteString("\nExtracted Item Amounts:\n")
	for i, item := range r.Items {
		fmt.Fprintf(&b, "Item %d Amount: %s\n", i+1, item)
	}

	fmt.Fprintf(&b, "\nSum of Item Amounts: %s\n", r.ItemSum)
	fmt.Fprintf(&b, "\n%s\n", r.Message)
	return b.String()
}
