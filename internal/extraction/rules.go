package extraction

import (
	"fmt"
	"regexp"
	"strings"
)

// Character classes shared by the rule patterns. Word and space match Unicode
// letters, digits and separators so OCR output with non-ASCII text still lines up.
const (
	word      = `[\p{L}\p{N}_]`
	space     = `[\s\p{Z}]`
	wordSpace = `[\p{L}\p{N}_\s\p{Z}]`
	emailPart = `[\p{L}\p{N}_.\-]`
	date      = `(\d+` + space + `[A-Za-z]+` + space + `\d+)`
)

// Options holds the tunable parts of the rule table
type Options struct {
	// CurrencyGlyphs may appear between "Total" and the amount. Empty disables the prefix.
	CurrencyGlyphs []string
	// CustomerStops end the Customer Name run. A space in a stop matches any single space character.
	CustomerStops []string
}

// DefaultOptions accepts the rupee sign both as UTF-8 and as the mis-decoded
// bytes OCR engines sometimes emit for it.
func DefaultOptions() Options {
	return Options{
		CurrencyGlyphs: []string{"₹", "â‚¹"},
		CustomerStops:  []string{" Ph:", "Place"},
	}
}

// Rule maps a field to the pattern that finds it. The first capture group is the value.
type Rule struct {
	Field   Field
	Pattern *regexp.Regexp
	Post    func(string) string
}

// Apply returns the post-processed first capture of the first match, or NotFound
func (r Rule) Apply(text string) string {
	m := r.Pattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return NotFound
	}
	post := r.Post
	if post == nil {
		post = Clean
	}
	if v := post(m[1]); v != "" {
		return v
	}
	return NotFound
}

// Rules compiles the rule table, one rule per entry of Fields
func Rules(opts Options) ([]Rule, error) {
	stops := nonEmpty(opts.CustomerStops)
	if len(stops) == 0 {
		stops = DefaultOptions().CustomerStops
	}

	patterns := []struct {
		field   Field
		pattern string
	}{
		{CompanyName, `((?:` + word + `+` + space + `+){3}` + word + `+)` + space + `+GSTIN`},
		{GSTIN, `GSTIN` + space + `([\dA-Z]+)`},
		{PhoneNumber, `Mobile` + space + `*([+\d\s\p{Z}]+)`},
		{EmailAddress, `Email` + space + `*(` + emailPart + `+@` + emailPart + `+)`},
		{InvoiceNumber, `Invoice` + space + `#:` + space + `([A-Z0-9\-]+)`},
		{InvoiceDate, `Invoice Date:` + space + date},
		{DueDate, `Due Date:` + space + date},
		{CustomerName, `Customer Details:` + space + `(` + wordSpace + `+)` + alternation(stops)},
		{PlaceOfSupply, `Place of Supply:` + space + `([\dA-Z\- ]+)`},
		{TotalAmount, `Total` + space + optional(opts.CurrencyGlyphs) + `([\d,]+\.\d{2})`},
		{BankName, `Bank:` + space + `(` + wordSpace + `+) Account`},
		{AccountNumber, `Account` + space + `#:` + space + `(\d+)`},
	}

	rules := make([]Rule, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p.pattern)
		if err != nil {
			return nil, fmt.Errorf("compiling %s pattern: %w", p.field, err)
		}
		rules = append(rules, Rule{Field: p.field, Pattern: re, Post: Clean})
	}
	return rules, nil
}

// alternation builds a non-capturing group matching any of the literal cues
func alternation(cues []string) string {
	quoted := make([]string, 0, len(cues))
	for _, c := range cues {
		quoted = append(quoted, strings.ReplaceAll(regexp.QuoteMeta(c), " ", space))
	}
	return `(?:` + strings.Join(quoted, "|") + `)`
}

// optional is alternation made optional; no glyphs yields an empty fragment
func optional(glyphs []string) string {
	glyphs = nonEmpty(glyphs)
	if len(glyphs) == 0 {
		return ""
	}
	return alternation(glyphs) + `?`
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
