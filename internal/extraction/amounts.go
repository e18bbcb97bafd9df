package extraction

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// reItemAmount matches a tax rate closing paren followed by the line amount, e.g. "18%) 1,234.56"
var reItemAmount = regexp.MustCompile(`%\) ([\d,]+\.\d{2})`)

// Verdict is the outcome of comparing the item sum with the stated total
type Verdict string

const (
	Trusted     Verdict = "trusted"
	NotTrusted  Verdict = "not-trusted"
	Unparseable Verdict = "unparseable"
)

// ParseAmount parses a decimal amount after removing thousands separators
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return d, nil
}

// ItemAmounts collects the amount of every line-item line, in line order.
// Lines whose amount cannot be parsed are skipped.
func ItemAmounts(lines []string) []decimal.Decimal {
	amounts := make([]decimal.Decimal, 0)
	for _, line := range lines {
		m := reItemAmount.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		d, err := ParseAmount(m[1])
		if err != nil {
			continue
		}
		amounts = append(amounts, d)
	}
	return amounts
}

// SumAmounts adds the amounts and rounds to whole units, half to even
func SumAmounts(amounts []decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, a := range amounts {
		sum = sum.Add(a)
	}
	return sum.RoundBank(0)
}

// Reconcile compares the stated total against the rounded item sum
func Reconcile(total string, itemSum decimal.Decimal) Verdict {
	t, err := ParseAmount(total)
	if err != nil {
		return Unparseable
	}
	if t.Equal(itemSum) {
		return Trusted
	}
	return NotTrusted
}

