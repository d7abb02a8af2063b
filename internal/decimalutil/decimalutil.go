// Package decimalutil centralizes monetary parsing and formatting so every
// component that touches money amounts rounds and parses the same way.
// All amounts are shopspring/decimal values; float64 is never used for
// money because the double-entry balance invariant cannot tolerate binary
// floating-point drift.
package decimalutil

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TwoPlaces is the rounding scale used for every rendered amount.
const TwoPlaces = 2

// Zero is the canonical zero amount at two-decimal scale.
var Zero = decimal.Zero

// ParseAmount parses a currency string in any of the forms the POS feeds and
// tabular imports produce: "1234.56", "1,234.56", "$1,234.56", "-$12.00",
// or "(12.00)" for a negative amount in accounting notation.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, fmt.Errorf("decimalutil: empty amount")
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		negative = true
		s = strings.TrimPrefix(s, "-")
		s = strings.TrimPrefix(s, "$")
	}
	s = strings.ReplaceAll(s, ",", "")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("decimalutil: invalid amount %q: %w", raw, err)
	}
	if negative {
		d = d.Neg()
	}
	return d.Round(TwoPlaces), nil
}

// Round rounds d to two decimal places, halves away from zero, matching
// the scale every rendered journal line is held to.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(TwoPlaces)
}

// FormatUSD renders d as a thousands-grouped, two-decimal amount with no
// currency symbol, e.g. "1,234.56" or "-12.00".
func FormatUSD(d decimal.Decimal) string {
	d = Round(d)
	neg := d.IsNegative()
	if neg {
		d = d.Neg()
	}

	whole := d.Truncate(0).String()
	frac := d.Sub(d.Truncate(0)).Shift(TwoPlaces).Abs().Truncate(0).String()
	for len(frac) < TwoPlaces {
		frac = "0" + frac
	}

	grouped := groupThousands(whole)
	out := grouped + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}

func groupThousands(whole string) string {
	if len(whole) <= 3 {
		return whole
	}
	var parts []string
	for len(whole) > 3 {
		parts = append([]string{whole[len(whole)-3:]}, parts...)
		whole = whole[:len(whole)-3]
	}
	parts = append([]string{whole}, parts...)
	return strings.Join(parts, ",")
}

// Sum adds a slice of amounts, rounding the result to two decimal places.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return Round(total)
}

// WithinTolerance reports whether a and b differ by no more than the
// two-decimal rounding tolerance (0.01) used by the balance invariant.
func WithinTolerance(a, b decimal.Decimal) bool {
	diff := a.Sub(b).Abs()
	return diff.LessThanOrEqual(decimal.NewFromFloat(0.01))
}
