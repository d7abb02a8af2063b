package gl

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/brightleaf/glsync/internal/gl/domain"
)

// loyaltyClass is the outcome of matching a discount line against the
// region loyalty patterns.
type loyaltyClass int

const (
	classNone loyaltyClass = iota
	classLoyalty
	classDiscount
)

// loyaltyRule matches a discount line's name or reason against a
// region-specific pattern. Rules are evaluated in order; the first match wins. Kept as a
// table rather than nested conditionals so a new region pattern is a new
// row, not a new branch.
type loyaltyRule struct {
	name    string
	matches func(name string) bool
	class   loyaltyClass
}

var loyaltyRules = []loyaltyRule{
	{
		name:  "florida-loyalty-points-discount",
		class: classDiscount,
		matches: func(name string) bool {
			return strings.HasSuffix(name, "LOYALTY POINTS")
		},
	},
	{
		name:  "illinois-dutchie-loyalty",
		class: classLoyalty,
		matches: func(name string) bool {
			return strings.HasPrefix(name, "DUTCHIE LOYALTY")
		},
	},
	{
		name:  "missouri-star-loyalty",
		class: classLoyalty,
		matches: func(name string) bool {
			return strings.HasPrefix(name, "* LOYALTY")
		},
	},
	{
		name:  "loyalty-applied",
		class: classLoyalty,
		matches: func(name string) bool {
			return strings.HasPrefix(name, "LOYALTY APPLIED")
		},
	},
}

// classifyDiscountLine returns how a single discount line should be
// treated, matching loyaltyRules case-insensitively against both the
// discount name and the discount reason. POS vendors put the matchable
// pattern in whichever field they populate for a given promotion code -
// e.g. a Missouri-style "* Loyalty 10" line arrives in discountReason
// with a generic discountName - so both are probed, name first.
func classifyDiscountLine(line domain.DiscountLine) loyaltyClass {
	candidates := []string{
		strings.ToUpper(strings.TrimSpace(line.DiscountName)),
		strings.ToUpper(strings.TrimSpace(line.DiscountReason)),
	}
	for _, rule := range loyaltyRules {
		for _, candidate := range candidates {
			if candidate != "" && rule.matches(candidate) {
				return rule.class
			}
		}
	}
	return classNone
}

// loyaltyFromDiscountLines derives the loyalty amount by summing discount
// lines classified as loyalty, along with whether any loyalty-classified
// line was found at all (so the caller knows whether loyalty came from
// discount lines versus the POS field).
func loyaltyFromDiscountLines(lines []domain.DiscountLine) (decimal.Decimal, bool) {
	total := decimal.Zero
	found := false
	for _, line := range lines {
		if classifyDiscountLine(line) == classLoyalty {
			total = total.Add(line.Amount)
			found = true
		}
	}
	return total, found
}
