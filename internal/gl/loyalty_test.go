package gl

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brightleaf/glsync/internal/gl/domain"
)

// TestClassifyDiscountLine covers S3: the classifier must probe both
// discountName and discountReason, since POS vendors put the matchable
// region pattern in whichever field they populate for a given promotion.
func TestClassifyDiscountLine(t *testing.T) {
	cases := []struct {
		name string
		line domain.DiscountLine
		want loyaltyClass
	}{
		{
			name: "missouri star pattern in discountReason, generic discountName",
			line: domain.DiscountLine{DiscountName: "Promo", DiscountReason: "* Loyalty 10"},
			want: classLoyalty,
		},
		{
			name: "missouri star pattern in discountName",
			line: domain.DiscountLine{DiscountName: "* Loyalty 10"},
			want: classLoyalty,
		},
		{
			name: "florida loyalty points suffix is a discount, not loyalty",
			line: domain.DiscountLine{DiscountName: "5 Loyalty Points"},
			want: classDiscount,
		},
		{
			name: "illinois dutchie loyalty prefix",
			line: domain.DiscountLine{DiscountReason: "Dutchie Loyalty Redemption"},
			want: classLoyalty,
		},
		{
			name: "loyalty applied prefix",
			line: domain.DiscountLine{DiscountName: "Loyalty Applied - $5"},
			want: classLoyalty,
		},
		{
			name: "unrelated discount",
			line: domain.DiscountLine{DiscountName: "Manager Comp"},
			want: classNone,
		},
		{
			name: "case-insensitive match",
			line: domain.DiscountLine{DiscountReason: "dutchie loyalty"},
			want: classLoyalty,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, classifyDiscountLine(tc.line))
		})
	}
}

func TestLoyaltyFromDiscountLines_SumsOnlyLoyaltyClassifiedLines(t *testing.T) {
	lines := []domain.DiscountLine{
		{DiscountReason: "* Loyalty 10", Amount: dec("10")},
		{DiscountName: "Manager Comp", Amount: dec("5")},
	}
	total, found := loyaltyFromDiscountLines(lines)
	assert.True(t, found)
	assert.True(t, total.Equal(dec("10")))

	total, found = loyaltyFromDiscountLines([]domain.DiscountLine{{DiscountName: "5 Loyalty Points", Amount: dec("15")}})
	assert.False(t, found)
	assert.True(t, total.Equal(dec("0")))
}
