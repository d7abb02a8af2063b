package gl

import (
	"github.com/shopspring/decimal"

	"github.com/brightleaf/glsync/internal/gl/domain"
)

const (
	subaccountRevenueExpense = "20-00"
	subaccountOther          = "00-00"
	fixedQuantity            = "1.00"
)

type accountLine struct {
	code string
	desc string
	side string // "debit", "credit", or "balance" (overage)
}

// accountOrder is the fixed 10-row account layout every store's journal
// renders in, in this exact order.
var accountOrder = []accountLine{
	{"40001", "Sales Income - Retail Sales", "credit"},
	{"40002", "Retail Income: Discounts and Coupons", "debit"},
	{"40003", "Retail Income: Sales Return", "debit"},
	{"40004", "Loyalty Discounts", "debit"},
	{"23500", "Taxes Payable - Sales & Use", "credit"},
	{"10000", "Cash on Hand", "debit"},
	{"11010", "Debit Card Receivable", "debit"},
	{"70260", "Overage/Shortage - Cash Ledger Adj", "balance"},
	{"50000", "Retail COG - Consumable Products for Resale", "debit"},
	{"12250", "Inventory - Finished Goods", "credit"},
}

func subaccountFor(code string) string {
	if len(code) == 0 {
		return subaccountOther
	}
	switch code[0] {
	case '4', '5', '7':
		return subaccountRevenueExpense
	default:
		return subaccountOther
	}
}

// BuildJournal renders totals into the fixed 10-row journal for one store
// on reportDate, applying the chosen overage rendering variant.
func BuildJournal(store domain.Store, totals domain.StoreTotals, reportDate string, variant OverageVariant) []domain.GLRow {
	amounts := map[string]decimal.Decimal{
		"40001": totals.GrossSales,
		"40002": totals.Discounts,
		"40003": totals.Returns,
		"40004": totals.LoyaltySpent,
		"23500": totals.Tax,
		"10000": totals.NetCash,
		"11010": totals.DebitPaid,
		"70260": totals.Overage,
		"50000": totals.COGS,
		"12250": totals.COGS,
	}

	refNumber := reportDate + " DS"
	rows := make([]domain.GLRow, 0, len(accountOrder))

	// The balance row must absorb whatever gap exists between the other
	// nine rows' debit and credit sums, regardless of which input path
	// (POS aggregation or tabular import) computed totals.Overage under
	// its own sign convention — those conventions differ (see gl and
	// tabular packages), so the row is derived from the actual debit/
	// credit sums rather than trusted blindly.
	creditSum, debitSum := decimal.Zero, decimal.Zero
	for _, acct := range accountOrder {
		if acct.side == "balance" {
			continue
		}
		amount := amounts[acct.code]
		if acct.side == "credit" {
			creditSum = creditSum.Add(amount)
		} else {
			debitSum = debitSum.Add(amount)
		}
	}
	gap := creditSum.Sub(debitSum)

	for _, acct := range accountOrder {
		row := domain.GLRow{
			BranchCode:  store.BranchCode,
			StoreName:   store.Name,
			AccountCode: acct.code,
			AccountDesc: acct.desc,
			Subaccount:  subaccountFor(acct.code),
			RefNumber:   refNumber,
			Quantity:    fixedQuantity,
			UOM:         "",
		}

		switch acct.side {
		case "debit":
			row.Debit = amounts[acct.code]
		case "credit":
			row.Credit = amounts[acct.code]
		case "balance":
			applyOverage(&row, gap, variant)
		}
		rows = append(rows, row)
	}

	return rows
}

// applyOverage writes the balancing amount so the 10-row journal satisfies
// I1. gap is (creditSum - debitSum) across the other nine rows.
func applyOverage(row *domain.GLRow, gap decimal.Decimal, variant OverageVariant) {
	switch variant {
	case OverageSplitSign:
		if gap.IsNegative() {
			row.Credit = gap.Abs()
		} else {
			row.Debit = gap
		}
	default: // OverageSignedCredit
		row.Credit = gap.Neg()
	}
}
