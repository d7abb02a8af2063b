// Package gl implements the sales-to-GL aggregation engine: a pure,
// deterministic transformation from POS transactions into balanced
// per-store totals and journal rows.
package gl

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/brightleaf/glsync/internal/decimalutil"
	"github.com/brightleaf/glsync/internal/gl/domain"
	"github.com/brightleaf/glsync/internal/glerr"
)

// OverageVariant selects how the overage row is rendered. Both variants
// satisfy the double-entry balance invariant; signed-credit is the one
// this pipeline renders (see DESIGN.md).
type OverageVariant int

const (
	// OverageSignedCredit places the negated overage (debits minus
	// credits) in the credit column, allowing a negative value, so the
	// journal balances.
	OverageSignedCredit OverageVariant = iota
	// OverageSplitSign places a positive overage in the debit column and
	// a negative overage (as an absolute value) in the credit column.
	OverageSplitSign
)

// Aggregate reduces an ordered list of transactions for one store into a
// balanced StoreTotals for report date d (YYYY-MM-DD). It is a pure
// function: no I/O, no shared state, safe to call concurrently across
// stores.
func Aggregate(txns []domain.Transaction, reportDate string) (domain.StoreTotals, error) {
	var totals domain.StoreTotals

	grossSales := decimal.Zero
	discounts := decimal.Zero
	loyaltySpent := decimal.Zero
	tax := decimal.Zero
	cashPaid := decimal.Zero
	changeDue := decimal.Zero
	cashOnlyChangeDue := decimal.Zero
	debitPaid := decimal.Zero
	cogs := decimal.Zero

	for _, t := range txns {
		// I3: voided and non-retail transactions contribute nothing.
		if t.IsVoid || t.TransactionType != domain.TransactionRetail {
			continue
		}
		// Full-return transactions are backdated onto the original sale
		// via item-level IsReturned instead of flowing as their own line.
		if t.IsReturn {
			continue
		}

		excluded := func(item domain.Item) bool {
			if !item.IsReturned {
				return false
			}
			// I4: a return is excluded only once its return date has
			// been reached; future returns were not yet known.
			return item.ReturnDate == "" || item.ReturnDate <= reportDate
		}

		txGross := decimal.Zero
		txCOGS := decimal.Zero
		txDiscount := decimal.Zero
		allItemsReturned := len(t.Items) > 0

		if len(t.Items) > 0 && !t.Subtotal.IsZero() {
			for _, item := range t.Items {
				if excluded(item) {
					continue
				}
				allItemsReturned = false
				txGross = txGross.Add(item.TotalPrice)
				txCOGS = txCOGS.Add(item.UnitCost.Mul(item.Quantity))
				txDiscount = txDiscount.Add(item.TotalDiscount)
			}
		} else {
			// Empty item list or zero subtotal: an inventory adjustment
			// masquerading as a sale. Fall back to the transaction totals.
			txGross = t.Subtotal
			txDiscount = t.TotalDiscount
			allItemsReturned = false
		}

		grossSales = grossSales.Add(txGross)
		cogs = cogs.Add(txCOGS)

		loyaltyAmount := t.LoyaltySpent
		loyaltyFromLines := false
		if loyaltyAmount.IsZero() {
			loyaltyAmount, loyaltyFromLines = loyaltyFromDiscountLines(t.Discounts)
		}
		loyaltySpent = loyaltySpent.Add(loyaltyAmount)

		if loyaltyFromLines {
			discounts = discounts.Add(txDiscount)
		} else {
			discounts = discounts.Add(txDiscount.Sub(loyaltyAmount))
		}

		tax = tax.Add(t.Tax)

		if !allItemsReturned {
			cashPaid = cashPaid.Add(t.CashPaid)
			changeDue = changeDue.Add(t.ChangeDue)
			if t.DebitPaid.IsZero() && t.ElectronicPaid.IsZero() {
				cashOnlyChangeDue = cashOnlyChangeDue.Add(t.ChangeDue)
			}

			debitPaid = debitPaid.Add(t.DebitPaid)
			debitPaid = debitPaid.Add(t.ElectronicPaid)
			debitPaid = debitPaid.Add(t.PrePaymentAmount)

			if t.CashPaid.IsZero() && t.DebitPaid.IsZero() && t.ElectronicPaid.IsZero() && t.PrePaymentAmount.IsZero() {
				imputedDue := t.Subtotal.Add(t.Tax).Sub(t.TotalDiscount).Sub(loyaltyAmount)
				if imputedDue.IsPositive() {
					debitPaid = debitPaid.Add(imputedDue)
				}
			}
		}

		totals.TransactionCount++
	}

	netCash := cashPaid.Sub(cashOnlyChangeDue)
	overage := grossSales.Add(tax).Add(cogs).
		Sub(discounts.Add(decimal.Zero)). // returns is always zero
		Sub(loyaltySpent).Sub(netCash).Sub(debitPaid).Sub(cogs)

	totals.GrossSales = decimalutil.Round(grossSales)
	totals.Discounts = decimalutil.Round(discounts)
	totals.LoyaltySpent = decimalutil.Round(loyaltySpent)
	totals.Returns = decimal.Zero
	totals.Tax = decimalutil.Round(tax)
	totals.CashPaid = decimalutil.Round(cashPaid)
	totals.ChangeDue = decimalutil.Round(changeDue)
	totals.CashOnlyChangeDue = decimalutil.Round(cashOnlyChangeDue)
	totals.NetCash = decimalutil.Round(netCash)
	totals.DebitPaid = decimalutil.Round(debitPaid)
	totals.COGS = decimalutil.Round(cogs)
	totals.Overage = decimalutil.Round(overage)

	return totals, nil
}

// ValidateBalanced checks I1 against a fully-rendered set of GL rows:
// total debits must equal total credits within the two-decimal rounding
// tolerance.
func ValidateBalanced(rows []domain.GLRow) error {
	debit := decimal.Zero
	credit := decimal.Zero
	for _, r := range rows {
		debit = debit.Add(r.Debit)
		credit = credit.Add(r.Credit)
	}
	if !decimalutil.WithinTolerance(debit, credit) {
		return fmt.Errorf("%w: debit=%s credit=%s", glerr.ErrInvariantViolation,
			decimalutil.FormatUSD(debit), decimalutil.FormatUSD(credit))
	}
	return nil
}
