// Package domain holds the entities the GL pipeline operates on: stores,
// POS transactions, and the computed totals and journal rows derived from
// them.
package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/brightleaf/glsync/internal/timeresolver"
)

// TransactionType classifies a POS transaction. Only Retail transactions
// contribute to the GL per I3.
type TransactionType string

const (
	TransactionRetail    TransactionType = "Retail"
	TransactionWholesale TransactionType = "Wholesale"
	TransactionTransfer  TransactionType = "Transfer"
)

// Store is an immutable-within-a-job-run retail location descriptor.
type Store struct {
	ID         string
	Name       string
	BranchCode string
	Timezone   string
	PosAPIKey  string
	IsActive   bool

	// DashboardAlias is the location name the tabular CSV/JSON ingestion
	// path (§4.4) reports for this store, when it differs from Name.
	// Empty for stores never fed through that path.
	DashboardAlias string
}

// Item is a single line of a transaction.
type Item struct {
	ProductID     string
	TotalPrice    decimal.Decimal
	TotalDiscount decimal.Decimal
	UnitCost      decimal.Decimal
	Quantity      decimal.Decimal
	IsReturned    bool
	ReturnDate    string // YYYY-MM-DD, empty when not returned
}

// DiscountLine is a named discount applied to a transaction, used to
// reconcile region-specific loyalty accounting when the POS loyalty field
// itself is zero.
type DiscountLine struct {
	DiscountName   string
	DiscountReason string
	Amount         decimal.Decimal
}

// Transaction is the subset of the POS wire model the GL pipeline relies
// on.
type Transaction struct {
	TransactionID            string
	TransactionType          TransactionType
	TransactionDate          time.Time // UTC instant
	TransactionDateLocalTime timeresolver.LocalDateTime

	IsVoid   bool
	IsReturn bool

	Subtotal          decimal.Decimal
	TotalDiscount     decimal.Decimal
	Tax               decimal.Decimal
	Total             decimal.Decimal
	Paid              decimal.Decimal
	CashPaid          decimal.Decimal
	DebitPaid         decimal.Decimal
	ElectronicPaid    decimal.Decimal
	CreditPaid        decimal.Decimal
	PrePaymentAmount  decimal.Decimal
	ChangeDue         decimal.Decimal
	LoyaltySpent      decimal.Decimal

	Items     []Item
	Discounts []DiscountLine
}

// StoreTotals is the computed result of aggregating a store's transactions
// for a single report date or hour.
type StoreTotals struct {
	GrossSales        decimal.Decimal
	Discounts         decimal.Decimal
	LoyaltySpent      decimal.Decimal
	Returns           decimal.Decimal
	Tax               decimal.Decimal
	CashPaid          decimal.Decimal
	ChangeDue         decimal.Decimal
	CashOnlyChangeDue decimal.Decimal
	NetCash           decimal.Decimal
	DebitPaid         decimal.Decimal
	COGS              decimal.Decimal
	Overage           decimal.Decimal
	TransactionCount  int
}

// GLRow is one of the fixed 10 journal lines emitted per store per day.
type GLRow struct {
	BranchCode string
	StoreName  string
	AccountCode string
	AccountDesc string
	Subaccount string
	RefNumber  string
	Quantity   string
	UOM        string
	Debit      decimal.Decimal
	Credit     decimal.Decimal
}
