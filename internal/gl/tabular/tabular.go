// Package tabular implements the alternate CSV/JSON ingestion path: rows
// of pre-aggregated transaction data, recognized by column name, rolled up
// per store with the simpler tabular accounting rule (§4.4).
package tabular

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/brightleaf/glsync/internal/decimalutil"
	"github.com/brightleaf/glsync/internal/gl/domain"
)

// ColumnSpec maps a logical field to every column header name the
// upstream export might use for it. Declared as a table, walked once per
// header row, instead of a chain of per-row conditionals.
type ColumnSpec struct {
	Logical string
	Names   []string
}

var columnSpecs = []ColumnSpec{
	{"date", []string{"Transaction Date", "Transactions Transaction Date"}},
	{"location", []string{"Location Name", "Lsp Location Location Name"}},
	{"totalPrice", []string{"Total Price", "Transaction Items Total Price"}},
	{"discountAmount", []string{"Amount", "Transaction Item Discounts Amount"}},
	{"loyalty", []string{"Sum Total Loyalty Paid", "Transactions Sum Total Loyalty Paid"}},
	{"tax", []string{"Total Tax", "Transactions Total Tax"}},
	{"debit", []string{"Debit Paid", "Transactions Debit Paid"}},
	{"cash", []string{"Cash Paid", "Transactions Cash Paid"}},
	{"electronic", []string{"Electronic Paid", "Transactions Electronic Paid"}},
	{"cost", []string{"Total Cost", "Transaction Items Total Cost"}},
}

// Row is one parsed record from the tabular input, after column-name
// resolution and currency parsing.
type Row struct {
	Date           string
	Location       string
	TotalPrice     decimal.Decimal
	DiscountAmount decimal.Decimal
	Loyalty        decimal.Decimal
	Tax            decimal.Decimal
	Debit          decimal.Decimal
	Cash           decimal.Decimal
	Electronic     decimal.Decimal
	Cost           decimal.Decimal
}

// LocationAlias pairs a dashboard-reported location name with the
// internal store name it resolves to.
type LocationAlias struct {
	Dashboard string
	Internal  string
}

// LocationAliases resolves dashboard-reported location names to the
// internal store name used by the store registry: exact match first,
// then a substring fallback, logging whenever the fallback fires or no
// alias matches at all (§9). Kept as an ordered slice rather than a map
// so substring matching is deterministic across runs.
type LocationAliases struct {
	entries []LocationAlias
	log     *zap.Logger
}

// NewLocationAliases builds a LocationAliases table from entries, tried
// in the given order. A nil logger is replaced with a no-op one.
func NewLocationAliases(entries []LocationAlias, log *zap.Logger) LocationAliases {
	if log == nil {
		log = zap.NewNop()
	}
	return LocationAliases{entries: entries, log: log}
}

// Resolve returns the internal store name for a dashboard-reported
// location name. An exact match wins outright. Failing that, the first
// alias whose dashboard name and dashboardName share a substring
// relationship wins, and the fallback is logged. Failing that,
// dashboardName is returned unchanged, also logged, so an unresolved
// location is visible in the logs rather than silently misfiled.
func (a LocationAliases) Resolve(dashboardName string) string {
	for _, e := range a.entries {
		if e.Dashboard == dashboardName {
			return e.Internal
		}
	}
	for _, e := range a.entries {
		if e.Dashboard == "" {
			continue
		}
		if strings.Contains(dashboardName, e.Dashboard) || strings.Contains(e.Dashboard, dashboardName) {
			a.log.Warn("tabular: location alias resolved via substring fallback",
				zap.String("dashboard_name", dashboardName),
				zap.String("resolved_to", e.Internal))
			return e.Internal
		}
	}
	a.log.Warn("tabular: location alias unresolved, using dashboard name unchanged",
		zap.String("dashboard_name", dashboardName))
	return dashboardName
}

// ParseCSV parses a text/csv body into Rows, resolving column names via
// columnSpecs and currency strings via decimalutil.
func ParseCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("tabular: read csv header: %w", err)
	}
	index := resolveColumns(header)

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("tabular: read csv row: %w", err)
		}
		row, err := rowFromRecord(record, index)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// jsonEnvelope supports both the bare-array and {date, data} request body
// forms (§6.5).
type jsonEnvelope struct {
	Date string            `json:"date"`
	Data []map[string]any  `json:"data"`
}

// ParseJSON parses an application/json body into Rows. Accepts either a
// bare JSON array of row objects or an envelope {date, data}.
func ParseJSON(body []byte) ([]Row, string, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var raw []map[string]any
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, "", fmt.Errorf("tabular: parse json array: %w", err)
		}
		rows, err := rowsFromMaps(raw)
		return rows, "", err
	}

	var env jsonEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, "", fmt.Errorf("tabular: parse json envelope: %w", err)
	}
	rows, err := rowsFromMaps(env.Data)
	return rows, env.Date, err
}

func rowsFromMaps(maps []map[string]any) ([]Row, error) {
	rows := make([]Row, 0, len(maps))
	for _, m := range maps {
		record := map[string]string{}
		for k, v := range m {
			record[k] = fmt.Sprintf("%v", v)
		}
		row, err := rowFromFields(record)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func resolveColumns(header []string) map[string]int {
	index := map[string]int{}
	for _, spec := range columnSpecs {
		for i, col := range header {
			col = strings.TrimSpace(col)
			if containsName(spec.Names, col) {
				index[spec.Logical] = i
				break
			}
		}
	}
	return index
}

func containsName(names []string, col string) bool {
	for _, n := range names {
		if n == col {
			return true
		}
	}
	return false
}

func rowFromRecord(record []string, index map[string]int) (Row, error) {
	field := func(logical string) string {
		i, ok := index[logical]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}
	return buildRow(field)
}

func rowFromFields(fields map[string]string) (Row, error) {
	byLogical := map[string]string{}
	for _, spec := range columnSpecs {
		for _, name := range spec.Names {
			if v, ok := fields[name]; ok {
				byLogical[spec.Logical] = v
				break
			}
		}
	}
	return buildRow(func(logical string) string { return byLogical[logical] })
}

func buildRow(field func(string) string) (Row, error) {
	amount := func(logical string) (decimal.Decimal, error) {
		raw := field(logical)
		if raw == "" {
			return decimal.Zero, nil
		}
		return decimalutil.ParseAmount(raw)
	}

	totalPrice, err := amount("totalPrice")
	if err != nil {
		return Row{}, err
	}
	discountAmount, err := amount("discountAmount")
	if err != nil {
		return Row{}, err
	}
	loyalty, err := amount("loyalty")
	if err != nil {
		return Row{}, err
	}
	tax, err := amount("tax")
	if err != nil {
		return Row{}, err
	}
	debit, err := amount("debit")
	if err != nil {
		return Row{}, err
	}
	cash, err := amount("cash")
	if err != nil {
		return Row{}, err
	}
	electronic, err := amount("electronic")
	if err != nil {
		return Row{}, err
	}
	cost, err := amount("cost")
	if err != nil {
		return Row{}, err
	}

	return Row{
		Date:           field("date"),
		Location:       field("location"),
		TotalPrice:     totalPrice,
		DiscountAmount: discountAmount,
		Loyalty:        loyalty,
		Tax:            tax,
		Debit:          debit,
		Cash:           cash,
		Electronic:     electronic,
		Cost:           cost,
	}, nil
}

// Rollup accumulates the simpler tabular accounting rule across every row
// for one store.
func Rollup(rows []Row) domain.StoreTotals {
	var totals domain.StoreTotals

	grossSales := decimal.Zero
	discounts := decimal.Zero
	loyalty := decimal.Zero
	tax := decimal.Zero
	cash := decimal.Zero
	debit := decimal.Zero
	electronic := decimal.Zero
	cost := decimal.Zero

	for _, row := range rows {
		grossSales = grossSales.Add(row.TotalPrice)
		discounts = discounts.Add(row.DiscountAmount)
		loyalty = loyalty.Add(row.Loyalty)
		tax = tax.Add(row.Tax)
		cash = cash.Add(row.Cash)
		debit = debit.Add(row.Debit)
		electronic = electronic.Add(row.Electronic)
		cost = cost.Add(row.Cost)
		totals.TransactionCount++
	}

	debitTotal := debit.Add(electronic)
	overage := discounts.Add(loyalty).Add(cash).Add(debitTotal).
		Sub(grossSales).Sub(tax)

	totals.GrossSales = decimalutil.Round(grossSales)
	totals.Discounts = decimalutil.Round(discounts)
	totals.LoyaltySpent = decimalutil.Round(loyalty)
	totals.Tax = decimalutil.Round(tax)
	totals.NetCash = decimalutil.Round(cash)
	totals.DebitPaid = decimalutil.Round(debitTotal)
	totals.COGS = decimalutil.Round(cost)
	totals.Overage = decimalutil.Round(overage)
	return totals
}
