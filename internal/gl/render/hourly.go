package render

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// HourlyAggregatedColumns is the fixed column order for the aggregated
// hourly profile output.
var HourlyAggregatedColumns = []string{
	"Branch", "Store Name", "Hour (UTC)", "Sales", "Transactions",
	"Discounts", "Tax", "Returns", "Net Sales",
}

// HourlyDetailedColumns adds a Date column between Store Name and Hour,
// relative to HourlyAggregatedColumns.
var HourlyDetailedColumns = []string{
	"Branch", "Store Name", "Date", "Hour (UTC)", "Sales", "Transactions",
	"Discounts", "Tax", "Returns", "Net Sales",
}

// HourlyFileNames returns the aggregated and detailed output file name
// stems (without extension) for a date range.
func HourlyFileNames(start, end string) (aggregated, detailed string) {
	aggregated = fmt.Sprintf("hourly_sales_aggregated_%s_to_%s", start, end)
	detailed = fmt.Sprintf("hourly_sales_detailed_%s_to_%s", start, end)
	return aggregated, detailed
}

// HourlyAggregatedRow is one store-hour bucket in the range-wide profile.
type HourlyAggregatedRow struct {
	Branch       string
	StoreName    string
	Hour         int
	Sales        decimal.Decimal
	Transactions int
	Discounts    decimal.Decimal
	Tax          decimal.Decimal
	Returns      decimal.Decimal
	NetSales     decimal.Decimal
}

// HourlyDetailedRow is one store-day-hour bucket.
type HourlyDetailedRow struct {
	Branch       string
	StoreName    string
	Date         string
	Hour         int
	Sales        decimal.Decimal
	Transactions int
	Discounts    decimal.Decimal
	Tax          decimal.Decimal
	Returns      decimal.Decimal
	NetSales     decimal.Decimal
}

func hourlyAggregatedValues(row HourlyAggregatedRow) []string {
	return []string{
		row.Branch, row.StoreName, strconv.Itoa(row.Hour),
		formatAmount(row.Sales), strconv.Itoa(row.Transactions),
		formatAmount(row.Discounts), formatAmount(row.Tax),
		formatAmount(row.Returns), formatAmount(row.NetSales),
	}
}

func hourlyDetailedValues(row HourlyDetailedRow) []string {
	return []string{
		row.Branch, row.StoreName, row.Date, strconv.Itoa(row.Hour),
		formatAmount(row.Sales), strconv.Itoa(row.Transactions),
		formatAmount(row.Discounts), formatAmount(row.Tax),
		formatAmount(row.Returns), formatAmount(row.NetSales),
	}
}

// RenderHourlyAggregatedCSV writes the aggregated profile as RFC 4180 CSV.
func RenderHourlyAggregatedCSV(w *strings.Builder, rows []HourlyAggregatedRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(HourlyAggregatedColumns); err != nil {
		return fmt.Errorf("render: write csv header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(hourlyAggregatedValues(row)); err != nil {
			return fmt.Errorf("render: write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// RenderHourlyAggregatedTSV writes the aggregated profile as tab-separated
// values behind the same banner convention as the GL journal.
func RenderHourlyAggregatedTSV(w *strings.Builder, rows []HourlyAggregatedRow, banner Banner) {
	for _, line := range banner.Lines() {
		w.WriteString("# ")
		w.WriteString(line)
		w.WriteString("\n")
	}
	w.WriteString(strings.Join(HourlyAggregatedColumns, "\t"))
	w.WriteString("\n")
	for _, row := range rows {
		w.WriteString(strings.Join(hourlyAggregatedValues(row), "\t"))
		w.WriteString("\n")
	}
}

// RenderHourlyDetailedCSV writes the per-day breakdown as RFC 4180 CSV.
func RenderHourlyDetailedCSV(w *strings.Builder, rows []HourlyDetailedRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(HourlyDetailedColumns); err != nil {
		return fmt.Errorf("render: write csv header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(hourlyDetailedValues(row)); err != nil {
			return fmt.Errorf("render: write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// RenderHourlyDetailedTSV writes the per-day breakdown as tab-separated
// values behind the same banner convention as the GL journal.
func RenderHourlyDetailedTSV(w *strings.Builder, rows []HourlyDetailedRow, banner Banner) {
	for _, line := range banner.Lines() {
		w.WriteString("# ")
		w.WriteString(line)
		w.WriteString("\n")
	}
	w.WriteString(strings.Join(HourlyDetailedColumns, "\t"))
	w.WriteString("\n")
	for _, row := range rows {
		w.WriteString(strings.Join(hourlyDetailedValues(row), "\t"))
		w.WriteString("\n")
	}
}
