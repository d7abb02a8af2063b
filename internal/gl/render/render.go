// Package render serializes GL journal rows and hourly aggregates into the
// TSV and CSV formats consumed by the accounting back office.
package render

import (
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/brightleaf/glsync/internal/decimalutil"
	"github.com/brightleaf/glsync/internal/gl/domain"
)

// Columns is the fixed output column order for a GL journal file.
var Columns = []string{
	"Branch", "Dutchie Store Name", "Account", "Description", "Subaccount",
	"Ref. Number", "Quantity", "UOM", "Debit Amount", "Credit Amount",
}

// Source identifies where the rendered input came from, which controls
// the output file name suffix (§6.3).
type Source string

const (
	SourcePOS  Source = ""
	SourceCSV  Source = "csv"
	SourceJSON Source = "json"
	SourcePost Source = "post"
	SourceUpload Source = "upload"
)

// JournalFileNames returns the TSV and CSV file names for a report date and
// input source, matching the §6.3 naming convention.
func JournalFileNames(reportDate string, source Source) (tsv, csvName string) {
	suffix := ""
	if source != SourcePOS {
		suffix = "_" + string(source)
	}
	base := fmt.Sprintf("gl_journal_%s%s", reportDate, suffix)
	return base + ".tsv", base + ".csv"
}

func rowValues(row domain.GLRow) []string {
	return []string{
		row.BranchCode,
		row.StoreName,
		row.AccountCode,
		row.AccountDesc,
		row.Subaccount,
		row.RefNumber,
		row.Quantity,
		row.UOM,
		formatAmount(row.Debit),
		formatAmount(row.Credit),
	}
}

func formatAmount(d decimal.Decimal) string {
	return decimalutil.FormatUSD(d)
}

// RenderCSV writes rows as RFC 4180 CSV with the fixed header, quoting
// fields containing commas, quotes, or newlines per the standard library's
// csv.Writer (identical to the hand rule the spec describes).
func RenderCSV(w *strings.Builder, rows []domain.GLRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Columns); err != nil {
		return fmt.Errorf("render: write csv header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(rowValues(row)); err != nil {
			return fmt.Errorf("render: write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// RenderTSV writes rows as tab-separated values, prefixed with a banner of
// "#"-led comment lines. TSV never quotes fields.
func RenderTSV(w *strings.Builder, rows []domain.GLRow, banner Banner) {
	for _, line := range banner.Lines() {
		w.WriteString("# ")
		w.WriteString(line)
		w.WriteString("\n")
	}
	w.WriteString(strings.Join(Columns, "\t"))
	w.WriteString("\n")
	for _, row := range rows {
		values := rowValues(row)
		w.WriteString(strings.Join(values, "\t"))
		w.WriteString("\n")
	}
}

// Banner describes the source-of-truth comment block a TSV file opens
// with.
type Banner struct {
	SourceOfTruth string
	ReportDate    string
	GeneratedAt   time.Time
	Methodology   string
}

// Lines renders the banner as individual comment lines, in the order they
// appear in the file.
func (b Banner) Lines() []string {
	return []string{
		fmt.Sprintf("Source of truth: %s", b.SourceOfTruth),
		fmt.Sprintf("Report date: %s", b.ReportDate),
		fmt.Sprintf("Generated at: %s", b.GeneratedAt.UTC().Format(time.RFC3339)),
		fmt.Sprintf("Methodology: %s", b.Methodology),
	}
}
