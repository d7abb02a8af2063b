package gl_test

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightleaf/glsync/internal/gl"
	"github.com/brightleaf/glsync/internal/gl/domain"
	"github.com/brightleaf/glsync/internal/gl/render"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// TestBuildJournal_P6_CSVAndTSVRowCountsMatch covers P6: rendering the same
// multi-store journal as CSV and TSV yields the same number of data rows
// (10 per store), with TSV carrying its banner ahead of the header.
func TestBuildJournal_P6_CSVAndTSVRowCountsMatch(t *testing.T) {
	stores := []domain.Store{
		{BranchCode: "ST1", Name: "Store One"},
		{BranchCode: "ST2", Name: "Store Two"},
		{BranchCode: "ST3", Name: "Store Three"},
	}

	var rows []domain.GLRow
	for _, s := range stores {
		totals := domain.StoreTotals{GrossSales: dec("100"), Tax: dec("8"), NetCash: dec("108")}
		rows = append(rows, gl.BuildJournal(s, totals, "2026-01-06", gl.OverageSignedCredit)...)
	}
	require.Len(t, rows, 10*len(stores))
	require.NoError(t, gl.ValidateBalanced(rows))

	var csvBuf strings.Builder
	require.NoError(t, render.RenderCSV(&csvBuf, rows))
	csvLines := strings.Split(strings.TrimRight(csvBuf.String(), "\n"), "\n")
	assert.Len(t, csvLines, len(rows)+1, "header plus one line per row")

	var tsvBuf strings.Builder
	banner := render.Banner{SourceOfTruth: "test", ReportDate: "2026-01-06", GeneratedAt: time.Unix(0, 0), Methodology: "test"}
	render.RenderTSV(&tsvBuf, rows, banner)
	tsvLines := strings.Split(strings.TrimRight(tsvBuf.String(), "\n"), "\n")
	assert.Len(t, tsvLines, len(banner.Lines())+1+len(rows), "banner plus header plus one line per row")
}

// TestJournalFileNames_SourceSuffix covers §6.3's file naming: the POS
// source carries no suffix, every other source is suffixed by name.
func TestJournalFileNames_SourceSuffix(t *testing.T) {
	tsv, csvName := render.JournalFileNames("2026-01-06", render.SourcePOS)
	assert.Equal(t, "gl_journal_2026-01-06.tsv", tsv)
	assert.Equal(t, "gl_journal_2026-01-06.csv", csvName)

	tsv, csvName = render.JournalFileNames("2026-01-06", render.SourceCSV)
	assert.Equal(t, "gl_journal_2026-01-06_csv.tsv", tsv)
	assert.Equal(t, "gl_journal_2026-01-06_csv.csv", csvName)
}
