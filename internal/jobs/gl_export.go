package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/brightleaf/glsync/internal/gl"
	"github.com/brightleaf/glsync/internal/gl/domain"
	"github.com/brightleaf/glsync/internal/gl/render"
	"github.com/brightleaf/glsync/internal/glerr"
	obslogger "github.com/brightleaf/glsync/internal/observability/logger"
	"github.com/brightleaf/glsync/internal/posclient"
	"github.com/brightleaf/glsync/internal/timeresolver"
	"github.com/brightleaf/glsync/internal/worker"
)

// GLExport renders yesterday's GL journal for every active store and
// writes the TSV/CSV pair to the exports directory.
func GLExport(deps Deps) worker.Processor {
	return func(ctx context.Context, reporter *worker.ProgressReporter, _ []byte) error {
		log := obslogger.FromContext(ctx)
		reportDate := deps.reportDate()

		stores, err := deps.Stores.Stores(ctx)
		if err != nil {
			return fmt.Errorf("%w: load stores: %v", glerr.ErrStorageUnavailable, err)
		}
		if len(stores) == 0 {
			return fmt.Errorf("%w: no active stores registered", glerr.ErrConfigMissing)
		}

		var allRows []domain.GLRow
		total := len(stores)
		done := 0

		failures := runPerStore(ctx, stores, deps.Throttle, func(storeCtx context.Context, store domain.Store) error {
			rows, err := glRowsForStore(storeCtx, deps.POS, store, reportDate)
			if err != nil {
				return err
			}
			allRows = append(allRows, rows...)
			done++
			reporter.Report(storeCtx, (done*90)/total)
			return nil
		})

		if err := gl.ValidateBalanced(allRows); err != nil {
			return err
		}

		tsvName, csvName := render.JournalFileNames(reportDate, render.SourcePOS)
		banner := render.Banner{
			SourceOfTruth: "POS vendor reporting API",
			ReportDate:    reportDate,
			GeneratedAt:   time.Now().UTC(),
			Methodology:   "Sales, discounts, tax, and tender totals aggregated per store for the report date; the overage row absorbs any residual gap between debits and credits.",
		}
		if err := writeJournalFiles(deps.Config.ExportsDir, tsvName, csvName, allRows, banner); err != nil {
			return fmt.Errorf("%w: write journal files: %v", glerr.ErrStorageUnavailable, err)
		}
		reporter.Report(ctx, 100)

		log.Info("gl export complete", zap.Int("stores", total), zap.Int("rows", len(allRows)))

		if len(failures) > 0 {
			return fmt.Errorf("gl-export: %d of %d stores failed: %s", len(failures), total, describeFailures(failures))
		}
		return nil
	}
}

func glRowsForStore(ctx context.Context, pos *posclient.Client, store domain.Store, reportDate string) ([]domain.GLRow, error) {
	tz, from, to, err := fetchWindow(store, reportDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", glerr.ErrParse, err)
	}

	txns, err := pos.GetTransactions(ctx, store.PosAPIKey, from, to, posclient.TransactionOptions{
		IncludeDetail: true,
		IncludeTaxes:  true,
	})
	if err != nil {
		return nil, err
	}

	filtered := filterToLocalDate(txns, tz, reportDate)

	totals, err := gl.Aggregate(filtered, reportDate)
	if err != nil {
		return nil, err
	}
	return gl.BuildJournal(store, totals, reportDate, gl.OverageSignedCredit), nil
}

func writeJournalFiles(exportsDir, tsvName, csvName string, rows []domain.GLRow, banner render.Banner) error {
	if err := os.MkdirAll(exportsDir, 0o755); err != nil {
		return err
	}

	var tsv strings.Builder
	render.RenderTSV(&tsv, rows, banner)
	if err := os.WriteFile(filepath.Join(exportsDir, tsvName), []byte(tsv.String()), 0o644); err != nil {
		return err
	}

	var csvBuf strings.Builder
	if err := render.RenderCSV(&csvBuf, rows); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(exportsDir, csvName), []byte(csvBuf.String()), 0o644)
}

// WriteJournalFiles renders rows as a TSV/CSV pair named for reportDate
// and source (§6.3). It is the entry point the tabular CLI import command
// shares with the cron-driven GL export, so both paths produce files with
// the same naming and formatting guarantees.
func WriteJournalFiles(exportsDir, reportDate string, source render.Source, rows []domain.GLRow, sourceOfTruth, methodology string) error {
	tsvName, csvName := render.JournalFileNames(reportDate, source)
	banner := render.Banner{
		SourceOfTruth: sourceOfTruth,
		ReportDate:    reportDate,
		GeneratedAt:   time.Now().UTC(),
		Methodology:   methodology,
	}
	return writeJournalFiles(exportsDir, tsvName, csvName, rows, banner)
}
