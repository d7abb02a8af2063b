package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/brightleaf/glsync/internal/gl/domain"
	"github.com/brightleaf/glsync/internal/gl/render"
	"github.com/brightleaf/glsync/internal/glerr"
	"github.com/brightleaf/glsync/internal/hourly"
	obslogger "github.com/brightleaf/glsync/internal/observability/logger"
	"github.com/brightleaf/glsync/internal/posclient"
	"github.com/brightleaf/glsync/internal/worker"
)

type storeHourlyResult struct {
	store   domain.Store
	profile hourly.Result
}

// HourlySales rolls up the trailing 7 days of sales into a 24-hour-UTC
// grid per store, writing both an aggregated and a per-day breakdown
// file.
func HourlySales(deps Deps) worker.Processor {
	return func(ctx context.Context, reporter *worker.ProgressReporter, _ []byte) error {
		log := obslogger.FromContext(ctx)
		end := deps.reportDate()
		start, err := sevenDayStart(end)
		if err != nil {
			return fmt.Errorf("%w: %v", glerr.ErrParse, err)
		}

		stores, err := deps.Stores.Stores(ctx)
		if err != nil {
			return fmt.Errorf("%w: load stores: %v", glerr.ErrStorageUnavailable, err)
		}
		if len(stores) == 0 {
			return fmt.Errorf("%w: no active stores registered", glerr.ErrConfigMissing)
		}

		results := make([]storeHourlyResult, 0, len(stores))
		total := len(stores)
		done := 0

		failures := runPerStore(ctx, stores, deps.Throttle, func(storeCtx context.Context, store domain.Store) error {
			profile, err := hourlyProfileForStore(storeCtx, deps.POS, store, start, end)
			if err != nil {
				return err
			}
			results = append(results, storeHourlyResult{store: store, profile: profile})
			done++
			reporter.Report(storeCtx, (done*90)/total)
			return nil
		})

		aggName, detName := render.HourlyFileNames(start, end)
		if err := writeHourlyFiles(deps.Config.ExportsDir, start, end, aggName, detName, results); err != nil {
			return fmt.Errorf("%w: write hourly files: %v", glerr.ErrStorageUnavailable, err)
		}
		reporter.Report(ctx, 100)

		log.Info("hourly sales rollup complete", zap.String("start", start), zap.String("end", end), zap.Int("stores", total))

		if len(failures) > 0 {
			return fmt.Errorf("hourly-sales: %d of %d stores failed: %s", len(failures), total, describeFailures(failures))
		}
		return nil
	}
}

// sevenDayStart returns end-6 days, the inclusive start of the trailing
// 7-day window ending on end.
func sevenDayStart(end string) (string, error) {
	t, err := time.Parse("2006-01-02", end)
	if err != nil {
		return "", fmt.Errorf("invalid end date %q: %w", end, err)
	}
	return t.AddDate(0, 0, -6).Format("2006-01-02"), nil
}

func hourlyProfileForStore(ctx context.Context, pos *posclient.Client, store domain.Store, start, end string) (hourly.Result, error) {
	tz, fromStart, _, err := fetchWindow(store, start)
	if err != nil {
		return hourly.Result{}, fmt.Errorf("%w: %v", glerr.ErrParse, err)
	}
	_, _, toEnd, err := fetchWindow(store, end)
	if err != nil {
		return hourly.Result{}, fmt.Errorf("%w: %v", glerr.ErrParse, err)
	}

	txns, err := pos.GetTransactions(ctx, store.PosAPIKey, fromStart, toEnd, posclient.TransactionOptions{IncludeDetail: true})
	if err != nil {
		return hourly.Result{}, err
	}

	return hourly.Aggregate(txns, tz, start, end)
}

// writeHourlyFiles renders both the aggregated and detailed hourly
// profiles as a TSV/CSV pair each, matching the GL journal's output
// convention. Detailed rows are emitted in sorted date order so the file
// is byte-stable across runs against identical input, since
// hourly.Result.Detailed is a Go map with randomized iteration order.
func writeHourlyFiles(exportsDir, start, end, aggBase, detBase string, results []storeHourlyResult) error {
	if err := os.MkdirAll(exportsDir, 0o755); err != nil {
		return err
	}

	var aggRows []render.HourlyAggregatedRow
	var detRows []render.HourlyDetailedRow

	for _, r := range results {
		for hour := 0; hour < 24; hour++ {
			b := r.profile.Aggregated[hour]
			aggRows = append(aggRows, render.HourlyAggregatedRow{
				Branch: r.store.BranchCode, StoreName: r.store.Name, Hour: hour,
				Sales: b.Sales, Transactions: b.Transactions, Discounts: b.Discounts,
				Tax: b.Tax, Returns: b.Returns, NetSales: b.NetSales,
			})
		}

		dates := make([]string, 0, len(r.profile.Detailed))
		for date := range r.profile.Detailed {
			dates = append(dates, date)
		}
		sort.Strings(dates)

		for _, date := range dates {
			profile := r.profile.Detailed[date]
			for hour := 0; hour < 24; hour++ {
				b := profile[hour]
				detRows = append(detRows, render.HourlyDetailedRow{
					Branch: r.store.BranchCode, StoreName: r.store.Name, Date: date, Hour: hour,
					Sales: b.Sales, Transactions: b.Transactions, Discounts: b.Discounts,
					Tax: b.Tax, Returns: b.Returns, NetSales: b.NetSales,
				})
			}
		}
	}

	banner := render.Banner{
		SourceOfTruth: "POS vendor reporting API",
		ReportDate:    fmt.Sprintf("%s to %s", start, end),
		GeneratedAt:   time.Now().UTC(),
		Methodology:   "Sales, discounts, tax, and net sales bucketed by UTC hour across the trailing 7-day window.",
	}

	var aggTSV strings.Builder
	render.RenderHourlyAggregatedTSV(&aggTSV, aggRows, banner)
	if err := os.WriteFile(filepath.Join(exportsDir, aggBase+".tsv"), []byte(aggTSV.String()), 0o644); err != nil {
		return err
	}
	var aggCSV strings.Builder
	if err := render.RenderHourlyAggregatedCSV(&aggCSV, aggRows); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(exportsDir, aggBase+".csv"), []byte(aggCSV.String()), 0o644); err != nil {
		return err
	}

	var detTSV strings.Builder
	render.RenderHourlyDetailedTSV(&detTSV, detRows, banner)
	if err := os.WriteFile(filepath.Join(exportsDir, detBase+".tsv"), []byte(detTSV.String()), 0o644); err != nil {
		return err
	}
	var detCSV strings.Builder
	if err := render.RenderHourlyDetailedCSV(&detCSV, detRows); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(exportsDir, detBase+".csv"), []byte(detCSV.String()), 0o644)
}
