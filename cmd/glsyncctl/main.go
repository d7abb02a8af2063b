// Command glsyncctl is the operator-facing trigger tool: it builds just
// enough of the fx graph to either enqueue a job against the worker pool
// (trigger/status, the asynq-backed path) or run a processor directly and
// synchronously (export/hourly/sync-inventory/import, for an operator who
// wants the result in their own terminal rather than waiting on cron).
// It never runs the scheduler's cron loop.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/brightleaf/glsync/internal/cache"
	"github.com/brightleaf/glsync/internal/clock"
	"github.com/brightleaf/glsync/internal/config"
	"github.com/brightleaf/glsync/internal/gl"
	"github.com/brightleaf/glsync/internal/gl/render"
	"github.com/brightleaf/glsync/internal/gl/tabular"
	"github.com/brightleaf/glsync/internal/inventory"
	"github.com/brightleaf/glsync/internal/jobs"
	"github.com/brightleaf/glsync/internal/migration"
	"github.com/brightleaf/glsync/internal/observability"
	"github.com/brightleaf/glsync/internal/posclient"
	"github.com/brightleaf/glsync/internal/ratelimit"
	"github.com/brightleaf/glsync/internal/rediscli"
	"github.com/brightleaf/glsync/internal/scheduler"
	"github.com/brightleaf/glsync/internal/storeregistry"
	"github.com/brightleaf/glsync/internal/worker"
	pkgdb "github.com/brightleaf/glsync/pkg/db"
)

var attempts int
var importFormat string
var importReportDate string

var rootCmd = &cobra.Command{
	Use:   "glsyncctl",
	Short: "Trigger and inspect glsync jobs without waiting for their cron schedule",
}

var triggerCmd = &cobra.Command{
	Use:   "trigger <queue>",
	Short: "Enqueue a one-off run of a queue's job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withJobTrigger(func(ctx context.Context, trigger worker.JobTrigger) error {
			id, err := trigger.AddJob(ctx, args[0], nil, worker.JobOptions{Attempts: attempts})
			if err != nil {
				return err
			}
			fmt.Printf("enqueued %s: task %s\n", args[0], id)
			return nil
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print waiting/active/completed/failed counters for every queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withJobTrigger(func(ctx context.Context, trigger worker.JobTrigger) error {
			status, err := trigger.JobStatus(ctx)
			if err != nil {
				return err
			}
			for queue, s := range status {
				fmt.Printf("%-16s waiting=%-4d active=%-4d completed=%-6d failed=%d\n",
					queue, s.Pending, s.Active, s.Completed, s.Failed)
			}
			return nil
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Run the GL export job synchronously, against the configured report date",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDeps(func(ctx context.Context, d cliDeps) error {
			return runJobSync(ctx, d.Ledger, "gl-export", jobs.GLExport(d.Deps))
		})
	},
}

var hourlyCmd = &cobra.Command{
	Use:   "hourly",
	Short: "Run the trailing-7-day hourly sales rollup job synchronously",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDeps(func(ctx context.Context, d cliDeps) error {
			return runJobSync(ctx, d.Ledger, "hourly-sales", jobs.HourlySales(d.Deps))
		})
	},
}

var syncInventoryCmd = &cobra.Command{
	Use:   "sync-inventory",
	Short: "Run the POS inventory/discount cache sync job synchronously",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDeps(func(ctx context.Context, d cliDeps) error {
			proc := jobs.InventorySync(jobs.InventorySyncDeps{Deps: d.Deps, Snapshots: d.Snapshots, Cache: d.Cache})
			return runJobSync(ctx, d.Ledger, "inventory-sync", proc)
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Roll up a CSV/JSON dashboard export into a balanced GL journal (§4.4)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDeps(func(ctx context.Context, d cliDeps) error {
			return runTabularImport(ctx, d, args[0])
		})
	},
}

func init() {
	triggerCmd.Flags().IntVar(&attempts, "attempts", 0, "override the queue's configured max retry count")
	importCmd.Flags().StringVar(&importFormat, "format", "", `input format: "csv" or "json" (default: inferred from the file extension)`)
	importCmd.Flags().StringVar(&importReportDate, "report-date", "", "report date for the journal (YYYY-MM-DD); defaults to the JSON envelope date, or yesterday")
	rootCmd.AddCommand(triggerCmd, statusCmd, exportCmd, hourlyCmd, syncInventoryCmd, importCmd)
}

// withJobTrigger builds the fx graph far enough to obtain a
// worker.JobTrigger, runs fn against it, then tears the app down —
// exercising the same Shutdown path the daemon's SIGTERM handler does.
func withJobTrigger(fn func(ctx context.Context, trigger worker.JobTrigger) error) error {
	var runErr error

	app := fx.New(
		fx.NopLogger,
		config.Module,
		observability.Module,
		clock.Module,
		pkgdb.Module,
		rediscli.Module,
		migration.Module,
		storeregistry.Module,
		posclient.Module,
		ratelimit.Module,
		cache.Module,
		inventory.Module,
		fx.Provide(scheduler.ProvideQueueDefs),
		jobs.Module,
		worker.Module,
		fx.Invoke(func(lc fx.Lifecycle, trigger worker.JobTrigger, log *zap.Logger) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					runErr = fn(ctx, trigger)
					return nil
				},
			})
		}),
	)

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil && runErr == nil {
		runErr = err
	}

	return runErr
}

// cliDeps is the collaborator bundle the synchronous subcommands
// (export/hourly/sync-inventory/import) populate from the fx graph and
// drive a Processor with directly, bypassing asynq entirely.
type cliDeps struct {
	Deps      jobs.Deps
	Ledger    *worker.Ledger
	Snapshots *inventory.Repository
	Cache     *cache.Refresher
	Stores    *storeregistry.Registry
	Log       *zap.Logger
}

// withDeps builds the same fx graph as withJobTrigger, minus the worker
// pool (a synchronous run has no queue to register against), populates a
// cliDeps, runs fn, then tears the app down.
func withDeps(fn func(ctx context.Context, d cliDeps) error) error {
	var runErr error
	var deps cliDeps

	app := fx.New(
		fx.NopLogger,
		config.Module,
		observability.Module,
		clock.Module,
		pkgdb.Module,
		rediscli.Module,
		migration.Module,
		storeregistry.Module,
		posclient.Module,
		ratelimit.Module,
		cache.Module,
		inventory.Module,
		jobs.DepsModule,
		fx.Provide(worker.NewLedger),
		fx.Populate(&deps.Deps, &deps.Ledger, &deps.Snapshots, &deps.Cache, &deps.Stores, &deps.Log),
		fx.Invoke(func(lc fx.Lifecycle) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					runErr = fn(ctx, deps)
					return nil
				},
			})
		}),
	)

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil && runErr == nil {
		runErr = err
	}

	return runErr
}

// runJobSync opens a Job Run Ledger entry, drives proc against it exactly
// as the worker pool's handler would, and closes the entry — so a CLI-
// triggered run shows up in the same ledger an operator would otherwise
// read through the status command.
func runJobSync(ctx context.Context, ledger *worker.Ledger, name string, proc worker.Processor) error {
	runID := uuid.NewString()
	if err := ledger.Start(ctx, runID, name, 1, 0); err != nil {
		return fmt.Errorf("open job run ledger entry: %w", err)
	}

	reporter := worker.NewProgressReporter(ledger, runID)
	runErr := proc(ctx, reporter, nil)

	if err := ledger.Finish(ctx, runID, runErr); err != nil && runErr == nil {
		runErr = fmt.Errorf("close job run ledger entry: %w", err)
	}
	if runErr != nil {
		return runErr
	}
	fmt.Printf("%s: completed (run %s)\n", name, runID)
	return nil
}

// runTabularImport parses the CSV/JSON dashboard export at path, resolves
// each row's reported location against the store registry's dashboard
// aliases, rolls each resolved store's rows up into a balanced GL
// journal, and writes it out the same way the GL export job does.
func runTabularImport(ctx context.Context, d cliDeps, path string) error {
	body, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	format := importFormat
	if format == "" {
		if strings.EqualFold(filepath.Ext(path), ".json") {
			format = "json"
		} else {
			format = "csv"
		}
	}

	var rows []tabular.Row
	var envelopeDate string
	var source render.Source

	switch format {
	case "csv":
		source = render.SourceCSV
		rows, err = tabular.ParseCSV(strings.NewReader(string(body)))
	case "json":
		source = render.SourceJSON
		rows, envelopeDate, err = tabular.ParseJSON(body)
	default:
		return fmt.Errorf("unrecognized --format %q: want csv or json", format)
	}
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("%s: no rows parsed", path)
	}

	reportDate := importReportDate
	if reportDate == "" {
		reportDate = envelopeDate
	}
	if reportDate == "" {
		reportDate = d.Deps.Clock.Now().AddDate(0, 0, -1).Format("2006-01-02")
	}

	stores, err := d.Stores.Stores(ctx)
	if err != nil {
		return fmt.Errorf("load stores: %w", err)
	}

	aliases := jobs.BuildLocationAliases(stores, d.Log)
	journal, err := jobs.TabularJournal(stores, aliases, rows, reportDate)
	if err != nil {
		return err
	}
	if err := gl.ValidateBalanced(journal); err != nil {
		return err
	}

	methodology := "Dashboard export rows rolled up per resolved store location for the report date; the overage row absorbs any residual gap between debits and credits."
	if err := jobs.WriteJournalFiles(d.Deps.Config.ExportsDir, reportDate, source, journal, path, methodology); err != nil {
		return fmt.Errorf("write journal files: %w", err)
	}
	fmt.Printf("import: wrote journal for %s from %s (%d rows, %d accounts)\n", reportDate, path, len(rows), len(journal))
	return nil
}
