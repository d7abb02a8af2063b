// Package jobs composes the lower-level packages (storeregistry, posclient,
// gl, hourly, cache) into the five cron-driven processors the worker pool
// runs: inventory-sync, gl-export, banner-sync, hourly-sales, and the
// odoo-sync stub. The POS-backed processors (inventory-sync, gl-export,
// hourly-sales) loop over the active store fleet, collect per-store
// failures without aborting the job, and report them back so a single bad
// store's credentials never take down a whole run.
package jobs

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/brightleaf/glsync/internal/clock"
	"github.com/brightleaf/glsync/internal/config"
	"github.com/brightleaf/glsync/internal/gl/domain"
	"github.com/brightleaf/glsync/internal/glerr"
	obslogger "github.com/brightleaf/glsync/internal/observability/logger"
	"github.com/brightleaf/glsync/internal/observability/metrics"
	"github.com/brightleaf/glsync/internal/posclient"
	"github.com/brightleaf/glsync/internal/ratelimit"
	"github.com/brightleaf/glsync/internal/storeregistry"
	"github.com/brightleaf/glsync/internal/timeresolver"
)

// Deps is the set of collaborators every processor is built from. Kept as
// one struct so the fx wiring in fx.go stays a single constructor call
// per processor instead of threading half a dozen arguments through each.
type Deps struct {
	Stores   *storeregistry.Registry
	POS      *posclient.Client
	Throttle *ratelimit.PosThrottle
	Config   config.Config
	Clock    clock.Clock
	Metrics  *metrics.Metrics
}

// reportDate resolves "yesterday" in UTC calendar terms from d.Clock, the
// report date every daily job (gl-export, hourly-sales' default window
// end) anchors on.
func (d Deps) reportDate() string {
	return d.Clock.Now().AddDate(0, 0, -1).Format("2006-01-02")
}

// fetchWindow resolves a store's timezone and the padded UTC window that
// is guaranteed to contain every transaction local to reportDate in it.
func fetchWindow(store domain.Store, reportDate string) (*time.Location, time.Time, time.Time, error) {
	tz, err := timeresolver.LoadLocation(store.Timezone)
	if err != nil {
		return nil, time.Time{}, time.Time{}, err
	}
	from, to, err := timeresolver.ExtendedWindow(reportDate, tz)
	if err != nil {
		return nil, time.Time{}, time.Time{}, err
	}
	return tz, from, to, nil
}

// runPerStore invokes fn for every active store, collecting (rather than
// aborting on) per-store failures, and returns them for the caller to
// fold into the job's result summary.
func runPerStore(ctx context.Context, stores []domain.Store, throttle *ratelimit.PosThrottle, fn func(ctx context.Context, store domain.Store) error) []glerr.StoreFailure {
	var failures []glerr.StoreFailure
	log := obslogger.FromContext(ctx)

	for _, store := range stores {
		storeCtx := obslogger.WithStoreID(ctx, store.ID)

		if throttle != nil {
			res, err := throttle.Allow(storeCtx, store.ID)
			if err != nil {
				log.Warn("pos throttle check failed, proceeding without backpressure",
					zap.String("store_id", store.ID), zap.Error(err))
			} else if !res.Allowed && res.RetryAfter > 0 {
				select {
				case <-ctx.Done():
				case <-time.After(res.RetryAfter):
				}
			}
		}

		if err := fn(storeCtx, store); err != nil {
			failures = append(failures, glerr.StoreFailure{Store: store.ID, Err: err})
			log.Error("store failed", zap.String("store_id", store.ID), zap.Error(err))
		}
	}
	return failures
}

// filterToLocalDate narrows a padded-window transaction fetch down to
// exactly the transactions whose local calendar date equals reportDate,
// since ExtendedWindow deliberately over-fetches by a day on each side.
func filterToLocalDate(txns []domain.Transaction, tz *time.Location, reportDate string) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(txns))
	for _, t := range txns {
		local := timeresolver.LocalDate(timeresolver.TransactionTimes{
			TransactionDateLocalTime: t.TransactionDateLocalTime,
			TransactionDate:          t.TransactionDate,
		}, tz)
		if local == reportDate {
			out = append(out, t)
		}
	}
	return out
}

// describeFailures renders a per-store failure list as a single error
// message, used when a job must surface "N of M stores failed" as its own
// terminal error after still completing the stores that succeeded.
func describeFailures(failures []glerr.StoreFailure) string {
	if len(failures) == 0 {
		return ""
	}
	parts := make([]string, 0, len(failures))
	for _, f := range failures {
		parts = append(parts, f.Error())
	}
	return strings.Join(parts, "; ")
}
