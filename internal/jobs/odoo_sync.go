package jobs

import (
	"context"

	obslogger "github.com/brightleaf/glsync/internal/observability/logger"
	"github.com/brightleaf/glsync/internal/worker"
)

// OdooSync is a stub: writing GL entries back into an Odoo ERP instance
// is an external collaborator outside this service's scope. The queue
// exists (gated behind config.Config.OdooSyncEnabled) so the schedule
// registry and worker pool wiring has somewhere real to exercise the
// "optional queue" path end to end; the processor itself only logs that
// it ran.
func OdooSync() worker.Processor {
	return func(ctx context.Context, reporter *worker.ProgressReporter, _ []byte) error {
		obslogger.FromContext(ctx).Info("odoo-sync stub invoked; no ERP write-back is implemented")
		reporter.Report(ctx, 100)
		return nil
	}
}
