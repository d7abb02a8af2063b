package worker

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/brightleaf/glsync/internal/config"
	obslogger "github.com/brightleaf/glsync/internal/observability/logger"
	"github.com/brightleaf/glsync/internal/observability/metrics"
	"github.com/brightleaf/glsync/internal/scheduler"
)

// Processor runs one job for a queue. ctx carries job correlation fields
// (see obslogger.WithJobFields); reporter lets the processor surface
// coarse-grained progress through the Job Run Ledger. payload is whatever
// was attached when the job was enqueued — empty for cron-driven runs,
// which resolve their report date from the clock rather than carrying a date forward
// from registration time.
type Processor func(ctx context.Context, reporter *ProgressReporter, payload []byte) error

// ProgressReporter writes progress milestones through to the Job Run
// Ledger so the CLI trigger tool (and, eventually, an HTTP status
// endpoint) can read job state without holding a channel open to the
// worker goroutine.
type ProgressReporter struct {
	ledger *Ledger
	runID  string
}

// NewProgressReporter builds a ProgressReporter against an existing
// ledger entry, for callers that drive a Processor outside the pool's own
// handler (the CLI trigger tool's synchronous subcommands).
func NewProgressReporter(ledger *Ledger, runID string) *ProgressReporter {
	return &ProgressReporter{ledger: ledger, runID: runID}
}

// Report best-effort records progress; a ledger write failure never
// fails the job itself.
func (r *ProgressReporter) Report(ctx context.Context, progress int) {
	if r == nil || r.ledger == nil {
		return
	}
	_ = r.ledger.Progress(ctx, r.runID, progress)
}

type queueWorker struct {
	def    scheduler.QueueDef
	server *asynq.Server
	mux    *asynq.ServeMux
}

// Pool owns one asynq.Server per queue (concurrency 1 each), the shared
// Job Run Ledger, and the asynq client/inspector used by one-off triggers
// and queue status reads.
type Pool struct {
	log         *zap.Logger
	ledger      *Ledger
	metrics     *metrics.Metrics
	client      *asynq.Client
	inspect     *asynq.Inspector
	workers     []*queueWorker
	completeCap int
	failedCap   int
}

// NewPool builds an (initially empty) worker pool. Call Register once per
// queue before Start.
func NewPool(cfg config.Config, ledger *Ledger, m *metrics.Metrics, log *zap.Logger) *Pool {
	redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	return &Pool{
		log:         log.Named("worker"),
		ledger:      ledger,
		metrics:     m,
		client:      asynq.NewClient(redisOpt),
		inspect:     asynq.NewInspector(redisOpt),
		completeCap: cfg.JobRunCompleteCap,
		failedCap:   cfg.JobRunFailedCap,
	}
}

// Register wires one asynq.Server, scoped to a single queue at
// concurrency 1, to proc. The exponential backoff base comes from def so
// each queue's retry policy (spec §4.8) drives its own server.
func (p *Pool) Register(cfg config.Config, def scheduler.QueueDef, proc Processor) {
	redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	base := def.BackoffBase

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 1,
		Queues:      map[string]int{def.Name: 1},
		RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
			return time.Duration(float64(base) * math.Pow(2, float64(n)))
		},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(scheduler.TaskType(def.Name), p.handler(def, proc))

	p.workers = append(p.workers, &queueWorker{def: def, server: server, mux: mux})
}

func (p *Pool) handler(def scheduler.QueueDef, proc Processor) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		runID := uuid.NewString()
		start := time.Now()

		attemptsMade, _ := asynq.GetRetryCount(ctx)
		ctx = obslogger.WithJobFields(ctx, obslogger.JobFields{Queue: def.Name, JobID: runID})
		log := obslogger.FromContext(ctx)

		if err := p.ledger.Start(ctx, runID, def.Name, def.Attempts, attemptsMade); err != nil {
			log.Warn("failed to open job run ledger entry", zap.Error(err))
		}
		p.metrics.RecordJobRun(ctx, def.Name, "started")

		reporter := &ProgressReporter{ledger: p.ledger, runID: runID}
		err := proc(ctx, reporter, task.Payload())

		p.metrics.RecordJobDuration(ctx, def.Name, time.Since(start).Seconds())
		if finishErr := p.ledger.Finish(ctx, runID, err); finishErr != nil {
			log.Warn("failed to close job run ledger entry", zap.Error(finishErr))
		}
		if evictErr := p.ledger.Evict(ctx, def.Name, p.completeCap, p.failedCap); evictErr != nil {
			log.Warn("failed to evict old job run ledger entries", zap.Error(evictErr))
		}

		if err != nil {
			p.metrics.RecordJobRun(ctx, def.Name, "failed")
			log.Error("job failed", zap.Error(err))
			return err
		}
		p.metrics.RecordJobRun(ctx, def.Name, "completed")
		log.Info("job completed")
		return nil
	}
}

// Start runs every registered queue's server in its own goroutine.
func (p *Pool) Start() {
	for _, w := range p.workers {
		w := w
		go func() {
			if err := w.server.Run(w.mux); err != nil {
				p.log.Error("queue server stopped", zap.String("queue", w.def.Name), zap.Error(err))
			}
		}()
	}
}

// Shutdown closes workers first, each waiting for its current job to
// finish, then the shared asynq client and inspector connections. That
// ordering (workers, then the shared Redis handles) is what lets a
// restart never kill a job mid-run.
func (p *Pool) Shutdown(ctx context.Context) error {
	for _, w := range p.workers {
		w.server.Shutdown()
	}

	var firstErr error
	if err := p.client.Close(); err != nil {
		firstErr = err
	}
	if err := p.inspect.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// queueNames returns the set of queues this pool has a registered worker
// for, used to reject triggers against unknown queues before they ever
// reach asynq.
func (p *Pool) queueNames() map[string]struct{} {
	names := make(map[string]struct{}, len(p.workers))
	for _, w := range p.workers {
		names[w.def.Name] = struct{}{}
	}
	return names
}

var _ JobTrigger = (*Pool)(nil)

// AddJob enqueues a one-off task against queue, honoring opts.Attempts
// when set. Returns the asynq task id.
func (p *Pool) AddJob(ctx context.Context, queue string, payload []byte, opts JobOptions) (string, error) {
	if _, known := p.queueNames()[queue]; !known {
		return "", fmt.Errorf("worker: unknown queue %q", queue)
	}

	task := asynq.NewTask(scheduler.TaskType(queue), payload, asynq.Queue(queue))
	attempts := opts.Attempts
	if attempts <= 0 {
		for _, w := range p.workers {
			if w.def.Name == queue {
				attempts = w.def.Attempts
			}
		}
	}
	taskOpts := []asynq.Option{}
	if attempts > 0 {
		taskOpts = append(taskOpts, asynq.MaxRetry(attempts))
	}

	info, err := p.client.EnqueueContext(ctx, task, taskOpts...)
	if err != nil {
		return "", fmt.Errorf("worker: enqueue %s: %w", queue, err)
	}
	return info.ID, nil
}

// JobStatus reports asynq's queue-level counters for every registered
// queue.
func (p *Pool) JobStatus(ctx context.Context) (map[string]QueueStatus, error) {
	status := make(map[string]QueueStatus, len(p.workers))
	for _, w := range p.workers {
		info, err := p.inspect.GetQueueInfo(w.def.Name)
		if err != nil {
			return nil, fmt.Errorf("worker: inspect queue %s: %w", w.def.Name, err)
		}
		status[w.def.Name] = QueueStatus{
			Pending:   info.Pending,
			Active:    info.Active,
			Completed: info.Completed,
			Failed:    info.Failed,
		}
	}
	return status, nil
}
