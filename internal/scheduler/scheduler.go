// Package scheduler owns the cron side of the job pipeline: reconciling
// the persisted schedule registry against the fixed queue table and
// driving an asynq.Scheduler that enqueues one task per queue on its cron
// spec. It never executes a job itself — see internal/worker for that.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/brightleaf/glsync/internal/config"
)

// TaskType is the asynq task type name a queue's cron entry enqueues
// under. Queue name and task type are kept in a one-to-one mapping so a
// worker bound to a queue only ever sees its own task type.
func TaskType(queue string) string { return "job:" + queue }

// Scheduler reconciles the schedule registry and runs the asynq cron
// loop that enqueues jobs against it.
type Scheduler struct {
	redisOpt asynq.RedisClientOpt
	log      *zap.Logger
	db       *gorm.DB
	defs     []QueueDef

	sched *asynq.Scheduler
}

// New builds a Scheduler from application config. defs is the queue
// table to reconcile and register on Start.
func New(cfg config.Config, defs []QueueDef, db *gorm.DB, log *zap.Logger) *Scheduler {
	return &Scheduler{
		redisOpt: asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB},
		log:      log.Named("scheduler"),
		db:       db,
		defs:     defs,
	}
}

// Start reconciles the registration table against the current queue
// table, then registers a cron entry per row on a fresh asynq.Scheduler
// and runs it in the background. It returns once registration succeeds;
// the cron loop itself runs for the lifetime of the process.
func (s *Scheduler) Start(ctx context.Context) error {
	rows, err := ReconcileRegistrations(s.db, s.defs)
	if err != nil {
		return fmt.Errorf("scheduler: reconcile schedule registrations: %w", err)
	}

	s.sched = asynq.NewScheduler(s.redisOpt, &asynq.SchedulerOpts{
		Location: time.UTC,
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil {
				s.log.Error("enqueue failed", zap.String("queue", info.Queue), zap.Error(err))
				return
			}
			s.log.Info("enqueued scheduled job", zap.String("queue", info.Queue), zap.String("task_id", info.ID))
		},
	})

	for _, row := range rows {
		task := asynq.NewTask(TaskType(row.Queue), nil, asynq.Queue(row.Queue), asynq.MaxRetry(row.Attempts))
		if _, err := s.sched.Register(row.CronSpec, task); err != nil {
			return fmt.Errorf("scheduler: register queue %s: %w", row.Queue, err)
		}
	}

	s.log.Info("schedule registrations reconciled", zap.Int("queues", len(rows)))

	go func() {
		if err := s.sched.Run(); err != nil {
			s.log.Error("scheduler stopped", zap.Error(err))
		}
	}()
	return nil
}

// Stop shuts down the cron loop. It does not wait for any in-flight job;
// that ordering lives in the worker pool's own shutdown.
func (s *Scheduler) Stop() {
	if s.sched != nil {
		s.sched.Shutdown()
	}
}
