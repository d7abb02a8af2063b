// Package worker runs one asynq.Server per queue at concurrency 1, wraps
// every job execution with the Job Run Ledger (progress, attempt count,
// terminal status) and structured logging/metrics, and exposes the
// JobTrigger surface the CLI trigger tool builds on.
package worker

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// RunStatus is the lifecycle state of a single job run.
type RunStatus string

const (
	RunStatusActive    RunStatus = "active"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one row in the Job Run Ledger: the persisted record of a single
// attempt at a queue's job, carrying the progress counter asynq itself
// has no field for.
type Run struct {
	ID           string `gorm:"primaryKey;column:id"`
	Queue        string `gorm:"column:queue;index"`
	Status       RunStatus `gorm:"column:status"`
	Progress     int       `gorm:"column:progress"`
	Attempts     int       `gorm:"column:attempts"`
	AttemptsMade int       `gorm:"column:attempts_made"`
	StartedAt    time.Time  `gorm:"column:started_at"`
	FinishedAt   *time.Time `gorm:"column:finished_at"`
	Error        string     `gorm:"column:error"`
}

func (Run) TableName() string { return "job_runs" }

// Ledger persists job run state to Postgres so progress and terminal
// status survive a worker restart and are queryable outside the process
// that ran the job.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Start opens a new ledger row for a job run.
func (l *Ledger) Start(ctx context.Context, id, queue string, attempts, attemptsMade int) error {
	run := Run{
		ID:           id,
		Queue:        queue,
		Status:       RunStatusActive,
		Attempts:     attempts,
		AttemptsMade: attemptsMade,
		StartedAt:    time.Now().UTC(),
	}
	return l.db.WithContext(ctx).Save(&run).Error
}

// Progress updates the coarse-grained progress counter (0-100) for a job
// run. Values outside that range are clamped rather than rejected, since
// a processor's own milestone math is a poor place to enforce this.
func (l *Ledger) Progress(ctx context.Context, id string, progress int) error {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	return l.db.WithContext(ctx).Model(&Run{}).Where("id = ?", id).Update("progress", progress).Error
}

// Finish marks a job run terminal. A nil err means success (progress is
// forced to 100); a non-nil err records its message and leaves whatever
// progress the processor last reported.
func (l *Ledger) Finish(ctx context.Context, id string, jobErr error) error {
	now := time.Now().UTC()
	updates := map[string]any{
		"status":      RunStatusCompleted,
		"finished_at": now,
		"error":       "",
	}
	if jobErr != nil {
		updates["status"] = RunStatusFailed
		updates["error"] = jobErr.Error()
	} else {
		updates["progress"] = 100
	}
	return l.db.WithContext(ctx).Model(&Run{}).Where("id = ?", id).Updates(updates).Error
}

// Evict trims completed and failed runs for queue down to their
// respective caps, oldest first. Active runs are never evicted.
func (l *Ledger) Evict(ctx context.Context, queue string, completeCap, failedCap int) error {
	if err := l.evictStatus(ctx, queue, RunStatusCompleted, completeCap); err != nil {
		return err
	}
	return l.evictStatus(ctx, queue, RunStatusFailed, failedCap)
}

func (l *Ledger) evictStatus(ctx context.Context, queue string, status RunStatus, cap int) error {
	if cap <= 0 {
		return nil
	}
	var ids []string
	err := l.db.WithContext(ctx).Model(&Run{}).
		Where("queue = ? AND status = ?", queue, status).
		Order("started_at DESC").
		Offset(cap).
		Pluck("id", &ids).Error
	if err != nil || len(ids) == 0 {
		return err
	}
	return l.db.WithContext(ctx).Where("id IN ?", ids).Delete(&Run{}).Error
}

// Get returns a single job run by id.
func (l *Ledger) Get(ctx context.Context, id string) (Run, error) {
	var run Run
	err := l.db.WithContext(ctx).First(&run, "id = ?", id).Error
	return run, err
}
