package worker

import "context"

// JobTrigger is the contract a one-off job trigger tool builds on: enqueue
// a job against a known queue, read back queue-level status, and shut
// down cleanly. The out-of-scope HTTP API would consume the same
// interface; nothing about it is CLI-specific.
type JobTrigger interface {
	AddJob(ctx context.Context, queue string, payload []byte, opts JobOptions) (string, error)
	JobStatus(ctx context.Context) (map[string]QueueStatus, error)
	Shutdown(ctx context.Context) error
}

// JobOptions controls a one-off enqueue. Zero value uses the queue's
// registered retry policy.
type JobOptions struct {
	Attempts int
}

// QueueStatus mirrors asynq's per-queue counters.
type QueueStatus struct {
	Pending   int
	Active    int
	Completed int
	Failed    int
}
