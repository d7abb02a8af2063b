package scheduler

import (
	"time"

	"gorm.io/gorm"
)

// Registration is a persisted row mirroring one registered repeatable job.
// On startup the Scheduler clears this table and reinserts the current
// queue table inside one transaction, then registers a cron entry per
// row with asynq. That gives "replace every existing registration before
// re-registering" an observable, queryable backing store, rather than
// relying on an in-memory scheduler whose previous registrations vanish
// across a restart along with any record of what they were.
type Registration struct {
	Queue       string `gorm:"primaryKey;column:queue"`
	CronSpec    string `gorm:"column:cron_spec"`
	Attempts    int    `gorm:"column:attempts"`
	BackoffBase time.Duration `gorm:"column:backoff_base"`
	UpdatedAt   time.Time     `gorm:"column:updated_at"`
}

func (Registration) TableName() string { return "schedule_registrations" }

// ReconcileRegistrations replaces the registration table's contents with
// defs inside a single transaction: every row is deleted, then the
// current queue table is inserted fresh. Startup always converges to
// exactly one registration per queue, however many times it runs.
func ReconcileRegistrations(db *gorm.DB, defs []QueueDef) ([]Registration, error) {
	rows := make([]Registration, 0, len(defs))
	now := time.Now().UTC()
	for _, def := range defs {
		rows = append(rows, Registration{
			Queue:       def.Name,
			CronSpec:    def.CronSpec,
			Attempts:    def.Attempts,
			BackoffBase: def.BackoffBase,
			UpdatedAt:   now,
		})
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM schedule_registrations").Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}
