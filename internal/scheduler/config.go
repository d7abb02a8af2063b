package scheduler

import (
	"time"

	"github.com/brightleaf/glsync/internal/config"
)

// QueueDef is one row of the fixed queue table: a queue name, its retry
// policy, and the cron schedule it runs on.
type QueueDef struct {
	Name        string
	Attempts    int
	BackoffBase time.Duration
	CronSpec    string
}

// DefaultQueueDefs returns the queue table in the order queues are
// reconciled and registered. odooSyncEnabled toggles the optional
// odoo-sync queue; its processor is always a stub (the ERP write-back is
// an external collaborator), but the queue itself only exists when
// explicitly enabled.
func DefaultQueueDefs(odooSyncEnabled bool) []QueueDef {
	defs := []QueueDef{
		{Name: "inventory-sync", Attempts: 3, BackoffBase: 60 * time.Second, CronSpec: "*/10 * * * *"},
		{Name: "gl-export", Attempts: 3, BackoffBase: 60 * time.Second, CronSpec: "0 8 * * *"},
		{Name: "banner-sync", Attempts: 2, BackoffBase: 60 * time.Second, CronSpec: "0 5 * * *"},
		{Name: "hourly-sales", Attempts: 2, BackoffBase: 60 * time.Second, CronSpec: "0 * * * *"},
	}
	if odooSyncEnabled {
		defs = append(defs, QueueDef{Name: "odoo-sync", Attempts: 3, BackoffBase: 60 * time.Second, CronSpec: "5,20,35,50 * * * *"})
	}
	return defs
}

// ByName indexes defs by queue name.
func ByName(defs []QueueDef) map[string]QueueDef {
	byName := make(map[string]QueueDef, len(defs))
	for _, def := range defs {
		byName[def.Name] = def
	}
	return byName
}

// ProvideQueueDefs resolves the queue table from application config.
func ProvideQueueDefs(cfg config.Config) []QueueDef {
	return DefaultQueueDefs(cfg.OdooSyncEnabled)
}
