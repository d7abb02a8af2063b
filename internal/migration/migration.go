package migration

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/brightleaf/glsync/internal/inventory"
	"github.com/brightleaf/glsync/internal/scheduler"
	"github.com/brightleaf/glsync/internal/storeregistry"
	"github.com/brightleaf/glsync/internal/worker"
)

// RunMigrations ensures glsync is fully usable out of the box for local and
// self-hosted deployments: every table the daemon depends on is created
// automatically on startup via GORM's schema migrator. There is no
// versioned migration history; schema changes are additive column/index
// changes AutoMigrate can apply in place.
func RunMigrations(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("migration database handle is required")
	}

	models := []any{
		&storeregistry.Row{},
		&scheduler.Registration{},
		&worker.Run{},
		&inventory.Row{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto-migrate schema: %w", err)
	}

	return nil
}
