// Package inventory is the Postgres-backed store of record for each
// store's raw POS inventory and discount snapshots, upserted by the
// inventory-sync job and read back by the Cache Refresher before it
// overwrites the Redis view (C7).
package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Row is one store's latest inventory and discount snapshot. The POS
// payloads are stored as opaque JSON since the cache refresher and the
// (out-of-scope) HTTP API pass them straight through to Redis and to
// clients respectively; nothing in this service parses their schema.
type Row struct {
	StoreID       string `gorm:"primaryKey;column:store_id"`
	InventoryJSON string `gorm:"column:inventory_json"`
	DiscountsJSON string `gorm:"column:discounts_json"`
	SyncedAt      time.Time `gorm:"column:synced_at"`
}

func (Row) TableName() string { return "store_inventory_snapshots" }

// Repository persists and reloads inventory snapshots.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Upsert writes storeID's latest inventory and discounts payloads,
// updating in place on conflict (no cross-row transaction semantics are
// required per store).
func (r *Repository) Upsert(ctx context.Context, storeID string, inventoryJSON, discountsJSON []byte, syncedAt time.Time) error {
	row := Row{
		StoreID:       storeID,
		InventoryJSON: string(inventoryJSON),
		DiscountsJSON: string(discountsJSON),
		SyncedAt:      syncedAt,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "store_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"inventory_json", "discounts_json", "synced_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("inventory: upsert snapshot for %s: %w", storeID, err)
	}
	return nil
}

// Get reloads storeID's latest snapshot, decoded into generic JSON values
// ready to hand to the Cache Refresher.
func (r *Repository) Get(ctx context.Context, storeID string) (inventory any, discounts any, err error) {
	var row Row
	if err := r.db.WithContext(ctx).First(&row, "store_id = ?", storeID).Error; err != nil {
		return nil, nil, fmt.Errorf("inventory: load snapshot for %s: %w", storeID, err)
	}

	if err := json.Unmarshal([]byte(row.InventoryJSON), &inventory); err != nil {
		return nil, nil, fmt.Errorf("inventory: decode inventory for %s: %w", storeID, err)
	}
	if err := json.Unmarshal([]byte(row.DiscountsJSON), &discounts); err != nil {
		return nil, nil, fmt.Errorf("inventory: decode discounts for %s: %w", storeID, err)
	}
	return inventory, discounts, nil
}
