package scheduler

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Registration{}))
	return db
}

func TestReconcileRegistrations_ReplacesExistingRows(t *testing.T) {
	db := openTestDB(t)

	first := []QueueDef{
		{Name: "inventory-sync", Attempts: 3, BackoffBase: 60 * time.Second, CronSpec: "*/10 * * * *"},
		{Name: "gl-export", Attempts: 3, BackoffBase: 60 * time.Second, CronSpec: "0 8 * * *"},
	}
	rows, err := ReconcileRegistrations(db, first)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	var count int64
	require.NoError(t, db.Model(&Registration{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)

	// odoo-sync newly enabled, gl-export dropped: the table should end up
	// with exactly the new set, not a union of old and new.
	second := []QueueDef{
		{Name: "inventory-sync", Attempts: 3, BackoffBase: 60 * time.Second, CronSpec: "*/10 * * * *"},
		{Name: "odoo-sync", Attempts: 3, BackoffBase: 60 * time.Second, CronSpec: "5,20,35,50 * * * *"},
	}
	rows, err = ReconcileRegistrations(db, second)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	require.NoError(t, db.Model(&Registration{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)

	var stored []Registration
	require.NoError(t, db.Order("queue").Find(&stored).Error)
	require.Len(t, stored, 2)
	assert.Equal(t, "inventory-sync", stored[0].Queue)
	assert.Equal(t, "odoo-sync", stored[1].Queue)
}

func TestReconcileRegistrations_Idempotent(t *testing.T) {
	db := openTestDB(t)
	defs := DefaultQueueDefs(false)

	_, err := ReconcileRegistrations(db, defs)
	require.NoError(t, err)
	_, err = ReconcileRegistrations(db, defs)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&Registration{}).Count(&count).Error)
	assert.EqualValues(t, len(defs), count)
}

func TestDefaultQueueDefs_OdooSyncToggle(t *testing.T) {
	withoutOdoo := DefaultQueueDefs(false)
	withOdoo := DefaultQueueDefs(true)
	assert.Len(t, withoutOdoo, 4)
	assert.Len(t, withOdoo, 5)
	assert.Equal(t, "odoo-sync", withOdoo[4].Name)
}
