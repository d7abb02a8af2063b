package inventory

import (
	"context"
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
	require.NoError(t, db.AutoMigrate(&Row{}))
	return db
}

func TestRepository_UpsertThenGet_RoundTrips(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(openTestDB(t))
	syncedAt := time.Date(2026, 7, 30, 6, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Upsert(ctx, "store-1",
		[]byte(`{"sku-1":12}`), []byte(`{"promo-1":0.1}`), syncedAt))

	inv, disc, err := repo.Get(ctx, "store-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"sku-1": float64(12)}, inv)
	assert.Equal(t, map[string]any{"promo-1": 0.1}, disc)
}

func TestRepository_Upsert_ReplacesOnConflict(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(openTestDB(t))

	require.NoError(t, repo.Upsert(ctx, "store-1", []byte(`{"sku-1":1}`), []byte(`{}`), time.Now().UTC()))
	require.NoError(t, repo.Upsert(ctx, "store-1", []byte(`{"sku-1":99}`), []byte(`{}`), time.Now().UTC()))

	inv, _, err := repo.Get(ctx, "store-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"sku-1": float64(99)}, inv)

	var count int64
	require.NoError(t, repo.db.Model(&Row{}).Where("store_id = ?", "store-1").Count(&count).Error)
	assert.Equal(t, int64(1), count, "conflict updates in place rather than inserting a second row")
}

func TestRepository_Get_UnknownStore(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(openTestDB(t))

	_, _, err := repo.Get(ctx, "missing")
	assert.Error(t, err)
}
