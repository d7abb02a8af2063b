package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Run{}))
	return db
}

func TestLedger_StartProgressFinish_Success(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(openLedgerTestDB(t))

	require.NoError(t, l.Start(ctx, "run-1", "gl-export", 3, 1))
	require.NoError(t, l.Progress(ctx, "run-1", 40))
	require.NoError(t, l.Finish(ctx, "run-1", nil))

	run, err := l.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, run.Status)
	assert.Equal(t, 100, run.Progress)
	assert.Empty(t, run.Error)
	assert.NotNil(t, run.FinishedAt)
}

func TestLedger_Finish_Failure(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(openLedgerTestDB(t))

	require.NoError(t, l.Start(ctx, "run-2", "inventory-sync", 3, 2))
	require.NoError(t, l.Progress(ctx, "run-2", 55))
	require.NoError(t, l.Finish(ctx, "run-2", errors.New("store 9 timed out")))

	run, err := l.Get(ctx, "run-2")
	require.NoError(t, err)
	assert.Equal(t, RunStatusFailed, run.Status)
	assert.Equal(t, "store 9 timed out", run.Error)
	assert.Equal(t, 55, run.Progress, "a failed run keeps whatever progress it last reported")
}

func TestLedger_Progress_Clamps(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(openLedgerTestDB(t))

	require.NoError(t, l.Start(ctx, "run-3", "hourly-sales", 2, 0))
	require.NoError(t, l.Progress(ctx, "run-3", -5))
	run, err := l.Get(ctx, "run-3")
	require.NoError(t, err)
	assert.Equal(t, 0, run.Progress)

	require.NoError(t, l.Progress(ctx, "run-3", 250))
	run, err = l.Get(ctx, "run-3")
	require.NoError(t, err)
	assert.Equal(t, 100, run.Progress)
}

func TestLedger_Evict_KeepsActiveAndRecentTerminal(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(openLedgerTestDB(t))

	for i := 0; i < 5; i++ {
		id := string(rune('a' + i))
		require.NoError(t, l.Start(ctx, id, "gl-export", 1, 0))
		require.NoError(t, l.Finish(ctx, id, nil))
	}
	require.NoError(t, l.Start(ctx, "active-1", "gl-export", 1, 0))

	require.NoError(t, l.Evict(ctx, "gl-export", 2, 5))

	var count int64
	require.NoError(t, l.db.Model(&Run{}).Where("queue = ? AND status = ?", "gl-export", RunStatusCompleted).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	_, err := l.Get(ctx, "active-1")
	assert.NoError(t, err, "active runs are never evicted")
}
