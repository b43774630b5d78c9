package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/cashflow/internal/model"
)

func TestCheckpoint_CreateListRestore(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "cashflow.db")
	ctx := context.Background()

	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.SaveSetup(ctx, pair("5000", "10000")))
	require.NoError(t, store.CommitTransaction(ctx, testTxn(1, model.DirectionCashIn, "100", "10", time.Now()), pair("4900", "10110")))

	cm, err := store.NewCheckpointManager()
	require.NoError(t, err)

	info, err := cm.Create(ctx, "before-reset", "manual snapshot")
	require.NoError(t, err)
	assert.Equal(t, "before-reset", info.ID)
	assert.Equal(t, 1, info.Transactions())
	assert.True(t, info.IsSetup())
	assert.Equal(t, ExpectedSchemaVersion, info.SchemaVersion)
	assert.FileExists(t, filepath.Join(dir, "checkpoints", "before-reset.db"))

	_, err = cm.Create(ctx, "before-reset", "")
	assert.ErrorIs(t, err, ErrCheckpointExists)

	require.NoError(t, store.Reset(ctx))

	list, err := cm.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "manual snapshot", list[0].Description)

	require.NoError(t, cm.Restore(ctx, "before-reset"))

	reopened, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	state, err := reopened.LoadState(ctx)
	require.NoError(t, err)
	require.True(t, state.IsSetup())
	assert.True(t, state.Balances.Equal(pair("4900", "10110")))
	assert.Len(t, state.Log, 1)
}

func TestCheckpoint_AutoPrunes(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	cm, err := store.NewCheckpointManager()
	require.NoError(t, err)

	_, err = cm.Create(ctx, "manual", "kept")
	require.NoError(t, err)

	for i := 0; i < maxAutoCheckpoints+2; i++ {
		_, err := cm.AutoCheckpoint(ctx, fmt.Sprintf("reset%d", i))
		require.NoError(t, err)
	}

	list, err := cm.List(ctx)
	require.NoError(t, err)

	auto := 0
	for _, cp := range list {
		if cp.IsAuto {
			auto++
		}
	}
	assert.Equal(t, maxAutoCheckpoints, auto)
	assert.Len(t, list, maxAutoCheckpoints+1)
}

func TestCheckpoint_Errors(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	cm, err := store.NewCheckpointManager()
	require.NoError(t, err)

	_, err = cm.Create(ctx, "../escape", "")
	assert.ErrorIs(t, err, ErrInvalidCheckpointID)

	assert.ErrorIs(t, cm.Restore(ctx, "missing"), ErrCheckpointNotFound)
	assert.ErrorIs(t, cm.Delete(ctx, "missing"), ErrCheckpointNotFound)

	_, err = cm.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCheckpointNotFound)

	info, err := cm.Create(ctx, "", "")
	require.NoError(t, err)
	require.NoError(t, cm.Delete(ctx, info.ID))
	_, statErr := os.Stat(filepath.Join(filepath.Dir(store.Path()), "checkpoints", info.ID+".db"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestCheckpoint_InMemory(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, err = store.NewCheckpointManager()
	assert.ErrorIs(t, err, ErrInMemoryDatabase)
}
