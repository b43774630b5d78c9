package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/cashflow/internal/common"
	"github.com/Veraticus/cashflow/internal/ledger"
	"github.com/Veraticus/cashflow/internal/model"
	"github.com/Veraticus/cashflow/internal/service"
)

// openTestStorage connects to CASHFLOW_TEST_POSTGRES_DSN or skips.
func openTestStorage(t *testing.T) *Storage {
	t.Helper()
	dsn := os.Getenv("CASHFLOW_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CASHFLOW_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	store, err := Open(ctx, dsn, 1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Reset(ctx))
	return store
}

func TestOpen_RequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), "", 1)
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestStorage_Lifecycle(t *testing.T) {
	store := openTestStorage(t)
	ctx := context.Background()

	opening := model.BalancePair{Wallet: decimal.NewFromInt(5000), Cash: decimal.NewFromInt(10000)}
	require.NoError(t, store.SaveSetup(ctx, opening))
	assert.ErrorIs(t, store.SaveSetup(ctx, opening), ledger.ErrAlreadySetup)

	txn := model.Transaction{
		ID:        "pg-1",
		Timestamp: time.Now().UTC().Truncate(time.Microsecond),
		Direction: model.DirectionCashOut,
		FeeMethod: model.FeeSeparate,
		Amount:    decimal.RequireFromString("300.25"),
		Fee:       decimal.NewFromInt(15),
	}
	balances := model.BalancePair{Wallet: decimal.RequireFromString("5300.25"), Cash: decimal.RequireFromString("9714.75")}
	require.NoError(t, store.CommitTransaction(ctx, txn, balances))

	err := store.CommitTransaction(ctx, txn, balances)
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)

	state, err := store.LoadState(ctx)
	require.NoError(t, err)
	require.True(t, state.IsSetup())
	assert.True(t, state.Balances.Equal(balances))
	require.Len(t, state.Log, 1)
	assert.True(t, state.Log[0].Amount.Equal(txn.Amount))
	assert.True(t, state.Log[0].Timestamp.Equal(txn.Timestamp))

	got, err := store.ListTransactions(ctx, service.TransactionFilter{
		Amount: []service.AmountCondition{{Op: service.OpGreaterThan, Value: decimal.NewFromInt(300)}},
	})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	require.NoError(t, store.Reset(ctx))
	state, err = store.LoadState(ctx)
	require.NoError(t, err)
	assert.False(t, state.IsSetup())
}
