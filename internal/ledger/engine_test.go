package ledger

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/cashflow/internal/fee"
	"github.com/Veraticus/cashflow/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sequentialIDs() Option {
	n := 0
	return WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("txn-%d", n)
	})
}

func setupState(t *testing.T, wallet, cash string) State {
	t.Helper()
	state, err := Setup(model.BalancePair{Wallet: dec(wallet), Cash: dec(cash)})
	require.NoError(t, err)
	return state
}

func assertBalances(t *testing.T, state State, wallet, cash string) {
	t.Helper()
	require.NotNil(t, state.Balances)
	assert.True(t, state.Balances.Wallet.Equal(dec(wallet)), "wallet = %s, want %s", state.Balances.Wallet, wallet)
	assert.True(t, state.Balances.Cash.Equal(dec(cash)), "cash = %s, want %s", state.Balances.Cash, cash)
}

func TestEngine_EndToEnd(t *testing.T) {
	engine := NewEngine(fee.DefaultSchedule(), sequentialIDs())
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	state := setupState(t, "5000", "10000")

	txn, state, err := engine.Apply(state, Request{Amount: dec("100"), Direction: model.DirectionCashIn}, now)
	require.NoError(t, err)
	assert.True(t, txn.Fee.Equal(dec("10")))
	assert.Equal(t, model.FeeNone, txn.FeeMethod)
	assertBalances(t, state, "4900", "10110")

	txn, state, err = engine.Apply(state, Request{
		Amount:    dec("200"),
		Direction: model.DirectionCashOut,
		FeeMethod: model.FeeIncluded,
	}, now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, txn.Fee.Equal(dec("10")))
	assert.Equal(t, model.FeeIncluded, txn.FeeMethod)
	assertBalances(t, state, "5110", "9910")

	require.Len(t, state.Log, 2)
	assert.Equal(t, "txn-1", state.Log[0].ID)
	assert.Equal(t, "txn-2", state.Log[1].ID)
}

func TestEngine_CashInIgnoresFeeMethod(t *testing.T) {
	engine := NewEngine(fee.DefaultSchedule(), sequentialIDs())
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

	for _, method := range []model.FeeMethod{model.FeeSeparate, model.FeeIncluded} {
		t.Run(string(method), func(t *testing.T) {
			txn, state, err := engine.Apply(setupState(t, "5000", "10000"), Request{
				Amount:    dec("100"),
				Direction: model.DirectionCashIn,
				FeeMethod: method,
			}, now)
			require.NoError(t, err)
			assert.Equal(t, model.FeeNone, txn.FeeMethod)
			assert.Equal(t, model.FeeNone, state.Log[0].FeeMethod)
			assertBalances(t, state, "4900", "10110")
		})
	}
}

func TestEngine_TransferRules(t *testing.T) {
	tests := []struct {
		name       string
		direction  model.TransactionDirection
		method     model.FeeMethod
		amount     string
		wantWallet string
		wantCash   string
		wantMethod model.FeeMethod
	}{
		{
			name:       "cash in",
			direction:  model.DirectionCashIn,
			amount:     "1500",
			wantWallet: "3500",
			wantCash:   "11535",
		},
		{
			name:       "cash in ignores fee method",
			direction:  model.DirectionCashIn,
			method:     model.FeeSeparate,
			amount:     "45",
			wantWallet: "4955",
			wantCash:   "10050",
		},
		{
			name:       "cash out included",
			direction:  model.DirectionCashOut,
			method:     model.FeeIncluded,
			amount:     "2000",
			wantWallet: "7040",
			wantCash:   "8000",
			wantMethod: model.FeeIncluded,
		},
		{
			name:       "cash out separate",
			direction:  model.DirectionCashOut,
			method:     model.FeeSeparate,
			amount:     "300",
			wantWallet: "5300",
			wantCash:   "9715",
			wantMethod: model.FeeSeparate,
		},
		{
			name:       "cash out defaults to included",
			direction:  model.DirectionCashOut,
			amount:     "100",
			wantWallet: "5110",
			wantCash:   "9900",
			wantMethod: model.FeeIncluded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewEngine(fee.DefaultSchedule())
			state := setupState(t, "5000", "10000")

			txn, next, err := engine.Apply(state, Request{
				Amount:    dec(tt.amount),
				Direction: tt.direction,
				FeeMethod: tt.method,
			}, time.Now())
			require.NoError(t, err)

			assertBalances(t, next, tt.wantWallet, tt.wantCash)
			assert.Equal(t, tt.wantMethod, txn.FeeMethod)
			assert.NotEmpty(t, txn.ID)
		})
	}
}

func TestEngine_RejectsWithoutChangingState(t *testing.T) {
	engine := NewEngine(fee.DefaultSchedule())
	state := setupState(t, "5000", "10000")

	tests := []struct {
		wantErr error
		name    string
		state   State
		req     Request
	}{
		{
			name:    "zero amount",
			state:   state,
			req:     Request{Amount: decimal.Zero, Direction: model.DirectionCashIn},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			state:   state,
			req:     Request{Amount: dec("-5"), Direction: model.DirectionCashOut},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "unknown direction",
			state:   state,
			req:     Request{Amount: dec("10"), Direction: "TRANSFER"},
			wantErr: ErrInvalidDirection,
		},
		{
			name:    "unknown fee method",
			state:   state,
			req:     Request{Amount: dec("10"), Direction: model.DirectionCashOut, FeeMethod: "tip"},
			wantErr: ErrInvalidFeeMethod,
		},
		{
			name:    "not set up",
			state:   State{},
			req:     Request{Amount: dec("10"), Direction: model.DirectionCashIn},
			wantErr: ErrUnsetBalances,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, next, err := engine.Apply(tt.state, tt.req, time.Now())
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.state, next)
		})
	}

	assertBalances(t, state, "5000", "10000")
	assert.Empty(t, state.Log)
}

func TestEngine_DoesNotMutateInput(t *testing.T) {
	engine := NewEngine(fee.DefaultSchedule())
	state := setupState(t, "5000", "10000")

	_, next, err := engine.Apply(state, Request{Amount: dec("100"), Direction: model.DirectionCashIn}, time.Now())
	require.NoError(t, err)

	assertBalances(t, state, "5000", "10000")
	assert.Empty(t, state.Log)
	assert.Len(t, next.Log, 1)
	assert.Same(t, state.Opening, next.Opening)
}

func TestEngine_NegativeBalancePolicy(t *testing.T) {
	req := Request{Amount: dec("600"), Direction: model.DirectionCashIn}

	t.Run("allowed by default", func(t *testing.T) {
		engine := NewEngine(fee.DefaultSchedule())
		_, next, err := engine.Apply(setupState(t, "100", "0"), req, time.Now())
		require.NoError(t, err)
		assertBalances(t, next, "-500", "620")
	})

	t.Run("rejected when disallowed", func(t *testing.T) {
		engine := NewEngine(fee.DefaultSchedule(), WithNegativeBalances(false))
		state := setupState(t, "100", "0")
		_, next, err := engine.Apply(state, req, time.Now())
		assert.ErrorIs(t, err, ErrInsufficientBalance)
		assert.Equal(t, state, next)
	})
}

func TestEngine_TimestampsNeverGoBackwards(t *testing.T) {
	engine := NewEngine(fee.DefaultSchedule())
	state := setupState(t, "5000", "10000")
	later := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	_, state, err := engine.Apply(state, Request{Amount: dec("50"), Direction: model.DirectionCashIn}, later)
	require.NoError(t, err)

	txn, state, err := engine.Apply(state, Request{Amount: dec("50"), Direction: model.DirectionCashIn}, later.Add(-time.Hour))
	require.NoError(t, err)

	assert.Equal(t, later, txn.Timestamp)
	assert.False(t, state.Log[1].Timestamp.Before(state.Log[0].Timestamp))
}

func TestSetup(t *testing.T) {
	_, err := Setup(model.BalancePair{Wallet: dec("-1"), Cash: dec("10")})
	assert.ErrorIs(t, err, ErrInvalidOpeningBalance)

	state := setupState(t, "0", "0")
	assert.True(t, state.IsSetup())
	assert.NotSame(t, state.Balances, state.Opening)
}

func TestReset(t *testing.T) {
	engine := NewEngine(fee.DefaultSchedule())
	state := setupState(t, "5000", "10000")
	_, state, err := engine.Apply(state, Request{Amount: dec("100"), Direction: model.DirectionCashIn}, time.Now())
	require.NoError(t, err)

	state = Reset(state)

	assert.False(t, state.IsSetup())
	assert.Empty(t, state.Log)
	_, _, err = engine.Apply(state, Request{Amount: dec("100"), Direction: model.DirectionCashIn}, time.Now())
	assert.ErrorIs(t, err, ErrUnsetBalances)

	sum := AggregateProfits(state.Log)
	assert.True(t, sum.Total.IsZero())
	series := DailyProfitSeries(state.Log, 7, time.Now(), time.UTC)
	assert.Len(t, series, 7)
}

func TestReplay(t *testing.T) {
	engine := NewEngine(fee.DefaultSchedule())
	state := setupState(t, "5000", "10000")
	now := time.Now()

	requests := []Request{
		{Amount: dec("100"), Direction: model.DirectionCashIn},
		{Amount: dec("200"), Direction: model.DirectionCashOut, FeeMethod: model.FeeIncluded},
		{Amount: dec("1500"), Direction: model.DirectionCashOut, FeeMethod: model.FeeSeparate},
		{Amount: dec("45.50"), Direction: model.DirectionCashIn},
	}
	for _, req := range requests {
		var err error
		_, state, err = engine.Apply(state, req, now)
		require.NoError(t, err)
	}

	replayed := Replay(*state.Opening, state.Log)
	assert.True(t, replayed.Equal(*state.Balances), "replayed %+v, applied %+v", replayed, *state.Balances)
}

func TestReplay_UsesStoredFees(t *testing.T) {
	log := []model.Transaction{
		{Direction: model.DirectionCashIn, Amount: dec("100"), Fee: dec("7")},
		{Direction: model.DirectionCashOut, Amount: dec("100"), Fee: dec("3")},
	}

	got := Replay(model.BalancePair{Wallet: dec("1000"), Cash: dec("1000")}, log)

	assert.True(t, got.Wallet.Equal(dec("1003")), "wallet %s", got.Wallet)
	assert.True(t, got.Cash.Equal(dec("1007")), "cash %s", got.Cash)
}
