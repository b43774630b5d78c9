// Package tracker is the application service in front of the ledger engine:
// it owns the current State, serializes writers, and persists every change
// before making it visible.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/cashflow/internal/common"
	"github.com/Veraticus/cashflow/internal/ledger"
	"github.com/Veraticus/cashflow/internal/model"
	"github.com/Veraticus/cashflow/internal/service"
)

// Tracker records transactions for one agent.
type Tracker struct {
	store  service.Storage
	engine *ledger.Engine
	now    func() time.Time
	loc    *time.Location
	logger *slog.Logger
	state  ledger.State
	mu     sync.Mutex
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithLocation sets the zone calendar days are evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(t *Tracker) { t.loc = loc }
}

// WithLogger sets the logger. slog.Default is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) { t.logger = logger }
}

// New loads the persisted state from store.
func New(ctx context.Context, store service.Storage, engine *ledger.Engine, opts ...Option) (*Tracker, error) {
	t := &Tracker{
		store:  store,
		engine: engine,
		now:    time.Now,
		loc:    time.Local,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}

	state, err := store.LoadState(ctx)
	if err != nil {
		return nil, persistence("load ledger", err)
	}
	t.state = state
	return t, nil
}

func persistence(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, common.ErrPersistence, err)
}

// Location is the zone calendar days are evaluated in.
func (t *Tracker) Location() *time.Location {
	return t.loc
}

// Engine exposes the fee and transfer rules in use.
func (t *Tracker) Engine() *ledger.Engine {
	return t.engine
}

// Setup records opening balances on an empty ledger.
func (t *Tracker) Setup(ctx context.Context, opening model.BalancePair) (model.BalancePair, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state.IsSetup() {
		return model.BalancePair{}, ledger.ErrAlreadySetup
	}
	next, err := ledger.Setup(opening)
	if err != nil {
		return model.BalancePair{}, err
	}
	if err := t.store.SaveSetup(ctx, opening); err != nil {
		return model.BalancePair{}, persistence("save setup", err)
	}

	t.state = next
	t.logger.Info("ledger set up",
		"wallet", opening.Wallet.String(),
		"cash", opening.Cash.String())
	return *next.Balances, nil
}

// Record prices and applies req, then persists it. Nothing changes unless
// the store accepted the transaction.
func (t *Tracker) Record(ctx context.Context, req ledger.Request) (model.Transaction, model.BalancePair, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	txn, next, err := t.engine.Apply(t.state, req, t.now())
	if err != nil {
		return model.Transaction{}, model.BalancePair{}, err
	}
	if err := t.store.CommitTransaction(ctx, txn, *next.Balances); err != nil {
		return model.Transaction{}, model.BalancePair{}, persistence("commit transaction", err)
	}

	t.state = next
	t.logger.Debug("transaction recorded",
		"id", txn.ID,
		"direction", txn.Direction,
		"amount", txn.Amount.String(),
		"fee", txn.Fee.String(),
		"fee_method", txn.FeeMethod)
	return txn, *next.Balances, nil
}

// Quote returns the fee for amount without recording anything.
func (t *Tracker) Quote(amount decimal.Decimal) (decimal.Decimal, error) {
	return t.engine.Quote(amount)
}

// Balances returns the current balances; ok is false before setup.
func (t *Tracker) Balances() (balances model.BalancePair, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.state.IsSetup() {
		return model.BalancePair{}, false
	}
	return *t.state.Balances, true
}

// Opening returns the balances the ledger was set up with.
func (t *Tracker) Opening() (model.BalancePair, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state.Opening == nil {
		return model.BalancePair{}, false
	}
	return *t.state.Opening, true
}

// Transactions queries the stored log.
func (t *Tracker) Transactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	txns, err := t.store.ListTransactions(ctx, filter)
	if err != nil {
		return nil, persistence("list transactions", err)
	}
	return txns, nil
}

// Profits sums fees over the whole log.
func (t *Tracker) Profits() model.ProfitSummary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return ledger.AggregateProfits(t.state.Log)
}

// DailySeries is the profit per day for the last days days, oldest first.
func (t *Tracker) DailySeries(days int) []model.DailyProfit {
	t.mu.Lock()
	defer t.mu.Unlock()
	return ledger.DailyProfitSeries(t.state.Log, days, t.now(), t.loc)
}

// Overview is today's profit, the trailing week and a 7 day series.
func (t *Tracker) Overview() model.Overview {
	t.mu.Lock()
	defer t.mu.Unlock()
	return ledger.BuildOverview(t.state.Log, t.now(), t.loc)
}

// Reset wipes the log and the balances.
func (t *Tracker) Reset(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.Reset(ctx); err != nil {
		return persistence("reset", err)
	}
	dropped := len(t.state.Log)
	t.state = ledger.Reset(t.state)
	t.logger.Info("ledger reset", "transactions_removed", dropped)
	return nil
}

// Import replaces the whole ledger with state. Stored fees are kept as they are.
func (t *Tracker) Import(ctx context.Context, state ledger.State) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.ReplaceState(ctx, state); err != nil {
		return persistence("import", err)
	}
	t.state = cloneState(state)
	if t.state.IsSetup() && t.state.Opening == nil {
		opening := *t.state.Balances
		t.state.Opening = &opening
	}
	t.logger.Info("ledger imported", "transactions", len(state.Log))
	return nil
}

// Reload discards the in-memory state and reads it again from the store.
func (t *Tracker) Reload(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, err := t.store.LoadState(ctx)
	if err != nil {
		return persistence("load ledger", err)
	}
	t.state = state
	return nil
}

// Verification compares stored balances with a replay of the log.
type Verification struct {
	Stored     model.BalancePair
	Replayed   model.BalancePair
	Drift      model.BalancePair
	Consistent bool
}

// Verify replays the log from the opening balances.
func (t *Tracker) Verify() (Verification, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.state.IsSetup() || t.state.Opening == nil {
		return Verification{}, ledger.ErrUnsetBalances
	}
	stored := *t.state.Balances
	replayed := ledger.Replay(*t.state.Opening, t.state.Log)
	return Verification{
		Stored:   stored,
		Replayed: replayed,
		Drift: model.BalancePair{
			Wallet: stored.Wallet.Sub(replayed.Wallet),
			Cash:   stored.Cash.Sub(replayed.Cash),
		},
		Consistent: stored.Equal(replayed),
	}, nil
}

// Snapshot is a copy of the current state.
func (t *Tracker) Snapshot() ledger.State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return cloneState(t.state)
}

// Report assembles everything an export needs.
func (t *Tracker) Report(days int) *service.Report {
	t.mu.Lock()
	defer t.mu.Unlock()

	state := cloneState(t.state)
	now := t.now()
	return &service.Report{
		GeneratedAt:  now,
		Balances:     state.Balances,
		Opening:      state.Opening,
		Summary:      ledger.AggregateProfits(state.Log),
		Series:       ledger.DailyProfitSeries(state.Log, days, now, t.loc),
		Transactions: state.Log,
	}
}

// Export publishes a report through w.
func (t *Tracker) Export(ctx context.Context, w service.ReportWriter, days int) error {
	if w == nil {
		return errors.New("no report writer configured")
	}
	return w.Write(ctx, t.Report(days))
}

func cloneState(s ledger.State) ledger.State {
	out := ledger.State{Log: make([]model.Transaction, len(s.Log))}
	copy(out.Log, s.Log)
	if s.Balances != nil {
		b := *s.Balances
		out.Balances = &b
	}
	if s.Opening != nil {
		o := *s.Opening
		out.Opening = &o
	}
	return out
}
