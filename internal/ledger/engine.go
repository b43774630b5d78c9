// Package ledger applies cash-in and cash-out transactions to the agent's two
// balances and derives profit views from the transaction log.
//
// Everything here is a pure function of the State passed in. Callers own the
// State, persist it, and serialize writers.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/cashflow/internal/fee"
	"github.com/Veraticus/cashflow/internal/model"
)

var (
	// ErrInvalidAmount is fee.ErrInvalidAmount, re-exported for callers that only import ledger.
	ErrInvalidAmount = fee.ErrInvalidAmount
	// ErrUnsetBalances is returned when a transaction is attempted before setup.
	ErrUnsetBalances = errors.New("balances have not been set up")
	// ErrAlreadySetup is returned when setup runs on a ledger that already has balances.
	ErrAlreadySetup = errors.New("balances are already set up; reset first")
	// ErrInvalidDirection is returned for directions other than CASH_IN and CASH_OUT.
	ErrInvalidDirection = errors.New("invalid transaction direction")
	// ErrInvalidFeeMethod is returned for fee methods other than included and separate.
	ErrInvalidFeeMethod = errors.New("invalid fee method")
	// ErrInsufficientBalance is returned when a balance would go negative and that is disallowed.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInvalidOpeningBalance is returned for negative starting balances.
	ErrInvalidOpeningBalance = errors.New("opening balances cannot be negative")
)

// State is one accounting entity: its current balances, the balances it was
// set up with, and its log in chronological order. A nil Balances means the
// entity needs setup.
type State struct {
	Balances *model.BalancePair
	Opening  *model.BalancePair
	Log      []model.Transaction
}

// IsSetup reports whether the state has balances to transact against.
func (s State) IsSetup() bool {
	return s.Balances != nil
}

// LastTimestamp is the timestamp of the newest log entry, or the zero time.
func (s State) LastTimestamp() time.Time {
	if len(s.Log) == 0 {
		return time.Time{}
	}
	return s.Log[len(s.Log)-1].Timestamp
}

// Request is a transaction the caller wants to record.
type Request struct {
	Amount    decimal.Decimal
	Direction model.TransactionDirection
	FeeMethod model.FeeMethod
}

// Engine binds a fee schedule to the balance transfer rules.
type Engine struct {
	newID                 func() string
	schedule              fee.Schedule
	allowNegativeBalances bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithNegativeBalances controls whether a transaction may drive a balance below zero.
func WithNegativeBalances(allow bool) Option {
	return func(e *Engine) { e.allowNegativeBalances = allow }
}

// WithIDGenerator replaces the uuid generator, mostly for tests.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// NewEngine returns an engine for the given schedule. Negative balances are
// allowed unless turned off.
func NewEngine(schedule fee.Schedule, opts ...Option) *Engine {
	e := &Engine{
		schedule:              schedule,
		allowNegativeBalances: true,
		newID:                 func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Schedule returns the engine's fee schedule.
func (e *Engine) Schedule() fee.Schedule {
	return e.schedule
}

// AllowsNegativeBalances reports the engine's negative balance policy.
func (e *Engine) AllowsNegativeBalances() bool {
	return e.allowNegativeBalances
}

// Quote is the fee the engine would charge for amount.
func (e *Engine) Quote(amount decimal.Decimal) (decimal.Decimal, error) {
	return e.schedule.Fee(amount)
}

// Apply validates req, prices it, and returns the committed transaction with
// the state that results from it. The input state is never modified; on error
// the caller's state is simply left as it was.
func (e *Engine) Apply(state State, req Request, now time.Time) (model.Transaction, State, error) {
	if !state.IsSetup() {
		return model.Transaction{}, state, ErrUnsetBalances
	}
	if !req.Amount.IsPositive() {
		return model.Transaction{}, state, ErrInvalidAmount
	}

	method, err := normalizeMethod(req.Direction, req.FeeMethod)
	if err != nil {
		return model.Transaction{}, state, err
	}

	charged, err := e.schedule.Fee(req.Amount)
	if err != nil {
		return model.Transaction{}, state, err
	}

	next := Transfer(*state.Balances, req.Direction, method, req.Amount, charged)
	if !e.allowNegativeBalances && (next.Wallet.IsNegative() || next.Cash.IsNegative()) {
		return model.Transaction{}, state, fmt.Errorf("%w: wallet %s, cash %s after %s %s",
			ErrInsufficientBalance, next.Wallet.StringFixed(2), next.Cash.StringFixed(2), req.Direction.Label(), req.Amount)
	}

	// Keep the log non-decreasing even if the clock steps backwards.
	ts := now
	if last := state.LastTimestamp(); ts.Before(last) {
		ts = last
	}

	txn := model.Transaction{
		ID:        e.newID(),
		Timestamp: ts,
		Direction: req.Direction,
		Amount:    req.Amount,
		Fee:       charged,
		FeeMethod: method,
	}

	log := make([]model.Transaction, len(state.Log), len(state.Log)+1)
	copy(log, state.Log)

	return txn, State{
		Balances: &next,
		Opening:  state.Opening,
		Log:      append(log, txn),
	}, nil
}

func normalizeMethod(direction model.TransactionDirection, method model.FeeMethod) (model.FeeMethod, error) {
	switch direction {
	case model.DirectionCashIn:
		return model.FeeNone, nil
	case model.DirectionCashOut:
		switch method {
		case model.FeeNone:
			return model.FeeIncluded, nil
		case model.FeeIncluded, model.FeeSeparate:
			return method, nil
		default:
			return model.FeeNone, fmt.Errorf("%w: %q", ErrInvalidFeeMethod, method)
		}
	default:
		return model.FeeNone, fmt.Errorf("%w: %q", ErrInvalidDirection, direction)
	}
}

// Transfer moves one transaction's money between the pools:
//
//	CASH_IN             wallet -amount        cash +amount+fee
//	CASH_OUT included   wallet +amount+fee    cash -amount
//	CASH_OUT separate   wallet +amount        cash -(amount-fee)
//
// It does no validation; Apply and Replay call it with checked inputs.
func Transfer(b model.BalancePair, direction model.TransactionDirection, method model.FeeMethod, amount, charged decimal.Decimal) model.BalancePair {
	switch {
	case direction == model.DirectionCashIn:
		return model.BalancePair{
			Wallet: b.Wallet.Sub(amount),
			Cash:   b.Cash.Add(amount).Add(charged),
		}
	case method == model.FeeSeparate:
		return model.BalancePair{
			Wallet: b.Wallet.Add(amount),
			Cash:   b.Cash.Sub(amount.Sub(charged)),
		}
	default:
		return model.BalancePair{
			Wallet: b.Wallet.Add(amount).Add(charged),
			Cash:   b.Cash.Sub(amount),
		}
	}
}

// Setup starts a fresh ledger from operator-supplied opening balances.
func Setup(opening model.BalancePair) (State, error) {
	if opening.Wallet.IsNegative() || opening.Cash.IsNegative() {
		return State{}, ErrInvalidOpeningBalance
	}
	current := opening
	start := opening
	return State{Balances: &current, Opening: &start, Log: []model.Transaction{}}, nil
}

// Reset discards the log and the balances. The result needs Setup again.
func Reset(State) State {
	return State{}
}

// Replay recomputes balances from the opening pair and the stored fees of
// every logged transaction. A ledger that was only ever changed through Apply
// replays to its current balances.
func Replay(opening model.BalancePair, log []model.Transaction) model.BalancePair {
	b := opening
	for _, txn := range log {
		method := txn.FeeMethod
		if txn.Direction == model.DirectionCashOut && method == model.FeeNone {
			method = model.FeeIncluded
		}
		b = Transfer(b, txn.Direction, method, txn.Amount, txn.Fee)
	}
	return b
}
