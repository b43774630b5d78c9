package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/cashflow/internal/ledger"
	"github.com/Veraticus/cashflow/internal/model"
	"github.com/Veraticus/cashflow/internal/service"
)

// ErrInvalidSnapshot is returned for snapshots that cannot become a ledger.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Number is a decimal that marshals as a bare JSON number.
type Number struct {
	decimal.Decimal
}

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(n.Decimal.String()), nil
}

// Snapshot is the cashFlowData document: current balances plus the log,
// newest first.
type Snapshot struct {
	Balances     SnapshotBalances      `json:"balances"`
	Transactions []SnapshotTransaction `json:"transactions"`
}

// SnapshotBalances names the wallet side "gcash".
type SnapshotBalances struct {
	GCash Number `json:"gcash"`
	Cash  Number `json:"cash"`
}

// SnapshotTransaction is one logged transaction. Profit is the fee that was
// charged at the time.
type SnapshotTransaction struct {
	Date         time.Time                  `json:"date"`
	Type         model.TransactionDirection `json:"type"`
	ProfitMethod string                     `json:"profitMethod,omitempty"`
	Amount       Number                     `json:"amount"`
	Profit       Number                     `json:"profit"`
}

// NewSnapshot converts state. A state without balances exports zeros.
func NewSnapshot(state ledger.State) Snapshot {
	snap := Snapshot{
		Balances: SnapshotBalances{
			GCash: Number{decimal.Zero},
			Cash:  Number{decimal.Zero},
		},
		Transactions: make([]SnapshotTransaction, 0, len(state.Log)),
	}
	if state.Balances != nil {
		snap.Balances.GCash = Number{state.Balances.Wallet}
		snap.Balances.Cash = Number{state.Balances.Cash}
	}
	for i := len(state.Log) - 1; i >= 0; i-- {
		txn := state.Log[i]
		snap.Transactions = append(snap.Transactions, SnapshotTransaction{
			Date:         txn.Timestamp.UTC(),
			Type:         txn.Direction,
			Amount:       Number{txn.Amount},
			Profit:       Number{txn.Fee},
			ProfitMethod: string(txn.FeeMethod),
		})
	}
	return snap
}

// WriteSnapshot encodes state as indented JSON.
func WriteSnapshot(w io.Writer, state ledger.State) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewSnapshot(state)); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot decodes a snapshot document.
func ReadSnapshot(r io.Reader) (Snapshot, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	return snap, nil
}

// Transaction converts the entry into a log record with the given id. The
// stored profit is kept as the fee; it is never recomputed.
func (t SnapshotTransaction) Transaction(id string) (model.Transaction, error) {
	if t.Date.IsZero() {
		return model.Transaction{}, fmt.Errorf("%w: transaction without a date", ErrInvalidSnapshot)
	}
	if !t.Type.Valid() {
		return model.Transaction{}, fmt.Errorf("%w: type %q", ErrInvalidSnapshot, t.Type)
	}
	if !t.Amount.IsPositive() {
		return model.Transaction{}, fmt.Errorf("%w: amount %s", ErrInvalidSnapshot, t.Amount)
	}
	if t.Profit.IsNegative() {
		return model.Transaction{}, fmt.Errorf("%w: profit %s", ErrInvalidSnapshot, t.Profit)
	}

	method, err := model.ParseFeeMethod(t.ProfitMethod)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	switch {
	case t.Type == model.DirectionCashIn:
		method = model.FeeNone
	case method == model.FeeNone:
		method = model.FeeIncluded
	}

	return model.Transaction{
		ID:        id,
		Timestamp: t.Date,
		Direction: t.Type,
		Amount:    t.Amount.Decimal,
		Fee:       t.Profit.Decimal,
		FeeMethod: method,
	}, nil
}

// State converts the whole snapshot. newID names each record; uuid is used
// when it is nil.
func (s Snapshot) State(newID func() string) (ledger.State, error) {
	if newID == nil {
		newID = uuid.NewString
	}
	log := make([]model.Transaction, 0, len(s.Transactions))
	for i, entry := range s.Transactions {
		txn, err := entry.Transaction(newID())
		if err != nil {
			return ledger.State{}, fmt.Errorf("transaction %d: %w", i, err)
		}
		log = append(log, txn)
	}
	return StateFrom(model.BalancePair{
		Wallet: s.Balances.GCash.Decimal,
		Cash:   s.Balances.Cash.Decimal,
	}, log), nil
}

// StateFrom orders log chronologically and derives the opening balances by
// undoing every transaction from balances, so that replaying the log from
// the opening arrives back at balances.
func StateFrom(balances model.BalancePair, log []model.Transaction) ledger.State {
	sorted := make([]model.Transaction, len(log))
	copy(sorted, log)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	moved := ledger.Replay(model.BalancePair{Wallet: decimal.Zero, Cash: decimal.Zero}, sorted)
	opening := model.BalancePair{
		Wallet: balances.Wallet.Sub(moved.Wallet),
		Cash:   balances.Cash.Sub(moved.Cash),
	}
	current := balances
	return ledger.State{Balances: &current, Opening: &opening, Log: sorted}
}

// JSONWriter publishes a report as a snapshot document.
type JSONWriter struct {
	Out io.Writer
}

// Write implements service.ReportWriter.
func (j *JSONWriter) Write(_ context.Context, r *service.Report) error {
	return WriteSnapshot(j.Out, ledger.State{
		Balances: r.Balances,
		Opening:  r.Opening,
		Log:      r.Transactions,
	})
}
