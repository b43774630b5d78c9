package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Veraticus/cashflow/internal/ledger"
	"github.com/Veraticus/cashflow/internal/model"
	"github.com/Veraticus/cashflow/internal/service"
)

// LoadState reads the balances and the whole log in one read transaction.
func (s *SQLiteStorage) LoadState(ctx context.Context) (ledger.State, error) {
	if err := validateContext(ctx); err != nil {
		return ledger.State{}, err
	}

	var state ledger.State
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		current, opening, ok, err := ReadBalances(ctx, tx, "")
		if err != nil || !ok {
			return err
		}
		log, err := QueryTransactions(ctx, tx, SQLiteDialect, service.TransactionFilter{})
		if err != nil {
			return err
		}
		state = ledger.State{Balances: &current, Opening: &opening, Log: log}
		return nil
	})
	if err != nil {
		return ledger.State{}, err
	}
	return state, nil
}

// SaveSetup records opening balances. It fails with ledger.ErrAlreadySetup
// when balances already exist.
func (s *SQLiteStorage) SaveSetup(ctx context.Context, opening model.BalancePair) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		_, _, ok, err := ReadBalances(ctx, tx, "")
		if err != nil {
			return err
		}
		if ok {
			return ledger.ErrAlreadySetup
		}
		return InsertBalances(ctx, tx, SQLiteDialect, opening, opening, time.Now())
	})
}

// CommitTransaction appends txn and stores the resulting balances atomically.
func (s *SQLiteStorage) CommitTransaction(ctx context.Context, txn model.Transaction, balances model.BalancePair) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := ValidateTransaction(txn); err != nil {
		return err
	}

	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		found, err := UpdateBalances(ctx, tx, SQLiteDialect, balances, time.Now())
		if err != nil {
			return err
		}
		if !found {
			return ledger.ErrUnsetBalances
		}
		return InsertTransaction(ctx, tx, SQLiteDialect, txn)
	})
}

// ReplaceState discards the stored ledger and writes state in its place.
func (s *SQLiteStorage) ReplaceState(ctx context.Context, state ledger.State) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if !state.IsSetup() && len(state.Log) > 0 {
		return fmt.Errorf("%w: log without balances", ErrInvalidBalances)
	}

	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := ClearLedger(ctx, tx); err != nil {
			return err
		}
		if !state.IsSetup() {
			return nil
		}
		opening := *state.Balances
		if state.Opening != nil {
			opening = *state.Opening
		}
		if err := InsertBalances(ctx, tx, SQLiteDialect, *state.Balances, opening, time.Now()); err != nil {
			return err
		}
		for _, txn := range state.Log {
			if err := InsertTransaction(ctx, tx, SQLiteDialect, txn); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListTransactions returns the log entries matching filter.
func (s *SQLiteStorage) ListTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return QueryTransactions(ctx, s.db, SQLiteDialect, filter)
}

// CountTransactions returns the number of log entries.
func (s *SQLiteStorage) CountTransactions(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return n, nil
}

// Reset deletes the log and the balances.
func (s *SQLiteStorage) Reset(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		return ClearLedger(ctx, tx)
	})
}
