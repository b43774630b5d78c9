// Package postgres stores the ledger in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/Veraticus/cashflow/internal/common"
	"github.com/Veraticus/cashflow/internal/ledger"
	"github.com/Veraticus/cashflow/internal/model"
	"github.com/Veraticus/cashflow/internal/service"
	"github.com/Veraticus/cashflow/internal/storage"
)

var _ service.Storage = (*Storage)(nil)

// Storage implements service.Storage on PostgreSQL.
type Storage struct {
	db *sql.DB
}

// Open connects to dsn, waiting for the server to come up.
func Open(ctx context.Context, dsn string, attempts int) (*Storage, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres dsn", common.ErrMissingConfig)
	}
	if attempts <= 0 {
		attempts = 1
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	for i := 1; ; i++ {
		err = db.PingContext(ctx)
		if err == nil || i >= attempts {
			break
		}
		slog.Info("waiting for database", "attempt", i, "of", attempts)
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("could not reach database after %d attempts: %w", attempts, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Storage{db: db}, nil
}

// Close closes the database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

var migrations = []struct {
	description string
	statements  []string
}{
	{
		description: "Ledger schema",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS balances (
				id             SMALLINT      PRIMARY KEY CHECK (id = 1),
				wallet         NUMERIC(20,4) NOT NULL,
				cash           NUMERIC(20,4) NOT NULL,
				opening_wallet NUMERIC(20,4) NOT NULL,
				opening_cash   NUMERIC(20,4) NOT NULL,
				setup_at       TIMESTAMPTZ   NOT NULL,
				updated_at     TIMESTAMPTZ   NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS transactions (
				seq        BIGSERIAL     PRIMARY KEY,
				id         VARCHAR(64)   NOT NULL UNIQUE,
				created_at TIMESTAMPTZ   NOT NULL,
				direction  VARCHAR(10)   NOT NULL CHECK (direction IN ('CASH_IN', 'CASH_OUT')),
				amount     NUMERIC(20,4) NOT NULL,
				fee        NUMERIC(20,4) NOT NULL,
				fee_method VARCHAR(10)   NOT NULL DEFAULT ''
			)`,
			`CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at)`,
			`CREATE INDEX IF NOT EXISTS idx_transactions_direction ON transactions(direction)`,
		},
	},
}

// Migrate applies pending migrations, tracking them in schema_migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS schema_migrations (version INT PRIMARY KEY, applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW())`,
	); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var current int
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for i, m := range migrations {
		version := i + 1
		if version <= current {
			continue
		}
		err := s.inTx(ctx, func(tx *sql.Tx) error {
			for _, stmt := range m.statements {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("migration %d failed: %w", version, err)
				}
			}
			_, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version)
			return err
		})
		if err != nil {
			return err
		}
		slog.Info("Applied migration", "version", version, "description", m.description)
	}
	return nil
}

func (s *Storage) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return translate(err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// translate maps unique violations onto common.ErrDuplicateEntry.
func translate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %s", common.ErrDuplicateEntry, pqErr.Detail)
	}
	return err
}

// LoadState reads balances and log from one repeatable-read snapshot.
func (s *Storage) LoadState(ctx context.Context) (ledger.State, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return ledger.State{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, opening, ok, err := storage.ReadBalances(ctx, tx, "")
	if err != nil || !ok {
		return ledger.State{}, err
	}
	log, err := storage.QueryTransactions(ctx, tx, storage.PostgresDialect, service.TransactionFilter{})
	if err != nil {
		return ledger.State{}, err
	}
	return ledger.State{Balances: &current, Opening: &opening, Log: log}, nil
}

// SaveSetup records opening balances on an empty ledger.
func (s *Storage) SaveSetup(ctx context.Context, opening model.BalancePair) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `LOCK TABLE balances IN EXCLUSIVE MODE`); err != nil {
			return fmt.Errorf("failed to lock balances: %w", err)
		}
		_, _, ok, err := storage.ReadBalances(ctx, tx, "")
		if err != nil {
			return err
		}
		if ok {
			return ledger.ErrAlreadySetup
		}
		return storage.InsertBalances(ctx, tx, storage.PostgresDialect, opening, opening, time.Now())
	})
}

// CommitTransaction locks the balances row, stores the new balances and appends txn.
func (s *Storage) CommitTransaction(ctx context.Context, txn model.Transaction, balances model.BalancePair) error {
	if err := storage.ValidateTransaction(txn); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, _, ok, err := storage.ReadBalances(ctx, tx, " FOR UPDATE")
		if err != nil {
			return err
		}
		if !ok {
			return ledger.ErrUnsetBalances
		}
		if _, err := storage.UpdateBalances(ctx, tx, storage.PostgresDialect, balances, time.Now()); err != nil {
			return err
		}
		return storage.InsertTransaction(ctx, tx, storage.PostgresDialect, txn)
	})
}

// ReplaceState discards the stored ledger and writes state in its place.
func (s *Storage) ReplaceState(ctx context.Context, state ledger.State) error {
	if !state.IsSetup() && len(state.Log) > 0 {
		return fmt.Errorf("%w: log without balances", storage.ErrInvalidBalances)
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := storage.ClearLedger(ctx, tx); err != nil {
			return err
		}
		if !state.IsSetup() {
			return nil
		}
		opening := *state.Balances
		if state.Opening != nil {
			opening = *state.Opening
		}
		if err := storage.InsertBalances(ctx, tx, storage.PostgresDialect, *state.Balances, opening, time.Now()); err != nil {
			return err
		}
		for _, txn := range state.Log {
			if err := storage.InsertTransaction(ctx, tx, storage.PostgresDialect, txn); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListTransactions returns the log entries matching filter.
func (s *Storage) ListTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	return storage.QueryTransactions(ctx, s.db, storage.PostgresDialect, filter)
}

// CountTransactions returns the number of log entries.
func (s *Storage) CountTransactions(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return n, nil
}

// Reset deletes the log and the balances.
func (s *Storage) Reset(ctx context.Context) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return storage.ClearLedger(ctx, tx)
	})
}
