// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/cashflow/internal/ledger"
	"github.com/Veraticus/cashflow/internal/model"
)

// Storage defines the contract for our persistence layer.
//
//go:generate mockgen -destination=mocks/mock_storage.go -package=mocks -source=interfaces.go Storage
type Storage interface {
	// LoadState returns the persisted ledger. A store that was never set up
	// (or was reset) returns a State whose Balances are nil.
	LoadState(ctx context.Context) (ledger.State, error)
	// SaveSetup records opening balances on an empty store.
	SaveSetup(ctx context.Context, opening model.BalancePair) error
	// CommitTransaction appends txn and stores balances in one database transaction.
	CommitTransaction(ctx context.Context, txn model.Transaction, balances model.BalancePair) error
	// ReplaceState overwrites everything with state, used by imports.
	ReplaceState(ctx context.Context, state ledger.State) error
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	CountTransactions(ctx context.Context) (int, error)
	// Reset deletes the log and the balances.
	Reset(ctx context.Context) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// ReportWriter publishes a ledger report somewhere outside the application.
type ReportWriter interface {
	Write(ctx context.Context, report *Report) error
}

// Report is everything an export needs in one value.
type Report struct {
	GeneratedAt  time.Time
	Balances     *model.BalancePair
	Opening      *model.BalancePair
	Summary      model.ProfitSummary
	Series       []model.DailyProfit
	Transactions []model.Transaction
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
