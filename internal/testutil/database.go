// Package testutil provides test helpers shared by the packages that sit on
// top of the tracker: a migrated in-memory database, a tracker over it, and
// shortcuts for seeding a ledger.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/cashflow/internal/fee"
	"github.com/Veraticus/cashflow/internal/ledger"
	"github.com/Veraticus/cashflow/internal/model"
	"github.com/Veraticus/cashflow/internal/storage"
	"github.com/Veraticus/cashflow/internal/tracker"
)

// DefaultNow is the clock every TestLedger starts from unless overridden.
var DefaultNow = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

// TestLedger is a migrated in-memory database with a tracker in front of it.
type TestLedger struct {
	Storage *storage.SQLiteStorage
	Tracker *tracker.Tracker
	t       *testing.T
	now     time.Time
}

// TestLedgerOptions configures SetupTestLedger.
type TestLedgerOptions struct {
	// Opening sets up the ledger when non-nil.
	Opening *model.BalancePair
	// Now is the tracker clock. It advances one minute per recorded
	// transaction so the log has distinct timestamps.
	Now            time.Time
	Location       *time.Location
	EngineOptions  []ledger.Option
	SkipMigrations bool
}

// SetupTestLedger creates a new in-memory ledger. It automatically handles
// migrations and cleanup.
//
// Example:
//
//	l := testutil.SetupTestLedger(t, testutil.TestLedgerOptions{
//		Opening: testutil.Pair("5000", "10000"),
//	})
//	l.MustRecord(model.DirectionCashIn, "100", model.FeeNone)
func SetupTestLedger(t *testing.T, opts TestLedgerOptions) *TestLedger {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	if opts.Now.IsZero() {
		opts.Now = DefaultNow
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	l := &TestLedger{Storage: store, t: t, now: opts.Now}
	l.Tracker, err = tracker.New(ctx, store,
		ledger.NewEngine(fee.DefaultSchedule(), opts.EngineOptions...),
		tracker.WithClock(l.clock),
		tracker.WithLocation(opts.Location))
	if err != nil {
		t.Fatalf("failed to create tracker: %v", err)
	}

	if opts.Opening != nil {
		if _, err := l.Tracker.Setup(ctx, *opts.Opening); err != nil {
			t.Fatalf("failed to set up opening balances: %v", err)
		}
	}
	return l
}

func (l *TestLedger) clock() time.Time {
	return l.now
}

// Advance moves the tracker clock forward.
func (l *TestLedger) Advance(d time.Duration) {
	l.now = l.now.Add(d)
}

// MustRecord records one transaction or fails the test.
func (l *TestLedger) MustRecord(direction model.TransactionDirection, amount string, method model.FeeMethod) model.Transaction {
	l.t.Helper()

	txn, _, err := l.Tracker.Record(context.Background(), ledger.Request{
		Amount:    decimal.RequireFromString(amount),
		Direction: direction,
		FeeMethod: method,
	})
	if err != nil {
		l.t.Fatalf("failed to record %s %s: %v", direction, amount, err)
	}
	l.Advance(time.Minute)
	return txn
}

// Pair builds a balance pair from decimal strings.
func Pair(wallet, cash string) *model.BalancePair {
	return &model.BalancePair{
		Wallet: decimal.RequireFromString(wallet),
		Cash:   decimal.RequireFromString(cash),
	}
}

// RequireBalances fails the test unless the tracker holds wallet and cash.
func (l *TestLedger) RequireBalances(wallet, cash string) {
	l.t.Helper()

	got, ok := l.Tracker.Balances()
	if !ok {
		l.t.Fatalf("ledger is not set up")
	}
	want := *Pair(wallet, cash)
	if !got.Equal(want) {
		l.t.Fatalf("balances = %s, want %s", describe(got), describe(want))
	}
}

func describe(b model.BalancePair) string {
	return fmt.Sprintf("wallet %s / cash %s", b.Wallet, b.Cash)
}
