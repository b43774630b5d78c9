package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/cashflow/internal/cli"
	"github.com/Veraticus/cashflow/internal/common"
	"github.com/Veraticus/cashflow/internal/config"
	"github.com/Veraticus/cashflow/internal/fee"
	"github.com/Veraticus/cashflow/internal/ledger"
	"github.com/Veraticus/cashflow/internal/service"
	"github.com/Veraticus/cashflow/internal/storage"
	"github.com/Veraticus/cashflow/internal/storage/postgres"
	"github.com/Veraticus/cashflow/internal/tracker"
)

var errCheckpointsUnsupported = errors.New("checkpoints are only available for the sqlite driver with a file database")

// app is everything a command needs, opened from the resolved configuration.
type app struct {
	store   service.Storage
	tracker *tracker.Tracker
	cfg     config.Config
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		slog.Warn("failed to close storage", "error", err)
	}
}

func loadConfig() (config.Config, error) {
	return config.Load(viper.GetViper())
}

// initStorage opens the configured store and brings its schema up to date.
func initStorage(ctx context.Context, cfg config.Config) (service.Storage, error) {
	var store service.Storage
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		pg, err := postgres.Open(ctx, cfg.Database.DSN, cfg.Database.ConnectAttempts)
		if err != nil {
			return nil, err
		}
		store = pg
	default:
		sqlite, err := storage.NewSQLiteStorage(cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		store = sqlite
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

func newEngine(cfg config.Config) (*ledger.Engine, error) {
	schedule, err := fee.LoadSchedule(cfg.Ledger.FeeSchedule)
	if err != nil {
		return nil, err
	}
	return ledger.NewEngine(schedule, ledger.WithNegativeBalances(cfg.Ledger.AllowNegativeBalances)), nil
}

// openApp loads config, storage and the in-memory ledger.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	engine, err := newEngine(cfg)
	if err != nil {
		return nil, err
	}
	store, err := initStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	t, err := tracker.New(ctx, store, engine,
		tracker.WithLocation(cfg.Ledger.Location()),
		tracker.WithLogger(slog.Default()),
	)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &app{cfg: cfg, store: store, tracker: t}, nil
}

func checkpointManager(store service.Storage) (*storage.CheckpointManager, error) {
	sqlite, ok := store.(*storage.SQLiteStorage)
	if !ok {
		return nil, errCheckpointsUnsupported
	}
	manager, err := sqlite.NewCheckpointManager()
	if errors.Is(err, storage.ErrInMemoryDatabase) {
		return nil, errCheckpointsUnsupported
	}
	return manager, err
}

// autoCheckpoint snapshots the database before a destructive operation.
// Stores that cannot be checkpointed are skipped.
func autoCheckpoint(ctx context.Context, store service.Storage, operation string) {
	manager, err := checkpointManager(store)
	if err != nil {
		slog.Debug("skipping automatic checkpoint", "operation", operation, "reason", err)
		return
	}
	info, err := manager.AutoCheckpoint(ctx, operation)
	if err != nil {
		common.LogError(err, "automatic checkpoint failed", common.Fields{"operation": operation})
		return
	}
	common.LogInfo("created automatic checkpoint", common.Fields{"id": info.ID, "operation": operation})
}

// explain attaches a next step to the errors people hit in normal use.
func explain(err error) error {
	switch {
	case errors.Is(err, ledger.ErrUnsetBalances):
		return common.NewUserError("Balances are not set up yet. Run 'cashflow setup' first", err)
	case errors.Is(err, ledger.ErrAlreadySetup):
		return common.NewUserError("The ledger is already set up. Run 'cashflow reset' to start over", err)
	case errors.Is(err, common.ErrPersistence):
		return common.NewUserError("Could not save to the database; nothing was recorded", err)
	case errors.Is(err, cli.ErrInputTerminated):
		return common.NewUserError("Input closed before an answer was given", err)
	}
	return err
}

func newPrompter(cmd *cobra.Command) *cli.Prompter {
	return cli.NewCLIPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
}

func printLine(cmd *cobra.Command, a ...any) {
	fmt.Fprintln(cmd.OutOrStdout(), a...)
}

// parseDay reads an RFC3339 timestamp or a calendar date in loc.
func parseDay(raw string, loc *time.Location) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, false, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, raw, loc)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: date %q, want YYYY-MM-DD", service.ErrInvalidFilter, raw)
	}
	return t, true, nil
}
