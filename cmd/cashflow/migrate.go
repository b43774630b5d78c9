package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/cashflow/internal/cli"
	"github.com/Veraticus/cashflow/internal/storage"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

Every command migrates on startup; this one exists for provisioning a fresh
database without touching the ledger.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			slog.Info("Running database migrations", "driver", cfg.Database.Driver)
			store, err := initStorage(ctx, cfg)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			defer func() { _ = store.Close() }()

			if sqlite, ok := store.(*storage.SQLiteStorage); ok {
				v, err := sqlite.SchemaVersion(ctx)
				if err != nil {
					return err
				}
				printLine(cmd, cli.FormatSuccess(fmt.Sprintf("Database %s is at schema version %d", sqlite.Path(), v)))
				return nil
			}

			printLine(cmd, cli.FormatSuccess("Database migrations completed"))
			return nil
		},
	}
}
