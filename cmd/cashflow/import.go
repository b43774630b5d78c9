package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Veraticus/cashflow/internal/cli"
	"github.com/Veraticus/cashflow/internal/model"
	"github.com/Veraticus/cashflow/internal/report"
)

func importCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "import <snapshot.json>",
		Short: "Replace the ledger with a JSON snapshot",
		Long: `Import a JSON snapshot, as written by 'cashflow export --format json' or
saved by the browser version of the tracker.

The snapshot replaces everything currently stored. Recorded profits are kept
as they are; fees are not recomputed. A checkpoint is taken first when the
database supports it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open snapshot: %w", err)
			}
			defer func() {
				if err := f.Close(); err != nil {
					slog.Warn("failed to close snapshot", "error", err)
				}
			}()

			snap, err := report.ReadSnapshot(f)
			if err != nil {
				return err
			}

			bar := cli.NewProgressBar(cmd.ErrOrStderr(), len(snap.Transactions), "Reading transactions")
			log := make([]model.Transaction, 0, len(snap.Transactions))
			for i, entry := range snap.Transactions {
				txn, err := entry.Transaction(uuid.NewString())
				if err != nil {
					return fmt.Errorf("transaction %d: %w", i, err)
				}
				log = append(log, txn)
				_ = bar.Add(1)
			}
			_ = bar.Finish()

			state := report.StateFrom(model.BalancePair{
				Wallet: snap.Balances.GCash.Decimal,
				Cash:   snap.Balances.Cash.Decimal,
			}, log)

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if current := a.tracker.Snapshot(); current.IsSetup() && !force {
				ok, err := newPrompter(cmd).Confirm(ctx, fmt.Sprintf(
					"%s Replace the current ledger (%d transactions) with %d imported transactions?",
					cli.WarningIcon, len(current.Log), len(log)))
				if err != nil {
					return err
				}
				if !ok {
					printLine(cmd, cli.SubtleStyle.Render("Import cancelled."))
					return nil
				}
			}

			autoCheckpoint(ctx, a.store, "import")

			if err := a.tracker.Import(ctx, state); err != nil {
				return err
			}

			printLine(cmd, cli.FormatSuccess(fmt.Sprintf("Imported %d transactions", len(log))))
			printLine(cmd, cli.RenderBalances(*state.Balances, state.Opening))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation prompt")

	return cmd
}
