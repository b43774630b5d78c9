package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/cashflow/internal/cli"
)

func resetCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every transaction and the balances",
		Long: `Reset clears the transaction log and the wallet and cash balances so the
ledger can be set up again. Profits drop to zero.

This is a destructive operation. A checkpoint is taken first when the database
supports it, so 'cashflow checkpoint restore' can undo it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			state := a.tracker.Snapshot()
			if !state.IsSetup() && len(state.Log) == 0 {
				printLine(cmd, "Nothing to reset.")
				return nil
			}

			if !force {
				printLine(cmd, fmt.Sprintf("This will delete %d transactions and the current balances.", len(state.Log)))
				ok, err := newPrompter(cmd).Confirm(ctx, "Are you sure you want to continue?")
				if err != nil {
					return err
				}
				if !ok {
					printLine(cmd, "Reset canceled.")
					return nil
				}
			}

			autoCheckpoint(ctx, a.store, "reset")

			if err := a.tracker.Reset(ctx); err != nil {
				return fmt.Errorf("failed to reset ledger: %w", err)
			}

			printLine(cmd, cli.FormatSuccess(fmt.Sprintf("Deleted %d transactions", len(state.Log))))
			printLine(cmd, "Run 'cashflow setup' to record new opening balances.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation prompt")

	return cmd
}
