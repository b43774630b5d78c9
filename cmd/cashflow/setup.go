package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Veraticus/cashflow/internal/cli"
	"github.com/Veraticus/cashflow/internal/model"
)

func setupCmd() *cobra.Command {
	var wallet, cash string

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Record opening wallet and cash balances",
		Long: `Record the GCash wallet and cash drawer balances you start with.

Setup only works on an empty ledger; run 'cashflow reset' first to start over.
Balances not given as flags are asked for interactively.`,
		Example: `  cashflow setup --wallet 5000 --cash 10000
  cashflow setup`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			prompter := newPrompter(cmd)
			readBalance := func(raw, prompt string) (decimal.Decimal, error) {
				if raw == "" {
					return prompter.PromptAmount(ctx, prompt)
				}
				return cli.ParseAmount(raw)
			}

			w, err := readBalance(wallet, cli.WalletIcon+" GCash wallet balance")
			if err != nil {
				return fmt.Errorf("wallet balance: %w", err)
			}
			c, err := readBalance(cash, cli.CashIcon+" Cash on hand")
			if err != nil {
				return fmt.Errorf("cash balance: %w", err)
			}

			balances, err := a.tracker.Setup(ctx, model.BalancePair{Wallet: w, Cash: c})
			if err != nil {
				return err
			}

			printLine(cmd, cli.FormatSuccess("Opening balances saved"))
			printLine(cmd, cli.RenderBalances(balances, nil))
			return nil
		},
	}

	cmd.Flags().StringVar(&wallet, "wallet", "", "opening GCash wallet balance")
	cmd.Flags().StringVar(&cash, "cash", "", "opening cash on hand")

	return cmd
}

func balancesCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "balances",
		Aliases: []string{"status"},
		Short:   "Show current wallet and cash balances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			balances, ok := a.tracker.Balances()
			if !ok {
				printLine(cmd, cli.FormatWarning("Balances are not set up yet. Run 'cashflow setup' first."))
				return nil
			}
			var opening *model.BalancePair
			if o, ok := a.tracker.Opening(); ok {
				opening = &o
			}
			printLine(cmd, cli.RenderBalances(balances, opening))
			return nil
		},
	}
}
