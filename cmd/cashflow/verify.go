package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/cashflow/internal/cli"
)

var errBalanceDrift = errors.New("stored balances do not match the transaction log")

func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check stored balances against a replay of the log",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			v, err := a.tracker.Verify()
			if err != nil {
				return err
			}

			if v.Consistent {
				printLine(cmd, cli.FormatSuccess("Balances match the transaction log"))
				printLine(cmd, cli.RenderBalances(v.Stored, nil))
				return nil
			}

			printLine(cmd, cli.FormatError("Balances drifted from the transaction log"))
			printLine(cmd, fmt.Sprintf("  stored   %s %s  %s %s",
				cli.WalletIcon, cli.FormatPeso(v.Stored.Wallet), cli.CashIcon, cli.FormatPeso(v.Stored.Cash)))
			printLine(cmd, fmt.Sprintf("  replayed %s %s  %s %s",
				cli.WalletIcon, cli.FormatPeso(v.Replayed.Wallet), cli.CashIcon, cli.FormatPeso(v.Replayed.Cash)))
			printLine(cmd, fmt.Sprintf("  drift    %s %s  %s %s",
				cli.WalletIcon, cli.FormatPeso(v.Drift.Wallet), cli.CashIcon, cli.FormatPeso(v.Drift.Cash)))
			return errBalanceDrift
		},
	}
}
