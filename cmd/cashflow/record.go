package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Veraticus/cashflow/internal/cli"
	"github.com/Veraticus/cashflow/internal/ledger"
	"github.com/Veraticus/cashflow/internal/model"
)

// recordCmd builds "cash-in" or "cash-out".
func recordCmd(use string) *cobra.Command {
	direction := model.DirectionCashIn
	short := "Record a cash-in (customer pays cash, you send from GCash)"
	if use == "cash-out" {
		direction = model.DirectionCashOut
		short = "Record a cash-out (customer sends GCash, you pay cash)"
	}

	var method string

	cmd := &cobra.Command{
		Use:   use + " <amount>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			amount, err := cli.ParseAmount(args[0])
			if err != nil {
				return err
			}
			feeMethod, err := model.ParseFeeMethod(method)
			if err != nil {
				return err
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			txn, balances, err := a.tracker.Record(ctx, ledger.Request{
				Amount:    amount,
				Direction: direction,
				FeeMethod: feeMethod,
			})
			if err != nil {
				return err
			}

			printLine(cmd, cli.FormatSuccess("Recorded "+cli.RenderTransaction(txn, a.tracker.Location())))
			printLine(cmd, cli.RenderBalances(balances, nil))
			return nil
		},
	}

	if direction == model.DirectionCashOut {
		cmd.Flags().StringVarP(&method, "method", "m", "included",
			"where the fee goes: included (added to the GCash transfer) or separate (kept from the cash)")
	}

	return cmd
}

func quoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quote <amount>",
		Short: "Show the fee for an amount and how each transaction would move money",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := cli.ParseAmount(args[0])
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			charged, err := a.tracker.Quote(amount)
			if err != nil {
				return err
			}

			printLine(cmd, cli.RenderBox("Fee quote", quoteLines(amount, charged)))
			return nil
		},
	}
}

func quoteLines(amount, charged decimal.Decimal) string {
	zero := model.BalancePair{Wallet: decimal.Zero, Cash: decimal.Zero}
	rows := []struct {
		label     string
		direction model.TransactionDirection
		method    model.FeeMethod
	}{
		{"Cash-In", model.DirectionCashIn, model.FeeNone},
		{"Cash-Out (included)", model.DirectionCashOut, model.FeeIncluded},
		{"Cash-Out (separate)", model.DirectionCashOut, model.FeeSeparate},
	}

	out := fmt.Sprintf("Amount  %s\nFee     %s\n",
		cli.FormatPeso(amount), cli.BoldStyle.Render(cli.FormatPeso(charged)))
	for _, row := range rows {
		delta := ledger.Transfer(zero, row.direction, row.method, amount, charged)
		out += fmt.Sprintf("\n%-20s %s %s  %s %s",
			row.label,
			cli.WalletIcon, signed(delta.Wallet),
			cli.CashIcon, signed(delta.Cash))
	}
	return out
}

func signed(d decimal.Decimal) string {
	if d.IsPositive() {
		return "+" + cli.FormatPeso(d)
	}
	return cli.FormatPeso(d)
}
