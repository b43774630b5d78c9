package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/cashflow/internal/cli"
	"github.com/Veraticus/cashflow/internal/ledger"
	"github.com/Veraticus/cashflow/internal/tui"
	"github.com/Veraticus/cashflow/internal/tui/themes"
)

func newCmd() *cobra.Command {
	var altScreen bool

	cmd := &cobra.Command{
		Use:     "new",
		Aliases: []string{"tui"},
		Short:   "Record transactions in an interactive form",
		Long: `Open a form for entering transactions one after another.

The fee is estimated as you type. Tab moves between fields, Enter records,
Esc quits.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, ok := a.tracker.Balances(); !ok {
				return fmt.Errorf("%w: run 'cashflow setup' first", ledger.ErrUnsetBalances)
			}

			opts := []tui.Option{
				tui.WithLocation(a.tracker.Location()),
				tui.WithTheme(themes.ByName(viper.GetString("tui.theme"))),
			}
			if altScreen {
				opts = append(opts, tui.WithAltScreen())
			}

			recorded, err := tui.Run(ctx, a.tracker, opts...)
			if err != nil {
				return err
			}

			if len(recorded) == 0 {
				printLine(cmd, cli.SubtleStyle.Render("Nothing recorded."))
				return nil
			}
			printLine(cmd, cli.RenderTransactions(recorded, a.tracker.Location()))
			if balances, ok := a.tracker.Balances(); ok {
				printLine(cmd, cli.RenderBalances(balances, nil))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&altScreen, "fullscreen", false, "use the terminal's alternate screen")

	return cmd
}
