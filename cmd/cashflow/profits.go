package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/cashflow/internal/cli"
)

func profitsCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "profits",
		Short: "Show total, daily and weekly profit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if days < 1 || days > 366 {
				return fmt.Errorf("--days must be between 1 and 366, got %d", days)
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			printLine(cmd, cli.RenderProfits(a.tracker.Profits(), a.tracker.Overview()))
			printLine(cmd, cli.FormatTitle(fmt.Sprintf("Last %d days", days)))
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderSeries(a.tracker.DailySeries(days)))
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "days in the daily profit chart")

	return cmd
}
