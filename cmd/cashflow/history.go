package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/cashflow/internal/cli"
	"github.com/Veraticus/cashflow/internal/model"
	"github.com/Veraticus/cashflow/internal/service"
)

type historyOptions struct {
	since       string
	until       string
	min         string
	max         string
	directions  []string
	limit       int
	offset      int
	oldestFirst bool
}

func historyCmd() *cobra.Command {
	var opts historyOptions

	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"log", "ls"},
		Short:   "List recorded transactions, newest first",
		Example: `  cashflow history --limit 10
  cashflow history --direction cash-out --since 2025-03-01
  cashflow history --min 1000 --oldest-first`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			filter, err := opts.filter(a)
			if err != nil {
				return err
			}
			txns, err := a.tracker.Transactions(ctx, filter)
			if err != nil {
				return err
			}

			printLine(cmd, cli.RenderTransactions(txns, a.tracker.Location()))
			printLine(cmd, cli.SubtleStyle.Render(fmt.Sprintf("%d shown", len(txns))))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&opts.directions, "direction", "d", nil, "only these directions (cash-in, cash-out)")
	cmd.Flags().StringVar(&opts.since, "since", "", "first day to include (YYYY-MM-DD or RFC3339)")
	cmd.Flags().StringVar(&opts.until, "until", "", "last day to include (YYYY-MM-DD or RFC3339)")
	cmd.Flags().StringVar(&opts.min, "min", "", "smallest amount to include")
	cmd.Flags().StringVar(&opts.max, "max", "", "largest amount to include")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 20, "maximum rows (0 for all)")
	cmd.Flags().IntVar(&opts.offset, "offset", 0, "rows to skip")
	cmd.Flags().BoolVar(&opts.oldestFirst, "oldest-first", false, "chronological order")

	return cmd
}

func (o historyOptions) filter(a *app) (service.TransactionFilter, error) {
	loc := a.tracker.Location()
	filter := service.TransactionFilter{
		Limit:       o.limit,
		Offset:      o.offset,
		NewestFirst: !o.oldestFirst,
	}

	for _, raw := range o.directions {
		d, err := model.ParseDirection(raw)
		if err != nil {
			return filter, fmt.Errorf("%w: %w", service.ErrInvalidFilter, err)
		}
		filter.Directions = append(filter.Directions, d)
	}

	if o.since != "" {
		since, _, err := parseDay(o.since, loc)
		if err != nil {
			return filter, err
		}
		filter.Since = &since
	}
	if o.until != "" {
		until, whole, err := parseDay(o.until, loc)
		if err != nil {
			return filter, err
		}
		// A bare date includes the whole day.
		if whole {
			until = until.AddDate(0, 0, 1)
		}
		filter.Until = &until
	}

	for _, bound := range []struct {
		raw string
		op  service.CompareOp
	}{{o.min, service.OpGreaterThanOrEqual}, {o.max, service.OpLessThanOrEqual}} {
		if bound.raw == "" {
			continue
		}
		v, err := cli.ParseAmount(bound.raw)
		if err != nil {
			return filter, fmt.Errorf("%w: %w", service.ErrInvalidFilter, err)
		}
		filter.Amount = append(filter.Amount, service.AmountCondition{Op: bound.op, Value: v})
	}

	return filter, filter.Validate()
}
