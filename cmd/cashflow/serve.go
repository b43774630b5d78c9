package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/cashflow/internal/api"
	"github.com/Veraticus/cashflow/internal/cli"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger over HTTP",
		Long: `Start the JSON API used by the web dashboard.

Transactions recorded through the API land in the same database as the CLI.
Prometheus metrics are exposed on /metrics unless server.metrics is false.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
			ctx := handler.HandleInterrupts(cmd.Context(), "Server")

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			srv := api.NewServer(a.tracker, api.Options{
				Logger:         slog.Default(),
				AllowedOrigins: a.cfg.Server.AllowedOrigins,
				RequestTimeout: a.cfg.Server.RequestTimeout,
				Metrics:        a.cfg.Server.Metrics,
			})
			return srv.ListenAndServe(ctx, a.cfg.Server.Addr)
		},
	}

	cmd.Flags().String("addr", ":8080", "listen address")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}
