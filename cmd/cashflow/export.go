package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/cashflow/internal/cli"
	"github.com/Veraticus/cashflow/internal/config"
	"github.com/Veraticus/cashflow/internal/report"
	"github.com/Veraticus/cashflow/internal/service"
	"github.com/Veraticus/cashflow/internal/sheets"
)

func exportCmd() *cobra.Command {
	var (
		format string
		output string
		days   int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the ledger as CSV, a JSON snapshot, or to Google Sheets",
		Example: `  cashflow export --format csv -o march.csv
  cashflow export --format json > backup.json
  cashflow export --format sheets`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if output != "" && format != "sheets" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer func() {
					if err := f.Close(); err != nil {
						slog.Warn("failed to close export file", "error", err)
					}
				}()
				out = f
			}

			writer, err := reportWriter(cmd, format, out, a)
			if err != nil {
				return err
			}
			if err := a.tracker.Export(ctx, writer, days); err != nil {
				return fmt.Errorf("export failed: %w", err)
			}

			if output != "" || format == "sheets" {
				fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess(fmt.Sprintf("Exported %d transactions", len(a.tracker.Snapshot().Log))))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "csv", "csv, json or sheets")
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default stdout)")
	cmd.Flags().IntVar(&days, "days", 30, "days of profit history to include in sheets reports")

	return cmd
}

func reportWriter(cmd *cobra.Command, format string, out io.Writer, a *app) (service.ReportWriter, error) {
	switch format {
	case "csv":
		return &report.CSVWriter{Out: out, Location: a.tracker.Location()}, nil
	case "json":
		return &report.JSONWriter{Out: out}, nil
	case "sheets":
		sheetsConfig, err := config.LoadSheetsConfig(viper.GetViper())
		if err != nil {
			return nil, fmt.Errorf("google sheets is not configured (run 'cashflow auth sheets'): %w", err)
		}
		w, err := sheets.NewWriter(cmd.Context(), *sheetsConfig, slog.Default())
		if err != nil {
			return nil, err
		}
		return w, nil
	default:
		return nil, fmt.Errorf("unknown export format %q (want csv, json or sheets)", format)
	}
}
