package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Veraticus/cashflow/internal/cli"
	"github.com/Veraticus/cashflow/internal/storage"
)

func checkpointCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Manage database checkpoints",
		Long: `Create, list, restore, and delete database checkpoints.

Checkpoints save the whole ledger before risky changes so it can be put back
later. Reset and import take one automatically.`,
		Example: `  # Snapshot before closing the month
  cashflow checkpoint create --tag end-of-march

  # List all checkpoints
  cashflow checkpoint list

  # Put the ledger back
  cashflow checkpoint restore end-of-march`,
	}

	cmd.AddCommand(createCheckpointCmd())
	cmd.AddCommand(listCheckpointsCmd())
	cmd.AddCommand(restoreCheckpointCmd())
	cmd.AddCommand(deleteCheckpointCmd())

	return cmd
}

// withCheckpoints opens storage and hands its checkpoint manager to fn.
func withCheckpoints(ctx context.Context, fn func(*storage.CheckpointManager) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := initStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Debug("failed to close storage", "error", err)
		}
	}()

	manager, err := checkpointManager(store)
	if err != nil {
		return err
	}
	return fn(manager)
}

func createCheckpointCmd() *cobra.Command {
	var tag string
	var description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new checkpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withCheckpoints(ctx, func(manager *storage.CheckpointManager) error {
				info, err := manager.Create(ctx, tag, description)
				if err != nil {
					return fmt.Errorf("failed to create checkpoint: %w", err)
				}

				printLine(cmd, fmt.Sprintf("%s Created checkpoint %s (%s, %d transactions)",
					cli.SuccessStyle.Render(cli.SuccessIcon),
					cli.InfoStyle.Render(info.ID),
					humanize.Bytes(uint64(info.FileSize)),
					info.Transactions()))
				if info.Description != "" {
					printLine(cmd, "  Description: "+info.Description)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&tag, "tag", "t", "", "checkpoint name (auto-generated if not provided)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "description of the checkpoint")

	return cmd
}

func listCheckpointsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all checkpoints",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withCheckpoints(ctx, func(manager *storage.CheckpointManager) error {
				checkpoints, err := manager.List(ctx)
				if err != nil {
					return fmt.Errorf("failed to list checkpoints: %w", err)
				}
				if len(checkpoints) == 0 {
					printLine(cmd, cli.SubtleStyle.Render("No checkpoints found."))
					return nil
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				headerStyle := lipgloss.NewStyle().Bold(true).Foreground(cli.PrimaryColor)
				fmt.Fprintln(w, strings.Join([]string{
					headerStyle.Render("NAME"),
					headerStyle.Render("CREATED"),
					headerStyle.Render("SIZE"),
					headerStyle.Render("TRANSACTIONS"),
					headerStyle.Render("BALANCES"),
					headerStyle.Render("TYPE"),
				}, "\t"))

				for _, cp := range checkpoints {
					typeLabel := "manual"
					if cp.IsAuto {
						typeLabel = "auto"
					}
					balances := "empty"
					if cp.IsSetup() {
						balances = "set"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
						cli.InfoStyle.Render(cp.ID),
						humanize.Time(cp.CreatedAt),
						humanize.Bytes(uint64(cp.FileSize)),
						cp.Transactions(),
						balances,
						cli.SubtleStyle.Render(typeLabel),
					)
				}
				return w.Flush()
			})
		},
	}
}

func restoreCheckpointCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "restore <checkpoint-id>",
		Short: "Restore the database from a checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]
			return withCheckpoints(ctx, func(manager *storage.CheckpointManager) error {
				info, err := manager.Get(ctx, id)
				if err != nil {
					return fmt.Errorf("failed to get checkpoint %s: %w", id, err)
				}

				if !force {
					printLine(cmd, fmt.Sprintf("%s This will replace your current ledger with checkpoint %s.",
						cli.WarningStyle.Render(cli.WarningIcon), cli.InfoStyle.Render(id)))
					printLine(cmd, "  Created: "+info.CreatedAt.Format("2006-01-02 15:04:05"))
					if info.Description != "" {
						printLine(cmd, "  Description: "+info.Description)
					}
					ok, err := newPrompter(cmd).Confirm(ctx, "Continue?")
					if err != nil {
						return err
					}
					if !ok {
						printLine(cmd, cli.SubtleStyle.Render("Restore cancelled."))
						return nil
					}
				}

				if err := manager.Restore(ctx, id); err != nil {
					return fmt.Errorf("failed to restore checkpoint: %w", err)
				}

				printLine(cmd, fmt.Sprintf("%s Restored from checkpoint %s (%d transactions)",
					cli.SuccessStyle.Render(cli.SuccessIcon), cli.InfoStyle.Render(id), info.Transactions()))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation prompt")

	return cmd
}

func deleteCheckpointCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <checkpoint-id>",
		Short: "Delete a checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]
			return withCheckpoints(ctx, func(manager *storage.CheckpointManager) error {
				info, err := manager.Get(ctx, id)
				if err != nil {
					return fmt.Errorf("failed to get checkpoint %s: %w", id, err)
				}

				if !force {
					printLine(cmd, fmt.Sprintf("%s This will permanently delete checkpoint %s (%s).",
						cli.WarningStyle.Render(cli.WarningIcon), cli.InfoStyle.Render(id), humanize.Bytes(uint64(info.FileSize))))
					ok, err := newPrompter(cmd).Confirm(ctx, "Continue?")
					if err != nil {
						return err
					}
					if !ok {
						printLine(cmd, cli.SubtleStyle.Render("Deletion cancelled."))
						return nil
					}
				}

				if err := manager.Delete(ctx, id); err != nil {
					return fmt.Errorf("failed to delete checkpoint: %w", err)
				}
				printLine(cmd, fmt.Sprintf("%s Deleted checkpoint %s",
					cli.SuccessStyle.Render(cli.SuccessIcon), cli.InfoStyle.Render(id)))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation prompt")

	return cmd
}
