package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"fieldsync/internal/config"
	"fieldsync/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and maintain the pending upload queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueClearExhaustedCommand(ctx))
	queueCmd.AddCommand(newQueueResetRetriesCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pending uploads in processing order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				uploads, err := store.GetAll(cmd.Context())
				if err != nil {
					return err
				}
				if len(uploads) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue empty")
					return nil
				}

				rows := make([][]string, 0, len(uploads))
				for _, upload := range uploads {
					size := ""
					if upload.Binary != nil {
						size = formatBytes(len(upload.Binary.Data))
					}
					retries := strconv.Itoa(upload.RetryCount)
					if upload.RetryCount >= cfg.Sync.MaxRetries {
						retries += " (exhausted)"
					}
					rows = append(rows, []string{
						upload.ID,
						typeLabel(upload.Type),
						strconv.Itoa(upload.Priority),
						retries,
						upload.CreatedAt.Local().Format(time.DateTime),
						size,
					})
				}
				headers := []string{"ID", "Type", "Priority", "Retries", "Created", "Size"}
				fmt.Fprintln(cmd.OutOrStdout(), renderRows(headers, rows, 2, 3, 5))
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every pending upload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("refusing to drop unsynced data; re-run with --force")
			}
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d upload(s)\n", removed)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Confirm deletion of unsynced uploads")
	return cmd
}

func newQueueClearExhaustedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-exhausted",
		Short: "Delete uploads that ran out of retries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				removed, err := store.ClearExhausted(cmd.Context(), cfg.Sync.MaxRetries)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d exhausted upload(s)\n", removed)
				return nil
			})
		},
	}
}

func newQueueResetRetriesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-retries",
		Short: "Give exhausted uploads another retry budget",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				reset, err := store.ResetRetries(cmd.Context(), cfg.Sync.MaxRetries)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d upload(s)\n", reset)
				return nil
			})
		},
	}
}

func formatBytes(n int) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := unit, 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMG"[exp])
}
