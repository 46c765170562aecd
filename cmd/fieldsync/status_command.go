package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fieldsync/internal/config"
	"fieldsync/internal/preflight"
	"fieldsync/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check environment, backend reachability, and queue state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				results := preflight.RunAll(cmd.Context(), cfg)
				results = append(results, preflight.CheckDatabase(cmd.Context(), store))

				rows := make([][]string, 0, len(results))
				failed := 0
				for _, result := range results {
					if !result.Passed {
						failed++
					}
					rows = append(rows, []string{result.Name, yesNo(result.Passed), result.Detail})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderRows([]string{"Check", "OK", "Detail"}, rows))

				probe, err := preflight.ProbeQueue(cmd.Context(), store, cfg.Sync.MaxRetries)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), probe.QueueDetail())

				if failed > 0 {
					return fmt.Errorf("%d check(s) failed", failed)
				}
				return nil
			})
		},
	}
}
