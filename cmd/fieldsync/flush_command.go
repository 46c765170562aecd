package main

import (
	"fmt"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"fieldsync/internal/backend"
	"fieldsync/internal/config"
	"fieldsync/internal/handlers"
	"fieldsync/internal/logging"
	"fieldsync/internal/queue"
	"fieldsync/internal/uplink"
)

func newFlushCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "flush",
		Short: "Run one upload pass against the backend now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				lock := flock.New(cfg.LockPath())
				locked, err := lock.TryLock()
				if err != nil {
					return fmt.Errorf("acquire processor lock: %w", err)
				}
				if !locked {
					return fmt.Errorf("the daemon holds the processor lock; stop it or wait for its next pass")
				}
				defer lock.Unlock() //nolint:errcheck

				client := backend.NewClient(cfg)
				registry := uplink.NewRegistry(logging.NewNop())
				handlers.RegisterAll(registry, client, logging.NewNop())

				out := cmd.OutOrStdout()
				progress := func(done, total int, uploadType queue.Type) {
					if uploadType == "" {
						return
					}
					fmt.Fprintf(out, "[%d/%d] %s\n", done+1, total, typeLabel(uploadType))
				}

				processor := uplink.NewProcessor(store, registry, cfg.Sync.MaxRetries, logging.NewNop(), uplink.WithProgress(progress))
				result, err := processor.RunOnce(cmd.Context())
				if err != nil {
					return err
				}

				if result.Success+result.Failed+result.Skipped == 0 {
					fmt.Fprintln(out, "Queue empty")
					return nil
				}
				fmt.Fprintf(out, "Delivered %d, failed %d, skipped %d\n", result.Success, result.Failed, result.Skipped)
				return nil
			})
		},
	}
}
