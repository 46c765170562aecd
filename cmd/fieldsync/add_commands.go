package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"fieldsync/internal/config"
	"fieldsync/internal/logging"
	"fieldsync/internal/queue"
	"fieldsync/internal/uplink"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Queue captured files for upload",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	addCmd.AddCommand(newAddPhotoCommand(ctx))
	addCmd.AddCommand(newAddSignatureCommand(ctx))

	return addCmd
}

func newAddPhotoCommand(ctx *commandContext) *cobra.Command {
	var inspectionID, resultID, caption string
	var priority int

	cmd := &cobra.Command{
		Use:   "photo <file>",
		Short: "Queue an inspection result photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if inspectionID == "" || resultID == "" {
				return fmt.Errorf("--inspection and --result are required")
			}
			binary, err := readBinary(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				q := uplink.NewQueue(store, logging.NewNop())
				upload, err := q.Enqueue(cmd.Context(),
					&queue.ResultPhotoInsertPayload{
						InspectionID: inspectionID,
						ResultID:     resultID,
						Caption:      caption,
						TakenAtMS:    time.Now().UnixMilli(),
					},
					uplink.WithPriority(priority),
					uplink.WithBinary(binary),
				)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued %s (%s)\n", upload.ID, typeLabel(upload.Type))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&inspectionID, "inspection", "", "Inspection id the photo belongs to")
	cmd.Flags().StringVar(&resultID, "result", "", "Inspection result id the photo documents")
	cmd.Flags().StringVar(&caption, "caption", "", "Optional caption")
	cmd.Flags().IntVar(&priority, "priority", 0, "Upload priority (higher drains first)")
	return cmd
}

func newAddSignatureCommand(ctx *commandContext) *cobra.Command {
	var inspectionID, signerName, signerRole string
	var priority int

	cmd := &cobra.Command{
		Use:   "signature <file>",
		Short: "Queue an inspection sign-off image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if inspectionID == "" || signerName == "" {
				return fmt.Errorf("--inspection and --signer are required")
			}
			binary, err := readBinary(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				q := uplink.NewQueue(store, logging.NewNop())
				upload, err := q.Enqueue(cmd.Context(),
					&queue.SignatureUploadPayload{
						InspectionID: inspectionID,
						SignerName:   signerName,
						SignerRole:   signerRole,
						SignedAtMS:   time.Now().UnixMilli(),
					},
					uplink.WithPriority(priority),
					uplink.WithBinary(binary),
				)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued %s (%s)\n", upload.ID, typeLabel(upload.Type))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&inspectionID, "inspection", "", "Inspection id being signed off")
	cmd.Flags().StringVar(&signerName, "signer", "", "Name of the person signing")
	cmd.Flags().StringVar(&signerRole, "role", "", "Role of the signer")
	cmd.Flags().IntVar(&priority, "priority", 0, "Upload priority (higher drains first)")
	return cmd
}

func readBinary(path string) (*queue.Binary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}
	return &queue.Binary{
		Data:        data,
		FileName:    filepath.Base(path),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
	}, nil
}
