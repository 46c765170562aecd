package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"fieldsync/internal/logging"
	"fieldsync/internal/queue"
	"fieldsync/internal/uplink"
)

// Default storage locations and tables for inspection data.
const (
	locationAttachments = "attachments"
	locationPhotos      = "inspection-photos"
	locationSignatures  = "signatures"

	tableInspections = "inspections"
	tablePhotos      = "inspection_result_photos"
	tableSignatures  = "inspection_signatures"
	tableAuditLog    = "audit_log"
)

// Backend is the subset of the backend client the handlers need.
type Backend interface {
	PutObject(ctx context.Context, location, objectName, contentType string, data []byte) error
	InsertRow(ctx context.Context, table, key string, row map[string]any) error
	UpsertRow(ctx context.Context, table, key string, row map[string]any) error
}

// RegisterAll binds the delivery handlers for every known upload type.
func RegisterAll(registry *uplink.Registry, client Backend, logger *slog.Logger) {
	registry.Register(queue.TypeBinaryUpload, binaryUpload(client))
	registry.Register(queue.TypeRecordInsert, recordInsert(client))
	registry.Register(queue.TypeResultPhotoInsert, resultPhotoInsert(client))
	registry.Register(queue.TypeSignatureUpload, signatureUpload(client))
	registry.Register(queue.TypeLifecycleUpsert, lifecycleUpsert(client))
	registry.Register(queue.TypeAuditLogInsert, auditLogInsert(client))

	logging.NewComponentLogger(logger, "handlers").Debug("delivery handlers registered",
		logging.Int("count", len(registry.Types())),
	)
}

// putBinary ships the upload's bytes to object storage and returns the
// stored object path. The object name derives from the upload id, so a
// retried delivery overwrites rather than duplicates.
func putBinary(ctx context.Context, client Backend, upload *queue.PendingUpload, fallbackLocation string) (string, error) {
	location := upload.Binary.Location
	if location == "" {
		location = fallbackLocation
	}
	objectName := upload.ObjectName()
	if err := client.PutObject(ctx, location, objectName, upload.Binary.ContentType, upload.Binary.Data); err != nil {
		return "", err
	}
	return location + "/" + objectName, nil
}

func binaryUpload(client Backend) uplink.HandlerFunc {
	return func(ctx context.Context, upload *queue.PendingUpload) error {
		payload, ok := upload.Payload.(*queue.BinaryUploadPayload)
		if !ok {
			return fmt.Errorf("unexpected payload %T for %s", upload.Payload, upload.Type)
		}

		objectPath, err := putBinary(ctx, client, upload, locationAttachments)
		if err != nil {
			return err
		}

		// Optional cross-reference: point an existing record at the object.
		if payload.Profile != nil {
			row := map[string]any{
				payload.Profile.Field: objectPath,
				"owner_id":            payload.OwnerID,
			}
			return client.UpsertRow(ctx, payload.Profile.Table, payload.Profile.Key, row)
		}
		return nil
	}
}

func recordInsert(client Backend) uplink.HandlerFunc {
	return func(ctx context.Context, upload *queue.PendingUpload) error {
		payload, ok := upload.Payload.(*queue.RecordInsertPayload)
		if !ok {
			return fmt.Errorf("unexpected payload %T for %s", upload.Payload, upload.Type)
		}
		if payload.Table == "" {
			return fmt.Errorf("record insert %s: table required", upload.ID)
		}
		// Keyed by upload id so a replayed insert lands on the same row.
		return client.InsertRow(ctx, payload.Table, upload.ID, payload.Row)
	}
}

func resultPhotoInsert(client Backend) uplink.HandlerFunc {
	return func(ctx context.Context, upload *queue.PendingUpload) error {
		payload, ok := upload.Payload.(*queue.ResultPhotoInsertPayload)
		if !ok {
			return fmt.Errorf("unexpected payload %T for %s", upload.Payload, upload.Type)
		}

		objectPath, err := putBinary(ctx, client, upload, locationPhotos)
		if err != nil {
			return err
		}

		row := map[string]any{
			"inspection_id": payload.InspectionID,
			"result_id":     payload.ResultID,
			"caption":       payload.Caption,
			"taken_at_ms":   payload.TakenAtMS,
			"object_path":   objectPath,
		}
		return client.UpsertRow(ctx, tablePhotos, upload.ID, row)
	}
}

func signatureUpload(client Backend) uplink.HandlerFunc {
	return func(ctx context.Context, upload *queue.PendingUpload) error {
		payload, ok := upload.Payload.(*queue.SignatureUploadPayload)
		if !ok {
			return fmt.Errorf("unexpected payload %T for %s", upload.Payload, upload.Type)
		}

		objectPath, err := putBinary(ctx, client, upload, locationSignatures)
		if err != nil {
			return err
		}

		row := map[string]any{
			"inspection_id": payload.InspectionID,
			"signer_name":   payload.SignerName,
			"signer_role":   payload.SignerRole,
			"signed_at_ms":  payload.SignedAtMS,
			"object_path":   objectPath,
		}
		return client.UpsertRow(ctx, tableSignatures, upload.ID, row)
	}
}

func lifecycleUpsert(client Backend) uplink.HandlerFunc {
	return func(ctx context.Context, upload *queue.PendingUpload) error {
		payload, ok := upload.Payload.(*queue.LifecycleUpsertPayload)
		if !ok {
			return fmt.Errorf("unexpected payload %T for %s", upload.Payload, upload.Type)
		}
		// Keyed by inspection: the latest state wins on re-delivery.
		row := map[string]any{
			"state":         payload.State,
			"updated_at_ms": payload.UpdatedAtMS,
		}
		return client.UpsertRow(ctx, tableInspections, payload.InspectionID, row)
	}
}

func auditLogInsert(client Backend) uplink.HandlerFunc {
	return func(ctx context.Context, upload *queue.PendingUpload) error {
		payload, ok := upload.Payload.(*queue.AuditLogInsertPayload)
		if !ok {
			return fmt.Errorf("unexpected payload %T for %s", upload.Payload, upload.Type)
		}
		row := map[string]any{
			"inspection_id":  payload.InspectionID,
			"actor":          payload.Actor,
			"action":         payload.Action,
			"detail":         payload.Detail,
			"occurred_at_ms": payload.OccurredAtMS,
		}
		return client.InsertRow(ctx, tableAuditLog, upload.ID, row)
	}
}
