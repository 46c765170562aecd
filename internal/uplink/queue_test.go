package uplink_test

import (
	"context"
	"testing"

	"fieldsync/internal/logging"
	"fieldsync/internal/queue"
	"fieldsync/internal/testsupport"
	"fieldsync/internal/uplink"
)

func TestEnqueuePersistsBeforeReturning(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	q := uplink.NewQueue(store, logging.NewNop())

	ctx := context.Background()
	upload, err := q.Enqueue(ctx, &queue.LifecycleUpsertPayload{
		InspectionID: "insp-1",
		State:        "submitted",
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if upload.ID == "" || upload.Type != queue.TypeLifecycleUpsert {
		t.Fatalf("unexpected upload %#v", upload)
	}

	// The record must already be durable when Enqueue returns.
	persisted, err := store.GetByID(ctx, upload.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if persisted == nil {
		t.Fatal("enqueued upload not found in store")
	}
	if persisted.Priority != 0 || persisted.RetryCount != 0 {
		t.Fatalf("unexpected defaults %#v", persisted)
	}
}

func TestEnqueueOptions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	q := uplink.NewQueue(store, logging.NewNop())

	ctx := context.Background()
	upload, err := q.Enqueue(ctx,
		&queue.SignatureUploadPayload{
			InspectionID: "insp-1",
			SignerName:   "R. Alvarez",
			SignerRole:   "site manager",
		},
		uplink.WithPriority(10),
		uplink.WithBinary(&queue.Binary{
			Data:        []byte{1, 2, 3},
			FileName:    "signature.png",
			ContentType: "image/png",
			Location:    "signatures",
		}),
	)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	persisted, err := store.GetByID(ctx, upload.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if persisted.Priority != 10 {
		t.Fatalf("expected priority 10, got %d", persisted.Priority)
	}
	if persisted.Binary == nil || persisted.Binary.FileName != "signature.png" {
		t.Fatalf("binary not persisted: %#v", persisted.Binary)
	}
}

func TestEnqueueRejectsBinaryTypeWithoutBinary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	q := uplink.NewQueue(store, logging.NewNop())

	_, err := q.Enqueue(context.Background(), &queue.SignatureUploadPayload{
		InspectionID: "insp-1",
		SignerName:   "R. Alvarez",
	})
	if err == nil {
		t.Fatal("expected enqueue to fail without binary content")
	}

	pending, countErr := q.Pending(context.Background())
	if countErr != nil {
		t.Fatalf("Pending: %v", countErr)
	}
	if pending != 0 {
		t.Fatalf("rejected enqueue must not persist, %d pending", pending)
	}
}

func TestRegistryReplaceIsLastWins(t *testing.T) {
	registry := uplink.NewRegistry(logging.NewNop())

	var calls []string
	registry.Register(queue.TypeAuditLogInsert, func(context.Context, *queue.PendingUpload) error {
		calls = append(calls, "first")
		return nil
	})
	registry.Register(queue.TypeAuditLogInsert, func(context.Context, *queue.PendingUpload) error {
		calls = append(calls, "second")
		return nil
	})

	handler, ok := registry.Handler(queue.TypeAuditLogInsert)
	if !ok {
		t.Fatal("expected handler registered")
	}
	if err := handler(context.Background(), nil); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if len(calls) != 1 || calls[0] != "second" {
		t.Fatalf("expected last registration to win, calls %v", calls)
	}

	if _, ok := registry.Handler(queue.TypeBinaryUpload); ok {
		t.Fatal("unexpected handler for unregistered type")
	}
}
