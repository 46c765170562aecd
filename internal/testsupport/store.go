package testsupport

import (
	"context"
	"testing"
	"time"

	"fieldsync/internal/config"
	"fieldsync/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// AddAuditEntry persists a minimal audit-log upload and returns it.
func AddAuditEntry(t testing.TB, store *queue.Store, actor string, priority int, createdAt time.Time) *queue.PendingUpload {
	t.Helper()

	upload := &queue.PendingUpload{
		ID:   queue.NewUploadID(createdAt),
		Type: queue.TypeAuditLogInsert,
		Payload: &queue.AuditLogInsertPayload{
			InspectionID: "insp-1",
			Actor:        actor,
			Action:       "capture",
			OccurredAtMS: createdAt.UnixMilli(),
		},
		CreatedAt: createdAt,
		Priority:  priority,
	}
	if err := store.Add(context.Background(), upload); err != nil {
		t.Fatalf("store.Add: %v", err)
	}
	return upload
}
