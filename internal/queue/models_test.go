package queue_test

import (
	"strings"
	"testing"
	"time"

	"fieldsync/internal/queue"
)

func TestParseType(t *testing.T) {
	for _, typ := range queue.AllTypes() {
		parsed, ok := queue.ParseType(string(typ))
		if !ok {
			t.Fatalf("ParseType(%s) not recognized", typ)
		}
		if parsed != typ {
			t.Fatalf("ParseType(%s) = %s", typ, parsed)
		}
	}
	if parsed, ok := queue.ParseType("  Signature_Upload "); !ok || parsed != queue.TypeSignatureUpload {
		t.Fatalf("expected normalized parse, got %q ok=%v", parsed, ok)
	}
	if _, ok := queue.ParseType("mystery"); ok {
		t.Fatal("expected unknown type to be rejected")
	}
}

func TestRequiresBinary(t *testing.T) {
	withBinary := []queue.Type{
		queue.TypeBinaryUpload,
		queue.TypeResultPhotoInsert,
		queue.TypeSignatureUpload,
	}
	plain := []queue.Type{
		queue.TypeRecordInsert,
		queue.TypeLifecycleUpsert,
		queue.TypeAuditLogInsert,
	}
	for _, typ := range withBinary {
		if !typ.RequiresBinary() {
			t.Fatalf("expected %s to require a binary", typ)
		}
	}
	for _, typ := range plain {
		if typ.RequiresBinary() {
			t.Fatalf("expected %s to not require a binary", typ)
		}
	}
}

func TestNewUploadIDIsUniqueAndSortable(t *testing.T) {
	now := time.Now()
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := queue.NewUploadID(now)
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id: %s", id)
		}
		seen[id] = struct{}{}
		if !strings.Contains(id, "-") {
			t.Fatalf("expected timestamp prefix in id, got %s", id)
		}
	}
}

func TestObjectNameScopesByUploadID(t *testing.T) {
	now := time.Now().UTC()
	upload := &queue.PendingUpload{
		ID:   queue.NewUploadID(now),
		Type: queue.TypeSignatureUpload,
		Payload: &queue.SignatureUploadPayload{
			InspectionID: "insp-1",
			SignerName:   "R. Alvarez",
		},
		Binary: &queue.Binary{
			Data:     []byte{1, 2, 3},
			FileName: "signature.png",
		},
		CreatedAt: now,
	}
	name := upload.ObjectName()
	if !strings.HasPrefix(name, upload.ID) || !strings.HasSuffix(name, "signature.png") {
		t.Fatalf("unexpected object name %s", name)
	}

	// Two uploads of the same file must never collide in object storage.
	other := &queue.PendingUpload{
		ID:     queue.NewUploadID(now),
		Binary: &queue.Binary{FileName: "signature.png"},
	}
	if other.ObjectName() == name {
		t.Fatal("object names collided across uploads")
	}
}
