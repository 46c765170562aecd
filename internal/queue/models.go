package queue

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Type identifies what a pending upload carries and which handler
// delivers it. The set is closed; unknown values are rejected at Add.
type Type string

const (
	TypeBinaryUpload      Type = "binary_upload"
	TypeRecordInsert      Type = "record_insert"
	TypeResultPhotoInsert Type = "result_photo_insert"
	TypeSignatureUpload   Type = "signature_upload"
	TypeLifecycleUpsert   Type = "lifecycle_upsert"
	TypeAuditLogInsert    Type = "audit_log_insert"
)

var allTypes = []Type{
	TypeBinaryUpload,
	TypeRecordInsert,
	TypeResultPhotoInsert,
	TypeSignatureUpload,
	TypeLifecycleUpsert,
	TypeAuditLogInsert,
}

var typeSet = func() map[Type]struct{} {
	set := make(map[Type]struct{}, len(allTypes))
	for _, t := range allTypes {
		set[t] = struct{}{}
	}
	return set
}()

// binaryTypes are the upload types that must carry a Binary attachment.
var binaryTypes = map[Type]struct{}{
	TypeBinaryUpload:      {},
	TypeResultPhotoInsert: {},
	TypeSignatureUpload:   {},
}

// AllTypes returns the ordered list of known upload types.
func AllTypes() []Type {
	cp := make([]Type, len(allTypes))
	copy(cp, allTypes)
	return cp
}

// ParseType converts a string into a known Type.
func ParseType(value string) (Type, bool) {
	normalized := Type(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := typeSet[normalized]
	return normalized, ok
}

// RequiresBinary reports whether uploads of this type must carry bytes.
func (t Type) RequiresBinary() bool {
	_, ok := binaryTypes[t]
	return ok
}

// Payload is the typed body of a pending upload. Exactly one variant
// exists per Type.
type Payload interface {
	UploadType() Type
}

// ProfileRef points at a record that should be updated with the stored
// object path after a binary upload lands.
type ProfileRef struct {
	Table string `json:"table"`
	Key   string `json:"key"`
	Field string `json:"field"`
}

// BinaryUploadPayload describes a generic file destined for object
// storage, optionally cross-referenced from a profile record.
type BinaryUploadPayload struct {
	OwnerID string      `json:"owner_id"`
	Profile *ProfileRef `json:"profile,omitempty"`
}

func (BinaryUploadPayload) UploadType() Type { return TypeBinaryUpload }

// RecordInsertPayload appends one row to a backend table.
type RecordInsertPayload struct {
	Table string         `json:"table"`
	Row   map[string]any `json:"row"`
}

func (RecordInsertPayload) UploadType() Type { return TypeRecordInsert }

// ResultPhotoInsertPayload links a captured photo to an inspection result.
type ResultPhotoInsertPayload struct {
	InspectionID string `json:"inspection_id"`
	ResultID     string `json:"result_id"`
	Caption      string `json:"caption,omitempty"`
	TakenAtMS    int64  `json:"taken_at_ms"`
}

func (ResultPhotoInsertPayload) UploadType() Type { return TypeResultPhotoInsert }

// SignatureUploadPayload carries a sign-off image for an inspection.
type SignatureUploadPayload struct {
	InspectionID string `json:"inspection_id"`
	SignerName   string `json:"signer_name"`
	SignerRole   string `json:"signer_role,omitempty"`
	SignedAtMS   int64  `json:"signed_at_ms"`
}

func (SignatureUploadPayload) UploadType() Type { return TypeSignatureUpload }

// LifecycleUpsertPayload moves an inspection through its lifecycle.
// Keyed by inspection, so re-delivery overwrites instead of duplicating.
type LifecycleUpsertPayload struct {
	InspectionID string `json:"inspection_id"`
	State        string `json:"state"`
	UpdatedAtMS  int64  `json:"updated_at_ms"`
}

func (LifecycleUpsertPayload) UploadType() Type { return TypeLifecycleUpsert }

// AuditLogInsertPayload records who did what on site.
type AuditLogInsertPayload struct {
	InspectionID string `json:"inspection_id"`
	Actor        string `json:"actor"`
	Action       string `json:"action"`
	Detail       string `json:"detail,omitempty"`
	OccurredAtMS int64  `json:"occurred_at_ms"`
}

func (AuditLogInsertPayload) UploadType() Type { return TypeAuditLogInsert }

// Binary is the optional byte attachment of a pending upload.
type Binary struct {
	Data        []byte
	FileName    string
	ContentType string
	// Location is the object-storage prefix the bytes belong under,
	// e.g. "inspection-photos". The stored object name is derived from
	// the upload id, keeping re-delivery an overwrite.
	Location string
}

// PendingUpload is the one persisted entity of the offline queue.
type PendingUpload struct {
	ID         string
	Type       Type
	Payload    Payload
	Binary     *Binary
	CreatedAt  time.Time
	RetryCount int
	Priority   int
}

// ObjectName returns the deterministic object-storage name for a
// binary-carrying upload.
func (u *PendingUpload) ObjectName() string {
	if u.Binary == nil {
		return ""
	}
	name := strings.TrimSpace(u.Binary.FileName)
	if name == "" {
		name = "upload.bin"
	}
	return u.ID + "-" + name
}

func marshalPayload(payload Payload) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return string(data), nil
}

func unmarshalPayload(uploadType Type, raw string) (Payload, error) {
	var target Payload
	switch uploadType {
	case TypeBinaryUpload:
		target = &BinaryUploadPayload{}
	case TypeRecordInsert:
		target = &RecordInsertPayload{}
	case TypeResultPhotoInsert:
		target = &ResultPhotoInsertPayload{}
	case TypeSignatureUpload:
		target = &SignatureUploadPayload{}
	case TypeLifecycleUpsert:
		target = &LifecycleUpsertPayload{}
	case TypeAuditLogInsert:
		target = &AuditLogInsertPayload{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, uploadType)
	}
	if err := json.Unmarshal([]byte(raw), target); err != nil {
		return nil, fmt.Errorf("unmarshal %s payload: %w", uploadType, err)
	}
	return target, nil
}
