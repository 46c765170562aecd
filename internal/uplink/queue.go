package uplink

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fieldsync/internal/logging"
	"fieldsync/internal/queue"
)

// Queue is the capture-facing entry point. Enqueue persists an upload
// before returning, so callers may treat a nil error as a durability
// guarantee: the record survives an immediate crash or power loss.
type Queue struct {
	store  *queue.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewQueue constructs a queue manager over the given store.
func NewQueue(store *queue.Store, logger *slog.Logger) *Queue {
	return &Queue{
		store:  store,
		logger: logging.NewComponentLogger(logger, "queue"),
		now:    time.Now,
	}
}

// EnqueueOption configures a single enqueued upload.
type EnqueueOption func(*queue.PendingUpload)

// WithPriority sets the upload priority. Higher values drain first.
func WithPriority(priority int) EnqueueOption {
	return func(u *queue.PendingUpload) {
		u.Priority = priority
	}
}

// WithBinary attaches binary content to the upload.
func WithBinary(binary *queue.Binary) EnqueueOption {
	return func(u *queue.PendingUpload) {
		u.Binary = binary
	}
}

// Enqueue derives the upload type from the payload, assigns an id, and
// persists the record. The returned record is the durable form.
func (q *Queue) Enqueue(ctx context.Context, payload queue.Payload, opts ...EnqueueOption) (*queue.PendingUpload, error) {
	if payload == nil {
		return nil, fmt.Errorf("enqueue: payload required")
	}

	now := q.now().UTC()
	upload := &queue.PendingUpload{
		ID:        queue.NewUploadID(now),
		Type:      payload.UploadType(),
		Payload:   payload,
		CreatedAt: now,
	}
	for _, opt := range opts {
		opt(upload)
	}

	if err := q.store.Add(ctx, upload); err != nil {
		return nil, fmt.Errorf("enqueue %s: %w", upload.Type, err)
	}

	q.logger.Info("upload queued",
		logging.String(logging.FieldUploadID, upload.ID),
		logging.String(logging.FieldUploadType, string(upload.Type)),
		logging.Int("priority", upload.Priority),
		logging.String(logging.FieldEventType, "upload_queued"),
	)
	return upload, nil
}

// Pending reports the number of queued uploads.
func (q *Queue) Pending(ctx context.Context) (int, error) {
	return q.store.Count(ctx)
}
