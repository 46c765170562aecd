package uplink

import (
	"context"
	"log/slog"
	"sync"

	"fieldsync/internal/logging"
	"fieldsync/internal/queue"
)

// HandlerFunc delivers one pending upload to the backend. A nil return
// means the upload was durably accepted remotely and may be deleted
// locally. Any error means the attempt failed and the upload stays
// queued for a later pass.
type HandlerFunc func(ctx context.Context, upload *queue.PendingUpload) error

// Registry maps upload types to their delivery handlers.
type Registry struct {
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[queue.Type]HandlerFunc
}

// NewRegistry returns an empty handler registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:   logging.NewComponentLogger(logger, "registry"),
		handlers: make(map[queue.Type]HandlerFunc),
	}
}

// Register binds a handler to an upload type. Registering the same type
// twice replaces the earlier handler; the replacement is logged because
// it usually indicates a wiring mistake.
func (r *Registry) Register(uploadType queue.Type, handler HandlerFunc) {
	if handler == nil {
		return
	}
	r.mu.Lock()
	_, replaced := r.handlers[uploadType]
	r.handlers[uploadType] = handler
	r.mu.Unlock()

	if replaced {
		r.logger.Warn("handler replaced for upload type",
			logging.String(logging.FieldUploadType, string(uploadType)),
			logging.String(logging.FieldEventType, "handler_replaced"),
		)
	}
}

// Handler returns the handler bound to the given type, if any.
func (r *Registry) Handler(uploadType queue.Type) (HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, ok := r.handlers[uploadType]
	return handler, ok
}

// Types lists the registered upload types.
func (r *Registry) Types() []queue.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]queue.Type, 0, len(r.handlers))
	for typ := range r.handlers {
		types = append(types, typ)
	}
	return types
}
