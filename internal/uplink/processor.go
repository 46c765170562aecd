package uplink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"fieldsync/internal/logging"
	"fieldsync/internal/queue"
)

// ErrPassInProgress is returned by RunOnce when another pass is already
// draining the queue. The queue is processed strictly sequentially.
var ErrPassInProgress = errors.New("upload pass already in progress")

// ProgressFunc receives per-record progress during a pass. It is invoked
// with the zero-based index and the upload type before each record, and
// once more as (total, total, "") after the pass finishes.
type ProgressFunc func(done, total int, uploadType queue.Type)

// Result summarizes one processor pass over the queue snapshot.
type Result struct {
	Success int
	Failed  int
	Skipped int
}

// Processor replays pending uploads through registered handlers.
//
// Each pass works on a snapshot of the queue ordered by priority then
// age. Records are deleted only after their handler reports success;
// failures increment the persisted retry count and stay queued. Records
// whose retry budget is exhausted, or whose type has no handler, are
// skipped and left untouched.
type Processor struct {
	store      *queue.Store
	registry   *Registry
	logger     *slog.Logger
	maxRetries int
	progress   ProgressFunc

	inFlight atomic.Bool
}

// ProcessorOption configures optional Processor behavior.
type ProcessorOption func(*Processor)

// WithProgress installs a progress callback for processor passes.
func WithProgress(fn ProgressFunc) ProcessorOption {
	return func(p *Processor) {
		p.progress = fn
	}
}

// NewProcessor constructs a processor over the given store and registry.
func NewProcessor(store *queue.Store, registry *Registry, maxRetries int, logger *slog.Logger, opts ...ProcessorOption) *Processor {
	p := &Processor{
		store:      store,
		registry:   registry,
		logger:     logging.NewComponentLogger(logger, "processor"),
		maxRetries: maxRetries,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RunOnce drains the current queue snapshot. Store failures abort the
// pass and surface to the caller; individual handler failures do not.
// A concurrent call returns ErrPassInProgress without touching the queue.
func (p *Processor) RunOnce(ctx context.Context) (Result, error) {
	if !p.inFlight.CompareAndSwap(false, true) {
		return Result{}, ErrPassInProgress
	}
	defer p.inFlight.Store(false)

	passID := uuid.NewString()[:8]
	logger := p.logger.With(logging.String(logging.FieldPassID, passID))

	snapshot, err := p.store.GetAll(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("snapshot pending uploads: %w", err)
	}

	total := len(snapshot)
	if total == 0 {
		return Result{}, nil
	}

	logger.Info("upload pass started",
		logging.String(logging.FieldEventType, "pass_started"),
		logging.Int("pending", total),
	)

	var result Result
	for i, upload := range snapshot {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		p.report(i, total, upload.Type)

		recordLogger := logger.With(
			logging.String(logging.FieldUploadID, upload.ID),
			logging.String(logging.FieldUploadType, string(upload.Type)),
		)

		if upload.RetryCount >= p.maxRetries {
			result.Skipped++
			recordLogger.Debug("retry budget exhausted, leaving for manual review",
				logging.Int("retry_count", upload.RetryCount),
			)
			continue
		}

		handler, ok := p.registry.Handler(upload.Type)
		if !ok {
			result.Skipped++
			recordLogger.Warn("no handler registered for upload type",
				logging.String(logging.FieldEventType, "handler_missing"),
				logging.String(logging.FieldErrorHint, "register a handler or clear the record"),
			)
			continue
		}

		if handlerErr := invoke(ctx, handler, upload); handlerErr != nil {
			result.Failed++
			if err := p.store.UpdateRetryCount(ctx, upload.ID, upload.RetryCount+1); err != nil {
				return result, fmt.Errorf("record retry for %s: %w", upload.ID, err)
			}
			recordLogger.Warn("upload attempt failed, will retry",
				logging.Error(handlerErr),
				logging.String(logging.FieldEventType, "upload_failed"),
				logging.Int("retry_count", upload.RetryCount+1),
			)
			continue
		}

		if err := p.store.Delete(ctx, upload.ID); err != nil {
			return result, fmt.Errorf("delete delivered upload %s: %w", upload.ID, err)
		}
		result.Success++
		recordLogger.Info("upload delivered",
			logging.String(logging.FieldEventType, "upload_delivered"),
		)
	}

	p.report(total, total, queue.Type(""))

	logger.Info("upload pass finished",
		logging.String(logging.FieldEventType, "pass_finished"),
		logging.Int("succeeded", result.Success),
		logging.Int("failed", result.Failed),
		logging.Int("skipped", result.Skipped),
	)
	return result, nil
}

func (p *Processor) report(done, total int, uploadType queue.Type) {
	if p.progress == nil {
		return
	}
	p.progress(done, total, uploadType)
}

// invoke runs a handler and converts panics into failures so one bad
// handler cannot take down the whole pass.
func invoke(ctx context.Context, handler HandlerFunc, upload *queue.PendingUpload) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(ctx, upload)
}
