package uplink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"fieldsync/internal/logging"
	"fieldsync/internal/netmon"
)

// Service schedules processor passes: once at startup, on a fixed
// interval, and whenever connectivity returns. Triggers that arrive
// while a pass is running coalesce into at most one follow-up pass.
//
// A file lock guards the queue so two daemons pointed at the same data
// directory cannot interleave passes.
type Service struct {
	processor *Processor
	monitor   netmon.Monitor
	interval  time.Duration
	logger    *slog.Logger
	lock      *flock.Flock

	mu      sync.Mutex
	running bool
	quit    chan struct{}
	wg      sync.WaitGroup

	kick chan string
}

// NewService wires a processor, a connectivity monitor, and the lock
// file path into a scheduler.
func NewService(processor *Processor, monitor netmon.Monitor, interval time.Duration, lockPath string, logger *slog.Logger) *Service {
	return &Service{
		processor: processor,
		monitor:   monitor,
		interval:  interval,
		logger:    logging.NewComponentLogger(logger, "service"),
		lock:      flock.New(lockPath),
		kick:      make(chan string, 1),
	}
}

// Start acquires the processor lock, runs the startup pass, and begins
// interval and reconnect scheduling. It fails when another process
// already holds the lock.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("upload service already running")
	}

	locked, err := s.lock.TryLock()
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("acquire processor lock: %w", err)
	}
	if !locked {
		s.mu.Unlock()
		return fmt.Errorf("another process holds the processor lock at %s", s.lock.Path())
	}

	s.quit = make(chan struct{})
	s.running = true
	quit := s.quit
	s.mu.Unlock()

	s.monitor.Subscribe(func() {
		s.RequestFlush("reconnect")
	})

	// Startup drain covers records left over from a previous crash.
	s.RequestFlush("startup")

	s.wg.Add(1)
	go s.loop(ctx, quit)

	s.logger.Info("upload service started",
		logging.String(logging.FieldEventType, "service_started"),
		logging.Duration("interval", s.interval),
	)
	return nil
}

// Stop halts scheduling and releases the lock. An in-flight pass runs
// to completion; Stop returns after it finishes.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	close(s.quit)
	s.quit = nil
	s.running = false
	s.mu.Unlock()

	s.wg.Wait()
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("failed to release processor lock",
			logging.Error(err),
			logging.String(logging.FieldEventType, "lock_release_failed"),
		)
	}

	s.logger.Info("upload service stopped",
		logging.String(logging.FieldEventType, "service_stopped"),
	)
}

// RequestFlush asks for a pass. Requests made while a pass is pending
// or running collapse into one.
func (s *Service) RequestFlush(reason string) {
	select {
	case s.kick <- reason:
	default:
	}
}

func (s *Service) loop(ctx context.Context, quit <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-quit:
			return
		case <-ticker.C:
			s.flush(ctx, "interval")
		case reason := <-s.kick:
			s.flush(ctx, reason)
		}
	}
}

func (s *Service) flush(ctx context.Context, reason string) {
	if !s.monitor.Online() {
		s.logger.Debug("skipping pass while offline",
			logging.String("reason", reason),
		)
		return
	}

	result, err := s.processor.RunOnce(ctx)
	if err != nil {
		if errors.Is(err, ErrPassInProgress) || errors.Is(err, context.Canceled) {
			return
		}
		s.logger.Error("upload pass failed",
			logging.Error(err),
			logging.String("reason", reason),
			logging.String(logging.FieldEventType, "pass_failed"),
			logging.String(logging.FieldErrorHint, "check queue database health"),
		)
		return
	}

	if result.Success+result.Failed+result.Skipped > 0 {
		s.logger.Info("pass complete",
			logging.String("reason", reason),
			logging.Int("succeeded", result.Success),
			logging.Int("failed", result.Failed),
			logging.Int("skipped", result.Skipped),
		)
	}
}
