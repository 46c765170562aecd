package uplink_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"fieldsync/internal/config"
	"fieldsync/internal/logging"
	"fieldsync/internal/netmon"
	"fieldsync/internal/queue"
	"fieldsync/internal/testsupport"
	"fieldsync/internal/uplink"
)

func newService(t *testing.T, cfg *config.Config, store *queue.Store, monitor netmon.Monitor) *uplink.Service {
	t.Helper()

	registry := uplink.NewRegistry(logging.NewNop())
	registry.Register(queue.TypeAuditLogInsert, func(context.Context, *queue.PendingUpload) error {
		return nil
	})
	proc := uplink.NewProcessor(store, registry, cfg.Sync.MaxRetries, logging.NewNop())
	return uplink.NewService(proc, monitor, time.Hour, cfg.LockPath(), logging.NewNop())
}

func waitForCount(t *testing.T, store *queue.Store, want int) {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		count, err := store.Count(context.Background())
		if err != nil {
			t.Fatalf("Count: %v", err)
		}
		if count == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	count, _ := store.Count(context.Background())
	t.Fatalf("queue never reached %d records, still %d", want, count)
}

func TestServiceDrainsQueueOnStartup(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.AddAuditEntry(t, store, "a", 0, time.Now().UTC())
	testsupport.AddAuditEntry(t, store, "b", 0, time.Now().UTC())

	svc := newService(t, cfg, store, netmon.NewStatic(true))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer svc.Stop()

	waitForCount(t, store, 0)
}

func TestServiceSkipsPassesWhileOffline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.AddAuditEntry(t, store, "a", 0, time.Now().UTC())

	svc := newService(t, cfg, store, netmon.NewStatic(false))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer svc.Stop()

	svc.RequestFlush("manual")
	time.Sleep(150 * time.Millisecond)

	count, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("offline service must not drain the queue, %d remaining", count)
	}
}

func TestServiceFlushesOnReconnect(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.AddAuditEntry(t, store, "a", 0, time.Now().UTC())

	monitor := netmon.NewStatic(false)
	svc := newService(t, cfg, store, monitor)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer svc.Stop()

	// Give the startup kick a chance to be dropped while offline.
	time.Sleep(100 * time.Millisecond)

	monitor.SetOnline(true)
	waitForCount(t, store, 0)
}

func TestServiceLockRejectsSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	first := newService(t, cfg, store, netmon.NewStatic(true))
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer first.Stop()

	second := newService(t, cfg, store, netmon.NewStatic(true))
	err := second.Start(context.Background())
	if err == nil {
		second.Stop()
		t.Fatal("expected second instance to fail on the processor lock")
	}
	if !strings.Contains(err.Error(), "lock") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestServiceStopHaltsScheduling(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	monitor := netmon.NewStatic(true)
	svc := newService(t, cfg, store, monitor)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitForCount(t, store, 0)
	svc.Stop()

	testsupport.AddAuditEntry(t, store, "late", 0, time.Now().UTC())
	svc.RequestFlush("manual")
	time.Sleep(150 * time.Millisecond)

	count, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("stopped service must not process uploads, %d remaining", count)
	}
}
