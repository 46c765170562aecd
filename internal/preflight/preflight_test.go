package preflight_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"fieldsync/internal/preflight"
	"fieldsync/internal/testsupport"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	result := preflight.CheckDirectoryAccess("Data directory", dir)
	if !result.Passed {
		t.Fatalf("expected writable temp dir to pass, got %+v", result)
	}

	missing := filepath.Join(dir, "nope")
	result = preflight.CheckDirectoryAccess("Data directory", missing)
	if result.Passed {
		t.Fatalf("expected missing dir to fail, got %+v", result)
	}
}

func TestCheckBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithBackendURL(srv.URL))
	cfg.Backend.APIToken = "good"
	if result := preflight.CheckBackend(context.Background(), cfg); !result.Passed {
		t.Fatalf("expected healthy backend to pass, got %+v", result)
	}

	cfg.Backend.APIToken = "bad"
	result := preflight.CheckBackend(context.Background(), cfg)
	if result.Passed {
		t.Fatalf("expected auth failure, got %+v", result)
	}
}

func TestCheckDatabase(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.AddAuditEntry(t, store, "inspector", 0, time.Now().UTC())

	result := preflight.CheckDatabase(context.Background(), store)
	if !result.Passed {
		t.Fatalf("expected healthy database to pass, got %+v", result)
	}

	if result := preflight.CheckDatabase(context.Background(), nil); result.Passed {
		t.Fatal("expected nil store to fail")
	}
}

func TestProbeQueue(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	probe, err := preflight.ProbeQueue(context.Background(), store, cfg.Sync.MaxRetries)
	if err != nil {
		t.Fatalf("ProbeQueue: %v", err)
	}
	if probe.QueueDetail() != "Queue empty" {
		t.Fatalf("unexpected detail %q", probe.QueueDetail())
	}

	testsupport.AddAuditEntry(t, store, "inspector", 0, time.Now().UTC())
	probe, err = preflight.ProbeQueue(context.Background(), store, cfg.Sync.MaxRetries)
	if err != nil {
		t.Fatalf("ProbeQueue: %v", err)
	}
	if probe.Pending != 1 || probe.QueueDetail() != "1 pending" {
		t.Fatalf("unexpected probe %+v", probe)
	}
}
