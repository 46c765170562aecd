package netmon_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"fieldsync/internal/logging"
	"fieldsync/internal/netmon"
)

func TestProberDetectsReconnectEdge(t *testing.T) {
	var healthy atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	prober := netmon.NewProber(srv.URL+"/health", 25*time.Millisecond, time.Second, logging.NewNop())
	reconnected := make(chan struct{}, 1)
	prober.Subscribe(func() {
		select {
		case reconnected <- struct{}{}:
		default:
		}
	})

	if err := prober.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer prober.Stop()

	if prober.Online() {
		t.Fatal("expected prober to start offline against unhealthy backend")
	}

	healthy.Store(true)
	prober.ForceProbe()

	select {
	case <-reconnected:
	case <-time.After(2 * time.Second):
		t.Fatal("reconnect subscriber never fired")
	}
	if !prober.Online() {
		t.Fatal("expected prober to report online after edge")
	}
}

func TestProberStaysQuietWhileOnline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	prober := netmon.NewProber(srv.URL+"/health", 25*time.Millisecond, time.Second, logging.NewNop())
	var fired atomic.Int32
	prober.Subscribe(func() { fired.Add(1) })

	if err := prober.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer prober.Stop()

	if !prober.Online() {
		t.Fatal("expected prober online against healthy backend")
	}

	// Online-to-online probes must not fire the reconnect callback.
	prober.ForceProbe()
	time.Sleep(100 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Fatalf("expected no reconnect callbacks, got %d", got)
	}
}

func TestStaticMonitorFiresOnEdgeOnly(t *testing.T) {
	mon := netmon.NewStatic(false)
	var fired atomic.Int32
	mon.Subscribe(func() { fired.Add(1) })

	mon.SetOnline(false)
	mon.SetOnline(true)
	mon.SetOnline(true)
	mon.SetOnline(false)
	mon.SetOnline(true)

	if got := fired.Load(); got != 2 {
		t.Fatalf("expected 2 edge callbacks, got %d", got)
	}
	if !mon.Online() {
		t.Fatal("expected monitor to report online")
	}
}
