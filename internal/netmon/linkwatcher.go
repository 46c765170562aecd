package netmon

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"fieldsync/internal/logging"
)

// linkWatcher listens for kernel uevents on network interfaces and asks
// the prober to re-check reachability immediately. This is how a field
// tablet regaining Wi-Fi gets its queue flushed without waiting out the
// probe interval.
type linkWatcher struct {
	logger  *slog.Logger
	onEvent func()

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

func newLinkWatcher(logger *slog.Logger, onEvent func()) *linkWatcher {
	return &linkWatcher{
		logger:  logging.NewComponentLogger(logger, "link-watcher"),
		onEvent: onEvent,
	}
}

// Start begins listening for udev netlink events. A failed socket connect
// is non-fatal; interval probing still covers reconnect detection.
func (w *linkWatcher) Start(ctx context.Context) {
	if w == nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		w.logger.Warn("failed to connect to netlink socket; reconnect detection falls back to interval probing",
			logging.Error(err),
			logging.String(logging.FieldEventType, "netlink_connect_failed"),
			logging.String(logging.FieldErrorHint, "ensure the daemon has permission to access netlink sockets"),
		)
		return
	}

	w.conn = conn
	w.quit = make(chan struct{})
	w.running = true

	quit := w.quit
	go w.watch(ctx, quit)

	w.logger.Info("link watcher started",
		logging.String(logging.FieldEventType, "link_watcher_started"),
	)
}

func (w *linkWatcher) Stop() {
	if w == nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	if w.quit != nil {
		close(w.quit)
		w.quit = nil
	}
	if w.conn != nil {
		_ = w.conn.Close()
		w.conn = nil
	}
	w.running = false
}

func (w *linkWatcher) watch(ctx context.Context, quit <-chan struct{}) {
	events := make(chan netlink.UEvent)
	errs := make(chan error)

	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()
	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(events, errs, buildLinkMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-events:
			w.logger.Debug("network interface event",
				logging.String("action", string(uevent.Action)),
				logging.String("interface", uevent.Env["INTERFACE"]),
			)
			if w.onEvent != nil {
				w.onEvent()
			}
		case err := <-errs:
			w.logger.Warn("netlink watcher error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "netlink_watcher_error"),
			)
		}
	}
}

// buildLinkMatcher matches interface add, remove, and state changes:
// SUBSYSTEM=net, ACTION=add|remove|change|move.
func buildLinkMatcher() netlink.Matcher {
	action := "add|remove|change|move"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "net",
		},
	})
	return rules
}
