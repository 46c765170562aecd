package netmon

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"fieldsync/internal/logging"
)

// Prober polls the backend health endpoint and tracks reachability.
// A netlink link watcher forces an immediate probe when a network
// interface changes state, so reconnects surface ahead of the next tick.
type Prober struct {
	healthURL string
	interval  time.Duration
	client    *http.Client
	logger    *slog.Logger

	mu      sync.Mutex
	online  bool
	subs    []func()
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	kick    chan struct{}
	watcher *linkWatcher
}

// NewProber builds a prober that checks healthURL every interval with the
// given per-request timeout.
func NewProber(healthURL string, interval, timeout time.Duration, logger *slog.Logger) *Prober {
	p := &Prober{
		healthURL: healthURL,
		interval:  interval,
		client:    &http.Client{Timeout: timeout},
		logger:    logging.NewComponentLogger(logger, "netmon"),
		kick:      make(chan struct{}, 1),
	}
	p.watcher = newLinkWatcher(p.logger, p.ForceProbe)
	return p
}

func (p *Prober) Online() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online
}

// Subscribe registers a callback fired on each offline-to-online edge.
func (p *Prober) Subscribe(fn func()) {
	if fn == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs = append(p.subs, fn)
}

// ForceProbe requests an immediate reachability check. Duplicate requests
// collapse into the one already pending.
func (p *Prober) ForceProbe() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// Start launches the probe loop and the netlink link watcher. The first
// probe runs before Start returns so callers see a settled state.
func (p *Prober) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("network monitor already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true
	p.mu.Unlock()

	p.probe(runCtx)

	p.watcher.Start(runCtx)

	p.wg.Add(1)
	go p.loop(runCtx)

	p.logger.Info("network monitor started",
		logging.String(logging.FieldEventType, "netmon_started"),
		logging.String("health_url", p.healthURL),
		logging.Duration("interval", p.interval),
	)
	return nil
}

// Stop halts probing. In-flight probes finish before Stop returns.
func (p *Prober) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	cancel := p.cancel
	p.running = false
	p.cancel = nil
	p.mu.Unlock()

	p.watcher.Stop()
	if cancel != nil {
		cancel()
	}
	p.wg.Wait()

	p.logger.Info("network monitor stopped",
		logging.String(logging.FieldEventType, "netmon_stopped"),
	)
}

func (p *Prober) loop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.probe(ctx)
		case <-p.kick:
			p.probe(ctx)
		}
	}
}

func (p *Prober) probe(ctx context.Context) {
	online := p.check(ctx)

	p.mu.Lock()
	wasOnline := p.online
	p.online = online
	var subs []func()
	if online && !wasOnline {
		subs = append(subs, p.subs...)
	}
	p.mu.Unlock()

	if online != wasOnline {
		p.logger.Info("connectivity changed",
			logging.String(logging.FieldEventType, "connectivity_changed"),
			logging.Bool("online", online),
		)
	}

	for _, fn := range subs {
		fn()
	}
}

func (p *Prober) check(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.healthURL, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError
}
