package netmon

import (
	"context"
	"sync"
)

// Monitor reports backend reachability and notifies subscribers when
// connectivity returns after an offline period.
type Monitor interface {
	// Online reports the most recent reachability observation.
	Online() bool
	// Subscribe registers a callback invoked on each offline-to-online
	// transition. Callbacks must not block.
	Subscribe(fn func())
	Start(ctx context.Context) error
	Stop()
}

// Static is a Monitor with a fixed reachability state. Callers flip the
// state with SetOnline; subscribers fire on the offline-to-online edge.
// It exists for tests and for deployments that disable probing.
type Static struct {
	mu     sync.Mutex
	online bool
	subs   []func()
}

// NewStatic returns a Static monitor seeded with the given state.
func NewStatic(online bool) *Static {
	return &Static{online: online}
}

func (s *Static) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

func (s *Static) Subscribe(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// SetOnline updates the state and fires subscribers when the state moves
// from offline to online.
func (s *Static) SetOnline(online bool) {
	s.mu.Lock()
	wasOnline := s.online
	s.online = online
	var subs []func()
	if online && !wasOnline {
		subs = append(subs, s.subs...)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

func (s *Static) Start(context.Context) error { return nil }

func (s *Static) Stop() {}
