package detect

import (
	"context"
	"sync"
	"sync/atomic"
)

// SimulatedSource is a Source fed by Inject instead of an OS hook. It
// follows the same lifecycle rules as the platform sources and is used by
// tests and by the headless run mode.
type SimulatedSource struct {
	// FailInit, when set, is returned (wrapped in ErrHookFailure) by
	// Initialize.
	FailInit error

	mu          sync.Mutex
	initialized bool
	closed      bool
	released    atomic.Bool

	events chan Event
}

// NewSimulated returns a source whose queue holds up to buffer events.
func NewSimulated(buffer int) *SimulatedSource {
	return &SimulatedSource{events: make(chan Event, buffer)}
}

func (s *SimulatedSource) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailInit != nil {
		return wrapHookFailure(s.FailInit)
	}
	s.initialized = true
	return nil
}

// Inject queues ev for delivery. It blocks while the queue is full.
func (s *SimulatedSource) Inject(ev Event) {
	s.events <- ev
}

func (s *SimulatedSource) Eventloop(ctx context.Context, handler Handler) error {
	s.mu.Lock()
	if !s.initialized || s.closed {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	s.mu.Unlock()

	defer s.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-s.events:
			handler(ev)
		}
	}
}

func (s *SimulatedSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.initialized {
		s.released.Store(true)
	}
	return nil
}

// Released reports whether an initialized hook has been released.
func (s *SimulatedSource) Released() bool { return s.released.Load() }
