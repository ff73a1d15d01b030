package ui

import (
	"sync"

	"snipd/internal/metrics"
)

type commandKind int

const (
	cmdSetIcon commandKind = iota
	cmdExit
)

func (k commandKind) String() string {
	if k == cmdExit {
		return "exit"
	}
	return "set_icon"
}

type command struct {
	kind commandKind
	icon TrayIcon
}

// Remote sends commands to the event loop. It is safe for concurrent use;
// every method returns immediately.
//
// Commands wait in a bounded queue. When the queue is full the oldest icon
// update is discarded, so a stalled loop still ends up showing the most
// recent state once it resumes. Exit is never discarded.
type Remote struct {
	mu      sync.Mutex
	queue   []command
	limit   int
	dropped uint64
	closed  bool
	notify  chan struct{}
	metrics *metrics.Metrics
}

func newRemote(limit int, m *metrics.Metrics) *Remote {
	if limit <= 0 {
		limit = DefaultQueueSize
	}
	return &Remote{
		limit:   limit,
		notify:  make(chan struct{}, 1),
		metrics: m,
	}
}

// UpdateTrayIcon asks the loop to show icon. Calls from one goroutine are
// applied in the order they were made.
func (r *Remote) UpdateTrayIcon(icon TrayIcon) {
	r.send(command{kind: cmdSetIcon, icon: icon})
}

// Exit asks the loop to stop.
func (r *Remote) Exit() {
	r.send(command{kind: cmdExit})
}

// Dropped returns the number of commands discarded so far.
func (r *Remote) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

func (r *Remote) send(c command) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	if len(r.queue) >= r.limit && !r.evictIcon() {
		// Only exits are queued; the loop stops before reaching c.
		r.countDrop()
		r.mu.Unlock()
		return
	}
	r.queue = append(r.queue, c)
	r.mu.Unlock()

	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// evictIcon removes the oldest icon update. r.mu must be held.
func (r *Remote) evictIcon() bool {
	for i, c := range r.queue {
		if c.kind == cmdSetIcon {
			r.queue = append(r.queue[:i], r.queue[i+1:]...)
			r.countDrop()
			return true
		}
	}
	return false
}

func (r *Remote) countDrop() {
	r.dropped++
	if r.metrics != nil {
		r.metrics.RemoteDropped.Inc()
	}
}

// drain takes every queued command.
func (r *Remote) drain() []command {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) == 0 {
		return nil
	}
	out := r.queue
	r.queue = nil
	return out
}

func (r *Remote) close() {
	r.mu.Lock()
	r.closed = true
	r.queue = nil
	r.mu.Unlock()
}
