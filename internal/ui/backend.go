package ui

import (
	"errors"
	"sync"
)

// ErrBackendClosed is returned by Run when the host tray goes away.
var ErrBackendClosed = errors.New("ui: tray backend closed")

// Backend is the host tray implementation driven by the event loop. All
// methods except Events are called from the loop's goroutine.
type Backend interface {
	Name() string

	// RequiresMainThread reports whether Start and SetIcon must run on
	// the process main thread.
	RequiresMainThread() bool

	// Start shows the indicator with the initial icon and menu. icons may
	// be empty when the icon is hidden.
	Start(icons map[TrayIcon][]byte, menu []MenuItem, initial TrayIcon) error

	// Events delivers user interaction. It is closed when the host tray
	// fails or is torn down from outside.
	Events() <-chan UiEvent

	SetIcon(icon TrayIcon) error

	Stop()
}

// HeadlessBackend shows nothing. It records icon changes and lets callers
// inject UI events, which makes it the backend for show_icon = false and
// for tests.
type HeadlessBackend struct {
	mu      sync.Mutex
	events  chan UiEvent
	icons   []TrayIcon
	started bool
	stopped bool
	closed  bool

	// SetIconErr, when set, is returned by SetIcon.
	SetIconErr error
}

// NewHeadless returns a backend whose event queue holds buffer events.
func NewHeadless(buffer int) *HeadlessBackend {
	return &HeadlessBackend{events: make(chan UiEvent, buffer)}
}

func (b *HeadlessBackend) Name() string { return "headless" }

func (b *HeadlessBackend) RequiresMainThread() bool { return false }

func (b *HeadlessBackend) Start(_ map[TrayIcon][]byte, _ []MenuItem, initial TrayIcon) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.started = true
	b.icons = append(b.icons, initial)
	return nil
}

func (b *HeadlessBackend) Events() <-chan UiEvent { return b.events }

func (b *HeadlessBackend) SetIcon(icon TrayIcon) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.SetIconErr != nil {
		return b.SetIconErr
	}
	b.icons = append(b.icons, icon)
	return nil
}

func (b *HeadlessBackend) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopped = true
}

// Emit queues a UI event as if the user produced it.
func (b *HeadlessBackend) Emit(ev UiEvent) {
	b.events <- ev
}

// Fail closes the event channel, simulating a host failure.
func (b *HeadlessBackend) Fail() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.events)
	}
}

// Icons returns every icon shown so far, starting with the initial one.
func (b *HeadlessBackend) Icons() []TrayIcon {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]TrayIcon(nil), b.icons...)
}

// Stopped reports whether Stop was called.
func (b *HeadlessBackend) Stopped() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stopped
}
