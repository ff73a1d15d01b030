package ui

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"snipd/internal/logging"
)

var (
	// ErrThreadViolation is returned by Initialize when the backend needs
	// the main thread and the caller is elsewhere. It is a programming
	// error; callers exit.
	ErrThreadViolation = errors.New("ui: event loop must be initialized on the main thread")

	// ErrInvalidState is returned for lifecycle calls out of order.
	ErrInvalidState = errors.New("ui: invalid event loop state")
)

// State is the lifecycle stage of an EventLoop.
type State int

const (
	Uninitialized State = iota
	Initialized
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// EventLoop owns the tray. It alternates between user interaction from
// the backend and commands sent through the Remote.
type EventLoop struct {
	opts    Options
	backend Backend
	remote  *Remote
	log     *logging.Logger

	mu    sync.Mutex
	state State
	icon  TrayIcon
}

// State returns the current lifecycle stage.
func (l *EventLoop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Icon returns the icon state last applied.
func (l *EventLoop) Icon() TrayIcon {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.icon
}

func (l *EventLoop) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}

// Initialize loads the icons and shows the indicator.
func (l *EventLoop) Initialize() error {
	if st := l.State(); st != Uninitialized {
		return fmt.Errorf("%w: initialize in state %s", ErrInvalidState, st)
	}
	if l.backend.RequiresMainThread() && !onMainThread() {
		return ErrThreadViolation
	}

	icons, err := l.loadIcons()
	if err != nil {
		return err
	}
	if err := l.backend.Start(icons, l.opts.Menu, l.Icon()); err != nil {
		return fmt.Errorf("start %s tray: %w", l.backend.Name(), err)
	}

	l.setState(Initialized)
	l.observeIcon(l.Icon())
	l.log.Info("tray initialized", "backend", l.backend.Name(), "show_icon", l.opts.ShowIcon)
	return nil
}

func (l *EventLoop) loadIcons() (map[TrayIcon][]byte, error) {
	icons := make(map[TrayIcon][]byte, len(l.opts.IconPaths))
	if !l.opts.ShowIcon {
		return icons, nil
	}
	if _, ok := l.opts.IconPaths[Normal]; !ok {
		return nil, fmt.Errorf("no image configured for the %s tray icon", Normal)
	}
	for icon, path := range l.opts.IconPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load %s tray icon: %w", icon, err)
		}
		icons[icon] = data
	}
	return icons, nil
}

// Run processes UI events and Remote commands until Exit is requested or
// the backend fails. handler is called on the loop's goroutine and must
// not block. The loop ends in Stopped either way.
func (l *EventLoop) Run(handler func(UiEvent)) error {
	l.mu.Lock()
	if l.state != Initialized {
		st := l.state
		l.mu.Unlock()
		return fmt.Errorf("%w: run in state %s", ErrInvalidState, st)
	}
	l.state = Running
	l.mu.Unlock()

	defer func() {
		l.remote.close()
		l.backend.Stop()
		l.setState(Stopped)
		l.log.Info("tray event loop stopped", "dropped_commands", l.remote.Dropped())
	}()

	var heartbeat <-chan time.Time
	if l.opts.HeartbeatInterval > 0 {
		t := time.NewTicker(l.opts.HeartbeatInterval)
		defer t.Stop()
		heartbeat = t.C
	}

	events := l.backend.Events()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return ErrBackendClosed
			}
			handler(ev)

		case <-l.remote.notify:
			for _, c := range l.remote.drain() {
				if l.opts.Metrics != nil {
					l.opts.Metrics.RemoteCommands.WithLabelValues(c.kind.String()).Inc()
				}
				switch c.kind {
				case cmdExit:
					return nil
				case cmdSetIcon:
					if err := l.apply(c.icon); err != nil {
						return err
					}
				}
			}

		case <-heartbeat:
			handler(Heartbeat{})
		}
	}
}

func (l *EventLoop) apply(icon TrayIcon) error {
	if err := l.backend.SetIcon(icon); err != nil {
		return fmt.Errorf("set tray icon %s: %w", icon, err)
	}
	l.mu.Lock()
	l.icon = icon
	l.mu.Unlock()
	l.observeIcon(icon)
	l.log.Debug("tray icon updated", "icon", icon)
	return nil
}

func (l *EventLoop) observeIcon(icon TrayIcon) {
	if l.opts.Metrics == nil {
		return
	}
	for _, i := range AllIcons() {
		v := 0.0
		if i == icon {
			v = 1
		}
		l.opts.Metrics.TrayIcon.WithLabelValues(i.String()).Set(v)
	}
}
