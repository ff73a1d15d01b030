package ui

import (
	"time"

	"snipd/internal/logging"
	"snipd/internal/metrics"
)

// DefaultQueueSize bounds the Remote command queue.
const DefaultQueueSize = 64

// Options configure the tray and its event loop.
type Options struct {
	// ShowIcon hides the indicator when false; commands still update the
	// loop's state.
	ShowIcon bool

	// IconPaths maps each state to an image file. Normal is required when
	// ShowIcon is set.
	IconPaths map[TrayIcon]string

	// Menu is the context menu; DefaultMenu when empty.
	Menu []MenuItem

	QueueSize int

	// HeartbeatInterval paces Heartbeat events; zero disables them.
	HeartbeatInterval time.Duration

	Logger  *logging.Logger
	Metrics *metrics.Metrics
}

// Create returns a connected Remote and EventLoop over backend.
func Create(opts Options, backend Backend) (*Remote, *EventLoop) {
	if opts.Logger == nil {
		opts.Logger = logging.Component("ui")
	}
	if len(opts.Menu) == 0 {
		opts.Menu = DefaultMenu()
	}
	remote := newRemote(opts.QueueSize, opts.Metrics)
	loop := &EventLoop{
		opts:    opts,
		backend: backend,
		remote:  remote,
		log:     opts.Logger,
		icon:    Normal,
	}
	return remote, loop
}
