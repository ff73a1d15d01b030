// Package detect captures keyboard and mouse activity system-wide.
//
// A Source owns the OS hook. Initialize acquires it once; Eventloop then
// blocks on a thread of its own and calls the handler synchronously, in the
// order the OS produced the events. The hook is released when Eventloop
// returns, whether by cancellation, error or a panicking handler.
//
// Platform support:
//   - Linux: evdev devices under /dev/input (requires the input group or root)
//   - Windows: WH_KEYBOARD_LL and WH_MOUSE_LL hooks
//
// Only one snipd process may own the hook at a time; a second Initialize
// fails with ErrAlreadyRunning.
package detect

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"snipd/internal/logging"
)

var (
	// ErrHookFailure is returned when the OS hook cannot be installed or
	// maintained. Continuing without input capture is pointless, so callers
	// treat it as fatal.
	ErrHookFailure = errors.New("detect: input hook failure")

	// ErrAlreadyRunning is returned when another process owns the hook.
	ErrAlreadyRunning = errors.New("detect: another instance owns input capture")

	// ErrNotInitialized is returned by Eventloop before Initialize.
	ErrNotInitialized = errors.New("detect: source not initialized")
)

// Handler receives each event on the source's thread. It must return
// quickly and must not block on UI work.
type Handler func(Event)

// Source is a system-wide input event source.
type Source interface {
	// Initialize acquires the OS hook. Calling it again is a no-op.
	Initialize() error

	// Eventloop delivers events to handler until ctx is done. It releases
	// the hook before returning.
	Eventloop(ctx context.Context, handler Handler) error

	// Close releases the hook if Eventloop never ran. It is safe to call
	// more than once.
	Close() error
}

// Options configure a platform source.
type Options struct {
	// Devices overrides device discovery (Linux evdev paths).
	Devices []string

	// LockPath is the single-instance lock file.
	LockPath string

	Logger *logging.Logger
}

// DefaultLockPath returns the lock file used when Options.LockPath is empty.
func DefaultLockPath() string {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "snipd.lock")
}

// New creates the Source for the current platform.
func New(opts Options) Source {
	if opts.LockPath == "" {
		opts.LockPath = DefaultLockPath()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Component("detect")
	}
	return newPlatformSource(opts)
}

func wrapHookFailure(err error) error {
	return fmt.Errorf("%w: %w", ErrHookFailure, err)
}
