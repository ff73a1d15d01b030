package ui

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snipd/internal/metrics"
)

func startLoop(t *testing.T, opts Options, backend Backend, handler func(UiEvent)) (*Remote, *EventLoop, <-chan error) {
	t.Helper()
	remote, loop := Create(opts, backend)
	require.NoError(t, loop.Initialize())
	assert.Equal(t, Initialized, loop.State())

	done := make(chan error, 1)
	go func() { done <- loop.Run(handler) }()
	require.Eventually(t, func() bool { return loop.State() == Running }, 2*time.Second, time.Millisecond)
	return remote, loop, done
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("event loop did not stop")
		return nil
	}
}

func TestEventLoopAppliesCommandsInOrder(t *testing.T) {
	backend := NewHeadless(4)
	m := metrics.New()
	remote, loop, done := startLoop(t, Options{Metrics: m}, backend, func(UiEvent) {})

	remote.UpdateTrayIcon(Disabled)
	remote.UpdateTrayIcon(Normal)
	remote.UpdateTrayIcon(Disabled)
	remote.Exit()

	require.NoError(t, waitDone(t, done))
	assert.Equal(t, []TrayIcon{Normal, Disabled, Normal, Disabled}, backend.Icons())
	assert.Equal(t, Disabled, loop.Icon())
	assert.Equal(t, Stopped, loop.State())
	assert.True(t, backend.Stopped())

	assert.Equal(t, 3.0, testutil.ToFloat64(m.RemoteCommands.WithLabelValues("set_icon")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TrayIcon.WithLabelValues("disabled")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.TrayIcon.WithLabelValues("normal")))
}

func TestEventLoopExitSurvivesFullQueue(t *testing.T) {
	backend := NewHeadless(4)
	remote, loop := Create(Options{QueueSize: 2}, backend)
	require.NoError(t, loop.Initialize())

	remote.Exit()
	remote.UpdateTrayIcon(Disabled)
	remote.UpdateTrayIcon(Normal)

	done := make(chan error, 1)
	go func() { done <- loop.Run(func(UiEvent) {}) }()
	require.NoError(t, waitDone(t, done))
	assert.Equal(t, Stopped, loop.State())
	assert.Equal(t, uint64(1), remote.Dropped())
}

func TestEventLoopIconUnchangedWithoutCommands(t *testing.T) {
	backend := NewHeadless(4)
	events := make(chan UiEvent, 4)
	remote, loop, done := startLoop(t, Options{}, backend, func(ev UiEvent) { events <- ev })

	backend.Emit(TrayIconClick{})
	backend.Emit(ContextMenuClick{ID: MenuToggle})
	assert.Equal(t, TrayIconClick{}, <-events)
	assert.Equal(t, ContextMenuClick{ID: MenuToggle}, <-events)
	assert.Equal(t, Normal, loop.Icon())

	remote.Exit()
	require.NoError(t, waitDone(t, done))
	assert.Equal(t, []TrayIcon{Normal}, backend.Icons())
}

func TestEventLoopHeartbeat(t *testing.T) {
	backend := NewHeadless(1)
	beats := make(chan UiEvent, 16)
	remote, _, done := startLoop(t, Options{HeartbeatInterval: 5 * time.Millisecond}, backend, func(ev UiEvent) {
		select {
		case beats <- ev:
		default:
		}
	})

	select {
	case ev := <-beats:
		assert.Equal(t, Heartbeat{}, ev)
	case <-time.After(2 * time.Second):
		t.Fatal("no heartbeat")
	}
	remote.Exit()
	require.NoError(t, waitDone(t, done))
}

func TestEventLoopBackendFailure(t *testing.T) {
	backend := NewHeadless(1)
	remote, loop, done := startLoop(t, Options{}, backend, func(UiEvent) {})

	backend.Fail()
	assert.ErrorIs(t, waitDone(t, done), ErrBackendClosed)
	assert.Equal(t, Stopped, loop.State())

	// The loop is gone; late commands are discarded.
	remote.UpdateTrayIcon(Disabled)
	assert.Nil(t, remote.drain())
}

func TestEventLoopSetIconFailure(t *testing.T) {
	backend := NewHeadless(1)
	backend.SetIconErr = errors.New("display gone")
	remote, loop, done := startLoop(t, Options{}, backend, func(UiEvent) {})

	remote.UpdateTrayIcon(SystemDisabled)
	err := waitDone(t, done)
	assert.ErrorContains(t, err, "display gone")
	assert.Equal(t, Normal, loop.Icon())
}

func TestEventLoopLifecycle(t *testing.T) {
	_, loop := Create(Options{}, NewHeadless(1))
	assert.Equal(t, Uninitialized, loop.State())
	assert.ErrorIs(t, loop.Run(func(UiEvent) {}), ErrInvalidState)

	require.NoError(t, loop.Initialize())
	assert.ErrorIs(t, loop.Initialize(), ErrInvalidState)
}

func TestEventLoopStoppedIsTerminal(t *testing.T) {
	backend := NewHeadless(1)
	remote, loop, done := startLoop(t, Options{}, backend, func(UiEvent) {})
	remote.Exit()
	require.NoError(t, waitDone(t, done))

	assert.ErrorIs(t, loop.Run(func(UiEvent) {}), ErrInvalidState)
	assert.ErrorIs(t, loop.Initialize(), ErrInvalidState)
}

func TestEventLoopLoadsIcons(t *testing.T) {
	dir := t.TempDir()
	normal := filepath.Join(dir, "normal.png")
	require.NoError(t, os.WriteFile(normal, []byte("png"), 0o600))

	_, loop := Create(Options{
		ShowIcon:  true,
		IconPaths: map[TrayIcon]string{Normal: normal},
	}, NewHeadless(1))
	require.NoError(t, loop.Initialize())

	_, loop = Create(Options{
		ShowIcon:  true,
		IconPaths: map[TrayIcon]string{Normal: normal, Disabled: filepath.Join(dir, "missing.png")},
	}, NewHeadless(1))
	assert.ErrorIs(t, loop.Initialize(), os.ErrNotExist)

	_, loop = Create(Options{ShowIcon: true}, NewHeadless(1))
	assert.Error(t, loop.Initialize())
	assert.Equal(t, Uninitialized, loop.State())
}

type mainThreadBackend struct{ *HeadlessBackend }

func (mainThreadBackend) RequiresMainThread() bool { return true }

func TestEventLoopThreadViolation(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "windows" {
		t.Skip("thread identity is only checked on linux and windows")
	}
	_, loop := Create(Options{}, mainThreadBackend{NewHeadless(1)})

	errCh := make(chan error, 1)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		errCh <- loop.Initialize()
	}()
	assert.ErrorIs(t, <-errCh, ErrThreadViolation)
	assert.Equal(t, Uninitialized, loop.State())
}
