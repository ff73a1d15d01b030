//go:build linux

package detect

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"snipd/internal/logging"
)

// Linux input_event: struct timeval, then type, code (u16) and value (s32).
var (
	timevalSize = int(unsafe.Sizeof(unix.Timeval{}))
	eventSize   = timevalSize + 8
)

const (
	evKey = 0x01

	keyReleased = 0
	keyPressed  = 1
	keyRepeated = 2
)

// evdevSource reads every keyboard and mouse device under /dev/input and
// multiplexes them with poll(2) on a single thread.
type evdevSource struct {
	opts Options
	log  *logging.Logger

	mu          sync.Mutex
	initialized bool
	closed      bool
	lock        *instanceLock
	devices     []device
	wake        [2]int

	mods modTracker
}

type device struct {
	path string
	fd   int
}

func newPlatformSource(opts Options) Source {
	return &evdevSource{opts: opts, log: opts.Logger, wake: [2]int{-1, -1}}
}

func (s *evdevSource) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	if s.closed {
		return fmt.Errorf("%w: source already closed", ErrHookFailure)
	}

	lock, err := acquireLock(s.opts.LockPath)
	if err != nil {
		return wrapHookFailure(err)
	}
	s.lock = lock

	paths := s.opts.Devices
	if len(paths) == 0 {
		paths, err = discoverDevices()
		if err != nil {
			s.releaseLocked()
			return fmt.Errorf("%w: find input devices: %v", ErrHookFailure, err)
		}
	}

	for _, path := range paths {
		fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
		if err != nil {
			s.log.Warn("cannot open input device", "device", path, "error", err)
			continue
		}
		s.devices = append(s.devices, device{path: path, fd: fd})
	}
	if len(s.devices) == 0 {
		s.releaseLocked()
		return fmt.Errorf("%w: no readable input devices (need to be in the 'input' group or run as root)", ErrHookFailure)
	}

	var p [2]int
	if err := unix.Pipe2(p[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		s.releaseLocked()
		return fmt.Errorf("%w: wake pipe: %v", ErrHookFailure, err)
	}
	s.wake = p

	s.initialized = true
	s.log.Info("input hook installed", "devices", len(s.devices))
	return nil
}

func (s *evdevSource) Eventloop(ctx context.Context, handler Handler) error {
	s.mu.Lock()
	if !s.initialized || s.closed {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	devices := append([]device(nil), s.devices...)
	wakeR, wakeW := s.wake[0], s.wake[1]
	s.mu.Unlock()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	// Deferred first so it runs last, after a panicking handler unwinds too.
	defer s.Close()

	stop := context.AfterFunc(ctx, func() {
		unix.Write(wakeW, []byte{0})
	})
	defer stop()

	fds := make([]unix.PollFd, 0, len(devices)+1)
	fds = append(fds, unix.PollFd{Fd: int32(wakeR), Events: unix.POLLIN})
	for _, d := range devices {
		fds = append(fds, unix.PollFd{Fd: int32(d.fd), Events: unix.POLLIN})
	}

	live := len(devices)
	buf := make([]byte, eventSize*64)
	var batch []rawEvent

	for {
		if _, err := unix.Poll(fds, -1); err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("%w: poll: %v", ErrHookFailure, err)
		}
		if fds[0].Revents != 0 {
			s.log.Info("input event loop stopped")
			return nil
		}

		batch = batch[:0]
		for i := 1; i < len(fds); i++ {
			pfd := &fds[i]
			if pfd.Fd < 0 || pfd.Revents == 0 {
				continue
			}
			if pfd.Revents&unix.POLLIN != 0 {
				batch = s.drain(int(pfd.Fd), buf, batch)
			}
			if pfd.Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
				s.log.Warn("input device went away", "device", devices[i-1].path)
				pfd.Fd = -1
				live--
			}
		}

		// Devices are read one after another; the kernel timestamps put the
		// batch back into the order the events happened.
		sort.SliceStable(batch, func(a, b int) bool { return batch[a].at.Before(batch[b].at) })
		for _, raw := range batch {
			if ev := s.translate(raw); ev != nil {
				handler(ev)
			}
		}

		if live == 0 {
			return fmt.Errorf("%w: all input devices disconnected", ErrHookFailure)
		}
	}
}

type rawEvent struct {
	at    time.Time
	typ   uint16
	code  uint16
	value int32
}

func (s *evdevSource) drain(fd int, buf []byte, batch []rawEvent) []rawEvent {
	for {
		n, err := unix.Read(fd, buf)
		if err != nil || n < eventSize {
			return batch
		}
		for off := 0; off+eventSize <= n; off += eventSize {
			batch = append(batch, decodeEvent(buf[off:off+eventSize]))
		}
		if n < len(buf) {
			return batch
		}
	}
}

func decodeEvent(b []byte) rawEvent {
	half := timevalSize / 2
	var sec, usec int64
	if half == 8 {
		sec = int64(binary.NativeEndian.Uint64(b[0:8]))
		usec = int64(binary.NativeEndian.Uint64(b[8:16]))
	} else {
		sec = int64(int32(binary.NativeEndian.Uint32(b[0:4])))
		usec = int64(int32(binary.NativeEndian.Uint32(b[4:8])))
	}
	rest := b[timevalSize:]
	return rawEvent{
		at:    time.Unix(sec, usec*1000),
		typ:   binary.NativeEndian.Uint16(rest[0:2]),
		code:  binary.NativeEndian.Uint16(rest[2:4]),
		value: int32(binary.NativeEndian.Uint32(rest[4:8])),
	}
}

// translate converts an evdev record into an Event. Synchronisation,
// relative motion and other records yield nil.
func (s *evdevSource) translate(raw rawEvent) Event {
	if raw.typ != evKey {
		return nil
	}
	var status Status
	switch raw.value {
	case keyPressed, keyRepeated:
		status = Pressed
	case keyReleased:
		status = Released
	default:
		return nil
	}

	if button, ok := mouseButtons[raw.code]; ok {
		return MouseEvent{Button: button, Status: status, At: raw.at}
	}

	key := keyFromCode(raw.code)
	mods := s.mods.apply(key, status)
	return KeyboardEvent{
		Key:       key,
		Code:      uint32(raw.code),
		Value:     valueFromCode(raw.code, mods),
		Status:    status,
		Repeat:    raw.value == keyRepeated,
		Modifiers: mods,
		At:        raw.at,
	}
}

func (s *evdevSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.releaseLocked()
}

func (s *evdevSource) releaseLocked() error {
	for _, d := range s.devices {
		unix.Close(d.fd)
	}
	s.devices = nil
	for i, fd := range s.wake {
		if fd >= 0 {
			unix.Close(fd)
			s.wake[i] = -1
		}
	}
	err := s.lock.release()
	s.lock = nil
	if s.initialized {
		s.log.Info("input hook released")
	}
	return err
}

// discoverDevices lists the event nodes of keyboards and mice.
func discoverDevices() ([]string, error) {
	f, err := os.Open("/proc/bus/input/devices")
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseDevices(f, "/dev/input"), nil
}

// parseDevices reads the /proc/bus/input/devices format and returns the
// event nodes whose handlers include kbd or mouse.
func parseDevices(r io.Reader, dir string) []string {
	var (
		devices  []string
		event    string
		relevant bool
	)
	flush := func() {
		if relevant && event != "" {
			devices = append(devices, filepath.Join(dir, event))
		}
		event, relevant = "", false
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			flush()
			continue
		}
		if !strings.HasPrefix(line, "H: Handlers=") {
			continue
		}
		for _, h := range strings.Fields(strings.TrimPrefix(line, "H: Handlers=")) {
			switch {
			case strings.HasPrefix(h, "event"):
				event = h
			case h == "kbd" || strings.HasPrefix(h, "mouse"):
				relevant = true
			}
		}
	}
	flush()
	return devices
}
