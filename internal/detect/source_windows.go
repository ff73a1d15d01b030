//go:build windows

package detect

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"snipd/internal/logging"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procGetMessageW         = user32.NewProc("GetMessageW")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")
)

const (
	whKeyboardLL = 13
	whMouseLL    = 14

	wmQuit        = 0x0012
	wmKeyDown     = 0x0100
	wmKeyUp       = 0x0101
	wmSysKeyDown  = 0x0104
	wmSysKeyUp    = 0x0105
	wmLButtonDown = 0x0201
	wmLButtonUp   = 0x0202
	wmRButtonDown = 0x0204
	wmRButtonUp   = 0x0205
	wmMButtonDown = 0x0207
	wmMButtonUp   = 0x0208
	wmXButtonDown = 0x020B
	wmXButtonUp   = 0x020C

	// LLKHF_INJECTED: the event came from SendInput, typically our own
	// injected text.
	llkhfInjected = 0x10
)

type kbdllHookStruct struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type msllHookStruct struct {
	X, Y        int32
	MouseData   uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type msg struct {
	Hwnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	X, Y    int32
}

// Hook procedures cannot carry a receiver; only one source can hold the
// instance lock, so a package-level pointer is enough.
var active atomic.Pointer[hookSource]

var (
	keyboardProc = windows.NewCallback(func(code int, wParam, lParam uintptr) uintptr {
		if s := active.Load(); s != nil && code >= 0 {
			s.onKeyboard(uint32(wParam), (*kbdllHookStruct)(unsafe.Pointer(lParam)))
		}
		r, _, _ := procCallNextHookEx.Call(0, uintptr(code), wParam, lParam)
		return r
	})
	mouseProc = windows.NewCallback(func(code int, wParam, lParam uintptr) uintptr {
		if s := active.Load(); s != nil && code >= 0 {
			s.onMouse(uint32(wParam), (*msllHookStruct)(unsafe.Pointer(lParam)))
		}
		r, _, _ := procCallNextHookEx.Call(0, uintptr(code), wParam, lParam)
		return r
	})
)

// hookSource installs low-level keyboard and mouse hooks on a dedicated
// OS thread and pumps its message queue. Hook callbacks run on that thread.
type hookSource struct {
	opts Options
	log  *logging.Logger

	mu          sync.Mutex
	initialized bool
	closed      bool
	lock        *instanceLock

	threadID uint32
	exited   atomic.Bool
	done     chan error
	handler  atomic.Pointer[Handler]
	mods     modTracker
	// held is touched only on the hook thread.
	held     map[uint32]bool
}

func newPlatformSource(opts Options) Source {
	return &hookSource{opts: opts, log: opts.Logger}
}

func (s *hookSource) Initialize() error {
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

	ready := make(chan error, 1)
	s.done = make(chan error, 1)
	go s.hookThread(ready)
	if err := <-ready; err != nil {
		s.lock.release()
		s.lock = nil
		return err
	}

	s.initialized = true
	s.log.Info("input hook installed")
	return nil
}

func (s *hookSource) hookThread(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	s.threadID = windows.GetCurrentThreadId()
	active.Store(s)
	defer active.CompareAndSwap(s, nil)

	kbd, _, err := procSetWindowsHookExW.Call(whKeyboardLL, keyboardProc, 0, 0)
	if kbd == 0 {
		ready <- fmt.Errorf("%w: keyboard hook: %v", ErrHookFailure, err)
		return
	}
	defer procUnhookWindowsHookEx.Call(kbd)

	mouse, _, err := procSetWindowsHookExW.Call(whMouseLL, mouseProc, 0, 0)
	if mouse == 0 {
		ready <- fmt.Errorf("%w: mouse hook: %v", ErrHookFailure, err)
		return
	}
	defer procUnhookWindowsHookEx.Call(mouse)

	ready <- nil

	defer s.exited.Store(true)

	var m msg
	for {
		r, _, err := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		switch int32(r) {
		case 0:
			s.done <- nil
			return
		case -1:
			s.done <- fmt.Errorf("%w: message loop: %v", ErrHookFailure, err)
			return
		}
	}
}

func (s *hookSource) deliver(ev Event) {
	if h := s.handler.Load(); h != nil {
		(*h)(ev)
	}
}

func (s *hookSource) onKeyboard(message uint32, info *kbdllHookStruct) {
	if info.Flags&llkhfInjected != 0 {
		return
	}
	var status Status
	switch message {
	case wmKeyDown, wmSysKeyDown:
		status = Pressed
	case wmKeyUp, wmSysKeyUp:
		status = Released
	default:
		return
	}
	repeat := s.track(info.VkCode, status)
	key := keyFromVK(info.VkCode)
	mods := s.mods.apply(key, status)
	s.deliver(KeyboardEvent{
		Key:       key,
		Code:      info.VkCode,
		Value:     valueFromVK(info.VkCode, mods),
		Status:    status,
		Repeat:    repeat,
		Modifiers: mods,
		At:        time.Now(),
	})
}

// track records which keys are down and reports whether a key down is
// autorepeat. Low-level hooks carry no repeat flag.
func (s *hookSource) track(vk uint32, status Status) bool {
	if s.held == nil {
		s.held = make(map[uint32]bool)
	}
	if status == Released {
		delete(s.held, vk)
		return false
	}
	if s.held[vk] {
		return true
	}
	s.held[vk] = true
	return false
}

func (s *hookSource) onMouse(message uint32, info *msllHookStruct) {
	var (
		button MouseButton
		status Status
	)
	switch message {
	case wmLButtonDown, wmLButtonUp:
		button = ButtonLeft
	case wmRButtonDown, wmRButtonUp:
		button = ButtonRight
	case wmMButtonDown, wmMButtonUp:
		button = ButtonMiddle
	case wmXButtonDown, wmXButtonUp:
		if info.MouseData>>16 == 2 {
			button = ButtonButton2
		} else {
			button = ButtonButton1
		}
	default:
		return
	}
	switch message {
	case wmLButtonUp, wmRButtonUp, wmMButtonUp, wmXButtonUp:
		status = Released
	default:
		status = Pressed
	}
	s.deliver(MouseEvent{Button: button, Status: status, At: time.Now()})
}

func (s *hookSource) Eventloop(ctx context.Context, handler Handler) error {
	s.mu.Lock()
	if !s.initialized || s.closed {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	s.mu.Unlock()

	defer s.Close()

	s.handler.Store(&handler)
	defer s.handler.Store(nil)

	select {
	case err := <-s.done:
		return err
	case <-ctx.Done():
		s.quit()
		<-s.done
		s.log.Info("input event loop stopped")
		return nil
	}
}

func (s *hookSource) quit() {
	r, _, err := procPostThreadMessageW.Call(uintptr(s.threadID), wmQuit, 0, 0)
	if r == 0 && !errors.Is(err, windows.ERROR_SUCCESS) {
		s.log.Warn("post quit to hook thread failed", "error", err)
	}
}

func (s *hookSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.initialized {
		if !s.exited.Load() {
			s.quit()
		}
		s.log.Info("input hook released")
	}
	err := s.lock.release()
	s.lock = nil
	return err
}
