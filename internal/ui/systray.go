package ui

import (
	"fmt"
	"sync"

	"fyne.io/systray"

	"snipd/internal/logging"
)

// SystrayBackend shows the indicator through fyne.io/systray in external
// loop mode: the event loop owns the thread and systray only draws.
type SystrayBackend struct {
	log *logging.Logger

	mu       sync.Mutex
	icons    map[TrayIcon][]byte
	events   chan UiEvent
	appStart func()
	appClose func()
	stopped  bool
}

// NewSystray creates the fyne.io/systray backend.
func NewSystray(log *logging.Logger) *SystrayBackend {
	if log == nil {
		log = logging.Component("ui")
	}
	return &SystrayBackend{
		log:    log,
		events: make(chan UiEvent, 16),
	}
}

func (b *SystrayBackend) Name() string { return "systray" }

func (b *SystrayBackend) RequiresMainThread() bool { return true }

func (b *SystrayBackend) Start(icons map[TrayIcon][]byte, menu []MenuItem, initial TrayIcon) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := icons[initial]; !ok {
		return fmt.Errorf("no image for initial tray icon %s", initial)
	}
	b.icons = icons

	onReady := func() {
		systray.SetTitle("snipd")
		systray.SetTooltip("snipd")
		systray.SetIcon(icons[initial])
		systray.SetOnTapped(func() { b.emit(TrayIconClick{}) })

		for _, item := range menu {
			if item.ID == MenuQuit {
				systray.AddSeparator()
			}
			mi := systray.AddMenuItem(item.Title, item.Tooltip)
			id := item.ID
			go func() {
				for range mi.ClickedCh {
					b.emit(ContextMenuClick{ID: id})
				}
			}()
		}
	}
	onExit := func() {
		b.log.Info("tray exiting")
	}

	b.appStart, b.appClose = systray.RunWithExternalLoop(onReady, onExit)
	b.appStart()
	return nil
}

func (b *SystrayBackend) emit(ev UiEvent) {
	select {
	case b.events <- ev:
	default:
		b.log.Warn("tray event dropped, loop is busy", "event", fmt.Sprintf("%T", ev))
	}
}

func (b *SystrayBackend) Events() <-chan UiEvent { return b.events }

func (b *SystrayBackend) SetIcon(icon TrayIcon) error {
	b.mu.Lock()
	data, ok := b.icons[icon]
	b.mu.Unlock()
	if !ok {
		b.log.Warn("no image for tray icon, keeping the current one", "icon", icon)
		return nil
	}
	systray.SetIcon(data)
	return nil
}

func (b *SystrayBackend) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}
	b.stopped = true
	if b.appClose != nil {
		b.appClose()
	}
}
