// Package daemon wires input capture, the tray and the render engine into
// the long running snipd process.
//
// The monitor thread only observes events and flips state. Tray changes go
// through the ui.Remote and notifications are sent from their own goroutine.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"snipd/internal/config"
	"snipd/internal/detect"
	"snipd/internal/extension"
	"snipd/internal/health"
	"snipd/internal/logging"
	"snipd/internal/match"
	"snipd/internal/metrics"
	"snipd/internal/notify"
	"snipd/internal/render"
	"snipd/internal/store"
	"snipd/internal/ui"
)

// ErrUnknownTrigger is returned by Expand for triggers no match defines.
var ErrUnknownTrigger = errors.New("daemon: unknown trigger")

const notifyTimeout = 5 * time.Second

// Options configure a Daemon. Config, Source and Backend are required.
type Options struct {
	Config  *config.Config
	Source  detect.Source
	Backend ui.Backend

	// Registry defaults to the builtin extensions.
	Registry *extension.Registry

	// Matches is the initial match set; empty when nil.
	Matches *match.Set

	// History, when set, records every expansion.
	History *store.Store

	Notifier notify.Notifier
	Metrics  *metrics.Metrics
	Logger   *logging.Logger

	// WatchMatches reloads the match directory while running.
	WatchMatches bool
}

// Daemon is the snipd process state.
type Daemon struct {
	opts     Options
	log      *logging.Logger
	expander *Expander
	remote   *ui.Remote
	loop   *ui.EventLoop
	health *health.Checker

	matches atomic.Pointer[match.Set]
	toggle  atomic.Pointer[detect.DoublePress]
	enabled atomic.Bool
	input   atomic.Bool

	notifications sync.WaitGroup
}

// New builds a Daemon. Nothing is acquired until Initialize.
func New(opts Options) (*Daemon, error) {
	if opts.Config == nil || opts.Source == nil || opts.Backend == nil {
		return nil, errors.New("daemon: config, source and backend are required")
	}
	if opts.Logger == nil {
		opts.Logger = logging.Component("daemon")
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.New(false, opts.Logger)
	}
	if opts.Registry == nil {
		opts.Registry = extension.Builtin(extension.BuiltinOptions{
			Logger:       opts.Logger.WithComponent("extension"),
			ShellTimeout: opts.Config.ShellTimeout(),
		})
	}

	toggle, err := newToggle(opts.Config)
	if err != nil {
		return nil, err
	}

	remote, loop := ui.Create(trayOptions(opts), opts.Backend)
	d := &Daemon{
		opts:   opts,
		log:    opts.Logger,
		remote: remote,
		loop:   loop,
		health: health.NewChecker(),
	}
	d.expander = &Expander{
		Engine:  render.NewEngine(opts.Registry, opts.Logger.WithComponent("render"), opts.Metrics),
		History: opts.History,
		Logger:  opts.Logger,
		OnFailure: func(trigger string, err error) {
			d.notify(fmt.Sprintf("Expansion %q failed: %v", trigger, err), notify.Critical)
		},
	}
	d.toggle.Store(toggle)
	d.enabled.Store(true)

	set := opts.Matches
	if set == nil {
		set, _ = match.NewSet(nil)
	}
	d.matches.Store(set)
	d.registerChecks()
	return d, nil
}

func (d *Daemon) registerChecks() {
	d.health.Register("input", true, func(context.Context) health.Result {
		if !d.input.Load() {
			return health.Result{Status: health.StatusUnhealthy, Message: "input monitor not running"}
		}
		return health.Result{Status: health.StatusHealthy}
	})
	d.health.Register("tray", true, func(context.Context) health.Result {
		if st := d.loop.State(); st != ui.Running {
			return health.Result{Status: health.StatusUnhealthy, Message: "event loop " + st.String()}
		}
		return health.Result{Status: health.StatusHealthy, Message: "icon " + d.loop.Icon().String()}
	})
	d.health.Register("matches", false, func(context.Context) health.Result {
		n := len(d.Matches().Triggers())
		if n == 0 {
			return health.Result{Status: health.StatusDegraded, Message: "no triggers loaded"}
		}
		return health.Result{Status: health.StatusHealthy, Message: fmt.Sprintf("%d triggers", n)}
	})
	if d.opts.History != nil {
		d.health.Register("history", false, health.Func(d.opts.History.Ping))
	}
}

func trayOptions(opts Options) ui.Options {
	icons := make(map[ui.TrayIcon]string, len(opts.Config.Tray.Icons))
	for name, path := range opts.Config.Tray.Icons {
		icon, err := ui.ParseTrayIcon(name)
		if err != nil {
			opts.Logger.Warn("ignoring unknown tray icon", "name", name)
			continue
		}
		icons[icon] = path
	}
	return ui.Options{
		ShowIcon:          opts.Config.Tray.ShowIcon,
		IconPaths:         icons,
		QueueSize:         opts.Config.Tray.QueueSize,
		HeartbeatInterval: opts.Config.HeartbeatInterval(),
		Logger:            opts.Logger.WithComponent("ui"),
		Metrics:           opts.Metrics,
	}
}

// newToggle returns nil when no toggle key is configured.
func newToggle(cfg *config.Config) (*detect.DoublePress, error) {
	if cfg.Input.ToggleKey == "" {
		return nil, nil
	}
	key, err := detect.ParseKey(cfg.Input.ToggleKey)
	if err != nil {
		return nil, fmt.Errorf("toggle key: %w", err)
	}
	return &detect.DoublePress{Key: key, Window: cfg.ToggleWindow()}, nil
}

// Remote returns the handle used to command the tray.
func (d *Daemon) Remote() *ui.Remote { return d.remote }

// Loop returns the tray event loop.
func (d *Daemon) Loop() *ui.EventLoop { return d.loop }

// Health returns the component health checker.
func (d *Daemon) Health() *health.Checker { return d.health }

// Initialize acquires the input hook and the tray. It must be called on
// the main goroutine when the tray backend requires it. Either failure is
// fatal; the hook is released again if the tray cannot start.
func (d *Daemon) Initialize() error {
	if err := d.opts.Source.Initialize(); err != nil {
		return fmt.Errorf("initialize input monitor: %w", err)
	}
	if err := d.loop.Initialize(); err != nil {
		if cerr := d.opts.Source.Close(); cerr != nil {
			d.log.Warn("release input hook", "error", cerr)
		}
		return fmt.Errorf("initialize tray: %w", err)
	}
	return nil
}

// Run blocks in the tray event loop until ctx is done, the tray is asked
// to exit, or a background task fails. The input monitor, the metrics
// endpoint and the match watcher run beside it and stop with it. Run must
// be called on the goroutine that called Initialize.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	stop := context.AfterFunc(gctx, d.remote.Exit)
	defer stop()

	d.input.Store(true)
	g.Go(func() error {
		defer d.input.Store(false)
		return d.opts.Source.Eventloop(gctx, d.HandleInput)
	})

	if d.opts.Metrics != nil && d.opts.Config.Metrics.Enabled {
		addr := d.opts.Config.Metrics.Listen
		g.Go(func() error {
			d.log.Info("serving metrics", "addr", addr)
			routes := map[string]http.Handler{
				"/livez":   d.health.LivenessHandler(),
				"/readyz":  d.health.ReadinessHandler(),
				"/healthz": d.health.Handler(),
			}
			if err := d.opts.Metrics.Serve(gctx, addr, routes); err != nil {
				return fmt.Errorf("metrics endpoint: %w", err)
			}
			return nil
		})
	}

	if d.opts.WatchMatches && d.opts.Config.Render.MatchDir != "" {
		dir := d.opts.Config.Render.MatchDir
		g.Go(func() error {
			return match.Watch(gctx, dir, d.log.WithComponent("match"), d.SetMatches)
		})
	}

	d.log.Info("snipd running", "enabled", d.Enabled(), "triggers", len(d.Matches().Triggers()))
	d.health.SetReady(true)
	loopErr := d.loop.Run(d.HandleUI)
	d.health.SetReady(false)

	cancel()
	err := g.Wait()
	d.notifications.Wait()
	if loopErr != nil {
		return loopErr
	}
	return err
}

// HandleInput is the monitor callback. It runs on the monitor thread.
func (d *Daemon) HandleInput(ev detect.Event) {
	if d.opts.Metrics != nil {
		d.opts.Metrics.InputEvents.WithLabelValues(eventKind(ev)).Inc()
	}
	if t := d.toggle.Load(); t != nil && t.Observe(ev) {
		d.Toggle()
	}
}

func eventKind(ev detect.Event) string {
	switch ev.(type) {
	case detect.KeyboardEvent:
		return "keyboard"
	case detect.MouseEvent:
		return "mouse"
	}
	return "unknown"
}

// HandleUI is the tray callback. It runs on the event loop goroutine.
func (d *Daemon) HandleUI(ev ui.UiEvent) {
	switch ev := ev.(type) {
	case ui.TrayIconClick:
		d.log.Debug("tray icon clicked")
	case ui.ContextMenuClick:
		switch ev.ID {
		case ui.MenuToggle:
			d.Toggle()
		case ui.MenuQuit:
			d.log.Info("quit requested from tray")
			d.remote.Exit()
		default:
			d.log.Warn("unknown menu item", "id", ev.ID)
		}
	}
}

// Enabled reports whether expansions are currently active.
func (d *Daemon) Enabled() bool { return d.enabled.Load() }

// Toggle flips the enabled state.
func (d *Daemon) Toggle() {
	d.SetEnabled(!d.enabled.Load())
}

// SetEnabled switches expansions on or off and updates the tray icon.
func (d *Daemon) SetEnabled(on bool) {
	if d.enabled.Swap(on) == on {
		return
	}
	icon, body := ui.Normal, "Expansions enabled"
	if !on {
		icon, body = ui.Disabled, "Expansions disabled"
	}
	d.log.Info("expansion state changed", "enabled", on)
	d.remote.UpdateTrayIcon(icon)
	d.notify(body, notify.Low)
}

func (d *Daemon) notify(body string, urgency notify.Urgency) {
	d.notifications.Add(1)
	go func() {
		defer d.notifications.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := d.opts.Notifier.Notify(ctx, "snipd", body, urgency); err != nil {
			d.log.Debug("notification failed", "error", err)
		}
	}()
}

// Matches returns the current match set.
func (d *Daemon) Matches() *match.Set { return d.matches.Load() }

// SetMatches replaces the match set.
func (d *Daemon) SetMatches(set *match.Set) {
	if err := set.Check(d.opts.Registry); err != nil {
		d.log.Warn("match set references unusable extensions", "error", err)
	}
	d.matches.Store(set)
}

// ApplyConfig adopts the live-reloadable parts of cfg. Tray and input
// device settings take effect on restart.
func (d *Daemon) ApplyConfig(cfg *config.Config) {
	toggle, err := newToggle(cfg)
	if err != nil {
		d.log.Warn("keeping previous toggle key", "error", err)
	} else {
		d.toggle.Store(toggle)
	}
	if cfg.Tray.ShowIcon != d.opts.Config.Tray.ShowIcon {
		d.log.Info("tray visibility changes on restart", "show_icon", cfg.Tray.ShowIcon)
	}
	d.log.Info("configuration reloaded", "toggle_key", cfg.Input.ToggleKey)
}

// Expand renders the match for trigger with args and records the pass in
// the history store. Disabled daemons still expand on explicit request.
func (d *Daemon) Expand(ctx context.Context, trigger string, args []string) (string, error) {
	m, ok := d.Matches().Find(trigger)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTrigger, trigger)
	}
	return d.expander.Expand(ctx, trigger, m, args)
}

// PruneHistory drops history entries older than the configured retention.
func (d *Daemon) PruneHistory(ctx context.Context) {
	days := d.opts.Config.History.RetainDays
	if d.opts.History == nil || days <= 0 {
		return
	}
	n, err := d.opts.History.Prune(ctx, time.Now().AddDate(0, 0, -days))
	if err != nil {
		d.log.Warn("prune history", "error", err)
		return
	}
	if n > 0 {
		d.log.Info("pruned history", "entries", n, "retain_days", days)
	}
}
