// Package notify shows desktop notifications through the freedesktop
// notification service on the session bus.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"snipd/internal/logging"
)

const (
	busName    = "org.freedesktop.Notifications"
	objectPath = "/org/freedesktop/Notifications"
	notifyCall = busName + ".Notify"

	appName = "snipd"
)

// Urgency is the freedesktop urgency hint.
type Urgency byte

const (
	Low Urgency = iota
	Normal
	Critical
)

// Notifier shows short messages to the user.
type Notifier interface {
	Notify(ctx context.Context, summary, body string, urgency Urgency) error
	Close() error
}

// caller is the part of dbus.BusObject the notifier uses.
type caller interface {
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...any) *dbus.Call
}

// DBusNotifier sends notifications over D-Bus. Each notification replaces
// the previous one so toggling quickly does not pile them up.
type DBusNotifier struct {
	conn    *dbus.Conn
	obj     caller
	timeout time.Duration

	mu     sync.Mutex
	lastID uint32
}

// New connects to the session bus. When notifications are disabled or no
// bus is reachable it returns a Notifier that only logs.
func New(enabled bool, log *logging.Logger) Notifier {
	if log == nil {
		log = logging.Component("notify")
	}
	if !enabled {
		return Discard{log: log}
	}
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		log.Debug("no session bus, notifications disabled", "error", err)
		return Discard{log: log}
	}
	return &DBusNotifier{
		conn:    conn,
		obj:     conn.Object(busName, objectPath),
		timeout: 3 * time.Second,
	}
}

func (n *DBusNotifier) Notify(ctx context.Context, summary, body string, urgency Urgency) error {
	n.mu.Lock()
	replaces := n.lastID
	n.mu.Unlock()

	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(byte(urgency)),
	}
	call := n.obj.CallWithContext(ctx, notifyCall, 0,
		appName, replaces, "", summary, body, []string{}, hints, int32(n.timeout/time.Millisecond))
	if call.Err != nil {
		return fmt.Errorf("notify: %w", call.Err)
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return fmt.Errorf("notify reply: %w", err)
	}
	n.mu.Lock()
	n.lastID = id
	n.mu.Unlock()
	return nil
}

func (n *DBusNotifier) Close() error {
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}

// Discard logs notifications instead of showing them.
type Discard struct {
	log *logging.Logger
}

func (d Discard) Notify(_ context.Context, summary, body string, _ Urgency) error {
	if d.log != nil {
		d.log.Debug("notification", "summary", summary, "body", body)
	}
	return nil
}

func (Discard) Close() error { return nil }
