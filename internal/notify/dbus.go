//go:build linux

package notify

import (
	"fmt"
	"slices"
	"strings"

	"github.com/godbus/dbus/v5"
)

const (
	dbusNotifyDest      = "org.freedesktop.Notifications"
	dbusNotifyPath      = "/org/freedesktop/Notifications"
	dbusNotifyInterface = "org.freedesktop.Notifications"

	capBodyMarkup = "body-markup"
)

var markupEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// dbusNotifier sends notifications via D-Bus.
type dbusNotifier struct {
	conn         *dbus.Conn
	obj          dbus.BusObject
	appName      string
	desktopEntry string
	markup       bool // server renders body markup
}

// New creates a Notifier that sends desktop notifications via D-Bus.
// When the session bus is unreachable the returned notifier fails every
// Notify call with ErrUnavailable, so callers can keep running.
func New(appName, desktopEntry string) (Notifier, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return &stubNotifier{err: fmt.Errorf("%w: %w", ErrUnavailable, err)}, nil
	}

	obj := conn.Object(dbusNotifyDest, dbusNotifyPath)
	return &dbusNotifier{
		conn:         conn,
		obj:          obj,
		appName:      appName,
		desktopEntry: desktopEntry,
		markup:       hasCapability(obj, capBodyMarkup),
	}, nil
}

// hasCapability asks the server for its capabilities. A server that does
// not answer is treated as plain text only.
func hasCapability(obj dbus.BusObject, capability string) bool {
	var caps []string
	if err := obj.Call(dbusNotifyInterface+".GetCapabilities", 0).Store(&caps); err != nil {
		return false
	}
	return slices.Contains(caps, capability)
}

// body escapes text for servers that parse body markup.
func (n *dbusNotifier) body(text string) string {
	if !n.markup {
		return text
	}
	return markupEscaper.Replace(text)
}

func (n *dbusNotifier) hints(notif Notification) map[string]dbus.Variant {
	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(byte(notif.Urgency)),
	}
	if n.desktopEntry != "" {
		hints["desktop-entry"] = dbus.MakeVariant(n.desktopEntry)
	}
	if notif.Image != "" {
		hints["image-path"] = dbus.MakeVariant(notif.Image)
	}
	if notif.Category != "" {
		hints["category"] = dbus.MakeVariant(notif.Category)
	}
	if notif.Silent {
		hints["suppress-sound"] = dbus.MakeVariant(true)
	}
	return hints
}

// Notify sends a notification via D-Bus.
func (n *dbusNotifier) Notify(notif Notification) (uint32, error) {
	icon := notif.Icon
	if icon == "" {
		icon = notif.Image
	}

	// Notify(app_name, replaces_id, icon, summary, body, actions, hints, timeout) -> id
	call := n.obj.Call(
		dbusNotifyInterface+".Notify",
		0,
		n.appName,
		notif.ReplacesID,
		icon,
		notif.Title,
		n.body(notif.Body),
		[]string{},
		n.hints(notif),
		notif.Timeout,
	)

	if call.Err != nil {
		return 0, call.Err
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, err
	}

	return id, nil
}

// Close closes a notification by ID.
func (n *dbusNotifier) Close(id uint32) error {
	call := n.obj.Call(dbusNotifyInterface+".CloseNotification", 0, id)
	return call.Err
}

// stubNotifier is used when D-Bus is unavailable.
type stubNotifier struct {
	err error
}

func (s *stubNotifier) Notify(_ Notification) (uint32, error) {
	return 0, s.err
}

func (s *stubNotifier) Close(_ uint32) error {
	return nil
}
