//go:build linux

package mpris

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"

	"github.com/llehouerou/nowplaying/internal/errmsg"
	"github.com/llehouerou/nowplaying/internal/media"
)

const (
	objectPath  = dbus.ObjectPath("/org/mpris/MediaPlayer2")
	playerIface = "org.mpris.MediaPlayer2.Player"

	propertiesChanged = "org.freedesktop.DBus.Properties.PropertiesChanged"
	nameOwnerChanged  = "org.freedesktop.DBus.NameOwnerChanged"
)

// Options configures a Watcher.
type Options struct {
	// BufferSize bounds the event channel. Sends block when it is full.
	BufferSize int
	// LocalCovers looks for cover files next to local tracks without art.
	LocalCovers bool
}

// Watcher subscribes to MPRIS players on the session bus.
type Watcher struct {
	opts Options
	log  *logrus.Entry
}

// NewWatcher creates a watcher. Nothing touches the bus until Subscribe.
func NewWatcher(opts Options, log *logrus.Entry) *Watcher {
	if opts.BufferSize <= 0 {
		opts.BufferSize = 64
	}
	return &Watcher{opts: opts, log: log}
}

// Subscribe opens a dedicated session bus connection and streams events for
// the foreground player. The channel is closed when ctx is done or the
// connection drops.
func (w *Watcher) Subscribe(ctx context.Context) (<-chan media.Event, error) {
	conn, err := dbus.ConnectSessionBus(dbus.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}

	if err := addMatches(conn); err != nil {
		conn.Close()
		return nil, err
	}

	signals := make(chan *dbus.Signal, w.opts.BufferSize)
	conn.Signal(signals)

	s := newSessions()
	initial, err := w.snapshot(ctx, conn, s)
	if err != nil {
		conn.Close()
		return nil, err
	}

	out := make(chan media.Event, w.opts.BufferSize)
	go w.run(ctx, conn, signals, s, initial, out)
	return out, nil
}

func addMatches(conn *dbus.Conn) error {
	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(objectPath),
		dbus.WithMatchInterface("org.freedesktop.DBus.Properties"),
		dbus.WithMatchMember("PropertiesChanged"),
	); err != nil {
		return fmt.Errorf("match PropertiesChanged: %w", err)
	}
	if err := conn.AddMatchSignal(
		dbus.WithMatchSender("org.freedesktop.DBus"),
		dbus.WithMatchInterface("org.freedesktop.DBus"),
		dbus.WithMatchMember("NameOwnerChanged"),
		dbus.WithMatchOption("arg0namespace", "org.mpris.MediaPlayer2"),
	); err != nil {
		return fmt.Errorf("match NameOwnerChanged: %w", err)
	}
	return nil
}

// snapshot registers the players already on the bus.
func (w *Watcher) snapshot(ctx context.Context, conn *dbus.Conn, s *sessions) ([]media.Event, error) {
	var names []string
	if err := conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		return nil, fmt.Errorf("list bus names: %w", err)
	}
	sort.Strings(names)

	var events []media.Event
	for _, name := range names {
		if !strings.HasPrefix(name, busPrefix) {
			continue
		}
		var owner string
		if err := conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.GetNameOwner", 0, name).Store(&owner); err != nil {
			w.log.WithError(err).Debug(errmsg.FormatWith(errmsg.OpSnapshot, name, err))
			continue
		}
		events = append(events, w.register(ctx, conn, s, name, owner)...)
	}
	return events, nil
}

func (w *Watcher) run(
	ctx context.Context,
	conn *dbus.Conn,
	signals <-chan *dbus.Signal,
	s *sessions,
	initial []media.Event,
	out chan<- media.Event,
) {
	defer close(out)
	defer conn.Close()

	send := func(events []media.Event) bool {
		for _, ev := range events {
			select {
			case out <- ev:
			case <-ctx.Done():
				return false
			}
		}
		return true
	}

	if !send(initial) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-signals:
			if !ok {
				w.log.Warn("session bus connection closed")
				return
			}
			if !send(w.handle(ctx, conn, s, sig)) {
				return
			}
		}
	}
}

func (w *Watcher) handle(ctx context.Context, conn *dbus.Conn, s *sessions, sig *dbus.Signal) []media.Event {
	switch sig.Name {
	case propertiesChanged:
		if sig.Path != objectPath || len(sig.Body) < 2 {
			return nil
		}
		if iface, _ := sig.Body[0].(string); iface != playerIface {
			return nil
		}
		changed, _ := sig.Body[1].(map[string]dbus.Variant)
		name, ok := s.byOwner(sig.Sender)
		if !ok {
			return nil
		}

		// Metadata first, so a track change that also starts playback is
		// reported as Playing with the new track.
		var events []media.Event
		if v, ok := changed["Metadata"]; ok {
			events = append(events, s.setMetadata(name, w.metadata(v))...)
		}
		if v, ok := changed["PlaybackStatus"]; ok {
			status, _ := v.Value().(string)
			events = append(events, s.setStatus(name, parseStatus(status))...)
		}
		return events

	case nameOwnerChanged:
		if len(sig.Body) < 3 {
			return nil
		}
		name, _ := sig.Body[0].(string)
		newOwner, _ := sig.Body[2].(string)
		if !strings.HasPrefix(name, busPrefix) {
			return nil
		}
		if newOwner == "" {
			w.log.WithField("player", name).Debug("player left")
			return s.remove(name)
		}
		return w.register(ctx, conn, s, name, newOwner)
	}
	return nil
}

func (w *Watcher) register(ctx context.Context, conn *dbus.Conn, s *sessions, name, owner string) []media.Event {
	var props map[string]dbus.Variant
	err := conn.Object(name, objectPath).
		CallWithContext(ctx, "org.freedesktop.DBus.Properties.GetAll", 0, playerIface).
		Store(&props)
	if err != nil {
		w.log.WithError(err).WithField("player", name).Debug("read player properties")
		return nil
	}

	status, _ := props["PlaybackStatus"].Value().(string)
	w.log.WithFields(logrus.Fields{
		"player": name,
		"status": status,
	}).Debug("player registered")
	return s.add(name, owner, parseStatus(status), w.metadata(props["Metadata"]))
}

// metadata unwraps the a{sv} metadata variant.
func (w *Watcher) metadata(v dbus.Variant) media.RawMetadata {
	fields, _ := v.Value().(map[string]dbus.Variant)
	md := make(media.RawMetadata, len(fields))
	for k, val := range fields {
		md[k] = val.Value()
	}
	if w.opts.LocalCovers {
		md = withLocalCover(md)
	}
	return md
}
