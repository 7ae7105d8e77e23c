package notify

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/sirupsen/logrus"

	"github.com/llehouerou/nowplaying/internal/config"
	"github.com/llehouerou/nowplaying/internal/errmsg"
	"github.com/llehouerou/nowplaying/internal/media"
)

// ErrSink wraps failures reported by the Notifier.
var ErrSink = errors.New("notification sink failed")

const (
	trackCategory = "x-nowplaying.track"
	bodySeparator = " · "
	ellipsis      = "…"
)

// ImageResolver turns artwork into a local image path for the notification.
type ImageResolver interface {
	Resolve(art media.Artwork) (string, error)
}

// Options controls how tracks become toasts.
type Options struct {
	Timeout          int32 // ms
	Urgency          Urgency
	ReplacePrevious  bool
	MinInterval      time.Duration // younger toasts are replaced instead of stacked
	ShowArtwork      bool
	PlaceholderTitle string
	MaxLineWidth     int // display cells, 0 = unlimited
	CloseOnExit      bool
}

// OptionsFromConfig maps notification settings onto dispatcher options.
// cfg is expected to have defaults applied.
func OptionsFromConfig(cfg config.NotificationsConfig) Options {
	return Options{
		Timeout:          cfg.Timeout,
		Urgency:          ParseUrgency(cfg.Urgency),
		ReplacePrevious:  cfg.ReplacePrevious == nil || *cfg.ReplacePrevious,
		MinInterval:      cfg.MinInterval(),
		ShowArtwork:      cfg.ShowArtwork == nil || *cfg.ShowArtwork,
		PlaceholderTitle: cfg.PlaceholderTitle,
		MaxLineWidth:     cfg.MaxLineWidth,
		CloseOnExit:      cfg.CloseOnExit,
	}
}

// handle identifies the last toast this process created.
type handle struct {
	id      uint32
	session string
	at      time.Time
}

// Dispatcher shows now-playing toasts. Calls are serialized so an in-place
// update is never issued before the toast it replaces exists.
type Dispatcher struct {
	mu       sync.Mutex
	notifier Notifier
	images   ImageResolver
	opts     Options
	last     handle
	now      func() time.Time
	log      *logrus.Entry
}

// NewDispatcher creates a Dispatcher. images may be nil to disable artwork.
func NewDispatcher(n Notifier, images ImageResolver, opts Options, log *logrus.Entry) *Dispatcher {
	return &Dispatcher{
		notifier: n,
		images:   images,
		opts:     opts,
		now:      time.Now,
		log:      log,
	}
}

// SetOptions replaces the options used by subsequent calls.
func (d *Dispatcher) SetOptions(opts Options) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opts = opts
}

// Dispatch shows a toast for a newly playing track.
func (d *Dispatcher) Dispatch(track media.TrackInfo) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var replaces uint32
	if d.last.id != 0 {
		young := d.opts.MinInterval > 0 && d.now().Sub(d.last.at) < d.opts.MinInterval
		if d.opts.ReplacePrevious || young {
			replaces = d.last.id
		}
	}
	return d.send(track, replaces)
}

// Update revises the toast currently shown for track's session, typically
// because artwork or a missing field arrived. Without such a toast it shows a
// new one.
func (d *Dispatcher) Update(track media.TrackInfo) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var replaces uint32
	if d.last.id != 0 && d.last.session == track.SessionID {
		replaces = d.last.id
	}
	return d.send(track, replaces)
}

// Close releases the toast handle, closing the toast when configured to.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.last.id
	d.last = handle{}
	if id == 0 || !d.opts.CloseOnExit {
		return nil
	}
	if err := d.notifier.Close(id); err != nil {
		return fmt.Errorf("%w: %w", ErrSink, err)
	}
	return nil
}

func (d *Dispatcher) send(track media.TrackInfo, replaces uint32) error {
	n := BuildNotification(track, d.opts)
	n.ReplacesID = replaces
	n.Image = d.image(track.Artwork)

	id, err := d.notifier.Notify(n)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSink, err)
	}

	if id != 0 {
		d.last = handle{id: id, session: track.SessionID, at: d.now()}
	}
	if d.log != nil {
		d.log.WithFields(logrus.Fields{
			"id":       id,
			"replaces": replaces,
			"title":    n.Title,
		}).Debug("toast shown")
	}
	return nil
}

func (d *Dispatcher) image(art media.Artwork) string {
	if !d.opts.ShowArtwork || d.images == nil || art.IsZero() {
		return ""
	}
	path, err := d.images.Resolve(art)
	if err != nil {
		if d.log != nil {
			d.log.WithError(err).Debug(errmsg.Format(errmsg.OpArtworkResolve, err))
		}
		return ""
	}
	return path
}

// BuildNotification renders a track as a notification payload.
// ReplacesID and Image are left for the caller.
func BuildNotification(track media.TrackInfo, opts Options) Notification {
	title := track.Title
	if title == "" {
		title = opts.PlaceholderTitle
	}

	var parts []string
	for _, p := range []string{track.Artist, track.Album} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	body := strings.Join(parts, bodySeparator)

	if opts.MaxLineWidth > 0 {
		title = runewidth.Truncate(title, opts.MaxLineWidth, ellipsis)
		body = runewidth.Truncate(body, opts.MaxLineWidth, ellipsis)
	}

	return Notification{
		Title:    title,
		Body:     body,
		Category: trackCategory,
		Silent:   true,
		Timeout:  opts.Timeout,
		Urgency:  opts.Urgency,
	}
}
