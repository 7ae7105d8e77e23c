// Package watch runs the loop that turns media session events into toasts.
package watch

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/llehouerou/nowplaying/internal/config"
	"github.com/llehouerou/nowplaying/internal/detector"
	"github.com/llehouerou/nowplaying/internal/errmsg"
	"github.com/llehouerou/nowplaying/internal/logging"
	"github.com/llehouerou/nowplaying/internal/media"
	"github.com/llehouerou/nowplaying/internal/notify"
)

// sourceRecheck bounds how long an enable/disable choice is cached, so
// changes made from the CLI reach a running loop.
const sourceRecheck = 5 * time.Second

// Source delivers events for the foreground media session. The channel is
// closed when the subscription ends.
type Source interface {
	Subscribe(ctx context.Context) (<-chan media.Event, error)
}

// Dispatcher shows and updates toasts.
type Dispatcher interface {
	Dispatch(track media.TrackInfo) error
	Update(track media.TrackInfo) error
	SetOptions(opts notify.Options)
	Close() error
}

// Registry remembers which sources may notify.
type Registry interface {
	RegisterSource(name string, defaultEnabled bool) (bool, error)
}

// Options tunes the loop.
type Options struct {
	ResubscribeDelay       time.Duration
	ResubscribeMaxDelay    time.Duration
	FailureReportThreshold int
	DefaultEnabled         bool
	Ignore                 []string
}

// OptionsFromConfig builds loop options from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	w := cfg.GetWatchConfig()
	return Options{
		ResubscribeDelay:       w.ResubscribeDelay(),
		ResubscribeMaxDelay:    w.ResubscribeMaxDelay(),
		FailureReportThreshold: w.FailureReportThreshold,
		DefaultEnabled:         cfg.DefaultEnabled(),
		Ignore:                 cfg.Sources.Ignore,
	}
}

// Stats counts what the loop did.
type Stats struct {
	Events       int
	Filtered     int
	Notified     int
	Refined      int
	Suppressed   int
	SinkErrors   int
	Resubscribes int
}

type sourceEntry struct {
	enabled bool
	checked time.Time
}

// Loop owns the change detector. Every event is handled to completion on
// the goroutine running Run before the next one is read.
type Loop struct {
	source     Source
	dispatcher Dispatcher
	registry   Registry
	detector   *detector.Detector
	opts       Options
	reloads    chan *config.Config
	sources    map[string]sourceEntry
	stats      Stats
	now        func() time.Time
	level      func(config.LogConfig) string
	log        *logrus.Entry
}

// New creates a loop. registry may be nil, in which case every source not
// ignored is allowed.
func New(src Source, d Dispatcher, registry Registry, opts Options, log *logrus.Entry) *Loop {
	if opts.ResubscribeDelay <= 0 {
		opts.ResubscribeDelay = time.Second
	}
	opts.ResubscribeMaxDelay = max(opts.ResubscribeMaxDelay, opts.ResubscribeDelay)
	return &Loop{
		source:     src,
		dispatcher: d,
		registry:   registry,
		detector:   detector.New(),
		opts:       opts,
		reloads:    make(chan *config.Config, 1),
		sources:    make(map[string]sourceEntry),
		now:        time.Now,
		level:      logging.Level,
		log:        log,
	}
}

// SetLevelFunc replaces how a reloaded configuration maps to a log level.
// The default honors logging.EnvLevel. Call it before Run.
func (l *Loop) SetLevelFunc(fn func(config.LogConfig) string) {
	l.level = fn
}

// Reload hands a new configuration to the loop. It is applied between
// events. Only the latest pending configuration is kept.
func (l *Loop) Reload(cfg *config.Config) {
	for {
		select {
		case l.reloads <- cfg:
			return
		default:
		}
		select {
		case <-l.reloads:
		default:
		}
	}
}

// Stats returns the counters. Call it after Run returns.
func (l *Loop) Stats() Stats {
	return l.stats
}

// Run subscribes to the source and processes events until ctx is done.
// Source failures are retried with backoff. Run only returns an error when
// the source is unsupported on this platform.
func (l *Loop) Run(ctx context.Context) error {
	defer l.shutdown()

	delay := l.opts.ResubscribeDelay
	failures := 0
	for {
		events, err := l.source.Subscribe(ctx)
		if err != nil {
			if errors.Is(err, errors.ErrUnsupported) {
				return err
			}
			if ctx.Err() != nil {
				return nil
			}
			failures++
			entry := l.log.WithError(err).WithFields(logrus.Fields{
				"failures": failures,
				"retry_in": delay,
			})
			if failures >= l.opts.FailureReportThreshold {
				entry.Warn(errmsg.Format(errmsg.OpSubscribe, err))
			} else {
				entry.Debug(errmsg.Format(errmsg.OpSubscribe, err))
			}
			if !l.wait(ctx, delay) {
				return nil
			}
			delay = min(delay*2, l.opts.ResubscribeMaxDelay)
			continue
		}

		if failures > 0 {
			l.log.WithField("failures", failures).Info("subscribed after retrying")
		} else {
			l.log.Debug("subscribed")
		}
		failures = 0
		delay = l.opts.ResubscribeDelay

		if l.consume(ctx, events) {
			return nil
		}
		l.stats.Resubscribes++
		l.log.Warn("media session subscription dropped")
		if !l.wait(ctx, delay) {
			return nil
		}
	}
}

// consume reads events until the subscription ends. It reports whether ctx
// was cancelled.
func (l *Loop) consume(ctx context.Context, events <-chan media.Event) bool {
	for {
		select {
		case <-ctx.Done():
			return true
		case cfg := <-l.reloads:
			l.apply(cfg)
		case ev, ok := <-events:
			if !ok {
				return false
			}
			l.handle(ev)
		}
	}
}

// wait sleeps for d while still applying reloads. It returns false when ctx
// is done first.
func (l *Loop) wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case cfg := <-l.reloads:
			l.apply(cfg)
		case <-timer.C:
			return true
		}
	}
}

func (l *Loop) handle(ev media.Event) {
	l.stats.Events++
	if !l.allowed(ev.Source) {
		l.stats.Filtered++
		return
	}

	dec := l.detector.Process(ev)
	fields := logrus.Fields{
		"event":   ev.Kind,
		"session": ev.SessionID,
		"action":  dec.Action,
		"reason":  dec.Reason,
	}

	var err error
	op := errmsg.OpNotifyShow
	switch dec.Action {
	case detector.Notify:
		l.stats.Notified++
		err = l.dispatcher.Dispatch(dec.Track)
	case detector.Refine:
		l.stats.Refined++
		op = errmsg.OpNotifyUpdate
		err = l.dispatcher.Update(dec.Track)
	default:
		l.stats.Suppressed++
		l.log.WithFields(fields).Trace("event suppressed")
		return
	}

	if err != nil {
		l.stats.SinkErrors++
		l.log.WithFields(fields).WithError(err).Warn(errmsg.Format(op, err))
		return
	}
	fields["title"] = dec.Track.Title
	fields["artist"] = dec.Track.Artist
	l.log.WithFields(fields).Info("now playing")
}

// allowed applies the ignore list and the source registry.
func (l *Loop) allowed(source string) bool {
	if source == "" {
		return true
	}
	for _, s := range l.opts.Ignore {
		if strings.EqualFold(s, source) {
			return false
		}
	}
	if l.registry == nil {
		return true
	}

	now := l.now()
	cached, seen := l.sources[source]
	if seen && now.Sub(cached.checked) < sourceRecheck {
		return cached.enabled
	}

	enabled, err := l.registry.RegisterSource(source, l.opts.DefaultEnabled)
	if err != nil {
		l.log.WithError(err).Warn(errmsg.FormatWith(errmsg.OpSourceRegister, source, err))
		enabled = l.opts.DefaultEnabled
	}
	if !seen {
		l.log.WithFields(logrus.Fields{
			"source":  source,
			"enabled": enabled,
		}).Info("media source seen")
	}
	l.sources[source] = sourceEntry{enabled: enabled, checked: now}
	return enabled
}

func (l *Loop) apply(cfg *config.Config) {
	l.opts = OptionsFromConfig(cfg)
	l.sources = make(map[string]sourceEntry)
	l.dispatcher.SetOptions(notify.OptionsFromConfig(cfg.GetNotificationsConfig()))
	if err := logging.SetLevel(l.log.Logger, l.level(cfg.GetLogConfig())); err != nil {
		l.log.WithError(err).Warn(errmsg.Format(errmsg.OpConfigReload, err))
	}
	l.log.Info("configuration reloaded")
}

func (l *Loop) shutdown() {
	if err := l.dispatcher.Close(); err != nil {
		l.log.WithError(err).Warn(errmsg.Format(errmsg.OpNotifyClose, err))
	}
	l.log.WithFields(logrus.Fields{
		"events":       l.stats.Events,
		"filtered":     l.stats.Filtered,
		"notified":     l.stats.Notified,
		"refined":      l.stats.Refined,
		"suppressed":   l.stats.Suppressed,
		"sink_errors":  l.stats.SinkErrors,
		"resubscribes": l.stats.Resubscribes,
	}).Info("watch loop stopped")
}
