// Package detector decides which media session events deserve a toast.
//
// Step is a pure function over (State, Event); Detector wraps it for the
// single goroutine that owns the state.
package detector

import (
	"time"

	"github.com/llehouerou/nowplaying/internal/media"
)

// Action is the outcome of processing one event.
type Action int

const (
	// Suppress means no toast is shown.
	Suppress Action = iota
	// Notify means a new toast should be shown for Decision.Track.
	Notify
	// Refine means the current toast should be updated in place.
	Refine
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case Notify:
		return "notify"
	case Refine:
		return "refine"
	default:
		return "suppress"
	}
}

// Reason explains a decision. Used for logging and tests.
type Reason string

const (
	ReasonNoSession     Reason = "event without session"
	ReasonOtherSession  Reason = "event for inactive session"
	ReasonSessionClosed Reason = "session closed"
	ReasonPaused        Reason = "paused"
	ReasonStopped       Reason = "stopped"
	ReasonUnknownState  Reason = "unknown playback state"
	ReasonNotActionable Reason = "no title or artist"
	ReasonDuplicate     Reason = "already notified"
	ReasonArtwork       Reason = "artwork arrived"
	ReasonRefinement    Reason = "metadata refined"
	ReasonNewTrack      Reason = "new track"
	ReasonSessionSwitch Reason = "session switch"
)

// Decision is what the watch loop should do after an event.
type Decision struct {
	Action Action
	Track  media.TrackInfo
	Reason Reason
}

// State is the notification bookkeeping for the foreground session.
// The zero value is the initial state.
type State struct {
	// LastNotified is the track last shown (or refined), nil when tracking was reset.
	LastNotified   *media.TrackInfo
	LastNotifiedAt time.Time
	// ActiveSession is the session the state refers to; "" when none.
	ActiveSession string
	Playback      media.PlaybackState
	// Latest is the most recent normalized track, notified or not.
	Latest media.TrackInfo
}

func suppress(r Reason) Decision {
	return Decision{Action: Suppress, Reason: r}
}

// Step applies ev to s and returns the new state and the decision.
// It never fails; anything it cannot interpret is suppressed.
func Step(s State, ev media.Event, now time.Time) (State, Decision) {
	if ev.SessionID == "" {
		return s, suppress(ReasonNoSession)
	}

	if ev.Kind == media.SessionClosed {
		if ev.SessionID != s.ActiveSession {
			return s, suppress(ReasonOtherSession)
		}
		return State{Playback: media.StateStopped}, suppress(ReasonSessionClosed)
	}

	track := media.Normalize(ev.Metadata, ev.SessionID)

	switched := ev.SessionID != s.ActiveSession
	if switched {
		s = State{ActiveSession: ev.SessionID}
	}
	s.Playback = ev.State
	s.Latest = track

	switch ev.State {
	case media.StatePlaying:
	case media.StatePaused:
		return s, suppress(ReasonPaused)
	case media.StateStopped:
		s.LastNotified = nil
		return s, suppress(ReasonStopped)
	default:
		return s, suppress(ReasonUnknownState)
	}

	if !track.Actionable() {
		s.LastNotified = nil
		return s, suppress(ReasonNotActionable)
	}

	if last := s.LastNotified; last != nil {
		if track.SameTrack(*last) {
			// Only the first artwork of a track updates the toast.
			if !last.Artwork.IsZero() || track.Artwork.IsZero() {
				return s, suppress(ReasonDuplicate)
			}
			s.LastNotified = &track
			return s, Decision{Action: Refine, Track: track, Reason: ReasonArtwork}
		}
		if track.Refines(*last) {
			s.LastNotified = &track
			return s, Decision{Action: Refine, Track: track, Reason: ReasonRefinement}
		}
	}

	s.LastNotified = &track
	s.LastNotifiedAt = now

	reason := ReasonNewTrack
	if switched {
		reason = ReasonSessionSwitch
	}
	return s, Decision{Action: Notify, Track: track, Reason: reason}
}

// Detector owns a State and feeds events through Step.
// It is not safe for concurrent use; the watch loop is its only caller.
type Detector struct {
	state State
	now   func() time.Time
}

// Option configures a Detector.
type Option func(*Detector)

// WithClock overrides the time source used for LastNotifiedAt.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) {
		d.now = now
	}
}

// New creates a Detector in the initial state.
func New(opts ...Option) *Detector {
	d := &Detector{now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Process applies one event.
func (d *Detector) Process(ev media.Event) Decision {
	var dec Decision
	d.state, dec = Step(d.state, ev, d.now())
	return dec
}

// State returns a copy of the current state.
func (d *Detector) State() State {
	return d.state
}

