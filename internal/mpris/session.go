// Package mpris follows media players on the session bus and reports the
// foreground player's state as media events.
package mpris

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/llehouerou/nowplaying/internal/media"
)

// ErrUnsupported is returned by Subscribe on platforms without MPRIS.
// It matches errors.ErrUnsupported.
var ErrUnsupported = fmt.Errorf("media sessions: %w", errors.ErrUnsupported)

const busPrefix = "org.mpris.MediaPlayer2."

// sessionID returns the bus name without the MPRIS prefix,
// e.g. "spotify" or "chromium.instance4242".
func sessionID(busName string) string {
	return strings.TrimPrefix(busName, busPrefix)
}

// sourceName returns the application part of a session id.
func sourceName(id string) string {
	name, _, _ := strings.Cut(id, ".")
	return strings.ToLower(name)
}

func parseStatus(s string) media.PlaybackState {
	switch types.PlaybackStatus(s) {
	case types.PlaybackStatusPlaying:
		return media.StatePlaying
	case types.PlaybackStatusPaused:
		return media.StatePaused
	case types.PlaybackStatusStopped:
		return media.StateStopped
	}
	return media.StateUnknown
}

type player struct {
	busName  string
	owner    string
	status   media.PlaybackState
	metadata media.RawMetadata
	// playedAt orders players by when they last entered Playing.
	playedAt uint64
}

// sessions tracks every player on the bus and picks the foreground one.
// It emits events only for the foreground player.
type sessions struct {
	players    map[string]*player // by bus name
	owners     map[string]string  // unique name -> bus name
	foreground string
	seq        uint64
}

func newSessions() *sessions {
	return &sessions{
		players: make(map[string]*player),
		owners:  make(map[string]string),
	}
}

func (s *sessions) byOwner(owner string) (string, bool) {
	name, ok := s.owners[owner]
	return name, ok
}

// add registers a player, or refreshes one whose owner changed.
func (s *sessions) add(busName, owner string, status media.PlaybackState, md media.RawMetadata) []media.Event {
	p, ok := s.players[busName]
	if !ok {
		p = &player{busName: busName}
		s.players[busName] = p
	}
	if p.owner != "" {
		delete(s.owners, p.owner)
	}
	p.owner = owner
	s.owners[owner] = busName
	p.metadata = md
	if status == media.StatePlaying && p.status != media.StatePlaying {
		s.seq++
		p.playedAt = s.seq
	}
	p.status = status

	switch {
	case s.foreground == busName:
		return []media.Event{s.event(media.SessionChanged, p)}
	case s.foreground == "" || status == media.StatePlaying:
		s.foreground = busName
		return []media.Event{s.event(media.SessionChanged, p)}
	}
	return nil
}

// remove forgets a player. When it was foreground the best remaining
// player takes over.
func (s *sessions) remove(busName string) []media.Event {
	p, ok := s.players[busName]
	if !ok {
		return nil
	}
	delete(s.players, busName)
	delete(s.owners, p.owner)
	if s.foreground != busName {
		return nil
	}

	events := []media.Event{s.event(media.SessionClosed, p)}
	s.foreground = s.pick()
	if next, ok := s.players[s.foreground]; ok {
		events = append(events, s.event(media.SessionChanged, next))
	}
	return events
}

func (s *sessions) setMetadata(busName string, md media.RawMetadata) []media.Event {
	p, ok := s.players[busName]
	if !ok {
		return nil
	}
	p.metadata = md
	if s.foreground != busName {
		return nil
	}
	return []media.Event{s.event(media.MetadataChanged, p)}
}

func (s *sessions) setStatus(busName string, status media.PlaybackState) []media.Event {
	p, ok := s.players[busName]
	if !ok {
		return nil
	}
	if status == media.StatePlaying && p.status != media.StatePlaying {
		s.seq++
		p.playedAt = s.seq
	}
	p.status = status

	if s.foreground != busName {
		if status != media.StatePlaying {
			return nil
		}
		s.foreground = busName
		return []media.Event{s.event(media.SessionChanged, p)}
	}

	events := []media.Event{s.event(media.PlaybackChanged, p)}
	if status == media.StatePlaying {
		return events
	}
	if next := s.pick(); next != busName {
		if np := s.players[next]; np.status == media.StatePlaying {
			s.foreground = next
			events = append(events, s.event(media.SessionChanged, np))
		}
	}
	return events
}

// pick returns the most recently started player that is still playing,
// or else the most recently started player at all.
func (s *sessions) pick() string {
	names := make([]string, 0, len(s.players))
	for name := range s.players {
		names = append(names, name)
	}
	sort.Strings(names)

	best := ""
	for _, name := range names {
		if best == "" || s.better(s.players[name], s.players[best]) {
			best = name
		}
	}
	return best
}

func (s *sessions) better(a, b *player) bool {
	aPlaying := a.status == media.StatePlaying
	bPlaying := b.status == media.StatePlaying
	if aPlaying != bPlaying {
		return aPlaying
	}
	return a.playedAt > b.playedAt
}

func (s *sessions) event(kind media.EventKind, p *player) media.Event {
	id := sessionID(p.busName)
	return media.Event{
		Kind:      kind,
		SessionID: id,
		Source:    sourceName(id),
		State:     p.status,
		Metadata:  p.metadata,
	}
}
