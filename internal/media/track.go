// Package media holds the canonical now-playing model shared by the watcher,
// the change detector and the notification dispatcher.
package media

import "bytes"

// Artwork is album art as reported by a media session.
// Either URL or Data is set; Data carries inline image bytes.
type Artwork struct {
	URL      string
	Data     []byte
	MimeType string
}

// IsZero reports whether no artwork is present.
func (a Artwork) IsZero() bool {
	return a.URL == "" && len(a.Data) == 0
}

// Equal reports whether two artworks reference the same image.
func (a Artwork) Equal(b Artwork) bool {
	return a.URL == b.URL && a.MimeType == b.MimeType && bytes.Equal(a.Data, b.Data)
}

// TrackInfo is a normalized now-playing record.
//
// Text fields use "" for "not reported". Normalize never yields a field that is
// present but blank, so the empty string is unambiguous.
type TrackInfo struct {
	Title     string
	Artist    string
	Album     string
	Artwork   Artwork
	SessionID string
}

// SameTrack reports whether t and o describe the same track in the same session.
// Artwork is ignored: it often arrives after the rest of the metadata.
func (t TrackInfo) SameTrack(o TrackInfo) bool {
	return t.Title == o.Title &&
		t.Artist == o.Artist &&
		t.Album == o.Album &&
		t.SessionID == o.SessionID
}

// Actionable reports whether the track carries enough text for a toast.
func (t TrackInfo) Actionable() bool {
	return t.Title != "" || t.Artist != ""
}

// Refines reports whether t fills in fields that were missing from prev while
// keeping every field prev already had. Both must come from the same session.
func (t TrackInfo) Refines(prev TrackInfo) bool {
	if t.SessionID != prev.SessionID {
		return false
	}

	filled := false
	for _, f := range [][2]string{
		{prev.Title, t.Title},
		{prev.Artist, t.Artist},
		{prev.Album, t.Album},
	} {
		was, now := f[0], f[1]
		switch {
		case was != "" && was != now:
			return false
		case was == "" && now != "":
			filled = true
		}
	}

	if prev.Artwork.IsZero() && !t.Artwork.IsZero() {
		filled = true
	}
	return filled
}

