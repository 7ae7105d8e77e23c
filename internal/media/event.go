package media

// EventKind identifies what changed in a session.
type EventKind int

const (
	// SessionChanged is emitted when a session becomes the foreground session.
	SessionChanged EventKind = iota
	// SessionClosed is emitted when the foreground session goes away.
	SessionClosed
	// MetadataChanged is emitted when the foreground session reports new metadata.
	MetadataChanged
	// PlaybackChanged is emitted when the foreground session changes playback status.
	PlaybackChanged
)

// String returns the kind name.
func (k EventKind) String() string {
	switch k {
	case SessionChanged:
		return "SessionChanged"
	case SessionClosed:
		return "SessionClosed"
	case MetadataChanged:
		return "MetadataChanged"
	case PlaybackChanged:
		return "PlaybackChanged"
	default:
		return "Unknown"
	}
}

// Metadata keys understood by Normalize. They follow the MPRIS naming.
const (
	KeyTitle       = "xesam:title"
	KeyArtist      = "xesam:artist"
	KeyAlbum       = "xesam:album"
	KeyAlbumArtist = "xesam:albumArtist"
	KeyArtURL      = "mpris:artUrl"
	KeyURL         = "xesam:url"
)

// RawMetadata is source-specific metadata, keyed by the constants above.
// Values may be strings, string lists, byte slices or D-Bus variants.
type RawMetadata map[string]any

// Event is one raw state report for the foreground media session.
//
// State always carries the session's current playback status, and Metadata its
// full current metadata, regardless of which of the two triggered the event.
type Event struct {
	Kind      EventKind
	SessionID string
	Source    string // application name, e.g. "spotify"
	State     PlaybackState
	Metadata  RawMetadata
}
