package media

import (
	"bytes"
	"testing"

	"github.com/godbus/dbus/v5"
)

func TestNormalize_TextFields(t *testing.T) {
	tests := []struct {
		name string
		raw  RawMetadata
		want TrackInfo
	}{
		{
			name: "plain strings",
			raw: RawMetadata{
				KeyTitle:  "Song",
				KeyArtist: []string{"Artist"},
				KeyAlbum:  "Album",
			},
			want: TrackInfo{Title: "Song", Artist: "Artist", Album: "Album", SessionID: "s1"},
		},
		{
			name: "whitespace trimmed and collapsed",
			raw: RawMetadata{
				KeyTitle:  "  Song \t Title\n",
				KeyArtist: "   ",
			},
			want: TrackInfo{Title: "Song Title", SessionID: "s1"},
		},
		{
			name: "empty strings are missing",
			raw: RawMetadata{
				KeyTitle:  "",
				KeyArtist: []string{"", " "},
				KeyAlbum:  "",
			},
			want: TrackInfo{SessionID: "s1"},
		},
		{
			name: "multiple artists joined",
			raw: RawMetadata{
				KeyTitle:  "Duet",
				KeyArtist: []string{"First", " ", "Second"},
			},
			want: TrackInfo{Title: "Duet", Artist: "First, Second", SessionID: "s1"},
		},
		{
			name: "dbus variants unwrapped",
			raw: RawMetadata{
				KeyTitle:  dbus.MakeVariant("Song"),
				KeyArtist: dbus.MakeVariant([]string{"Artist"}),
				KeyAlbum:  dbus.MakeVariant(dbus.MakeVariant("Album")),
			},
			want: TrackInfo{Title: "Song", Artist: "Artist", Album: "Album", SessionID: "s1"},
		},
		{
			name: "album artist fallback",
			raw: RawMetadata{
				KeyTitle:       "Song",
				KeyAlbumArtist: []string{"Band"},
			},
			want: TrackInfo{Title: "Song", Artist: "Band", SessionID: "s1"},
		},
		{
			name: "unsupported value types are missing",
			raw: RawMetadata{
				KeyTitle:  42,
				KeyArtist: map[string]string{"a": "b"},
				KeyAlbum:  nil,
			},
			want: TrackInfo{SessionID: "s1"},
		},
		{
			name: "invalid utf8 and control characters dropped",
			raw: RawMetadata{
				KeyTitle:  "So\xffng\x00",
				KeyArtist: []byte("\uFEFFArtist"),
			},
			want: TrackInfo{Title: "Song", Artist: "Artist", SessionID: "s1"},
		},
		{
			name: "decomposed text composed to NFC",
			raw: RawMetadata{
				KeyTitle: "Cafe\u0301",
			},
			want: TrackInfo{Title: "Caf\u00e9", SessionID: "s1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw, "s1")
			if got.Title != tt.want.Title {
				t.Errorf("Title = %q, want %q", got.Title, tt.want.Title)
			}
			if got.Artist != tt.want.Artist {
				t.Errorf("Artist = %q, want %q", got.Artist, tt.want.Artist)
			}
			if got.Album != tt.want.Album {
				t.Errorf("Album = %q, want %q", got.Album, tt.want.Album)
			}
			if got.SessionID != tt.want.SessionID {
				t.Errorf("SessionID = %q, want %q", got.SessionID, tt.want.SessionID)
			}
		})
	}
}

func TestNormalize_NilMetadata(t *testing.T) {
	got := Normalize(nil, "s1")
	if got.Title != "" || got.Artist != "" || got.Album != "" {
		t.Errorf("Normalize(nil) = %+v, want empty track", got)
	}
	if got.Actionable() {
		t.Error("empty track should not be actionable")
	}
}

func TestNormalize_Artwork(t *testing.T) {
	tests := []struct {
		name     string
		artURL   any
		wantURL  string
		wantData []byte
		wantMime string
	}{
		{name: "file uri", artURL: "file:///tmp/cover.png", wantURL: "file:///tmp/cover.png"},
		{name: "bare absolute path", artURL: "/tmp/cover.png", wantURL: "file:///tmp/cover.png"},
		{name: "https url", artURL: "https://i.scdn.co/image/ab67", wantURL: "https://i.scdn.co/image/ab67"},
		{
			name:     "base64 data uri",
			artURL:   "data:image/png;base64,iVBORw==",
			wantData: []byte{0x89, 0x50, 0x4e, 0x47},
			wantMime: "image/png",
		},
		{
			name:     "percent-encoded data uri",
			artURL:   "data:image/svg+xml,%3Csvg%3E",
			wantData: []byte("<svg>"),
			wantMime: "image/svg+xml",
		},
		{name: "non-image data uri", artURL: "data:text/plain;base64,aGk="},
		{name: "broken base64", artURL: "data:image/png;base64,!!!"},
		{name: "unknown scheme", artURL: "spotify:image:abc"},
		{name: "file uri without path", artURL: "file://"},
		{name: "empty", artURL: ""},
		{name: "missing", artURL: nil},
		{name: "variant", artURL: dbus.MakeVariant("file:///a.jpg"), wantURL: "file:///a.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(RawMetadata{KeyTitle: "x", KeyArtURL: tt.artURL}, "s").Artwork
			if got.URL != tt.wantURL {
				t.Errorf("URL = %q, want %q", got.URL, tt.wantURL)
			}
			if !bytes.Equal(got.Data, tt.wantData) {
				t.Errorf("Data = %v, want %v", got.Data, tt.wantData)
			}
			if got.MimeType != tt.wantMime {
				t.Errorf("MimeType = %q, want %q", got.MimeType, tt.wantMime)
			}
		})
	}
}
