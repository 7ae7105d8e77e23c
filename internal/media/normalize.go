package media

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// maxUnwrapDepth bounds recursion into nested variants and lists.
const maxUnwrapDepth = 4

type valuer interface {
	Value() any
}

// Normalize converts raw session metadata into a TrackInfo.
// It never fails: fields it cannot read are reported as missing.
func Normalize(raw RawMetadata, sessionID string) TrackInfo {
	t := TrackInfo{
		Title:     textField(raw[KeyTitle]),
		Artist:    textField(raw[KeyArtist]),
		Album:     textField(raw[KeyAlbum]),
		Artwork:   artworkField(raw[KeyArtURL]),
		SessionID: sessionID,
	}
	if t.Artist == "" {
		t.Artist = textField(raw[KeyAlbumArtist])
	}
	return t
}

// textField flattens v to a single cleaned string. Lists are joined.
func textField(v any) string {
	parts := textParts(v, 0)
	out := parts[:0]
	for _, p := range parts {
		if p = cleanText(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

func textParts(v any, depth int) []string {
	if v == nil || depth > maxUnwrapDepth {
		return nil
	}
	switch x := v.(type) {
	case string:
		return []string{x}
	case []byte:
		return []string{string(x)}
	case []string:
		return append([]string(nil), x...)
	case []any:
		var out []string
		for _, e := range x {
			out = append(out, textParts(e, depth+1)...)
		}
		return out
	case valuer:
		return textParts(x.Value(), depth+1)
	case fmt.Stringer:
		return []string{x.String()}
	default:
		return nil
	}
}

// cleanText makes s valid NFC UTF-8 without control characters, collapses
// whitespace runs and trims the result.
func cleanText(s string) string {
	s = norm.NFC.String(strings.ToValidUTF8(s, ""))

	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = b.Len() > 0
		case unicode.IsControl(r), r == '\uFEFF', r == unicode.ReplacementChar:
		default:
			if pendingSpace {
				b.WriteByte(' ')
				pendingSpace = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

func artworkField(v any) Artwork {
	parts := textParts(v, 0)
	if len(parts) == 0 {
		return Artwork{}
	}
	ref := strings.TrimSpace(parts[0])
	if ref == "" {
		return Artwork{}
	}
	if len(ref) > 5 && strings.EqualFold(ref[:5], "data:") {
		return decodeDataURI(ref)
	}
	if strings.HasPrefix(ref, "/") {
		return Artwork{URL: (&url.URL{Scheme: "file", Path: ref}).String()}
	}

	u, err := url.Parse(ref)
	if err != nil {
		return Artwork{}
	}
	switch strings.ToLower(u.Scheme) {
	case "file":
		if u.Path == "" {
			return Artwork{}
		}
		return Artwork{URL: ref}
	case "http", "https":
		if u.Host == "" {
			return Artwork{}
		}
		return Artwork{URL: ref}
	default:
		return Artwork{}
	}
}

// decodeDataURI decodes an RFC 2397 data URI. Malformed input yields no artwork.
func decodeDataURI(ref string) Artwork {
	rest := ref[len("data:"):]
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Artwork{}
	}

	mimeType := "text/plain"
	isBase64 := false
	params := strings.Split(header, ";")
	if params[0] != "" {
		mimeType = strings.ToLower(params[0])
	}
	for _, p := range params[1:] {
		if p == "base64" {
			isBase64 = true
		}
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return Artwork{}
	}

	var data []byte
	if isBase64 {
		d, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			if d, err = base64.RawStdEncoding.DecodeString(payload); err != nil {
				return Artwork{}
			}
		}
		data = d
	} else {
		s, err := url.PathUnescape(payload)
		if err != nil {
			return Artwork{}
		}
		data = []byte(s)
	}
	if len(data) == 0 {
		return Artwork{}
	}
	return Artwork{Data: data, MimeType: mimeType}
}
