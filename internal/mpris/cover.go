package mpris

import (
	"net/url"
	"os"
	"path/filepath"

	"github.com/llehouerou/nowplaying/internal/media"
)

// coverNames lists common album art filenames in priority order.
var coverNames = []string{
	"cover.jpg", "cover.png", "cover.jpeg",
	"folder.jpg", "folder.png", "folder.jpeg",
	"album.jpg", "album.png", "album.jpeg",
	"front.jpg", "front.png", "front.jpeg",
}

// FindAlbumArt looks for album art in the same directory as the track.
// Returns the path to the art file, or empty string if not found.
func FindAlbumArt(trackPath string) string {
	dir := filepath.Dir(trackPath)
	for _, name := range coverNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// withLocalCover fills a missing art URL from a cover file next to a
// local track. md is modified in place.
func withLocalCover(md media.RawMetadata) media.RawMetadata {
	if art, _ := md[media.KeyArtURL].(string); art != "" {
		return md
	}
	raw, _ := md[media.KeyURL].(string)
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "file" || u.Path == "" {
		return md
	}
	cover := FindAlbumArt(u.Path)
	if cover == "" {
		return md
	}
	if md == nil {
		md = media.RawMetadata{}
	}
	md[media.KeyArtURL] = (&url.URL{Scheme: "file", Path: cover}).String()
	return md
}
