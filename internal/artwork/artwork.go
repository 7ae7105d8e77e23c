// Package artwork turns session artwork into image files a notification
// server can load.
package artwork

import (
	"bytes"
	"errors"
	"fmt"
	"hash/fnv"
	"image"
	_ "image/gif"  // GIF decoder for inline artwork
	_ "image/jpeg" // JPEG decoder for inline artwork
	"image/png"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/adrg/xdg"
	"github.com/dustin/go-humanize"
	"github.com/nfnt/resize"
	"github.com/sirupsen/logrus"

	"github.com/llehouerou/nowplaying/internal/errmsg"
	"github.com/llehouerou/nowplaying/internal/media"
)

var (
	// ErrRemote is returned for http(s) artwork; the watcher does no network I/O.
	ErrRemote = errors.New("remote artwork not supported")
	// ErrNoArtwork is returned for empty artwork.
	ErrNoArtwork = errors.New("no artwork")
)

var mimeExtensions = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/jpg":     ".jpg",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/bmp":     ".bmp",
	"image/svg+xml": ".svg",
}

// DefaultDir returns the artwork cache directory under XDG_CACHE_HOME.
func DefaultDir() string {
	return filepath.Join(xdg.CacheHome, "nowplaying", "artwork")
}

// Cache writes inline artwork to disk and resolves local artwork URIs.
type Cache struct {
	mu      sync.Mutex
	dir     string
	maxSize uint // pixels, 0 keeps the original size
	keep    int  // files kept after pruning, 0 keeps everything
	log     *logrus.Entry
}

// New creates a cache rooted at dir, creating it if needed.
func New(dir string, maxSize uint, keep int, log *logrus.Entry) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artwork cache: %w", err)
	}
	return &Cache{dir: dir, maxSize: maxSize, keep: keep, log: log}, nil
}

// Resolve returns a local file path for art.
func (c *Cache) Resolve(art media.Artwork) (string, error) {
	if len(art.Data) > 0 {
		return c.store(art.Data, art.MimeType)
	}
	if art.URL == "" {
		return "", ErrNoArtwork
	}

	u, err := url.Parse(art.URL)
	if err != nil {
		return "", fmt.Errorf("parse artwork url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "file":
		if _, err := os.Stat(u.Path); err != nil {
			return "", err
		}
		return u.Path, nil
	case "http", "https":
		return "", ErrRemote
	default:
		return "", fmt.Errorf("unsupported artwork scheme %q", u.Scheme)
	}
}

func (c *Cache) store(data []byte, mimeType string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h := fnv.New64a()
	h.Write(data)
	base := fmt.Sprintf("%016x", h.Sum64())

	if path, ok := c.lookup(base); ok {
		return path, nil
	}

	out, ext := data, extension(mimeType)
	if scaled, ok := c.downscale(data); ok {
		out, ext = scaled, ".png"
	}

	path := filepath.Join(c.dir, base+ext)
	if err := writeAtomic(path, out); err != nil {
		return "", err
	}
	if c.log != nil {
		c.log.WithFields(logrus.Fields{
			"path": path,
			"size": humanize.IBytes(uint64(len(out))),
		}).Debug("artwork cached")
	}

	c.prune()
	return path, nil
}

// lookup finds an existing file for base regardless of extension.
func (c *Cache) lookup(base string) (string, bool) {
	matches, err := filepath.Glob(filepath.Join(c.dir, base+".*"))
	if err != nil || len(matches) == 0 {
		return "", false
	}
	return matches[0], true
}

// downscale re-encodes data as PNG when it decodes and exceeds maxSize.
func (c *Cache) downscale(data []byte) ([]byte, bool) {
	if c.maxSize == 0 {
		return nil, false
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, false
	}
	if uint(cfg.Width) <= c.maxSize && uint(cfg.Height) <= c.maxSize { //nolint:gosec // image dimensions are non-negative
		return nil, false
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false
	}
	resized := resize.Thumbnail(c.maxSize, c.maxSize, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := png.Encode(&buf, resized); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}

// prune removes the oldest files beyond keep.
func (c *Cache) prune() {
	if c.keep <= 0 {
		return
	}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		c.warnPrune(err)
		return
	}

	type file struct {
		path string
		mod  int64
	}
	files := make([]file, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, file{filepath.Join(c.dir, e.Name()), info.ModTime().UnixNano()})
	}
	if len(files) <= c.keep {
		return
	}

	sort.Slice(files, func(i, j int) bool { return files[i].mod > files[j].mod })
	for _, f := range files[c.keep:] {
		if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
			c.warnPrune(err)
		}
	}
}

func (c *Cache) warnPrune(err error) {
	if c.log != nil {
		c.log.WithError(err).Warn(errmsg.Format(errmsg.OpArtworkPrune, err))
	}
}

func extension(mimeType string) string {
	if ext, ok := mimeExtensions[strings.ToLower(mimeType)]; ok {
		return ext
	}
	return ".img"
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".artwork-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
