package artwork

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/nowplaying/internal/media"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255}) //nolint:gosec // test image is small
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestResolve_FileURL(t *testing.T) {
	dir := t.TempDir()
	c, err := New(filepath.Join(dir, "cache"), 0, 0, nil)
	require.NoError(t, err)

	cover := filepath.Join(dir, "cover.jpg")
	require.NoError(t, os.WriteFile(cover, []byte{0xFF, 0xD8, 0xFF}, 0o600))

	got, err := c.Resolve(media.Artwork{URL: "file://" + cover})
	require.NoError(t, err)
	assert.Equal(t, cover, got)

	_, err = c.Resolve(media.Artwork{URL: "file://" + filepath.Join(dir, "missing.jpg")})
	assert.Error(t, err)
}

func TestResolve_Remote(t *testing.T) {
	c, err := New(t.TempDir(), 0, 0, nil)
	require.NoError(t, err)

	_, err = c.Resolve(media.Artwork{URL: "https://example.com/a.jpg"})
	assert.ErrorIs(t, err, ErrRemote)

	_, err = c.Resolve(media.Artwork{})
	assert.ErrorIs(t, err, ErrNoArtwork)
}

func TestResolve_InlineData(t *testing.T) {
	c, err := New(t.TempDir(), 0, 0, nil)
	require.NoError(t, err)

	data := pngBytes(t, 4, 4)
	path, err := c.Resolve(media.Artwork{Data: data, MimeType: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, ".png", filepath.Ext(path))

	stored, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, stored)

	again, err := c.Resolve(media.Artwork{Data: data, MimeType: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, path, again, "same bytes should hit the cache")
}

func TestResolve_Downscale(t *testing.T) {
	c, err := New(t.TempDir(), 16, 0, nil)
	require.NoError(t, err)

	path, err := c.Resolve(media.Artwork{Data: pngBytes(t, 64, 32), MimeType: "image/png"})
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.LessOrEqual(t, cfg.Width, 16)
	assert.LessOrEqual(t, cfg.Height, 16)
}

func TestResolve_UndecodableKeptAsIs(t *testing.T) {
	c, err := New(t.TempDir(), 16, 0, nil)
	require.NoError(t, err)

	data := []byte("not really a jpeg")
	path, err := c.Resolve(media.Artwork{Data: data, MimeType: "image/jpeg"})
	require.NoError(t, err)
	assert.Equal(t, ".jpg", filepath.Ext(path))

	stored, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, stored)
}

func TestPrune(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, 0, 2, nil)
	require.NoError(t, err)

	old := time.Now().Add(-time.Hour)
	for i, name := range []string{"a.png", "b.png"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte{byte(i)}, 0o600))
		mod := old.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(p, mod, mod))
	}

	path, err := c.Resolve(media.Artwork{Data: []byte("fresh"), MimeType: "image/png"})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.FileExists(t, path)
	assert.FileExists(t, filepath.Join(dir, "b.png"))
	assert.NoFileExists(t, filepath.Join(dir, "a.png"))
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".jpg", extension("image/JPEG"))
	assert.Equal(t, ".webp", extension("image/webp"))
	assert.Equal(t, ".img", extension(""))
}
