package state

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *Manager {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, initSchema(db))
	m := &Manager{db: db}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestRegisterSource_NewUsesDefault(t *testing.T) {
	m := setupTestDB(t)

	enabled, err := m.RegisterSource("spotify", true)
	require.NoError(t, err)
	assert.True(t, enabled)

	enabled, err = m.RegisterSource("chromium", false)
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestRegisterSource_KeepsStoredChoice(t *testing.T) {
	m := setupTestDB(t)

	_, err := m.RegisterSource("spotify", true)
	require.NoError(t, err)
	require.NoError(t, m.SetSourceEnabled("spotify", false))

	enabled, err := m.RegisterSource("spotify", true)
	require.NoError(t, err)
	assert.False(t, enabled, "stored choice wins over default")
}

func TestRegisterSource_FirstSeenIsStable(t *testing.T) {
	m := setupTestDB(t)
	first := time.Unix(1700000000, 0)

	_, err := registerSource(m.db, "vlc", true, first)
	require.NoError(t, err)
	_, err = registerSource(m.db, "vlc", true, first.Add(time.Hour))
	require.NoError(t, err)

	sources, err := m.Sources()
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, first, sources[0].FirstSeen)
}

func TestSources_OrderedByName(t *testing.T) {
	m := setupTestDB(t)
	for _, name := range []string{"vlc", "firefox", "spotify"} {
		_, err := m.RegisterSource(name, true)
		require.NoError(t, err)
	}

	sources, err := m.Sources()
	require.NoError(t, err)
	names := make([]string, 0, len(sources))
	for _, s := range sources {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"firefox", "spotify", "vlc"}, names)
}

func TestSetSourceEnabled_Unknown(t *testing.T) {
	m := setupTestDB(t)
	require.ErrorIs(t, m.SetSourceEnabled("nope", true), ErrUnknownSource)
}

func TestClearSources(t *testing.T) {
	m := setupTestDB(t)
	_, _ = m.RegisterSource("a", true)
	_, _ = m.RegisterSource("b", true)

	n, err := m.ClearSources()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	sources, err := m.Sources()
	require.NoError(t, err)
	assert.Empty(t, sources)
}

func TestOpenPath_CreatesDirectoryAndReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "nowplaying.db")

	m, err := OpenPath(path)
	require.NoError(t, err)
	_, err = m.RegisterSource("mpv", true)
	require.NoError(t, err)
	require.NoError(t, m.SetSourceEnabled("mpv", false))
	require.NoError(t, m.Close())

	m, err = OpenPath(path)
	require.NoError(t, err)
	defer m.Close()
	enabled, err := m.RegisterSource("mpv", true)
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestMock(t *testing.T) {
	m := NewMock()
	enabled, err := m.RegisterSource("spotify", true)
	require.NoError(t, err)
	assert.True(t, enabled)
	require.NoError(t, m.SetSourceEnabled("spotify", false))
	enabled, _ = m.RegisterSource("spotify", true)
	assert.False(t, enabled)
	require.ErrorIs(t, m.SetSourceEnabled("x", true), ErrUnknownSource)
	n, _ := m.ClearSources()
	assert.Equal(t, int64(1), n)
}
