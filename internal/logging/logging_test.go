package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/nowplaying/internal/config"
)

func TestNew_TextFormat(t *testing.T) {
	t.Setenv(EnvLevel, "")
	var buf bytes.Buffer
	logger, closer, err := New(config.LogConfig{Level: "debug", Format: "text"}, &buf)
	require.NoError(t, err)
	defer closer.Close()

	Component(logger, "watch").Debug("hello")
	out := buf.String()
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "component=watch")
	assert.NotContains(t, out, "\x1b[", "colors must be off for non-terminals")
}

func TestNew_JSONFormat(t *testing.T) {
	t.Setenv(EnvLevel, "")
	var buf bytes.Buffer
	logger, closer, err := New(config.LogConfig{Level: "info", Format: "json"}, &buf)
	require.NoError(t, err)
	defer closer.Close()

	logger.WithField("title", "Song").Info("toast shown")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "toast shown", entry["msg"])
	assert.Equal(t, "Song", entry["title"])
}

func TestNew_EnvOverridesLevel(t *testing.T) {
	t.Setenv(EnvLevel, "warn")
	logger, closer, err := New(config.LogConfig{Level: "debug"}, &bytes.Buffer{})
	require.NoError(t, err)
	defer closer.Close()
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	t.Setenv(EnvLevel, "")
	logger, closer, err := New(config.LogConfig{Level: "chatty"}, &bytes.Buffer{})
	require.NoError(t, err)
	defer closer.Close()
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
}

func TestNew_LogFile(t *testing.T) {
	t.Setenv(EnvLevel, "")
	path := filepath.Join(t.TempDir(), "logs", "nowplaying.log")
	var buf bytes.Buffer
	logger, closer, err := New(config.LogConfig{Level: "info", File: path}, &buf)
	require.NoError(t, err)

	logger.Info("to both")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "to both"))
	assert.Contains(t, buf.String(), "to both")
}

func TestSetLevel(t *testing.T) {
	logger := Discard()
	require.NoError(t, SetLevel(logger, "error"))
	assert.Equal(t, logrus.ErrorLevel, logger.GetLevel())
	assert.Error(t, SetLevel(logger, "nope"))
	assert.Equal(t, logrus.ErrorLevel, logger.GetLevel())
}

func TestLevel(t *testing.T) {
	t.Setenv(EnvLevel, "")
	assert.Equal(t, "info", Level(config.LogConfig{Level: "info"}))

	t.Setenv(EnvLevel, "trace")
	assert.Equal(t, "trace", Level(config.LogConfig{Level: "info"}))
}
