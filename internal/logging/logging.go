// Package logging builds the logrus logger shared by all components.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"

	"github.com/llehouerou/nowplaying/internal/config"
)

// EnvLevel overrides the configured log level when set.
const EnvLevel = "NOWPLAYING_LOG_LEVEL"

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New creates a logger writing to out and, when configured, to a log file.
// The returned Closer closes the log file.
func New(cfg config.LogConfig, out io.Writer) (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()

	if err := SetLevel(logger, Level(cfg)); err != nil {
		logger.SetLevel(logrus.InfoLevel)
	}

	var closer io.Closer = nopCloser{}
	writers := []io.Writer{out}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		writers = append(writers, f)
		closer = f
	}
	logger.SetOutput(io.MultiWriter(writers...))

	switch cfg.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			DisableColors: !isTerminal(out) || cfg.File != "",
		})
	}

	return logger, closer, nil
}

// Level returns the configured level, or EnvLevel when it is set.
func Level(cfg config.LogConfig) string {
	if env := os.Getenv(EnvLevel); env != "" {
		return env
	}
	return cfg.Level
}

// SetLevel parses level and applies it to logger.
func SetLevel(logger *logrus.Logger, level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logger.SetLevel(lvl)
	return nil
}

// Component returns an entry tagged with the component name.
func Component(logger *logrus.Logger, name string) *logrus.Entry {
	return logger.WithField("component", name)
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
