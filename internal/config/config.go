package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const appName = "nowplaying"

type Config struct {
	// Toast appearance and replacement policy
	Notifications NotificationsConfig `koanf:"notifications"`

	// Inline artwork handling
	Artwork ArtworkConfig `koanf:"artwork"`

	// Which media applications may produce toasts
	Sources SourcesConfig `koanf:"sources"`

	// Watch loop tuning
	Watch WatchConfig `koanf:"watch"`

	Log LogConfig `koanf:"log"`
}

// NotificationsConfig holds toast settings.
type NotificationsConfig struct {
	AppName          string `koanf:"app_name"`          // default: "Now Playing"
	DesktopEntry     string `koanf:"desktop_entry"`     // default: "nowplaying"
	Timeout          int32  `koanf:"timeout"`           // ms, -1 = server default (default: 3000)
	Urgency          string `koanf:"urgency"`           // "low", "normal", "critical" (default: "low")
	ReplacePrevious  *bool  `koanf:"replace_previous"`  // replace the last toast instead of stacking (default: true)
	MinIntervalMs    int    `koanf:"min_interval_ms"`   // toasts younger than this are replaced (default: 2000)
	ShowArtwork      *bool  `koanf:"show_artwork"`      // default: true
	PlaceholderTitle string `koanf:"placeholder_title"` // shown when only the artist is known (default: "Unknown title")
	MaxLineWidth     int    `koanf:"max_line_width"`    // display cells, 0 = unlimited (default: 0)
	CloseOnExit      bool   `koanf:"close_on_exit"`     // close the last toast on shutdown (default: false)
}

// ArtworkConfig controls the inline artwork cache.
type ArtworkConfig struct {
	Dir         string `koanf:"dir"`          // default: $XDG_CACHE_HOME/nowplaying/artwork
	MaxSize     int    `koanf:"max_size"`     // px, larger inline images are downscaled (default: 256)
	CacheKeep   int    `koanf:"cache_keep"`   // files kept in the cache (default: 32)
	LocalCovers *bool  `koanf:"local_covers"` // use cover.jpg & co. next to local tracks without art (default: true)
}

// SourcesConfig filters media applications.
type SourcesConfig struct {
	DefaultEnabled *bool    `koanf:"default_enabled"` // state of newly seen sources (default: true)
	Ignore         []string `koanf:"ignore"`          // never notify for these sources
}

// WatchConfig tunes the watch loop.
type WatchConfig struct {
	EventBuffer            int `koanf:"event_buffer"`             // default: 64
	ResubscribeDelayMs     int `koanf:"resubscribe_delay_ms"`     // default: 1000
	ResubscribeMaxDelayMs  int `koanf:"resubscribe_max_delay_ms"` // default: 30000
	FailureReportThreshold int `koanf:"failure_report_threshold"` // consecutive failures before a warning (default: 3)
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `koanf:"level"`  // default: "info"
	Format string `koanf:"format"` // "text" or "json" (default: "text")
	File   string `koanf:"file"`   // optional log file, ~ expanded
}

// Load reads the default config files. Missing files are skipped.
func Load() (*Config, error) {
	return LoadFiles(getConfigPaths()...)
}

// LoadFiles reads the given TOML files in order, later files winning.
func LoadFiles(paths ...string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	cfg.Artwork.Dir = expandPath(cfg.Artwork.Dir)
	cfg.Log.File = expandPath(cfg.Log.File)
	for i, s := range cfg.Sources.Ignore {
		cfg.Sources.Ignore[i] = strings.ToLower(strings.TrimSpace(s))
	}

	return cfg, nil
}

// Paths returns the config files Load reads, in priority order.
func Paths() []string {
	return getConfigPaths()
}

func getConfigPaths() []string {
	return []string{
		// 1. $XDG_CONFIG_HOME/nowplaying/config.toml
		filepath.Join(xdg.ConfigHome, appName, "config.toml"),
		// 2. ./config.toml (pwd, highest priority)
		"config.toml",
	}
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// GetNotificationsConfig returns the notification settings with defaults applied.
func (c *Config) GetNotificationsConfig() NotificationsConfig {
	cfg := c.Notifications

	if cfg.AppName == "" {
		cfg.AppName = "Now Playing"
	}
	if cfg.DesktopEntry == "" {
		cfg.DesktopEntry = appName
	}
	if cfg.Timeout == 0 || cfg.Timeout < -1 {
		cfg.Timeout = 3000
	}
	switch cfg.Urgency {
	case "low", "normal", "critical":
	default:
		cfg.Urgency = "low"
	}
	if cfg.MinIntervalMs <= 0 {
		cfg.MinIntervalMs = 2000
	}
	if cfg.PlaceholderTitle == "" {
		cfg.PlaceholderTitle = "Unknown title"
	}
	if cfg.MaxLineWidth < 0 {
		cfg.MaxLineWidth = 0
	}
	replace := boolOr(cfg.ReplacePrevious, true)
	cfg.ReplacePrevious = &replace
	show := boolOr(cfg.ShowArtwork, true)
	cfg.ShowArtwork = &show

	return cfg
}

// MinInterval returns min_interval_ms as a duration.
func (n NotificationsConfig) MinInterval() time.Duration {
	return time.Duration(n.MinIntervalMs) * time.Millisecond
}

// GetArtworkConfig returns the artwork settings with defaults applied.
func (c *Config) GetArtworkConfig() ArtworkConfig {
	cfg := c.Artwork

	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 256
	}
	if cfg.CacheKeep <= 0 {
		cfg.CacheKeep = 32
	}
	local := boolOr(cfg.LocalCovers, true)
	cfg.LocalCovers = &local
	return cfg
}

// DefaultEnabled reports whether newly seen sources start enabled.
func (c *Config) DefaultEnabled() bool {
	return boolOr(c.Sources.DefaultEnabled, true)
}

// GetWatchConfig returns the watch settings with defaults applied.
func (c *Config) GetWatchConfig() WatchConfig {
	cfg := c.Watch

	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 64
	}
	if cfg.ResubscribeDelayMs <= 0 {
		cfg.ResubscribeDelayMs = 1000
	}
	if cfg.ResubscribeMaxDelayMs < cfg.ResubscribeDelayMs {
		cfg.ResubscribeMaxDelayMs = max(30000, cfg.ResubscribeDelayMs)
	}
	if cfg.FailureReportThreshold <= 0 {
		cfg.FailureReportThreshold = 3
	}
	return cfg
}

// ResubscribeDelay returns the initial resubscription delay.
func (w WatchConfig) ResubscribeDelay() time.Duration {
	return time.Duration(w.ResubscribeDelayMs) * time.Millisecond
}

// ResubscribeMaxDelay returns the backoff ceiling.
func (w WatchConfig) ResubscribeMaxDelay() time.Duration {
	return time.Duration(w.ResubscribeMaxDelayMs) * time.Millisecond
}

// GetLogConfig returns the log settings with defaults applied.
func (c *Config) GetLogConfig() LogConfig {
	cfg := c.Log
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Format != "json" {
		cfg.Format = "text"
	}
	return cfg
}
