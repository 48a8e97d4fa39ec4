// Package config defines the notid daemon configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Urgency levels matching the freedesktop notification spec.
const (
	UrgencyLow      = 0
	UrgencyNormal   = 1
	UrgencyCritical = 2
)

// UrgencyNames maps urgency levels to human-readable names.
var UrgencyNames = map[int]string{
	UrgencyLow:      "low",
	UrgencyNormal:   "normal",
	UrgencyCritical: "critical",
}

// QueuePolicy controls how expiry timers are scheduled across the
// notification collection.
type QueuePolicy string

const (
	// QueueFIFO allows only the oldest notification to hold an armed timer,
	// enforcing strict in-order expiry.
	QueueFIFO QueuePolicy = "fifo"
	// QueueUnordered lets every notification expire independently.
	QueueUnordered QueuePolicy = "unordered"
)

// Duration is a time.Duration that can be unmarshaled from human-readable
// strings ("5s", "1m") or integer milliseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '5s', '1m' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Config is the daemon configuration, loaded from
// ~/.config/notid/notid.toml.
type Config struct {
	General GeneralConfig     `toml:"general"`
	Styles  StylesConfig      `toml:"styles"`
	Keymaps map[string]string `toml:"keymaps"`
	Audio   AudioConfig       `toml:"audio"`
	History HistoryConfig     `toml:"history"`
	Apps    []AppOverride     `toml:"apps"`
}

// GeneralConfig contains collection and input behaviour settings.
type GeneralConfig struct {
	MaxVisible     int          `toml:"max_visible"`     // Window size over the collection
	Queue          QueuePolicy  `toml:"queue"`           // "fifo" or "unordered"
	HintCharacters string       `toml:"hint_characters"` // Alphabet for hint labels
	IgnoreTimeout  bool         `toml:"ignore_timeout"`  // Force default_timeout for all apps
	DefaultTimeout TimeoutTable `toml:"default_timeout"` // Per-urgency defaults, in seconds
	RepeatDelay    Duration     `toml:"repeat_delay"`    // Key repeat initial delay
	RepeatRate     int          `toml:"repeat_rate"`     // Key repeats per second
}

// TimeoutTable holds per-urgency default timeouts in whole seconds.
// A value of 0 means notifications of that urgency never expire by default.
type TimeoutTable struct {
	Low      int `toml:"low"`
	Normal   int `toml:"normal"`
	Critical int `toml:"critical"`
}

// Get returns the default timeout in seconds for the given urgency level.
func (t TimeoutTable) Get(urgency int) int {
	switch urgency {
	case UrgencyLow:
		return t.Low
	case UrgencyCritical:
		return t.Critical
	default:
		return t.Normal
	}
}

// AppOverride carries per-application overrides for timeout behaviour.
type AppOverride struct {
	App            string        `toml:"app"`
	IgnoreTimeout  *bool         `toml:"ignore_timeout"`
	DefaultTimeout *TimeoutTable `toml:"default_timeout"`
}

// AudioConfig contains audio settings.
type AudioConfig struct {
	Enabled bool        `toml:"enabled"`
	Muted   bool        `toml:"muted"` // Initial mute state
	Volume  int         `toml:"volume"`
	Sounds  SoundConfig `toml:"sounds"`
}

// SoundConfig contains per-urgency sound file paths.
type SoundConfig struct {
	Low      string `toml:"low"`
	Normal   string `toml:"normal"`
	Critical string `toml:"critical"`
}

// HistoryConfig contains notification history settings.
type HistoryConfig struct {
	Enabled bool     `toml:"enabled"`
	Path    string   `toml:"path"` // Override for the sqlite database path
	Keep    Duration `toml:"keep"` // Prune records older than this (0 = keep forever)
}

// Default returns a new Config with default values.
func Default() *Config {
	return &Config{
		General: GeneralConfig{
			MaxVisible:     5,
			Queue:          QueueUnordered,
			HintCharacters: "fdsajkl;",
			IgnoreTimeout:  false,
			DefaultTimeout: TimeoutTable{
				Low:      5,
				Normal:   10,
				Critical: 0, // Never expires
			},
			RepeatDelay: Duration(400 * time.Millisecond),
			RepeatRate:  25,
		},
		Styles:  DefaultStyles(),
		Keymaps: map[string]string{},
		Audio: AudioConfig{
			Enabled: true,
			Volume:  80,
			Sounds:  SoundConfig{},
		},
		History: HistoryConfig{
			Enabled: true,
			Keep:    Duration(30 * 24 * time.Hour),
		},
	}
}

// Path returns the path to the daemon config file.
func Path() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "notid", "notid.toml"), nil
}

// Load loads the configuration from the default location.
// If the file doesn't exist, returns the default configuration.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return LoadFile(path)
}

// LoadFile loads the configuration from the given path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then overlay with file contents
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid. A malformed hint alphabet is
// fatal because it makes hint label generation undefined.
func (c *Config) Validate() error {
	if c.General.MaxVisible < 1 {
		return fmt.Errorf("max_visible must be at least 1, got %d", c.General.MaxVisible)
	}

	switch c.General.Queue {
	case QueueFIFO, QueueUnordered:
	default:
		return fmt.Errorf("invalid queue policy %q, must be %q or %q", c.General.Queue, QueueFIFO, QueueUnordered)
	}

	distinct := make(map[rune]bool)
	for _, r := range c.General.HintCharacters {
		distinct[r] = true
	}
	if len(distinct) < 2 {
		return fmt.Errorf("hint_characters must contain at least 2 distinct characters, got %q", c.General.HintCharacters)
	}
	if len(distinct) != len([]rune(c.General.HintCharacters)) {
		return fmt.Errorf("hint_characters must not repeat characters, got %q", c.General.HintCharacters)
	}

	if c.Audio.Volume < 0 || c.Audio.Volume > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", c.Audio.Volume)
	}

	return nil
}

// FindApp returns the override entry for the given app name, or nil.
func (c *Config) FindApp(app string) *AppOverride {
	for i := range c.Apps {
		if c.Apps[i].App == app {
			return &c.Apps[i]
		}
	}
	return nil
}

// ResolveTimeout resolves the raw caller-supplied timeout for a notification
// into a concrete duration. Per the freedesktop spec the raw value is in
// milliseconds, with 0 meaning never expire and -1 meaning use the server
// default. The returned bool is false when the notification never expires.
func (c *Config) ResolveTimeout(app string, urgency int, raw int32) (time.Duration, bool) {
	ignore := c.General.IgnoreTimeout
	table := c.General.DefaultTimeout

	if entry := c.FindApp(app); entry != nil {
		if entry.IgnoreTimeout != nil {
			ignore = *entry.IgnoreTimeout
		}
		if entry.DefaultTimeout != nil {
			table = *entry.DefaultTimeout
		}
	}

	fromTable := func() (time.Duration, bool) {
		secs := table.Get(urgency)
		if secs <= 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}

	if ignore {
		return fromTable()
	}

	switch {
	case raw == 0:
		return 0, false
	case raw < 0:
		return fromTable()
	default:
		return time.Duration(raw) * time.Millisecond, true
	}
}

// SoundForUrgency returns the sound file path for the given urgency level.
// Expands ~ to home directory.
func (c *Config) SoundForUrgency(urgency int) string {
	var path string
	switch urgency {
	case UrgencyLow:
		path = c.Audio.Sounds.Low
	case UrgencyCritical:
		path = c.Audio.Sounds.Critical
	default:
		path = c.Audio.Sounds.Normal
	}
	return expandPath(path)
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
