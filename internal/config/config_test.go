package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 5, cfg.General.MaxVisible)
	assert.Equal(t, QueueUnordered, cfg.General.Queue)
	assert.Equal(t, "fdsajkl;", cfg.General.HintCharacters)
	assert.False(t, cfg.General.IgnoreTimeout)
	assert.Equal(t, 5, cfg.General.DefaultTimeout.Low)
	assert.Equal(t, 10, cfg.General.DefaultTimeout.Normal)
	assert.Equal(t, 0, cfg.General.DefaultTimeout.Critical)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFileNotExist(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default().General, cfg.General)
}

func TestLoadFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notid.toml")
	content := `
[general]
max_visible = 3
queue = "fifo"
hint_characters = "ab"

[general.default_timeout]
normal = 7

[keymaps]
"dd" = "dismiss_notification"

[audio]
volume = 50
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.General.MaxVisible)
	assert.Equal(t, QueueFIFO, cfg.General.Queue)
	assert.Equal(t, "ab", cfg.General.HintCharacters)
	// Unset table keys keep their defaults
	assert.Equal(t, 7, cfg.General.DefaultTimeout.Normal)
	assert.Equal(t, 5, cfg.General.DefaultTimeout.Low)
	assert.Equal(t, "dismiss_notification", cfg.Keymaps["dd"])
	assert.Equal(t, 50, cfg.Audio.Volume)
	// Untouched sections keep defaults
	assert.True(t, cfg.History.Enabled)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid default",
			mutate: func(c *Config) {},
		},
		{
			name:    "max_visible zero",
			mutate:  func(c *Config) { c.General.MaxVisible = 0 },
			wantErr: "max_visible",
		},
		{
			name:    "bad queue policy",
			mutate:  func(c *Config) { c.General.Queue = "lifo" },
			wantErr: "queue policy",
		},
		{
			name:    "hint alphabet too small",
			mutate:  func(c *Config) { c.General.HintCharacters = "a" },
			wantErr: "hint_characters",
		},
		{
			name:    "hint alphabet repeated chars",
			mutate:  func(c *Config) { c.General.HintCharacters = "aab" },
			wantErr: "hint_characters",
		},
		{
			name:    "volume out of range",
			mutate:  func(c *Config) { c.Audio.Volume = 150 },
			wantErr: "volume",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestDurationUnmarshal(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
	}{
		{"5s", 5 * time.Second},
		{"1m30s", 90 * time.Second},
		{"500", 500 * time.Millisecond},
		{"0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var d Duration
			require.NoError(t, d.UnmarshalText([]byte(tt.input)))
			assert.Equal(t, tt.want, d.Duration())
		})
	}

	var d Duration
	assert.Error(t, d.UnmarshalText([]byte("soon")))
}

func TestResolveTimeout(t *testing.T) {
	cfg := Default()

	t.Run("zero never expires", func(t *testing.T) {
		_, ok := cfg.ResolveTimeout("app", UrgencyNormal, 0)
		assert.False(t, ok)
	})

	t.Run("positive is verbatim milliseconds", func(t *testing.T) {
		d, ok := cfg.ResolveTimeout("app", UrgencyNormal, 2500)
		require.True(t, ok)
		assert.Equal(t, 2500*time.Millisecond, d)
	})

	t.Run("negative falls back to urgency table", func(t *testing.T) {
		d, ok := cfg.ResolveTimeout("app", UrgencyNormal, -1)
		require.True(t, ok)
		assert.Equal(t, 10*time.Second, d)
	})

	t.Run("table zero means never", func(t *testing.T) {
		_, ok := cfg.ResolveTimeout("app", UrgencyCritical, -1)
		assert.False(t, ok)
	})

	t.Run("ignore_timeout overrides caller value", func(t *testing.T) {
		cfg := Default()
		cfg.General.IgnoreTimeout = true
		d, ok := cfg.ResolveTimeout("app", UrgencyLow, 99999)
		require.True(t, ok)
		assert.Equal(t, 5*time.Second, d)
	})

	t.Run("per-app override", func(t *testing.T) {
		cfg := Default()
		ignore := true
		cfg.Apps = []AppOverride{{
			App:            "chatterbox",
			IgnoreTimeout:  &ignore,
			DefaultTimeout: &TimeoutTable{Normal: 3},
		}}

		d, ok := cfg.ResolveTimeout("chatterbox", UrgencyNormal, 60000)
		require.True(t, ok)
		assert.Equal(t, 3*time.Second, d)

		// Other apps are unaffected
		d, ok = cfg.ResolveTimeout("other", UrgencyNormal, 60000)
		require.True(t, ok)
		assert.Equal(t, time.Minute, d)
	})
}

func TestColorUnmarshal(t *testing.T) {
	var c Color
	require.NoError(t, c.UnmarshalText([]byte("#ff0080")))
	assert.InDelta(t, 1.0, c[0], 0.001)
	assert.InDelta(t, 0.0, c[1], 0.001)
	assert.InDelta(t, float32(0x80)/255, c[2], 0.001)
	assert.InDelta(t, 1.0, c[3], 0.001)

	require.NoError(t, c.UnmarshalText([]byte("#00000080")))
	assert.InDelta(t, float32(0x80)/255, c[3], 0.001)

	assert.Error(t, c.UnmarshalText([]byte("red")))
	assert.Error(t, c.UnmarshalText([]byte("#ffff")))
}

func TestCounterFormat(t *testing.T) {
	c := CounterStyle{PrevFormat: "({} more)", NextFormat: "{} below"}
	assert.Equal(t, "(2 more)", c.Format(c.PrevFormat, 2))
	assert.Equal(t, "7 below", c.Format(c.NextFormat, 7))
}

func TestFindStyle(t *testing.T) {
	styles := DefaultStyles()
	styles.Apps = []AppStyleEntry{{
		App:     "mail",
		Default: StyleOverride{Style: Style{Width: 200}},
		Hover:   StyleOverride{Style: Style{Width: 220}},
	}}

	assert.Equal(t, float32(400), styles.FindStyle("other", false).Width)
	assert.Equal(t, float32(200), styles.FindStyle("mail", false).Width)
	assert.Equal(t, float32(220), styles.FindStyle("mail", true).Width)
	assert.NotEqual(t, styles.FindStyle("other", false).Background, styles.FindStyle("other", true).Background)
}
