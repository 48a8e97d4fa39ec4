package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmylchreest/notid/internal/config"
)

func TestMuteToggle(t *testing.T) {
	cfg := config.Default()
	m := NewManager(cfg, nil)

	assert.False(t, m.Muted())
	m.Mute()
	assert.True(t, m.Muted())
	m.Mute() // Idempotent
	assert.True(t, m.Muted())
	m.Unmute()
	assert.False(t, m.Muted())

	m.ToggleMute()
	assert.True(t, m.Muted())
	m.ToggleMute()
	assert.False(t, m.Muted())
}

func TestInitialMuteFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Audio.Muted = true
	m := NewManager(cfg, nil)
	assert.True(t, m.Muted())
}

func TestPlaySkipsWhenSilenced(t *testing.T) {
	cfg := config.Default()
	m := NewManager(cfg, nil)

	// No sound configured for the urgency: a clean no-op
	assert.NoError(t, m.Play(config.UrgencyNormal, "", "", false))

	// The suppress-sound hint short-circuits before any file access
	assert.NoError(t, m.Play(config.UrgencyNormal, "/nonexistent.wav", "", true))

	// So does mute
	m.Mute()
	assert.NoError(t, m.Play(config.UrgencyNormal, "/nonexistent.wav", "", false))

	// And a disabled audio section
	m.Unmute()
	cfg.Audio.Enabled = false
	assert.NoError(t, m.Play(config.UrgencyNormal, "/nonexistent.wav", "", false))
}

func TestPlayUnknownSoundNameFallsThrough(t *testing.T) {
	cfg := config.Default()
	m := NewManager(cfg, nil)

	// A sound-name miss is not an error; with no per-urgency default
	// configured either, playback is a no-op.
	assert.NoError(t, m.Play(config.UrgencyNormal, "", "no-such-theme-sample", false))
}

func TestVolumeClamping(t *testing.T) {
	cfg := config.Default()
	m := NewManager(cfg, nil)

	m.SetVolume(1.5)
	assert.Equal(t, 1.0, m.Volume())
	m.SetVolume(-0.5)
	assert.Equal(t, 0.0, m.Volume())
}
