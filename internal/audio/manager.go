package audio

import (
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"github.com/jmylchreest/notid/internal/config"
)

// Manager manages notification sound playback: per-urgency default sounds,
// the global mute switch and the sound file watcher.
type Manager struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	player  *Player
	watcher *Watcher
	config  *config.Config
	muted   bool

	// Urgency to sound path mapping
	sounds map[int]string
}

// NewManager creates a new audio manager.
func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	player := NewPlayer(logger)

	m := &Manager{
		logger:  logger,
		player:  player,
		watcher: NewWatcher(player, logger),
		config:  cfg,
		muted:   cfg.Audio.Muted,
		sounds:  make(map[int]string),
	}

	m.loadSoundConfig()

	return m
}

// loadSoundConfig loads sounds from the configuration.
func (m *Manager) loadSoundConfig() {
	if m.config == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Config uses 0-100, player uses 0.0-1.0
	if m.config.Audio.Volume > 0 {
		m.player.SetVolume(float64(m.config.Audio.Volume) / 100.0)
	}

	sounds := map[int]string{
		config.UrgencyLow:      m.config.Audio.Sounds.Low,
		config.UrgencyNormal:   m.config.Audio.Sounds.Normal,
		config.UrgencyCritical: m.config.Audio.Sounds.Critical,
	}

	for urgency, path := range sounds {
		if path == "" {
			continue
		}

		expandedPath := expandPath(path)
		if _, err := os.Stat(expandedPath); err != nil {
			m.logger.Warn("sound file not found", "urgency", urgency, "path", expandedPath)
			continue
		}

		m.sounds[urgency] = expandedPath
		m.logger.Debug("loaded sound", "urgency", urgency, "path", expandedPath)
	}
}

// Start preloads configured sounds and starts the file watcher.
func (m *Manager) Start() error {
	m.mu.RLock()
	sounds := make(map[int]string, len(m.sounds))
	maps.Copy(sounds, m.sounds)
	m.mu.RUnlock()

	for _, path := range sounds {
		if err := m.player.Preload(path); err != nil {
			m.logger.Warn("failed to preload sound", "path", path, "error", err)
		}
		m.watcher.Watch(path)
	}

	if err := m.watcher.Start(); err != nil {
		return err
	}

	m.logger.Info("audio manager started", "sounds", len(sounds), "muted", m.Muted())
	return nil
}

// Stop shuts down the audio manager.
func (m *Manager) Stop() {
	m.watcher.Stop()
	m.player.Close()
	m.logger.Debug("audio manager stopped")
}

// Mute suppresses all notification sounds.
func (m *Manager) Mute() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.muted {
		m.muted = true
		m.logger.Info("audio muted")
	}
}

// Unmute re-enables notification sounds.
func (m *Manager) Unmute() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.muted {
		m.muted = false
		m.logger.Info("audio unmuted")
	}
}

// ToggleMute flips the mute state.
func (m *Manager) ToggleMute() {
	if m.Muted() {
		m.Unmute()
	} else {
		m.Mute()
	}
}

// Muted reports the mute state.
func (m *Manager) Muted() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.muted
}

// Play plays the sound for a notification. An explicit sound-file hint
// wins, then a sound-name hint resolved against the freedesktop sound
// theme, then the per-urgency default. The suppress-sound hint and the
// mute switch silence all three.
func (m *Manager) Play(urgency int, soundFile, soundName string, suppress bool) error {
	if !m.config.Audio.Enabled || suppress || m.Muted() {
		return nil
	}

	if soundFile != "" {
		return m.player.Play(expandPath(soundFile))
	}
	if soundName != "" {
		if path := resolveSoundName(soundName); path != "" {
			return m.player.Play(path)
		}
		m.logger.Debug("sound name not found in theme", "name", soundName)
	}

	m.mu.RLock()
	path, ok := m.sounds[urgency]
	m.mu.RUnlock()

	if !ok {
		m.logger.Debug("no sound configured for urgency", "urgency", urgency)
		return nil
	}

	return m.player.Play(path)
}

// SetVolume sets the playback volume (0.0 to 1.0).
func (m *Manager) SetVolume(volume float64) {
	m.player.SetVolume(volume)
}

// Volume returns the current volume.
func (m *Manager) Volume() float64 {
	return m.player.Volume()
}

// Reload reloads the sound configuration.
func (m *Manager) Reload() {
	m.player.ClearCache()
	m.loadSoundConfig()

	m.mu.RLock()
	sounds := make(map[int]string, len(m.sounds))
	maps.Copy(sounds, m.sounds)
	m.mu.RUnlock()

	for _, path := range sounds {
		if err := m.player.Preload(path); err != nil {
			m.logger.Warn("failed to preload sound on reload", "path", path, "error", err)
		}
		m.watcher.Watch(path)
	}

	m.logger.Debug("audio manager reloaded")
}

// UpdateConfig swaps the configuration and reloads sounds. Called on
// config hot-reload.
func (m *Manager) UpdateConfig(cfg *config.Config) {
	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()

	m.logger.Debug("audio manager config updated")
	m.Reload()
}

// expandPath expands ~ to home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// soundThemeDirs hold the freedesktop sound theme samples referenced by
// the sound-name hint.
var soundThemeDirs = []string{
	"/usr/share/sounds/freedesktop/stereo",
	"/usr/local/share/sounds/freedesktop/stereo",
}

// resolveSoundName locates a sound-name sample on disk, or returns "".
func resolveSoundName(name string) string {
	for _, dir := range soundThemeDirs {
		path := filepath.Join(dir, name+".oga")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
