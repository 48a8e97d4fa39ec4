package audio

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher drops cached decodes when a sound file changes on disk. The
// containing directories are watched rather than the files themselves so
// editors that replace the file are still seen.
type Watcher struct {
	mu     sync.Mutex
	logger *slog.Logger
	player *Player

	paths map[string]struct{} // watched sound files
	dirs  map[string]struct{} // directories added to the fs watcher

	fw   *fsnotify.Watcher
	done chan struct{}
}

// NewWatcher creates a watcher invalidating the given player's cache.
func NewWatcher(player *Player, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		logger: logger,
		player: player,
		paths:  make(map[string]struct{}),
		dirs:   make(map[string]struct{}),
	}
}

// Watch registers a sound file. Safe to call before Start and for paths
// already registered.
func (w *Watcher) Watch(path string) {
	if path == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	w.paths[path] = struct{}{}
	dir := filepath.Dir(path)
	if _, ok := w.dirs[dir]; ok {
		return
	}
	w.dirs[dir] = struct{}{}
	if w.fw != nil {
		if err := w.fw.Add(dir); err != nil {
			w.logger.Warn("cannot watch sound directory", "dir", dir, "error", err)
		}
	}
}

// Start begins watching. Registered directories are picked up, as are any
// added later through Watch.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fw != nil {
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for dir := range w.dirs {
		if err := fw.Add(dir); err != nil {
			w.logger.Warn("cannot watch sound directory", "dir", dir, "error", err)
		}
	}
	w.fw = fw
	w.done = make(chan struct{})
	go w.watch(fw, w.done)

	w.logger.Debug("sound watcher started", "files", len(w.paths))
	return nil
}

// Stop ends watching. Watch registrations survive a later Start.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fw == nil {
		return
	}
	close(w.done)
	_ = w.fw.Close()
	w.fw = nil
}

func (w *Watcher) watch(fw *fsnotify.Watcher, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.mu.Lock()
			_, watched := w.paths[event.Name]
			w.mu.Unlock()
			if watched {
				w.logger.Debug("sound file changed, invalidating cache", "path", event.Name)
				w.player.InvalidateCache(event.Name)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("sound watcher error", "error", err)
		}
	}
}
