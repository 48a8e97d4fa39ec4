package daemon

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// ConfigWatcher watches the configuration file and fires a callback when it
// changes. It watches the parent directory rather than the file itself so
// editors that replace the file atomically still trigger a reload.
type ConfigWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	onChange func()
	done     chan struct{}
}

// NewConfigWatcher creates a watcher for path. onChange is invoked from the
// watcher goroutine; callers should post into the event loop themselves.
func NewConfigWatcher(path string, onChange func(), logger *slog.Logger) *ConfigWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConfigWatcher{
		path:     path,
		logger:   logger,
		onChange: onChange,
		done:     make(chan struct{}),
	}
}

// Start begins watching. The config file does not have to exist yet; a
// later create in the watched directory triggers the callback too.
func (w *ConfigWatcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	w.watcher = watcher

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	go w.watch()
	w.logger.Debug("watching config file", "path", w.path)
	return nil
}

func (w *ConfigWatcher) watch() {
	base := filepath.Base(w.path)
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.logger.Debug("config file changed", "op", event.Op.String())
				w.onChange()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)
		}
	}
}

// Stop stops watching and releases the watcher.
func (w *ConfigWatcher) Stop() {
	close(w.done)
	if w.watcher != nil {
		w.watcher.Close()
	}
}
