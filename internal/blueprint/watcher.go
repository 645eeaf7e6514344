package blueprint

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stackarr/stackarr/internal/utils/logger"
	"go.uber.org/zap"
)

// Watcher reloads blueprint files when they change on disk, so edits to the
// blueprint directory show up without a restart.
type Watcher struct {
	watcher    *fsnotify.Watcher
	reloadFunc func(string) error
	debouncer  *debouncer
}

// debouncer prevents rapid-fire reloads while a file is being written.
type debouncer struct {
	timer    *time.Timer
	duration time.Duration
}

// NewWatcher creates a watcher that invokes reloadFunc with the changed file.
func NewWatcher(reloadFunc func(string) error) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{
		watcher:    fsWatcher,
		reloadFunc: reloadFunc,
		debouncer:  &debouncer{duration: 500 * time.Millisecond},
	}, nil
}

// Watch starts watching the blueprint directory.
func (w *Watcher) Watch(dir string) error {
	logger.Info("Watching blueprint directory", zap.String("dir", dir))
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	go w.processEvents()
	return nil
}

func (w *Watcher) processEvents() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Error("Blueprint watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Write != fsnotify.Write && event.Op&fsnotify.Create != fsnotify.Create {
		return
	}
	switch strings.ToLower(filepath.Ext(event.Name)) {
	case ".json", ".yaml", ".yml":
	default:
		return
	}
	logger.Debug("Blueprint file changed",
		zap.String("file", event.Name), zap.String("op", event.Op.String()))

	w.debouncer.debounce(func() {
		if err := w.reloadFunc(event.Name); err != nil {
			logger.Error("Failed to reload blueprint",
				zap.String("file", event.Name), zap.Error(err))
			return
		}
		logger.Info("Reloaded blueprint", zap.String("file", event.Name))
	})
}

func (d *debouncer) debounce(fn func()) {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, fn)
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	if w.debouncer.timer != nil {
		w.debouncer.timer.Stop()
	}
	return w.watcher.Close()
}
