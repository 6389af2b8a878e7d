// Package watch reloads a mesh file when it changes on disk.
package watch

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/explodeview/internal/logger"
)

// DefaultDebounce coalesces the burst of events an editor produces when
// saving a file.
const DefaultDebounce = 100 * time.Millisecond

// ReloadFunc is called with the watched path after it settles.
type ReloadFunc func(path string) error

// Watcher watches a single file. The parent directory is watched so that
// atomic saves (write to temp, rename over) are seen.
type Watcher struct {
	path     string
	reload   ReloadFunc
	debounce time.Duration

	fs  *fsnotify.Watcher
	log *zap.Logger
}

// New creates a watcher for path. Call Run to start delivering reloads and
// Close to release it.
func New(path string, reload ReloadFunc) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, err
	}
	return &Watcher{
		path:     abs,
		reload:   reload,
		debounce: DefaultDebounce,
		fs:       fw,
		log:      logger.Named("watch"),
	}, nil
}

// SetDebounce changes the quiet period before a reload. Call before Run.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Run delivers reloads until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	w.log.Info("watching mesh file", zap.String("path", w.path))

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.log.Debug("mesh file event", zap.Stringer("op", event.Op))
			timer.Reset(w.debounce)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))

		case <-timer.C:
			if err := w.reload(w.path); err != nil {
				w.log.Warn("reload failed", zap.String("path", w.path), zap.Error(err))
				continue
			}
			w.log.Info("mesh reloaded", zap.String("path", w.path))
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

// Close stops the underlying watcher; a running Run returns.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
