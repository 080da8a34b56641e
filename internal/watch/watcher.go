// Package watch re-triggers work when input files change on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

const DefaultDebounce = 300 * time.Millisecond

// ChangeFunc receives the sorted set of files that changed during one
// debounce window.
type ChangeFunc func(ctx context.Context, paths []string)

// Watcher watches individual files. Parent directories are watched so that
// editors which save by rename are still seen.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	files    map[string]struct{}
	pending  map[string]time.Time
	debounce time.Duration
	onChange ChangeFunc
	logger   logrus.FieldLogger
	stats    Stats
}

// Stats tracks watcher activity.
type Stats struct {
	Events    int
	Batches   int
	Errors    int
	LastEvent time.Time
	LastPath  string
}

func New(paths []string, debounce time.Duration, onChange ChangeFunc, logger logrus.FieldLogger) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("watch: no paths given")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}

	w := &Watcher{
		watcher:  fw,
		files:    make(map[string]struct{}),
		pending:  make(map[string]time.Time),
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
	}

	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fw.Close()
			return nil, fmt.Errorf("watch %s: %w", p, err)
		}
		w.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
		logger.WithField("dir", dir).Debug("Watching directory")
	}

	return w, nil
}

// Run processes events until ctx is cancelled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	tick := time.NewTicker(w.debounce / 3)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("Watcher error")
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case now := <-tick.C:
			if paths := w.due(now); len(paths) > 0 {
				w.logger.WithField("paths", paths).Info("Files changed")
				if w.onChange != nil {
					w.onChange(ctx, paths)
				}
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.files[abs]; !ok {
		return
	}
	now := time.Now()
	w.pending[abs] = now
	w.stats.Events++
	w.stats.LastEvent = now
	w.stats.LastPath = abs
}

// due pops every path whose last event is older than the debounce window.
func (w *Watcher) due(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var paths []string
	for p, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			paths = append(paths, p)
			delete(w.pending, p)
		}
	}
	if len(paths) > 0 {
		w.stats.Batches++
	}
	sort.Strings(paths)
	return paths
}

func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}
