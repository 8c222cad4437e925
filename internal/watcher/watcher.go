// Package watcher imports CSV files dropped into watched directories,
// with fsnotify events debounced per file.
package watcher

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Watcher watches drop directories and invokes onImport for each settled
// CSV file. Removals are ignored; imports are additive.
type Watcher struct {
	dirs     []string
	onImport func(path string)

	debounce    time.Duration
	watcher     *fsnotify.Watcher
	mu          sync.Mutex
	debounceMap map[string]*time.Timer
	done        chan struct{}
	started     bool
	stopOnce    sync.Once
	logger      *zap.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce overrides the per-file settle delay.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// NewWatcher creates a watcher over dirs. onImport is called once per
// created or modified CSV file after its writes settle.
func NewWatcher(dirs []string, onImport func(path string), opts ...Option) *Watcher {
	w := &Watcher{
		dirs:        dirs,
		onImport:    onImport,
		debounce:    defaultDebounce,
		debounceMap: make(map[string]*time.Timer),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start starts watching. It runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	for _, dir := range w.dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			w.mu.Unlock()
			return err
		}
	}
	w.watcher = watcher
	w.started = true
	if w.logger != nil {
		w.logger.Debug("csv watcher starting", zap.Strings("dirs", w.dirs))
	}
	w.mu.Unlock()
	go w.run(ctx)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil && w.logger != nil {
				w.logger.Debug("csv watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	if !isCSV(ev.Name) {
		return
	}
	if w.logger != nil {
		w.logger.Debug("csv watcher event", zap.String("op", ev.Op.String()), zap.String("path", ev.Name))
	}
	w.debounceImport(ev.Name)
}

// debounceImport delays the import until writes to the file stop, so a
// file still being copied in is not imported half-written.
func (w *Watcher) debounceImport(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
	}
	w.debounceMap[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.debounceMap, path)
		w.mu.Unlock()
		if w.onImport != nil {
			w.onImport(path)
		}
	})
}

// Stop stops the watcher. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		close(w.done)
		if w.watcher != nil {
			_ = w.watcher.Close()
		}
		for _, t := range w.debounceMap {
			t.Stop()
		}
	})
}

// Directories returns the watched drop directories.
func (w *Watcher) Directories() []string {
	return append([]string(nil), w.dirs...)
}

func isCSV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}
