// Package watcher monitors the uploads directory and re-ingests documents
// dropped there outside the HTTP API. Create and write events trigger
// ingestion after a short debounce; removes trigger vector cleanup.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces the burst of write events emitted while a file is
// still being copied into the directory.
const debounceDelay = 500 * time.Millisecond

// Handler receives file events from the watcher. Callbacks run on the
// watcher goroutine and should hand off long work themselves.
type Handler interface {
	// OnChange is called when a file is created or rewritten.
	OnChange(ctx context.Context, path string)
	// OnRemove is called when a file is deleted or renamed away.
	OnRemove(ctx context.Context, path string)
}

// Watcher watches one directory with fsnotify.
type Watcher struct {
	// dir is the watched directory.
	dir string
	// handler receives debounced file events.
	handler Handler
	// log receives watcher lifecycle and error messages.
	log *slog.Logger

	fsw *fsnotify.Watcher

	// mu guards pending debounce timers keyed by path.
	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New constructs a Watcher over dir. Call Run to start it.
func New(dir string, handler Handler, log *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watcher: create: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watcher: watch %s: %w", dir, err)
	}
	return &Watcher{
		dir:     dir,
		handler: handler,
		log:     log,
		fsw:     fsw,
		pending: map[string]*time.Timer{},
	}, nil
}

// Run processes events until ctx is cancelled. It always returns nil after
// cleanup so it can sit in an errgroup-style goroutine.
func (w *Watcher) Run(ctx context.Context) error {
	w.log.Info("uploads watcher started", "dir", w.dir)
	defer w.fsw.Close()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("uploads watcher stopped")
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ignored(event.Name) {
				continue
			}
			switch {
			case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
				w.scheduleChange(ctx, event.Name)
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				w.cancelPending(event.Name)
				w.handler.OnRemove(ctx, event.Name)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("uploads watcher error", "error", err)
		}
	}
}

// scheduleChange (re)arms the per-file debounce timer.
func (w *Watcher) scheduleChange(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(debounceDelay, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		w.handler.OnChange(ctx, path)
	})
}

// cancelPending drops a debounce timer for a path that no longer exists.
func (w *Watcher) cancelPending(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
}

// ignored filters the bookkeeping index and editor droppings out of the
// event stream.
func ignored(path string) bool {
	base := filepath.Base(path)
	return base == "index.json" || strings.HasPrefix(base, ".")
}
