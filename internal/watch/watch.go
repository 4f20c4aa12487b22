// Package watch subscribes to filesystem changes on a repository's
// control-metadata path and forwards debounced notifications, typically to
// drive cache invalidation.
package watch

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/scmkit/scmkit/internal/debounce"
)

const notifyDebounceDelay = 350 * time.Millisecond

// Watcher observes one or more paths and invokes the configured callback
// once per burst of relevant events.
type Watcher struct {
	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	debounce *debounce.Debouncer
	onChange func()
	closed   bool
}

// New starts watching the given paths; onChange fires debounced on every
// external mutation under them.
func New(onChange func(), paths ...string) (*Watcher, error) {
	if onChange == nil {
		return nil, fmt.Errorf("change callback not set")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	for _, path := range paths {
		slog.Debug("adding path to FS watcher", slog.String("path", path))
		if err := fsw.Add(path); err != nil {
			err = errors.Join(err, fsw.Close())
			return nil, fmt.Errorf("watch %s: %w", path, err)
		}
	}
	w := &Watcher{
		fsw:      fsw,
		debounce: debounce.New(notifyDebounceDelay),
		onChange: onChange,
	}
	go w.loop(fsw)
	return w, nil
}

func (w *Watcher) loop(fsw *fsnotify.Watcher) {
	for {
		select {
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if ignorePath(ev.Name) {
				continue
			}
			slog.Debug("fsnotify event",
				slog.String("op", ev.Op.String()),
				slog.String("path", ev.Name),
			)
			w.schedule()
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			slog.Error("fsnotify error", slog.Any("error", err))
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.debounce.Trigger(w.onChange)
}

// Close stops the subscription; no callbacks fire afterwards.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	w.debounce.Stop()
	return w.fsw.Close()
}

// ignorePath filters transient lock/journal files the tools churn during
// their own operations.
func ignorePath(name string) bool {
	base := filepath.Base(name)
	ext := strings.ToLower(filepath.Ext(base))
	return ext == ".lock" || ext == ".tmp" || strings.HasSuffix(base, "-journal")
}
