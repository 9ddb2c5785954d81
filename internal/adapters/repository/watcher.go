package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/okian/taskflow/pkg/logger"
	"github.com/okian/taskflow/pkg/metrics"
)

const defaultDebounce = 500 * time.Millisecond

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce sets how long the watcher waits for writes to settle.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithReloadHook registers a callback run after every reload attempt.
func WithReloadHook(fn func(ctx context.Context, err error)) WatchOption {
	return func(w *Watcher) {
		if fn != nil {
			w.onReload = fn
		}
	}
}

// Watcher reloads a fixture file into a Store when it changes. A reload
// that fails keeps the previous contents.
type Watcher struct {
	store    Store
	path     string
	debounce time.Duration
	onReload func(ctx context.Context, err error)
	fsw      *fsnotify.Watcher
	logger   logger.Logger

	mu      sync.Mutex
	pending bool
	started bool
	done    chan struct{}
}

// NewWatcher creates a watcher for the fixture at path.
func NewWatcher(store Store, path string, opts ...WatchOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve roster path: %w", err)
	}
	if _, err := FormatFromPath(abs); err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		store:    store,
		path:     abs,
		debounce: defaultDebounce,
		fsw:      fsw,
		logger:   logger.Get().Named("roster-watcher"),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start watches the file's directory so editors that replace the file by
// rename are still seen.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.fsw.Add(filepath.Dir(w.path)); err != nil {
		_ = w.fsw.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	w.mu.Lock()
	w.started = true
	w.mu.Unlock()
	go w.loop(ctx)
	w.logger.Info(ctx, "roster watcher started",
		logger.String("path", w.path),
		logger.Duration("debounce", w.debounce),
	)
	return nil
}

// Stop stops the watcher and waits for the loop to exit.
func (w *Watcher) Stop() error {
	err := w.fsw.Close()
	w.mu.Lock()
	started := w.started
	w.mu.Unlock()
	if started {
		<-w.done
	}
	return err
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				w.mu.Lock()
				w.pending = true
				w.mu.Unlock()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error(ctx, "watcher error", logger.Error(err))
		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	if !w.pending {
		w.mu.Unlock()
		return
	}
	w.pending = false
	w.mu.Unlock()

	err := ReloadFile(ctx, w.store, w.path)
	if err != nil {
		metrics.RecordRosterReload("error")
		metrics.RecordErrorByComponent("repository", "reload")
		w.logger.Warn(ctx, "roster reload failed, keeping previous roster",
			logger.String("path", w.path), logger.Error(err))
	} else {
		metrics.RecordRosterReload("ok")
		c := w.store.Count(ctx)
		w.logger.Info(ctx, "roster reloaded",
			logger.String("path", w.path),
			logger.Int("members", c.Members),
			logger.Int("items", c.Items),
		)
	}
	if w.onReload != nil {
		w.onReload(ctx, err)
	}
}
