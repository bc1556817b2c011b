package registry

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DriftWatcher watches catalog files for on-disk changes after the registry
// has been sealed. The registry is immutable while serving, so a change is
// never applied; it is surfaced as a drift event (warning log plus callback)
// telling operators a restart is required for the new catalog to take effect.
type DriftWatcher struct {
	watcher *fsnotify.Watcher
	logger  *slog.Logger
	config  *DriftWatcherConfig

	mu      sync.Mutex
	lastHit time.Time
	running bool
	stopCh  chan struct{}
}

// DriftWatcherConfig contains configuration for the drift watcher.
type DriftWatcherConfig struct {
	// Paths are the catalog files or directories to watch.
	Paths []string

	// DebounceInterval suppresses duplicate events for the same save
	// (editors often emit several). Default: 500ms.
	DebounceInterval time.Duration
}

// DefaultDriftWatcherConfig returns the default watcher configuration.
func DefaultDriftWatcherConfig() *DriftWatcherConfig {
	return &DriftWatcherConfig{
		DebounceInterval: 500 * time.Millisecond,
	}
}

// NewDriftWatcher creates a new catalog drift watcher.
func NewDriftWatcher(config *DriftWatcherConfig) (*DriftWatcher, error) {
	if config == nil {
		config = DefaultDriftWatcherConfig()
	}
	if config.DebounceInterval <= 0 {
		config.DebounceInterval = 500 * time.Millisecond
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &DriftWatcher{
		watcher: watcher,
		logger:  slog.Default().With("component", "registry.drift"),
		config:  config,
		stopCh:  make(chan struct{}),
	}, nil
}

// Watch starts watching for catalog changes and invokes onDrift for each
// debounced change event. Blocks until the context is cancelled or Stop is
// called. onDrift may be nil.
func (w *DriftWatcher) Watch(ctx context.Context, onDrift func(path string)) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("drift watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	for _, path := range w.config.Paths {
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch catalog path %q: %w", path, err)
		}
	}

	w.logger.Info("catalog drift watcher started",
		"paths", w.config.Paths,
		"debounce_ms", w.config.DebounceInterval.Milliseconds(),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("catalog drift watcher stopped (context cancelled)")
			return nil

		case <-w.stopCh:
			w.logger.Info("catalog drift watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.relevant(event) {
				continue
			}
			if !w.debounce() {
				continue
			}

			w.logger.Warn("control catalog changed on disk; sealed registry is unaffected, restart required to apply",
				"path", event.Name,
				"op", event.Op.String(),
			)
			if onDrift != nil {
				onDrift(event.Name)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("catalog watcher error", "error", err)
		}
	}
}

// Stop stops the watcher and releases the underlying fsnotify resources.
func (w *DriftWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		close(w.stopCh)
	}
	return w.watcher.Close()
}

// relevant filters events to catalog file writes/creates/removes/renames.
func (w *DriftWatcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	ext := filepath.Ext(event.Name)
	return ext == ".yaml" || ext == ".yml"
}

// debounce reports whether enough time has passed since the last accepted
// event.
func (w *DriftWatcher) debounce() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	if now.Sub(w.lastHit) < w.config.DebounceInterval {
		return false
	}
	w.lastHit = now
	return true
}
