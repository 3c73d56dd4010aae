package config

import (
	"context"
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/bscore/diagnostic-core/pkg/logger"
)

// Watcher reloads Config from disk whenever configs/config.yaml changes and
// notifies registered callbacks with the freshly loaded value. Components
// that only read tunables at startup (analyzer thresholds, orchestrator
// concurrency limits) are unaffected; it exists for the handful of settings
// operators expect to change without a restart, such as log level.
type Watcher struct {
	configPath string
	logger     logger.Logger

	mu       sync.RWMutex
	current  *Config
	watchers []func(*Config)
	stopCh   chan struct{}
}

// NewWatcher returns a Watcher for configPath, seeded with the already-loaded
// initial config.
func NewWatcher(configPath string, initial *Config, log logger.Logger) *Watcher {
	return &Watcher{
		configPath: configPath,
		logger:     log,
		current:    initial,
		stopCh:     make(chan struct{}),
	}
}

// Start watches configPath for writes until ctx is cancelled or Stop is
// called. It returns nil on a clean stop; a watcher setup failure is
// returned to the caller, who may choose to run without hot reload.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.configPath); err != nil {
		w.logger.Warn("config hot reload disabled: watch target unavailable", "path", w.configPath, "error", err)
		return nil
	}

	w.logger.Info("config watcher started", "path", w.configPath)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.logger.Info("config file changed, reloading", "file", event.Name)
				if err := w.reload(); err != nil {
					w.logger.Error("config reload failed", "error", err)
					continue
				}
				w.notify()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("config watcher error", "error", err)

		case <-ctx.Done():
			return nil
		case <-w.stopCh:
			return nil
		}
	}
}

// OnChange registers a callback invoked with the newly loaded Config after
// every successful reload.
func (w *Watcher) OnChange(cb func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.watchers = append(w.watchers, cb)
}

// Current returns the most recently loaded Config.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Stop ends Start's event loop.
func (w *Watcher) Stop() {
	close(w.stopCh)
}

func (w *Watcher) reload() error {
	next, err := Load()
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.current = next
	w.mu.Unlock()
	return nil
}

func (w *Watcher) notify() {
	w.mu.RLock()
	cfg := w.current
	cbs := make([]func(*Config), len(w.watchers))
	copy(cbs, w.watchers)
	w.mu.RUnlock()

	for _, cb := range cbs {
		go func(cb func(*Config)) {
			defer func() {
				if r := recover(); r != nil {
					w.logger.Error("config change callback panicked", "panic", r)
				}
			}()
			cb(cfg)
		}(cb)
	}
}
