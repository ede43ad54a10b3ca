package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const debounceDelay = 500 * time.Millisecond

// Watcher reloads configuration files on change and notifies subscribers
// when a hot-reloadable field differs. Only development watches the disk.
type Watcher struct {
	loader    *Loader
	config    *Config
	callbacks []func(*Config)
	mu        sync.RWMutex
	logger    *zap.Logger
	watcher   *fsnotify.Watcher
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// NewWatcher creates a watcher around the configuration loader produced.
func NewWatcher(initial *Config, loader *Loader, logger *zap.Logger) (*Watcher, error) {
	w := &Watcher{
		loader: loader,
		config: initial,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	if initial.Environment != Development {
		logger.Info("Configuration hot reloading disabled",
			zap.String("environment", string(initial.Environment)),
		)
		return w, nil
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.watcher = fsWatcher

	if err := w.watchConfigDir(); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch config files: %w", err)
	}

	go w.watchLoop()

	logger.Info("Configuration hot reloading enabled",
		zap.String("dir", loader.BasePath()),
	)
	return w, nil
}

func (w *Watcher) watchConfigDir() error {
	dir := w.loader.BasePath()
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		w.logger.Debug("Config directory missing, nothing to watch", zap.String("dir", dir))
		return nil
	}
	return w.watcher.Add(dir)
}

func (w *Watcher) watchLoop() {
	defer w.watcher.Close()

	var debounce *time.Timer
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 || !isConfigFile(event.Name) {
				continue
			}
			w.logger.Debug("Configuration file changed",
				zap.String("file", event.Name),
				zap.String("operation", event.Op.String()),
			)
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, w.Reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))

		case <-w.stopCh:
			if debounce != nil {
				debounce.Stop()
			}
			return
		}
	}
}

// Reload reads the configuration again and notifies subscribers when a
// hot-reloadable field changed. Invalid files keep the previous config.
func (w *Watcher) Reload() {
	next, err := w.loader.Load()
	if err != nil {
		w.logger.Error("Invalid configuration after reload", zap.Error(err))
		return
	}

	w.mu.Lock()
	prev := w.config
	changes := hotChanges(prev, next)
	if len(changes) == 0 {
		w.mu.Unlock()
		w.logger.Debug("Configuration unchanged after reload")
		return
	}
	w.config = next
	callbacks := make([]func(*Config), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	w.logger.Info("Configuration reloaded", zap.Strings("changes", changes))

	for i, cb := range callbacks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					w.logger.Error("Config callback panicked",
						zap.Int("callback_index", i),
						zap.Any("panic", r),
					)
				}
			}()
			cb(next)
		}()
	}
}

// OnChange registers a callback to be called when configuration changes.
func (w *Watcher) OnChange(callback func(*Config)) {
	w.mu.Lock()
	w.callbacks = append(w.callbacks, callback)
	w.mu.Unlock()
}

// Config returns the current configuration.
func (w *Watcher) Config() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// Stop stops the watcher. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

// hotChanges lists the reloadable fields that differ. Everything else needs
// a restart.
func hotChanges(old, next *Config) []string {
	var changes []string
	if old.Logging.Level != next.Logging.Level {
		changes = append(changes, fmt.Sprintf("logging.level: %s -> %s", old.Logging.Level, next.Logging.Level))
	}
	if old.Chat.ResponseDelay != next.Chat.ResponseDelay {
		changes = append(changes, fmt.Sprintf("chat.responseDelay: %s -> %s", old.Chat.ResponseDelay, next.Chat.ResponseDelay))
	}
	if old.Security.RateLimit != next.Security.RateLimit || old.Security.RateBurst != next.Security.RateBurst {
		changes = append(changes, fmt.Sprintf("security.rateLimit: %g/%d -> %g/%d",
			old.Security.RateLimit, old.Security.RateBurst, next.Security.RateLimit, next.Security.RateBurst))
	}
	return changes
}

func isConfigFile(path string) bool {
	switch filepath.Ext(path) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}
