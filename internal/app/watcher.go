package app

import (
	"context"
	"os"
	"sync"
	"time"

	"ocular-mosaic/internal/config"
)

// ConfigWatcher polls a configuration file and invokes a callback each time
// its modification time moves forward.
type ConfigWatcher struct {
	path          string
	checkInterval time.Duration

	mu       sync.Mutex
	baseline time.Time
	stopCh   chan struct{}
	onChange func()
}

// NewConfigWatcher creates a watcher for path. Returns nil if the file
// cannot be stat'ed.
func NewConfigWatcher(path string, checkInterval time.Duration) *ConfigWatcher {
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}
	return &ConfigWatcher{
		path:          path,
		checkInterval: checkInterval,
		baseline:      info.ModTime(),
		stopCh:        make(chan struct{}),
	}
}

// OnChange sets the callback. It runs on the watcher goroutine.
func (w *ConfigWatcher) OnChange(callback func()) {
	w.mu.Lock()
	w.onChange = callback
	w.mu.Unlock()
}

// Start begins watching in a background goroutine.
func (w *ConfigWatcher) Start() {
	w.stopCh = make(chan struct{})
	go w.watchLoop(w.stopCh)
}

// Stop stops the watcher goroutine.
func (w *ConfigWatcher) Stop() {
	close(w.stopCh)
}

func (w *ConfigWatcher) watchLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			w.Check()
		}
	}
}

// Check compares the file's modification time with the baseline and fires
// the callback once per change. It reports whether a change was seen.
func (w *ConfigWatcher) Check() bool {
	info, err := os.Stat(w.path)
	if err != nil {
		return false
	}
	w.mu.Lock()
	if !info.ModTime().After(w.baseline) {
		w.mu.Unlock()
		return false
	}
	w.baseline = info.ModTime()
	cb := w.onChange
	w.mu.Unlock()

	if cb != nil {
		cb()
	}
	return true
}

// Path returns the watched file.
func (w *ConfigWatcher) Path() string {
	return w.path
}

// ReloadOnChange wires a watcher to the runner: each change reloads the
// file, applies the command-line overrides again and, if both succeed,
// swaps the runner's configuration. A broken file keeps the previous
// configuration.
func (r *Runner) ReloadOnChange(w *ConfigWatcher, overrides config.Overrides) {
	w.OnChange(func() {
		cfg, err := config.LoadFile(w.Path())
		if err == nil {
			err = overrides.Apply(cfg)
		}
		if err != nil {
			r.logger.Error("config reload failed, keeping previous", "path", w.Path(), "error", err)
			return
		}
		r.logger.Info("config reloaded", "path", w.Path(), "presets", len(cfg.Presets))
		r.SetConfig(cfg)
	})
}

// Watch runs pending samples every poll interval until ctx is done.
func (r *Runner) Watch(ctx context.Context, preset string) error {
	for {
		outcomes, err := r.RunPending(ctx, preset)
		if err != nil {
			r.logger.Error("watch poll failed", "error", err)
		} else if failed := Failed(outcomes); len(failed) > 0 {
			r.logger.Warn("watch poll had failures", "failed", len(failed), "total", len(outcomes))
		}

		interval := r.Config().PollInterval
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
