// Package app coordinates mosaic runs: per-sample serialization, batches,
// run events and watch mode.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ocular-mosaic/internal/config"
	"ocular-mosaic/internal/mosaic"
	"ocular-mosaic/internal/vision"
)

// Store is the sample image store as seen by the runner.
type Store interface {
	mosaic.ImageStore
	PendingSampleIDs(ctx context.Context) ([]string, error)
}

// ToolkitFactory opens the vision capabilities for one run. release is
// called when the run ends.
type ToolkitFactory func(cfg mosaic.Config) (tk vision.Toolkit, release func(), err error)

// EventType identifies runner events.
type EventType int

const (
	EventRunStarted EventType = iota
	EventRunSucceeded
	EventRunFailed
	EventFallbackGrid
	EventConfigReloaded
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// RunEvent is the payload of the run events.
type RunEvent struct {
	SampleID string
	Preset   string
	Result   *mosaic.Result // EventRunSucceeded, or a partly published EventRunFailed
	Err      error          // EventRunFailed and EventFallbackGrid
}

// Outcome is the result of one sample in a batch.
type Outcome struct {
	SampleID string
	Result   *mosaic.Result
	Err      error
}

// Runner runs the mosaic pipeline for samples. Runs on the same sample
// never overlap; runs on different samples may.
type Runner struct {
	store   Store
	toolkit ToolkitFactory
	logger  *slog.Logger

	mu        sync.RWMutex
	cfg       *config.Config
	listeners map[EventType][]EventListener

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewRunner creates a runner. A nil cfg uses config.Default().
func NewRunner(st Store, cfg *config.Config, toolkit ToolkitFactory, logger *slog.Logger) *Runner {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		store:     st,
		toolkit:   toolkit,
		logger:    logger,
		cfg:       cfg,
		listeners: make(map[EventType][]EventListener),
		locks:     make(map[string]*sync.Mutex),
	}
}

// On registers an event listener for the specified event type.
func (r *Runner) On(event EventType, listener EventListener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners[event] = append(r.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (r *Runner) Emit(event EventType, data interface{}) {
	r.mu.RLock()
	listeners := r.listeners[event]
	r.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// Config returns the current configuration.
func (r *Runner) Config() *config.Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cfg
}

// SetConfig replaces the configuration used by subsequent runs.
func (r *Runner) SetConfig(cfg *config.Config) {
	r.mu.Lock()
	r.cfg = cfg
	r.mu.Unlock()
	r.Emit(EventConfigReloaded, cfg)
}

func (r *Runner) sampleLock(sampleID string) *sync.Mutex {
	r.locksMu.Lock()
	defer r.locksMu.Unlock()
	l, ok := r.locks[sampleID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[sampleID] = l
	}
	return l
}

// Run builds and publishes the mosaic of one sample with the named preset.
// An empty preset selects the configured default. When stitching fails and
// fallback_grid is set, the sample is rebuilt with the grid strategy. The
// result may come back with an error when the mosaic was stored but its
// contact sheet was not.
func (r *Runner) Run(ctx context.Context, sampleID, preset string) (*mosaic.Result, error) {
	cfg := r.Config()
	if preset == "" {
		preset = cfg.DefaultPreset
	}
	pc, err := cfg.Preset(preset)
	if err != nil {
		return nil, err
	}

	l := r.sampleLock(sampleID)
	l.Lock()
	defer l.Unlock()

	r.Emit(EventRunStarted, RunEvent{SampleID: sampleID, Preset: preset})
	start := time.Now()

	res, err := r.runOnce(ctx, sampleID, pc)
	var sfe *mosaic.StitchingFailedError
	if errors.As(err, &sfe) && cfg.FallbackGrid {
		r.logger.Warn("stitching failed, falling back to grid", "sample", sampleID, "error", err)
		r.Emit(EventFallbackGrid, RunEvent{SampleID: sampleID, Preset: preset, Err: err})
		res, err = r.runOnce(ctx, sampleID, pc.WithStrategy(mosaic.StrategyGrid))
	}
	if err != nil {
		r.logger.Error("mosaic failed", "sample", sampleID, "preset", preset, "error", err)
		r.Emit(EventRunFailed, RunEvent{SampleID: sampleID, Preset: preset, Result: res, Err: err})
		return res, err
	}

	r.logger.Info("mosaic done", "sample", sampleID, "preset", preset, "tag", res.Tag,
		"frames", len(res.FrameIDs), "elapsed", time.Since(start).Round(time.Millisecond))
	r.Emit(EventRunSucceeded, RunEvent{SampleID: sampleID, Preset: preset, Result: res})
	return res, nil
}

func (r *Runner) runOnce(ctx context.Context, sampleID string, pc mosaic.Config) (*mosaic.Result, error) {
	tk, release, err := r.toolkit(pc)
	if err != nil {
		return nil, fmt.Errorf("open vision toolkit: %w", err)
	}
	if release != nil {
		defer release()
	}
	return mosaic.Run(ctx, r.store, sampleID, pc, tk, r.logger)
}

// RunBatch runs every sample with a bounded number of workers. A failure
// on one sample does not stop the others. Outcomes follow the input order.
func (r *Runner) RunBatch(ctx context.Context, sampleIDs []string, preset string) []Outcome {
	outcomes := make([]Outcome, len(sampleIDs))
	workers := max(1, r.Config().Workers)
	sem := make(chan struct{}, workers)

	var wg sync.WaitGroup
	for i, id := range sampleIDs {
		outcomes[i].SampleID = id
		if err := ctx.Err(); err != nil {
			outcomes[i].Err = err
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, id string) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[i].Result, outcomes[i].Err = r.Run(ctx, id, preset)
		}(i, id)
	}
	wg.Wait()
	return outcomes
}

// RunPending runs every sample whose raw frames are newer than its last
// mosaic.
func (r *Runner) RunPending(ctx context.Context, preset string) ([]Outcome, error) {
	ids, err := r.store.PendingSampleIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending samples: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	r.logger.Info("pending samples", "count", len(ids))
	return r.RunBatch(ctx, ids, preset), nil
}

// Failed returns the outcomes that ended in error.
func Failed(outcomes []Outcome) []Outcome {
	var failed []Outcome
	for _, o := range outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}
