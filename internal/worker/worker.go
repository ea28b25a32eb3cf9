package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/unam-acatlan/macgpt-core/internal/core/domain"
	"github.com/unam-acatlan/macgpt-core/internal/core/ports/driving"
)

// Worker triggers periodic index rebuilds so the engine tracks new
// extraction drops without an operator in the loop. A tick that lands while
// a rebuild is still running is skipped, not queued.
type Worker struct {
	pipeline driving.PipelineService
	logger   *slog.Logger

	// Configuration
	interval   time.Duration
	runOnStart bool

	// Internal state
	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// Config holds configuration for the rebuild worker.
type Config struct {
	Pipeline driving.PipelineService
	Logger   *slog.Logger

	// Interval between rebuild triggers. Defaults to 24h.
	Interval time.Duration

	// RunOnStart triggers a rebuild immediately when the worker starts.
	RunOnStart bool
}

// NewWorker creates a new rebuild worker.
func NewWorker(cfg Config) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	return &Worker{
		pipeline:   cfg.Pipeline,
		logger:     logger,
		interval:   interval,
		runOnStart: cfg.RunOnStart,
	}
}

// Start begins the trigger loop.
// It runs until Stop is called or the context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info("rebuild worker starting",
		"interval", w.interval,
		"run_on_start", w.runOnStart,
	)

	go w.loop(ctx)
	return nil
}

// Stop gracefully stops the worker. A rebuild already handed to the
// pipeline keeps running; only the trigger loop stops.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	w.mu.Unlock()

	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("rebuild worker stopped")
}

// Wait blocks until the worker stops.
func (w *Worker) Wait() {
	<-w.doneCh
}

// Running reports whether the trigger loop is active.
func (w *Worker) Running() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

func (w *Worker) loop(ctx context.Context) {
	defer close(w.doneCh)

	if w.runOnStart {
		w.trigger(ctx)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("rebuild worker context cancelled")
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.trigger(ctx)
		}
	}
}

func (w *Worker) trigger(ctx context.Context) {
	generationID, err := w.pipeline.StartRebuild(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrRebuildInProgress) {
			w.logger.Info("rebuild still running, skipping tick")
			return
		}
		w.logger.Error("failed to start rebuild", "error", err)
		return
	}

	w.logger.Info("rebuild triggered", "generation_id", generationID)
}
