package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/unam-acatlan/macgpt-core/internal/core/domain"
	"github.com/unam-acatlan/macgpt-core/internal/core/ports/driven"
	"github.com/unam-acatlan/macgpt-core/internal/core/ports/driving"
	"github.com/unam-acatlan/macgpt-core/internal/runtime"
)

// Ensure Coordinator implements PipelineService
var _ driving.PipelineService = (*Coordinator)(nil)

// rebuildLockName is the cross-instance lock guarding the single-rebuild
// invariant.
const rebuildLockName = "index-rebuild"

// CoordinatorConfig holds dependencies and policy for the Coordinator.
type CoordinatorConfig struct {
	Source     driven.RecordSource
	Normalizer *Normalizer
	Store      driven.GenerationStore
	Index      driven.VectorIndex      // optional
	Lock       driven.RebuildLock      // optional; nil means in-process only
	StateStore driven.RebuildStateStore // optional; nil keeps state in memory
	Active     *ActiveIndex
	AI         *runtime.Services

	// Policy configures per-chunk embedding failure handling.
	Policy domain.FailurePolicy

	// EmbedBatchSize is the number of chunk texts sent per embedding call.
	EmbedBatchSize int

	// Topics maps knowledge bucket names to their representative
	// descriptions; profile embeddings are built per generation so topic
	// routing never mixes embedding models.
	Topics map[string]string

	// Retry bounds embedding service calls.
	Retry RetryConfig

	// LockTTL bounds how long a crashed instance can hold the rebuild lock.
	LockTTL time.Duration

	Logger *slog.Logger
}

// Coordinator orchestrates index rebuilds: Normalizer → embedding →
// generation store, with idempotent "rebuild index" semantics for the
// external trigger layer.
//
// State machine: idle → running → {ready, failed}. At most one rebuild runs
// at a time; a concurrent request is rejected with ErrRebuildInProgress,
// never queued. The previously active generation keeps serving queries until
// the new one is fully persisted, then the pointer is swapped atomically.
// A failed or cancelled rebuild leaves the active generation untouched.
type Coordinator struct {
	source     driven.RecordSource
	normalizer *Normalizer
	store      driven.GenerationStore
	index      driven.VectorIndex
	lock       driven.RebuildLock
	stateStore driven.RebuildStateStore
	active     *ActiveIndex
	ai         *runtime.Services

	policy    domain.FailurePolicy
	batchSize int
	topics    map[string]string
	retry     RetryConfig
	lockTTL   time.Duration
	logger    *slog.Logger

	mu      sync.Mutex
	state   domain.RebuildState
	cancel  context.CancelFunc
	running sync.WaitGroup
}

// NewCoordinator creates a new pipeline Coordinator.
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	policy := cfg.Policy
	if policy == "" {
		policy = domain.FailurePolicyExclude
	}
	batchSize := cfg.EmbedBatchSize
	if batchSize <= 0 {
		batchSize = 32
	}
	retry := cfg.Retry
	if retry.Attempts < 1 {
		retry = DefaultRetryConfig()
	}
	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = 15 * time.Minute
	}

	return &Coordinator{
		source:     cfg.Source,
		normalizer: cfg.Normalizer,
		store:      cfg.Store,
		index:      cfg.Index,
		lock:       cfg.Lock,
		stateStore: cfg.StateStore,
		active:     cfg.Active,
		ai:         cfg.AI,
		policy:     policy,
		batchSize:  batchSize,
		topics:     cfg.Topics,
		retry:      retry,
		lockTTL:    lockTTL,
		logger:     logger,
		state:      domain.RebuildState{Status: domain.RebuildStatusIdle},
	}
}

// StartRebuild begins an asynchronous rebuild and returns the new generation
// ID. Returns domain.ErrRebuildInProgress when one is already running.
func (c *Coordinator) StartRebuild(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.state.Status == domain.RebuildStatusRunning {
		c.mu.Unlock()
		return "", domain.ErrRebuildInProgress
	}

	if c.lock != nil {
		acquired, err := c.lock.Acquire(ctx, rebuildLockName, c.lockTTL)
		if err != nil {
			c.mu.Unlock()
			return "", fmt.Errorf("acquire rebuild lock: %w", err)
		}
		if !acquired {
			c.mu.Unlock()
			return "", domain.ErrRebuildInProgress
		}
	}

	generationID := uuid.NewString()
	now := time.Now()
	c.state = domain.RebuildState{
		Status:       domain.RebuildStatusRunning,
		GenerationID: generationID,
		StartedAt:    &now,
	}
	c.publishState()

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.cancel = cancel
	c.running.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.running.Done()
		c.run(runCtx, generationID)
	}()

	return generationID, nil
}

// Status returns the state of the most recent rebuild.
func (c *Coordinator) Status(ctx context.Context) *domain.RebuildState {
	c.mu.Lock()
	defer c.mu.Unlock()
	state := c.state
	return &state
}

// Stop cancels a running rebuild and waits for it to wind down.
// The active generation is left untouched.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	c.running.Wait()
}

// Wait blocks until the current rebuild, if any, reaches a terminal state.
func (c *Coordinator) Wait() {
	c.running.Wait()
}

// run executes one rebuild to a terminal state.
func (c *Coordinator) run(ctx context.Context, generationID string) {
	start := time.Now()
	c.logger.Info("rebuild started", "generation_id", generationID, "source", c.source.Name())

	gen, stats, err := c.buildGeneration(ctx, generationID)
	if err != nil {
		// Partially written artifacts are discarded, never linked.
		if discardErr := c.store.Discard(context.WithoutCancel(ctx), generationID); discardErr != nil {
			c.logger.Warn("failed to discard staged generation", "generation_id", generationID, "error", discardErr)
		}
		c.finish(generationID, stats, err)
		c.logger.Error("rebuild failed",
			"generation_id", generationID,
			"duration", time.Since(start),
			"error", err,
		)
		return
	}

	// The swap is the single synchronization point between the rebuild and
	// query paths; it happens only after the generation is fully persisted.
	c.active.Swap(gen)
	c.finish(generationID, stats, nil)

	c.logger.Info("rebuild completed",
		"generation_id", generationID,
		"chunks", stats.ChunksEmbedded,
		"degraded", stats.ChunksDegraded,
		"duration", time.Since(start),
	)
}

// buildGeneration runs fetch → normalize → embed → persist and returns the
// fully persisted generation.
func (c *Coordinator) buildGeneration(ctx context.Context, generationID string) (*domain.Generation, domain.RebuildStats, error) {
	var stats domain.RebuildStats

	embedder := c.ai.EmbeddingService()
	if embedder == nil {
		return nil, stats, domain.ErrEmbeddingUnavailable
	}

	records, err := c.source.Fetch(ctx)
	if err != nil {
		return nil, stats, fmt.Errorf("fetch records: %w", err)
	}

	chunks, normStats := c.normalizer.Normalize(records)
	stats.RecordsIn = normStats.RecordsIn
	stats.RecordsSkipped = normStats.RecordsSkipped
	stats.Chunks = normStats.Chunks

	gen := &domain.Generation{
		ID:             generationID,
		CreatedAt:      time.Now().UTC(),
		EmbeddingModel: embedder.Model(),
		Dimensions:     embedder.Dimensions(),
		Normalized:     true,
		Chunks:         chunks,
		Vectors:        make(map[string][]float32, len(chunks)),
	}

	for batchStart := 0; batchStart < len(chunks); batchStart += c.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		end := batchStart + c.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[batchStart:end]

		if err := c.embedBatch(ctx, embedder, gen, batch, &stats); err != nil {
			return nil, stats, err
		}
	}

	if err := c.buildTopicProfiles(ctx, embedder, gen); err != nil {
		return nil, stats, err
	}

	// The index is rebuilt before persistence: a failure here must leave
	// both the persisted store and the active pointer on the previous run.
	if c.index != nil {
		if err := c.index.Rebuild(ctx, gen); err != nil {
			return nil, stats, fmt.Errorf("rebuild vector index: %w", err)
		}
	}

	if err := c.store.Save(ctx, gen); err != nil {
		// The index already serves the new generation; put it back on the
		// one that stays active.
		c.restoreIndex(ctx)
		return nil, stats, fmt.Errorf("persist generation: %w", err)
	}

	return gen, stats, nil
}

// restoreIndex rebuilds the serving index from the generation that remains
// active after a failed run.
func (c *Coordinator) restoreIndex(ctx context.Context) {
	if c.index == nil {
		return
	}
	prev := c.active.Generation()
	if prev == nil {
		prev = &domain.Generation{}
	}
	if err := c.index.Rebuild(context.WithoutCancel(ctx), prev); err != nil {
		c.logger.Warn("failed to restore vector index after persist failure", "error", err)
	}
}

// embedBatch embeds one batch of chunks. A batch that keeps failing falls
// back to per-chunk embedding so the failure policy applies per chunk.
func (c *Coordinator) embedBatch(ctx context.Context, embedder driven.EmbeddingService, gen *domain.Generation, batch []domain.Chunk, stats *domain.RebuildStats) error {
	texts := make([]string, len(batch))
	for i, chunk := range batch {
		texts[i] = chunk.Text
	}

	var vectors [][]float32
	err := withRetry(ctx, c.retry, func(ctx context.Context) error {
		var embErr error
		vectors, embErr = embedder.Embed(ctx, texts)
		return embErr
	})
	if err == nil && len(vectors) != len(batch) {
		err = fmt.Errorf("embedding service returned %d vectors for %d texts", len(vectors), len(batch))
	}
	if err == nil {
		for i, chunk := range batch {
			gen.Vectors[chunk.ID] = domain.NormalizeVector(vectors[i])
			stats.ChunksEmbedded++
		}
		return nil
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	// Batch failed permanently; isolate the failure per chunk. Chunks stay
	// on the document embedding path so one generation never mixes
	// document- and query-space vectors.
	for _, chunk := range batch {
		var vec []float32
		chunkErr := withRetry(ctx, c.retry, func(ctx context.Context) error {
			vecs, embErr := embedder.Embed(ctx, []string{chunk.Text})
			if embErr != nil {
				return embErr
			}
			if len(vecs) != 1 {
				return fmt.Errorf("embedding service returned %d vectors for 1 text", len(vecs))
			}
			vec = vecs[0]
			return nil
		})
		if chunkErr == nil {
			gen.Vectors[chunk.ID] = domain.NormalizeVector(vec)
			stats.ChunksEmbedded++
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if c.policy == domain.FailurePolicyAbort {
			return fmt.Errorf("%w: chunk %s: %v", domain.ErrEmbeddingUnavailable, chunk.ID, chunkErr)
		}

		// Exclude-and-continue: the chunk stays out of this generation.
		gen.Degraded = append(gen.Degraded, chunk.ID)
		stats.ChunksDegraded++
		c.logger.Warn("excluding chunk after exhausted embedding retries",
			"chunk_id", chunk.ID,
			"error", chunkErr,
		)
	}
	return nil
}

// buildTopicProfiles embeds the representative description of each knowledge
// bucket, recorded on the generation so query-time routing uses the same
// embedding model as the corpus.
func (c *Coordinator) buildTopicProfiles(ctx context.Context, embedder driven.EmbeddingService, gen *domain.Generation) error {
	if len(c.topics) == 0 {
		return nil
	}

	names := make([]string, 0, len(c.topics))
	for name := range c.topics {
		names = append(names, name)
	}
	sort.Strings(names)

	gen.Topics = make(map[string][]float32, len(names))
	for _, name := range names {
		var vec []float32
		err := withRetry(ctx, c.retry, func(ctx context.Context) error {
			var embErr error
			vec, embErr = embedder.EmbedQuery(ctx, c.topics[name])
			return embErr
		})
		if err != nil {
			return fmt.Errorf("%w: topic profile %q: %v", domain.ErrEmbeddingUnavailable, name, err)
		}
		gen.Topics[name] = domain.NormalizeVector(vec)
	}
	return nil
}

// finish records the terminal state of a run and releases the lock.
func (c *Coordinator) finish(generationID string, stats domain.RebuildStats, err error) {
	c.mu.Lock()
	now := time.Now()
	c.state.CompletedAt = &now
	c.state.Stats = stats
	if err != nil {
		c.state.Status = domain.RebuildStatusFailed
		if errors.Is(err, context.Canceled) {
			c.state.Error = "rebuild cancelled"
		} else {
			c.state.Error = err.Error()
		}
	} else {
		c.state.Status = domain.RebuildStatusReady
		c.state.Error = ""
	}
	c.cancel = nil
	c.publishState()
	c.mu.Unlock()

	if c.lock != nil {
		if releaseErr := c.lock.Release(context.Background(), rebuildLockName); releaseErr != nil {
			c.logger.Warn("failed to release rebuild lock", "error", releaseErr)
		}
	}
}

// publishState mirrors the in-memory state to the state store, if any.
// Callers hold c.mu.
func (c *Coordinator) publishState() {
	if c.stateStore == nil {
		return
	}
	state := c.state
	if err := c.stateStore.Save(context.Background(), &state); err != nil {
		c.logger.Warn("failed to persist rebuild state", "error", err)
	}
}
