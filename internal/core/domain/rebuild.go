package domain

import "time"

// RebuildStatus represents the current state of an index rebuild.
type RebuildStatus string

const (
	RebuildStatusIdle    RebuildStatus = "idle"
	RebuildStatusRunning RebuildStatus = "running"
	RebuildStatusReady   RebuildStatus = "ready"
	RebuildStatusFailed  RebuildStatus = "failed"
)

// Terminal reports whether the status is a terminal state of a run.
func (s RebuildStatus) Terminal() bool {
	return s == RebuildStatusReady || s == RebuildStatusFailed
}

// FailurePolicy controls what happens when a chunk cannot be embedded after
// exhausted retries.
type FailurePolicy string

const (
	// FailurePolicyExclude drops the chunk from the generation and records it
	// as degraded. One bad document never blocks the whole corpus.
	FailurePolicyExclude FailurePolicy = "exclude"

	// FailurePolicyAbort fails the whole rebuild on the first permanent
	// per-chunk embedding failure.
	FailurePolicyAbort FailurePolicy = "abort"
)

// RebuildState tracks the lifecycle of the most recent rebuild.
type RebuildState struct {
	Status       RebuildStatus `json:"status"`
	GenerationID string        `json:"generation_id,omitempty"`
	StartedAt    *time.Time    `json:"started_at,omitempty"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
	Error        string        `json:"error,omitempty"`
	Stats        RebuildStats  `json:"stats"`
}

// RebuildStats holds statistics for one rebuild run.
type RebuildStats struct {
	RecordsIn      int `json:"records_in"`
	RecordsSkipped int `json:"records_skipped"`
	Chunks         int `json:"chunks"`
	ChunksEmbedded int `json:"chunks_embedded"`
	ChunksDegraded int `json:"chunks_degraded"`
}
