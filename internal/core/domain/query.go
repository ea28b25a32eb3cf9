package domain

import "time"

// SearchOptions controls a similarity search against the active generation.
type SearchOptions struct {
	// TopK is the number of chunks to retrieve. Values < 1 use the default.
	TopK int

	// MinScore excludes chunks scoring below the threshold regardless of
	// TopK. Zero disables the threshold.
	MinScore float64

	// Topic restricts retrieval to chunks of one knowledge bucket.
	// Empty means no restriction.
	Topic string
}

// ScoredChunk pairs a retrieved chunk with its cosine similarity score.
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// Source is the citation form of a retrieved chunk, for display.
type Source struct {
	ChunkID  string  `json:"chunk_id"`
	Document string  `json:"document"`
	Course   string  `json:"course,omitempty"`
	Semester string  `json:"semester,omitempty"`
	Score    float64 `json:"score"`
}

// Answer is the result of one question against the active generation.
type Answer struct {
	Question  string        `json:"question"`
	Text      string        `json:"text"`
	Sources   []Source      `json:"sources,omitempty"`
	NoContext bool          `json:"no_context"` // true when retrieval yielded nothing relevant
	Took      time.Duration `json:"took"`
}
