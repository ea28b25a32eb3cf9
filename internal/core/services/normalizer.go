package services

import (
	"log/slog"
	"strings"
	"unicode"

	"github.com/unam-acatlan/macgpt-core/internal/core/domain"
)

// NormalizerConfig configures chunking behavior.
type NormalizerConfig struct {
	// MaxChunkSize is the maximum characters per chunk
	MaxChunkSize int
}

// DefaultNormalizerConfig returns sensible defaults.
func DefaultNormalizerConfig() NormalizerConfig {
	return NormalizerConfig{
		MaxChunkSize: 1000,
	}
}

// NormalizeStats summarizes one normalization pass.
type NormalizeStats struct {
	RecordsIn      int
	RecordsSkipped int
	Chunks         int
}

// Normalizer turns heterogeneous extracted syllabus records into a flat set
// of short, self-contained chunks suitable for embedding.
type Normalizer struct {
	config NormalizerConfig
	logger *slog.Logger
}

// NewNormalizer creates a new Normalizer.
func NewNormalizer(config NormalizerConfig, logger *slog.Logger) *Normalizer {
	if config.MaxChunkSize <= 0 {
		config.MaxChunkSize = DefaultNormalizerConfig().MaxChunkSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{config: config, logger: logger}
}

// Normalize converts raw records into chunks.
//
// Empty or malformed records are skipped with a warning, never failing the
// batch. Output preserves input order and contains no duplicate IDs: chunk
// identity derives from the record key plus a sequence index, so re-running
// on unchanged input yields the same IDs.
func (n *Normalizer) Normalize(records []domain.RawRecord) ([]domain.Chunk, NormalizeStats) {
	stats := NormalizeStats{RecordsIn: len(records)}
	var chunks []domain.Chunk
	seen := make(map[string]bool)

	for _, rec := range records {
		if !rec.Valid() {
			stats.RecordsSkipped++
			n.logger.Warn("skipping malformed record",
				"source", rec.Source,
				"course", rec.Course,
			)
			continue
		}

		body := cleanText(rec.Body)
		if body == "" {
			stats.RecordsSkipped++
			n.logger.Warn("skipping record with empty body after cleanup",
				"source", rec.Source,
				"course", rec.Course,
			)
			continue
		}

		key := rec.Key()
		for seq, part := range n.splitBody(body) {
			id := domain.ChunkID(key, seq)
			if seen[id] {
				// Duplicate record key in the input; keep the first.
				n.logger.Warn("skipping duplicate chunk id", "id", id, "source", rec.Source)
				continue
			}
			seen[id] = true
			chunks = append(chunks, domain.Chunk{
				ID:       id,
				Text:     part,
				Topic:    rec.Topic,
				Seq:      seq,
				Metadata: chunkMetadata(rec),
			})
		}
	}

	stats.Chunks = len(chunks)
	return chunks, stats
}

// chunkMetadata builds the provenance mapping a chunk inherits from its
// record. Display only, never used for scoring.
func chunkMetadata(rec domain.RawRecord) map[string]string {
	md := make(map[string]string, len(rec.Fields)+3)
	for k, v := range rec.Fields {
		md[k] = v
	}
	md["source"] = rec.Source
	if rec.Course != "" {
		md["course"] = rec.Course
	}
	if rec.Semester != "" {
		md["semester"] = rec.Semester
	}
	return md
}

// cleanText strips extraction artifacts: control characters and redundant
// whitespace left behind by PDF text extraction.
func cleanText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		b.WriteRune(r)
	}

	lines := strings.Split(b.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	out := strings.Join(lines, "\n")

	// Collapse runs of 3+ newlines to a paragraph break
	for strings.Contains(out, "\n\n\n") {
		out = strings.ReplaceAll(out, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(out)
}

// splitBody splits an oversized body at paragraph or sentence boundaries,
// never mid-word. Bodies within the size limit come back as a single chunk.
func (n *Normalizer) splitBody(body string) []string {
	if len(body) <= n.config.MaxChunkSize {
		return []string{body}
	}

	var parts []string
	start := 0

	for start < len(body) {
		end := start + n.config.MaxChunkSize
		if end >= len(body) {
			part := strings.TrimSpace(body[start:])
			if part != "" {
				parts = append(parts, part)
			}
			break
		}

		breakPoint := findBreakPoint(body, start, end)
		part := strings.TrimSpace(body[start:breakPoint])
		if part != "" {
			parts = append(parts, part)
		}

		if breakPoint <= start {
			// No progress possible; avoid an infinite loop on pathological input
			breakPoint = end
		}
		start = breakPoint
	}

	return parts
}

// findBreakPoint finds a good break point for chunking: paragraph boundary
// first, then sentence boundary, then word boundary.
func findBreakPoint(content string, start, maxEnd int) int {
	searchStart := maxEnd - 200
	if searchStart < start {
		searchStart = start
	}

	searchContent := content[searchStart:maxEnd]

	// Try to break at paragraph boundary (double newline)
	if idx := strings.LastIndex(searchContent, "\n\n"); idx != -1 {
		return searchStart + idx + 2
	}

	// Try to break at sentence boundary
	sentenceEnders := []string{". ", "! ", "? ", ".\n", "!\n", "?\n"}
	bestIdx := -1
	for _, ender := range sentenceEnders {
		if idx := strings.LastIndex(searchContent, ender); idx != -1 {
			endPos := idx + len(ender)
			if endPos > bestIdx {
				bestIdx = endPos
			}
		}
	}
	if bestIdx > 0 {
		return searchStart + bestIdx
	}

	// Try to break at word boundary
	if idx := strings.LastIndex(searchContent, " "); idx != -1 {
		return searchStart + idx + 1
	}
	if idx := strings.LastIndex(searchContent, "\n"); idx != -1 {
		return searchStart + idx + 1
	}

	// No good break point found; never split mid-word, so extend forward to
	// the next whitespace instead.
	for i := maxEnd; i < len(content); i++ {
		if content[i] == ' ' || content[i] == '\n' {
			return i + 1
		}
	}
	return len(content)
}
