package domain

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// RawRecord is the shape supplied by the external extraction service:
// one structured record per syllabus entry (course, semester, topic page).
// The core never sees how it was extracted.
type RawRecord struct {
	Source   string            `json:"source"`   // source document (PDF filename or page URL)
	Course   string            `json:"course"`   // course name, may be empty for non-course pages
	Semester string            `json:"semester"` // semester label, may be empty
	Topic    string            `json:"topic"`    // knowledge bucket (plan_de_estudios, profesores, ...)
	Body     string            `json:"body"`     // extracted text body
	Fields   map[string]string `json:"fields"`   // extra provenance fields, display only
}

// Key returns the stable identity of the record within its source.
// Two extraction runs over unchanged input produce the same key.
func (r RawRecord) Key() string {
	return r.Source + "|" + r.Course + "|" + r.Semester
}

// Valid reports whether the record carries the fields the normalizer requires.
func (r RawRecord) Valid() bool {
	return r.Source != "" && strings.TrimSpace(r.Body) != ""
}

// Chunk is the atomic retrievable unit: a short, self-contained piece of
// syllabus text with provenance metadata. Metadata is never used for scoring.
type Chunk struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Topic    string            `json:"topic,omitempty"`
	Seq      int               `json:"seq"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ChunkID derives a deterministic chunk identifier from the parent record key
// and the chunk's sequence index within that record. Re-running extraction on
// unchanged input yields the same IDs.
func ChunkID(recordKey string, seq int) string {
	h := fnv.New64a()
	h.Write([]byte(recordKey))
	return fmt.Sprintf("%016x-%04d", h.Sum64(), seq)
}
