package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/unam-acatlan/macgpt-core/internal/core/domain"
	"github.com/unam-acatlan/macgpt-core/internal/core/ports/driven"
)

// Ensure FileStore implements GenerationStore
var _ driven.GenerationStore = (*FileStore)(nil)

const (
	currentFile = "generation.json"
	stagePrefix = "generation."
	stageSuffix = ".staging"
)

// FileStore persists generations as a single JSON document on disk.
//
// Save writes to a staging file named after the generation ID and renames it
// over the current file; the rename is atomic on POSIX filesystems, so a
// crash mid-save leaves either the old generation or the new one, never a
// torn file.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates a FileStore rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("store directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Save persists the generation with atomic-replace semantics.
func (s *FileStore) Save(ctx context.Context, gen *domain.Generation) error {
	if gen == nil || gen.ID == "" {
		return fmt.Errorf("%w: generation without id", domain.ErrInvalidInput)
	}

	data, err := json.Marshal(gen)
	if err != nil {
		return fmt.Errorf("marshal generation: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	staging := s.stagingPath(gen.ID)
	if err := os.WriteFile(staging, data, 0o644); err != nil {
		return fmt.Errorf("write staging file: %w", err)
	}
	if err := os.Rename(staging, filepath.Join(s.dir, currentFile)); err != nil {
		_ = os.Remove(staging)
		return fmt.Errorf("activate generation: %w", err)
	}
	return nil
}

// Load returns the most recently saved generation.
func (s *FileStore) Load(ctx context.Context) (*domain.Generation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.dir, currentFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNoGeneration
		}
		return nil, fmt.Errorf("read generation file: %w", err)
	}

	var gen domain.Generation
	if err := json.Unmarshal(data, &gen); err != nil {
		return nil, fmt.Errorf("parse generation file: %w", err)
	}
	return &gen, nil
}

// Discard removes the staging artifacts of an unfinished generation.
// The current generation file is never touched.
func (s *FileStore) Discard(ctx context.Context, generationID string) error {
	if generationID == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.stagingPath(generationID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("discard staging file: %w", err)
	}
	return nil
}

// Close releases resources held by the store
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) stagingPath(generationID string) string {
	return filepath.Join(s.dir, stagePrefix+generationID+stageSuffix)
}
