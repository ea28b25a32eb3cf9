package mocks

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/unam-acatlan/macgpt-core/internal/core/domain"
)

// MockGenerationStore is an in-memory GenerationStore for testing.
// Saved generations are serialized so tests can assert byte-identity of the
// persisted snapshot across failed rebuild attempts.
type MockGenerationStore struct {
	mu      sync.Mutex
	current []byte
	saveErr error

	SaveCalls    int
	DiscardCalls int
	DiscardedIDs []string
}

// NewMockGenerationStore creates a new MockGenerationStore
func NewMockGenerationStore() *MockGenerationStore {
	return &MockGenerationStore{}
}

func (m *MockGenerationStore) Save(ctx context.Context, gen *domain.Generation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls++
	if m.saveErr != nil {
		return m.saveErr
	}
	data, err := json.Marshal(gen)
	if err != nil {
		return err
	}
	m.current = data
	return nil
}

func (m *MockGenerationStore) Load(ctx context.Context) (*domain.Generation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, domain.ErrNoGeneration
	}
	var gen domain.Generation
	if err := json.Unmarshal(m.current, &gen); err != nil {
		return nil, err
	}
	return &gen, nil
}

func (m *MockGenerationStore) Discard(ctx context.Context, generationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DiscardCalls++
	m.DiscardedIDs = append(m.DiscardedIDs, generationID)
	return nil
}

func (m *MockGenerationStore) Close() error {
	return nil
}

// Helper methods for testing

func (m *MockGenerationStore) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

// Snapshot returns the raw persisted bytes of the current generation.
func (m *MockGenerationStore) Snapshot() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]byte, len(m.current))
	copy(out, m.current)
	return out
}
