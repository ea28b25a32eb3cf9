package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/unam-acatlan/macgpt-core/internal/core/domain"
	"github.com/unam-acatlan/macgpt-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.RebuildStateStore = (*StateStore)(nil)

const rebuildStateKey = "macgpt:rebuild:state"

// StateStore implements RebuildStateStore using Redis, so rebuild status
// survives restarts and is visible to every instance.
type StateStore struct {
	client *redis.Client
}

// NewStateStore creates a new Redis-backed StateStore
func NewStateStore(client *redis.Client) *StateStore {
	return &StateStore{client: client}
}

// Save stores the current rebuild state. No TTL: the latest state is always
// meaningful.
func (s *StateStore) Save(ctx context.Context, state *domain.RebuildState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal rebuild state: %w", err)
	}

	if err := s.client.Set(ctx, rebuildStateKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save rebuild state: %w", err)
	}
	return nil
}

// Get returns the stored rebuild state.
func (s *StateStore) Get(ctx context.Context) (*domain.RebuildState, error) {
	data, err := s.client.Get(ctx, rebuildStateKey).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rebuild state: %w", err)
	}

	var state domain.RebuildState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse rebuild state: %w", err)
	}
	return &state, nil
}
