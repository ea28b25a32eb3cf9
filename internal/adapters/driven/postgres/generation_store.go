package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/unam-acatlan/macgpt-core/internal/core/domain"
	"github.com/unam-acatlan/macgpt-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.GenerationStore = (*GenerationStore)(nil)

// GenerationStore implements driven.GenerationStore using PostgreSQL.
// Used when multiple instances must load the same generation on startup.
type GenerationStore struct {
	db *DB
}

// NewGenerationStore creates a new GenerationStore
func NewGenerationStore(db *DB) *GenerationStore {
	return &GenerationStore{db: db}
}

// Save persists the generation and flips the active pointer to it in one
// transaction. Superseded generations are pruned in the same transaction.
func (s *GenerationStore) Save(ctx context.Context, gen *domain.Generation) error {
	if gen == nil || gen.ID == "" {
		return fmt.Errorf("%w: generation without id", domain.ErrInvalidInput)
	}

	payload, err := json.Marshal(gen)
	if err != nil {
		return fmt.Errorf("marshal generation: %w", err)
	}

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO generations (id, created_at, embedding_model, dimensions, payload)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload
		`, gen.ID, gen.CreatedAt, gen.EmbeddingModel, gen.Dimensions, payload)
		if err != nil {
			return fmt.Errorf("insert generation: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO active_generation (singleton, generation_id)
			VALUES (TRUE, $1)
			ON CONFLICT (singleton) DO UPDATE SET
				generation_id = EXCLUDED.generation_id,
				activated_at = now()
		`, gen.ID)
		if err != nil {
			return fmt.Errorf("activate generation: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			DELETE FROM generations WHERE id <> $1
		`, gen.ID)
		if err != nil {
			return fmt.Errorf("prune superseded generations: %w", err)
		}
		return nil
	})
}

// Load returns the currently active generation.
func (s *GenerationStore) Load(ctx context.Context) (*domain.Generation, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT g.payload
		FROM generations g
		JOIN active_generation a ON a.generation_id = g.id
	`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNoGeneration
	}
	if err != nil {
		return nil, fmt.Errorf("load generation: %w", err)
	}

	var gen domain.Generation
	if err := json.Unmarshal(payload, &gen); err != nil {
		return nil, fmt.Errorf("parse generation payload: %w", err)
	}
	return &gen, nil
}

// Discard removes a generation that never became active.
func (s *GenerationStore) Discard(ctx context.Context, generationID string) error {
	if generationID == "" {
		return nil
	}

	_, err := s.db.ExecContext(ctx, `
		DELETE FROM generations
		WHERE id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM active_generation WHERE generation_id = $1
		  )
	`, generationID)
	if err != nil {
		return fmt.Errorf("discard generation: %w", err)
	}
	return nil
}

// Close releases resources held by the store.
// The underlying pool is shared and closed by its owner.
func (s *GenerationStore) Close() error {
	return nil
}
