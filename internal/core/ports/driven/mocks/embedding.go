package mocks

import (
	"context"
	"hash/fnv"
	"strings"
)

// MockEmbeddingService is a mock implementation of EmbeddingService for testing.
// Embeddings are deterministic functions of the input text, so build
// idempotence and search determinism can be asserted without a network.
type MockEmbeddingService struct {
	dimensions    int
	model         string
	failNext      bool
	failAlways    bool
	failBatchOver int
	failErr       error

	// EmbedCalls counts batch calls, QueryCalls counts query calls.
	EmbedCalls int
	QueryCalls int
}

// NewMockEmbeddingService creates a new MockEmbeddingService
func NewMockEmbeddingService() *MockEmbeddingService {
	return &MockEmbeddingService{
		dimensions: 64,
		model:      "mock-embedding-model",
	}
}

func (m *MockEmbeddingService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.EmbedCalls++
	if m.failAlways {
		return nil, m.err()
	}
	if m.failNext {
		m.failNext = false
		return nil, m.err()
	}
	if m.failBatchOver > 0 && len(texts) > m.failBatchOver {
		return nil, m.err()
	}

	result := make([][]float32, len(texts))
	for i, text := range texts {
		result[i] = m.generateEmbedding(text)
	}
	return result, nil
}

func (m *MockEmbeddingService) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	m.QueryCalls++
	if m.failAlways {
		return nil, m.err()
	}
	if m.failNext {
		m.failNext = false
		return nil, m.err()
	}
	return m.generateEmbedding(query), nil
}

func (m *MockEmbeddingService) Dimensions() int {
	return m.dimensions
}

func (m *MockEmbeddingService) Model() string {
	return m.model
}

func (m *MockEmbeddingService) HealthCheck(ctx context.Context) error {
	return nil
}

func (m *MockEmbeddingService) Close() error {
	return nil
}

// generateEmbedding builds a deterministic bag-of-words vector: each word
// hashes into a dimension. Texts sharing words get similar vectors, which
// keeps relevance-ordering tests meaningful.
func (m *MockEmbeddingService) generateEmbedding(text string) []float32 {
	embedding := make([]float32, m.dimensions)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(strings.Trim(word, "¿?¡!.,:;")))
		embedding[h.Sum32()%uint32(m.dimensions)] += 1
	}
	return embedding
}

// Helper methods for testing

func (m *MockEmbeddingService) SetFailNext(fail bool, err error) {
	m.failNext = fail
	m.failErr = err
}

func (m *MockEmbeddingService) SetFailAlways(fail bool, err error) {
	m.failAlways = fail
	m.failErr = err
}

// SetFailBatchOver makes batch Embed calls with more than max texts fail,
// simulating an oversized-payload rejection.
func (m *MockEmbeddingService) SetFailBatchOver(max int, err error) {
	m.failBatchOver = max
	m.failErr = err
}

func (m *MockEmbeddingService) err() error {
	if m.failErr != nil {
		return m.failErr
	}
	return context.DeadlineExceeded
}
