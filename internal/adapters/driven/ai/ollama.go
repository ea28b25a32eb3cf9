package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/unam-acatlan/macgpt-core/internal/core/domain"
	"github.com/unam-acatlan/macgpt-core/internal/core/ports/driven"
)

// Ensure the Ollama adapters implement their ports
var (
	_ driven.EmbeddingService  = (*OllamaEmbedding)(nil)
	_ driven.GenerationService = (*OllamaGeneration)(nil)
)

// Dimensions of common Ollama embedding models
var ollamaModelDimensions = map[string]int{
	"nomic-embed-text":  768,
	"mxbai-embed-large": 1024,
	"all-minilm":        384,
}

// OllamaEmbedding implements EmbeddingService against a local Ollama server.
// Useful for development without a hosted API key.
type OllamaEmbedding struct {
	embedder   *embeddings.EmbedderImpl
	model      string
	dimensions int
}

// NewOllamaEmbedding creates a new Ollama embedding service
func NewOllamaEmbedding(baseURL, model string) (driven.EmbeddingService, error) {
	if model == "" {
		model = "nomic-embed-text"
	}

	opts := []ollama.Option{ollama.WithModel(model)}
	if baseURL != "" {
		opts = append(opts, ollama.WithServerURL(baseURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Ollama client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	dimensions, ok := ollamaModelDimensions[model]
	if !ok {
		dimensions = 768
	}

	return &OllamaEmbedding{
		embedder:   embedder,
		model:      model,
		dimensions: dimensions,
	}, nil
}

// Embed generates embeddings for multiple texts
func (e *OllamaEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("ollama embedding: %w", err)
	}
	return vectors, nil
}

// EmbedQuery generates an embedding for a search query
func (e *OllamaEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vector, err := e.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ollama query embedding: %w", err)
	}
	return vector, nil
}

// Dimensions returns the embedding dimension size
func (e *OllamaEmbedding) Dimensions() int {
	return e.dimensions
}

// Model returns the model name being used
func (e *OllamaEmbedding) Model() string {
	return e.model
}

// HealthCheck verifies the embedding service is available
func (e *OllamaEmbedding) HealthCheck(ctx context.Context) error {
	_, err := e.EmbedQuery(ctx, "health check")
	return err
}

// Close releases resources held by the embedding service
func (e *OllamaEmbedding) Close() error {
	return nil
}

// OllamaGeneration implements GenerationService against a local Ollama server.
type OllamaGeneration struct {
	llm         *ollama.LLM
	model       string
	temperature float64
	maxTokens   int
}

// NewOllamaGeneration creates a new Ollama generation service
func NewOllamaGeneration(baseURL, model string, temperature float64, maxTokens int) (driven.GenerationService, error) {
	if model == "" {
		model = "llama3"
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	opts := []ollama.Option{ollama.WithModel(model)}
	if baseURL != "" {
		opts = append(opts, ollama.WithServerURL(baseURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Ollama client: %w", err)
	}

	return &OllamaGeneration{
		llm:         llm,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}, nil
}

// Generate produces a completion for the given prompt
func (g *OllamaGeneration) Generate(ctx context.Context, prompt string) (string, error) {
	completion, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt,
		llms.WithTemperature(g.temperature),
		llms.WithMaxTokens(g.maxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("ollama generation: %w", err)
	}

	text := strings.TrimSpace(completion)
	if text == "" {
		return "", domain.ErrEmptyCompletion
	}
	return text, nil
}

// Model returns the model name being used
func (g *OllamaGeneration) Model() string {
	return g.model
}

// Ping verifies the generation service is reachable
func (g *OllamaGeneration) Ping(ctx context.Context) error {
	_, err := g.Generate(ctx, "ping")
	return err
}

// Close releases resources held by the generation service
func (g *OllamaGeneration) Close() error {
	return nil
}
