package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/unam-acatlan/macgpt-core/internal/core/domain"
	"github.com/unam-acatlan/macgpt-core/internal/core/ports/driving"
	"github.com/unam-acatlan/macgpt-core/internal/runtime"
)

// Ensure AnswerService implements AskService
var _ driving.AskService = (*AnswerService)(nil)

// NoContextAnswer is the fixed reply when retrieval yields nothing relevant.
// Policy: the generation service is NOT called in that case.
const NoContextAnswer = "Lo siento, no cuento con información en mi base de conocimientos para responder esa pregunta. Como MAC-GPT, mi especialidad es la Licenciatura en Matemáticas Aplicadas y Computación. ¿Tienes alguna consulta sobre este programa?"

// AnswerConfig configures query-time behavior.
type AnswerConfig struct {
	// TopK is the number of contexts retrieved per question.
	TopK int

	// MinScore excludes low-relevance chunks; zero disables the threshold.
	MinScore float64

	// Retry bounds calls to the embedding and generation services.
	Retry RetryConfig
}

// DefaultAnswerConfig returns sensible defaults.
func DefaultAnswerConfig() AnswerConfig {
	return AnswerConfig{
		TopK:  DefaultTopK,
		Retry: DefaultRetryConfig(),
	}
}

// AnswerService implements the query path: embed the question, retrieve the
// most similar chunks from the active generation, assemble a grounded prompt
// and synthesize the answer.
type AnswerService struct {
	active    *ActiveIndex
	retriever *Retriever
	assembler *PromptAssembler
	ai        *runtime.Services
	config    AnswerConfig
	logger    *slog.Logger
}

// NewAnswerService creates a new AnswerService.
func NewAnswerService(
	active *ActiveIndex,
	retriever *Retriever,
	assembler *PromptAssembler,
	ai *runtime.Services,
	config AnswerConfig,
	logger *slog.Logger,
) *AnswerService {
	if config.TopK < 1 {
		config.TopK = DefaultTopK
	}
	if config.Retry.Attempts < 1 {
		config.Retry = DefaultRetryConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AnswerService{
		active:    active,
		retriever: retriever,
		assembler: assembler,
		ai:        ai,
		config:    config,
		logger:    logger,
	}
}

// Ask answers a single question grounded in the active generation.
func (s *AnswerService) Ask(ctx context.Context, question string) (*domain.Answer, error) {
	start := time.Now()

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}

	gen := s.active.Generation()
	if gen.Empty() {
		// No retrievable context at all; fixed answer, no service call.
		return s.noContextAnswer(question, start), nil
	}

	embedder := s.ai.EmbeddingService()
	if embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	var queryVector []float32
	err := withRetry(ctx, s.config.Retry, func(ctx context.Context) error {
		var embErr error
		queryVector, embErr = embedder.EmbedQuery(ctx, question)
		return embErr
	})
	if err != nil {
		s.logger.Error("query embedding failed", "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
	}

	opts := domain.SearchOptions{
		TopK:     s.config.TopK,
		MinScore: s.config.MinScore,
		Topic:    routeTopic(gen, queryVector),
	}
	retrieved, err := s.retriever.Search(ctx, queryVector, opts)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	if len(retrieved) == 0 {
		return s.noContextAnswer(question, start), nil
	}

	prompt := s.assembler.Assemble(question, retrieved)

	generator := s.ai.GenerationService()
	if generator == nil {
		return nil, domain.ErrGenerationUnavailable
	}

	var completion string
	err = withRetry(ctx, s.config.Retry, func(ctx context.Context) error {
		var genErr error
		completion, genErr = generator.Generate(ctx, prompt)
		if genErr != nil {
			return genErr
		}
		if strings.TrimSpace(completion) == "" {
			return domain.ErrEmptyCompletion
		}
		return nil
	})
	if err != nil {
		s.logger.Error("answer synthesis failed", "error", err)
		switch {
		case errors.Is(err, domain.ErrGenerationRateLimited):
			return nil, err
		case errors.Is(err, domain.ErrEmptyCompletion):
			return nil, err
		default:
			return nil, fmt.Errorf("%w: %v", domain.ErrGenerationUnavailable, err)
		}
	}

	answer := &domain.Answer{
		Question: question,
		Text:     cleanCompletion(completion),
		Sources:  sources(retrieved),
		Took:     time.Since(start),
	}

	s.logger.Info("question answered",
		"contexts", len(retrieved),
		"topic", opts.Topic,
		"took", answer.Took,
	)
	return answer, nil
}

// noContextAnswer builds the fixed out-of-scope reply.
func (s *AnswerService) noContextAnswer(question string, start time.Time) *domain.Answer {
	return &domain.Answer{
		Question:  question,
		Text:      NoContextAnswer,
		NoContext: true,
		Took:      time.Since(start),
	}
}

// routeTopic picks the knowledge bucket whose profile embedding is most
// similar to the query. Generations without topic profiles skip routing.
func routeTopic(gen *domain.Generation, queryVector []float32) string {
	if len(gen.Topics) == 0 {
		return ""
	}

	best, bestScore := "", -2.0
	for topic, profile := range gen.Topics {
		score := domain.CosineSimilarity(queryVector, profile)
		if score > bestScore || (score == bestScore && topic < best) {
			best, bestScore = topic, score
		}
	}
	return best
}

// sources converts retrieved chunks into citation form.
func sources(retrieved []domain.ScoredChunk) []domain.Source {
	out := make([]domain.Source, len(retrieved))
	for i, sc := range retrieved {
		out[i] = domain.Source{
			ChunkID:  sc.Chunk.ID,
			Document: sc.Chunk.Metadata["source"],
			Course:   sc.Chunk.Metadata["course"],
			Semester: sc.Chunk.Metadata["semester"],
			Score:    sc.Score,
		}
	}
	return out
}

// cleanCompletion strips the answer-section header some models echo back.
func cleanCompletion(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.LastIndex(text, "RESPUESTA DE MAC-GPT:"); idx != -1 {
		text = strings.TrimSpace(text[idx+len("RESPUESTA DE MAC-GPT:"):])
	}
	return text
}
