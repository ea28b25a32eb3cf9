package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/unam-acatlan/macgpt-core/internal/core/domain"
	"github.com/unam-acatlan/macgpt-core/internal/core/ports/driven/mocks"
	"github.com/unam-acatlan/macgpt-core/internal/runtime"
)

func fastRetry() RetryConfig {
	return RetryConfig{Attempts: 2, BaseDelay: time.Millisecond, AttemptTimeout: time.Second}
}

type answerFixture struct {
	svc       *AnswerService
	active    *ActiveIndex
	embedder  *mocks.MockEmbeddingService
	generator *mocks.MockGenerationService
}

func newAnswerFixture(gen *domain.Generation, embedder *mocks.MockEmbeddingService, cfg AnswerConfig) *answerFixture {
	generator := mocks.NewMockGenerationService()
	ai := runtime.NewServices()
	ai.SetEmbeddingService(embedder)
	ai.SetGenerationService(generator)

	active := NewActiveIndex(gen)
	svc := NewAnswerService(
		active,
		NewRetriever(active, nil),
		NewPromptAssembler(DefaultContextBudget),
		ai,
		cfg,
		nil,
	)
	return &answerFixture{svc: svc, active: active, embedder: embedder, generator: generator}
}

func creditsGeneration(t *testing.T, embedder *mocks.MockEmbeddingService) *domain.Generation {
	t.Helper()
	return buildTestGeneration(t, embedder,
		domain.Chunk{
			ID:   "plan-0",
			Text: "La carrera tiene 392 créditos en total.",
			Metadata: map[string]string{
				"source":   "plan_2006.json",
				"course":   "Plan de estudios",
				"semester": "1",
			},
		},
		domain.Chunk{
			ID:       "plan-1",
			Text:     "El plan de estudios dura ocho semestres.",
			Metadata: map[string]string{"source": "plan_2006.json"},
		},
	)
}

func TestAskEmptyQuestion(t *testing.T) {
	f := newAnswerFixture(nil, mocks.NewMockEmbeddingService(), AnswerConfig{Retry: fastRetry()})

	_, err := f.svc.Ask(context.Background(), "   ")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestAskWithoutGeneration(t *testing.T) {
	f := newAnswerFixture(nil, mocks.NewMockEmbeddingService(), AnswerConfig{Retry: fastRetry()})

	ans, err := f.svc.Ask(context.Background(), "¿Cuántos créditos tiene la carrera?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if !ans.NoContext {
		t.Error("NoContext = false, want true")
	}
	if ans.Text != NoContextAnswer {
		t.Errorf("Text = %q, want the fixed no-context reply", ans.Text)
	}
	// No context means no AI calls at all.
	if f.embedder.QueryCalls != 0 {
		t.Errorf("embedder called %d times", f.embedder.QueryCalls)
	}
	if f.generator.Calls != 0 {
		t.Errorf("generator called %d times", f.generator.Calls)
	}
}

func TestAskNoRelevantContext(t *testing.T) {
	embedder := mocks.NewMockEmbeddingService()
	gen := creditsGeneration(t, embedder)
	f := newAnswerFixture(gen, embedder, AnswerConfig{MinScore: 0.5, Retry: fastRetry()})

	ans, err := f.svc.Ask(context.Background(), "recetas cocina italiana pasta")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if !ans.NoContext || ans.Text != NoContextAnswer {
		t.Fatalf("got %+v, want the fixed no-context reply", ans)
	}
	if len(ans.Sources) != 0 {
		t.Errorf("no-context answer carries %d sources", len(ans.Sources))
	}
	// The question was embedded but synthesis never ran.
	if f.generator.Calls != 0 {
		t.Errorf("generator called %d times, want 0", f.generator.Calls)
	}
}

func TestAskGroundedAnswer(t *testing.T) {
	embedder := mocks.NewMockEmbeddingService()
	gen := creditsGeneration(t, embedder)
	f := newAnswerFixture(gen, embedder, AnswerConfig{MinScore: 0.5, Retry: fastRetry()})
	f.generator.SetResponse("La carrera tiene un total de 392 créditos.")

	ans, err := f.svc.Ask(context.Background(), "¿Cuántos créditos tiene la carrera?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if ans.NoContext {
		t.Fatal("NoContext = true for an answerable question")
	}
	if ans.Text != "La carrera tiene un total de 392 créditos." {
		t.Errorf("Text = %q", ans.Text)
	}

	if len(ans.Sources) == 0 {
		t.Fatal("answer has no sources")
	}
	src := ans.Sources[0]
	if src.ChunkID != "plan-0" || src.Document != "plan_2006.json" || src.Course != "Plan de estudios" {
		t.Errorf("unexpected top source: %+v", src)
	}

	// The prompt carries the retrieved text verbatim, plus the question.
	prompt := f.generator.LastPrompt
	if !strings.Contains(prompt, "La carrera tiene 392 créditos en total.") {
		t.Error("prompt missing retrieved chunk text")
	}
	if !strings.Contains(prompt, "¿Cuántos créditos tiene la carrera?") {
		t.Error("prompt missing user question")
	}
	if !strings.Contains(prompt, "BASE DE CONOCIMIENTOS:") {
		t.Error("prompt missing knowledge-base section")
	}
}

func TestAskStripsEchoedHeader(t *testing.T) {
	embedder := mocks.NewMockEmbeddingService()
	gen := creditsGeneration(t, embedder)
	f := newAnswerFixture(gen, embedder, AnswerConfig{MinScore: 0.5, Retry: fastRetry()})
	f.generator.SetResponse("RESPUESTA DE MAC-GPT:\nSon 392 créditos.")

	ans, err := f.svc.Ask(context.Background(), "¿Cuántos créditos tiene la carrera?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if ans.Text != "Son 392 créditos." {
		t.Errorf("Text = %q", ans.Text)
	}
}

func TestAskEmbeddingUnavailable(t *testing.T) {
	embedder := mocks.NewMockEmbeddingService()
	gen := creditsGeneration(t, embedder)
	f := newAnswerFixture(gen, embedder, AnswerConfig{Retry: fastRetry()})
	embedder.SetFailAlways(true, errors.New("connection refused"))

	_, err := f.svc.Ask(context.Background(), "¿Cuántos créditos tiene la carrera?")
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("err = %v, want ErrEmbeddingUnavailable", err)
	}
}

func TestAskGenerationErrors(t *testing.T) {
	tests := []struct {
		name    string
		failure error
		want    error
	}{
		{"provider down", errors.New("503 service unavailable"), domain.ErrGenerationUnavailable},
		{"rate limited", domain.ErrGenerationRateLimited, domain.ErrGenerationRateLimited},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embedder := mocks.NewMockEmbeddingService()
			gen := creditsGeneration(t, embedder)
			f := newAnswerFixture(gen, embedder, AnswerConfig{MinScore: 0.5, Retry: fastRetry()})
			f.generator.SetFailAlways(true, tt.failure)

			_, err := f.svc.Ask(context.Background(), "¿Cuántos créditos tiene la carrera?")
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAskEmptyCompletion(t *testing.T) {
	embedder := mocks.NewMockEmbeddingService()
	gen := creditsGeneration(t, embedder)
	f := newAnswerFixture(gen, embedder, AnswerConfig{MinScore: 0.5, Retry: fastRetry()})
	f.generator.SetResponse("   \n ")

	_, err := f.svc.Ask(context.Background(), "¿Cuántos créditos tiene la carrera?")
	if !errors.Is(err, domain.ErrEmptyCompletion) {
		t.Fatalf("err = %v, want ErrEmptyCompletion", err)
	}
}

func TestAskRetriesTransientGenerationFailure(t *testing.T) {
	embedder := mocks.NewMockEmbeddingService()
	gen := creditsGeneration(t, embedder)
	f := newAnswerFixture(gen, embedder, AnswerConfig{MinScore: 0.5, Retry: fastRetry()})
	f.generator.SetFailNext(errors.New("timeout"))
	f.generator.SetResponse("Son 392 créditos.")

	ans, err := f.svc.Ask(context.Background(), "¿Cuántos créditos tiene la carrera?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if ans.Text != "Son 392 créditos." {
		t.Errorf("Text = %q", ans.Text)
	}
	if f.generator.Calls != 2 {
		t.Errorf("generator called %d times, want 2 (failure + retry)", f.generator.Calls)
	}
}

func TestAskRoutesByTopic(t *testing.T) {
	embedder := mocks.NewMockEmbeddingService()
	gen := buildTestGeneration(t, embedder,
		domain.Chunk{ID: "ing-0", Text: "requisitos de la carrera", Topic: "ingreso",
			Metadata: map[string]string{"source": "ingreso.json"}},
		domain.Chunk{ID: "tit-0", Text: "requisitos de la carrera", Topic: "titulacion",
			Metadata: map[string]string{"source": "titulacion.json"}},
	)
	gen.Topics = map[string][]float32{}
	for topic, profile := range map[string]string{
		"ingreso":    "ingreso admisión inscripción aspirantes",
		"titulacion": "titulación egreso tesis examen profesional",
	} {
		vec, err := embedder.EmbedQuery(context.Background(), profile)
		if err != nil {
			t.Fatalf("embedding profile: %v", err)
		}
		gen.Topics[topic] = domain.NormalizeVector(vec)
	}

	f := newAnswerFixture(gen, embedder, AnswerConfig{Retry: fastRetry()})

	ans, err := f.svc.Ask(context.Background(), "inscripción y requisitos de ingreso")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if len(ans.Sources) != 1 {
		t.Fatalf("got %d sources, want 1 (routed to one topic)", len(ans.Sources))
	}
	if ans.Sources[0].ChunkID != "ing-0" {
		t.Errorf("routed to chunk %s, want ing-0", ans.Sources[0].ChunkID)
	}
}
