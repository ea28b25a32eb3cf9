package services

import (
	"strings"
	"testing"

	"github.com/unam-acatlan/macgpt-core/internal/core/domain"
)

func scoredChunk(id, text string, md map[string]string, score float64) domain.ScoredChunk {
	return domain.ScoredChunk{
		Chunk: domain.Chunk{ID: id, Text: text, Metadata: md},
		Score: score,
	}
}

func TestAssembleVerbatimChunks(t *testing.T) {
	p := NewPromptAssembler(DefaultContextBudget)
	retrieved := []domain.ScoredChunk{
		scoredChunk("a-0", "La carrera tiene 392 créditos.", map[string]string{
			"source": "plan_2006.json", "course": "Plan de estudios", "semester": "1",
		}, 0.9),
		scoredChunk("b-0", "Dura ocho semestres.", map[string]string{"source": "plan_2006.json"}, 0.8),
	}

	prompt := p.Assemble("¿Cuántos créditos tiene?", retrieved)

	// Chunk texts appear verbatim, never paraphrased or truncated.
	for _, sc := range retrieved {
		if !strings.Contains(prompt, sc.Chunk.Text) {
			t.Errorf("prompt missing chunk text %q", sc.Chunk.Text)
		}
	}
	if !strings.Contains(prompt, "¿Cuántos créditos tiene?") {
		t.Error("prompt missing question")
	}
	if !strings.Contains(prompt, "(plan_2006.json, Plan de estudios, semestre 1)") {
		t.Error("prompt missing provenance citation")
	}

	// Sections appear in a fixed order.
	iq := strings.Index(prompt, "PREGUNTA DEL USUARIO:")
	ik := strings.Index(prompt, "BASE DE CONOCIMIENTOS:")
	ir := strings.Index(prompt, "RESPUESTA DE MAC-GPT:")
	if iq == -1 || ik == -1 || ir == -1 || !(iq < ik && ik < ir) {
		t.Errorf("prompt sections out of order: q=%d k=%d r=%d", iq, ik, ir)
	}
}

func TestAssembleDeterministic(t *testing.T) {
	p := NewPromptAssembler(DefaultContextBudget)
	retrieved := []domain.ScoredChunk{
		scoredChunk("a-0", "uno", map[string]string{"source": "s"}, 0.9),
		scoredChunk("b-0", "dos", map[string]string{"source": "s"}, 0.8),
	}

	first := p.Assemble("pregunta", retrieved)
	second := p.Assemble("pregunta", retrieved)
	if first != second {
		t.Error("identical inputs produced different prompts")
	}
}

func TestAssembleRespectsBudget(t *testing.T) {
	// Each entry is ~100 chars; a 250-char budget fits two, drops the rest.
	p := NewPromptAssembler(250)
	long := strings.Repeat("x", 100)
	retrieved := []domain.ScoredChunk{
		scoredChunk("a-0", "primero "+long[:80], map[string]string{"source": "s"}, 0.9),
		scoredChunk("b-0", "segundo "+long[:80], map[string]string{"source": "s"}, 0.8),
		scoredChunk("c-0", "tercero "+long[:80], map[string]string{"source": "s"}, 0.7),
	}

	prompt := p.Assemble("pregunta", retrieved)

	if !strings.Contains(prompt, "primero") || !strings.Contains(prompt, "segundo") {
		t.Error("budget dropped chunks that fit")
	}
	if strings.Contains(prompt, "tercero") {
		t.Error("over-budget chunk was included")
	}
}

func TestAssembleDropsNeverTruncates(t *testing.T) {
	p := NewPromptAssembler(150)
	big := strings.Repeat("palabra ", 50) // far over budget on its own
	retrieved := []domain.ScoredChunk{
		scoredChunk("a-0", "cabe completo", map[string]string{"source": "s"}, 0.9),
		scoredChunk("b-0", big, map[string]string{"source": "s"}, 0.8),
	}

	prompt := p.Assemble("pregunta", retrieved)

	if !strings.Contains(prompt, "cabe completo") {
		t.Error("fitting chunk missing")
	}
	// The oversized chunk is dropped entirely, no partial text.
	if strings.Contains(prompt, "palabra") {
		t.Error("oversized chunk leaked into prompt")
	}
}

func TestAssembleEmptyRetrieval(t *testing.T) {
	p := NewPromptAssembler(DefaultContextBudget)
	prompt := p.Assemble("pregunta", nil)
	if !strings.Contains(prompt, "(sin fragmentos relevantes)") {
		t.Error("empty retrieval placeholder missing")
	}
}
