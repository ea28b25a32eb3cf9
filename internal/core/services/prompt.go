package services

import (
	"fmt"
	"strings"

	"github.com/unam-acatlan/macgpt-core/internal/core/domain"
)

// DefaultContextBudget is the maximum number of characters of retrieved
// context included in a prompt.
const DefaultContextBudget = 8000

// systemInstructions is the grounding preamble for the generation model.
// The answer must come exclusively from the supplied knowledge base; when
// the context is insufficient the model has to say so instead of inventing.
const systemInstructions = `Eres MAC-GPT, un asistente virtual experto y amigable sobre la Licenciatura en Matemáticas Aplicadas y Computación (MAC) de la FES Acatlán, UNAM.

Instrucción fundamental: tu única fuente de información es la BASE DE CONOCIMIENTOS que acompaña a la PREGUNTA DEL USUARIO. No uses conocimiento externo ni hagas suposiciones más allá de este contexto.

Directrices:
1. Basa TODAS tus respuestas exclusivamente en los fragmentos de la BASE DE CONOCIMIENTOS.
2. Nunca inventes información, fechas, nombres, procedimientos, requisitos ni URLs.
3. Si la BASE DE CONOCIMIENTOS no contiene la respuesta, indícalo claramente: "La información sobre ese tema no está disponible en mi base de conocimientos actual."
4. Si la pregunta trata sobre áreas de especialización o líneas terminales del plan de estudios, enumera las áreas que identifiques en los fragmentos de etapa terminal.
5. Sé conciso y claro; usa listas cuando la respuesta lo permita.
6. Si la pregunta no se relaciona con la carrera MAC, responde: "Como MAC-GPT, mi especialidad es la Licenciatura en Matemáticas Aplicadas y Computación. ¿Tienes alguna consulta sobre este programa?"`

// PromptAssembler builds a grounded generation prompt from retrieved chunks
// and the user question, respecting a maximum context budget.
type PromptAssembler struct {
	budget int
}

// NewPromptAssembler creates a PromptAssembler with the given context budget
// in characters. Values < 1 use DefaultContextBudget.
func NewPromptAssembler(budget int) *PromptAssembler {
	if budget < 1 {
		budget = DefaultContextBudget
	}
	return &PromptAssembler{budget: budget}
}

// Budget returns the configured context budget in characters.
func (p *PromptAssembler) Budget() int {
	return p.budget
}

// Assemble builds the prompt. Chunk texts are concatenated in descending
// score order until the budget is reached; a chunk that does not fit
// entirely is dropped, never truncated mid-chunk. Deterministic for
// identical inputs.
func (p *PromptAssembler) Assemble(question string, retrieved []domain.ScoredChunk) string {
	var context strings.Builder
	used := 0

	for i, sc := range retrieved {
		entry := fmt.Sprintf("[%d] (%s) %s\n\n", i+1, citation(sc.Chunk), sc.Chunk.Text)
		if used+len(entry) > p.budget {
			break
		}
		context.WriteString(entry)
		used += len(entry)
	}

	knowledgeBase := strings.TrimSpace(context.String())
	if knowledgeBase == "" {
		knowledgeBase = "(sin fragmentos relevantes)"
	}

	var b strings.Builder
	b.WriteString(systemInstructions)
	b.WriteString("\n\nPREGUNTA DEL USUARIO:\n")
	b.WriteString(question)
	b.WriteString("\n\nBASE DE CONOCIMIENTOS:\n")
	b.WriteString(knowledgeBase)
	b.WriteString("\n\nRESPUESTA DE MAC-GPT:\n")
	return b.String()
}

// citation renders the provenance of a chunk for the knowledge-base listing.
func citation(c domain.Chunk) string {
	parts := []string{c.Metadata["source"]}
	if course := c.Metadata["course"]; course != "" {
		parts = append(parts, course)
	}
	if sem := c.Metadata["semester"]; sem != "" {
		parts = append(parts, "semestre "+sem)
	}
	return strings.Join(parts, ", ")
}
