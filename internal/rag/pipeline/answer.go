package pipeline

import (
	"context"
	"fmt"
	"strings"

	"docqa/internal/rag/interfaces"
	"docqa/internal/rag/schema"
	"docqa/pkg/logger"
)

const (
	groundedTemperature       = 0.3
	conversationalTemperature = 0.7
	defaultMaxTokens          = 1024
)

const groundedSystemPrompt = `You are a document assistant. Answer the question using ONLY the numbered sources in the provided context. If the context does not contain enough information to answer, say so explicitly instead of guessing. Cite the sources you used inline as [Source n].`

const conversationalSystemPrompt = `You are a helpful assistant. The user has no documents to ground this conversation, so answer from general knowledge, conversationally and honestly.`

// AnswerGenerator assembles a grounded context from retrieved chunks and
// invokes the generation provider, or falls back to the ungrounded
// conversational mode when the caller supplies no grounding context.
type AnswerGenerator struct {
	generator interfaces.Generator
	maxTokens int
	log       *logger.Logger
}

// NewAnswerGenerator creates an AnswerGenerator.
func NewAnswerGenerator(generator interfaces.Generator, maxTokens int, log *logger.Logger) *AnswerGenerator {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &AnswerGenerator{generator: generator, maxTokens: maxTokens, log: log}
}

// Answer generates a response to the question. grounded is an explicit
// caller decision, not inferred here; grounded mode with zero chunks
// degrades to the conversational mode.
func (g *AnswerGenerator) Answer(ctx context.Context, question string, retrieved []schema.RetrievedChunk, grounded bool) (*schema.Answer, error) {
	if grounded && len(retrieved) > 0 {
		return g.groundedAnswer(ctx, question, retrieved)
	}
	return g.conversationalAnswer(ctx, question)
}

func (g *AnswerGenerator) groundedAnswer(ctx context.Context, question string, retrieved []schema.RetrievedChunk) (*schema.Answer, error) {
	contextBlock := BuildContext(retrieved)
	citations := MapCitations(retrieved)

	messages := []schema.Message{
		{Role: "system", Content: groundedSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextBlock, question)},
	}

	text, err := g.generator.Complete(ctx, messages, groundedTemperature, g.maxTokens)
	if err != nil {
		return nil, err
	}

	return &schema.Answer{Text: text, Citations: citations, Grounded: true}, nil
}

func (g *AnswerGenerator) conversationalAnswer(ctx context.Context, question string) (*schema.Answer, error) {
	messages := []schema.Message{
		{Role: "system", Content: conversationalSystemPrompt},
		{Role: "user", Content: question},
	}

	text, err := g.generator.Complete(ctx, messages, conversationalTemperature, g.maxTokens)
	if err != nil {
		return nil, err
	}

	return &schema.Answer{Text: text, Citations: []schema.Citation{}, Grounded: false}, nil
}

// BuildContext concatenates retrieved chunks under numbered source headers
// in retrieval order. The numbering must line up with MapCitations.
func BuildContext(retrieved []schema.RetrievedChunk) string {
	var sb strings.Builder
	for i, chunk := range retrieved {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(fmt.Sprintf("Source %d (%s):\n%s", i+1, chunk.DocumentTitle, chunk.Text))
	}
	return sb.String()
}
