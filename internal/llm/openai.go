package llm

import (
	"context"
	"fmt"

	"docqa/internal/rag/interfaces"
	"docqa/internal/rag/schema"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

// OpenAI is a generation client for the OpenAI API and compatible endpoints.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates an OpenAI generation client. baseURL overrides the
// default API endpoint when non-empty.
func NewOpenAI(model, apiKey, baseURL string) (*OpenAI, error) {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	client := openai.NewClientWithConfig(cfg)
	return &OpenAI{client: client, model: model}, nil
}

// Complete runs one chat completion and returns the generated text.
func (o *OpenAI) Complete(ctx context.Context, messages []schema.Message, temperature float32, maxTokens int) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    toOpenAIMessages(messages),
		Temperature: &temperature,
		MaxTokens:   maxTokens,
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", &GenerationError{Provider: "openai", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &GenerationError{Provider: "openai", Err: fmt.Errorf("no choices returned")}
	}

	return resp.Choices[0].Message.Content, nil
}

func toOpenAIMessages(messages []schema.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		}
	}
	return out
}

// compile-time check to ensure OpenAI implements the Generator interface
var _ interfaces.Generator = (*OpenAI)(nil)
