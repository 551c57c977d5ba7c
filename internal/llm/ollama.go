package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"docqa/internal/rag/interfaces"
	"docqa/internal/rag/schema"

	ollama "github.com/ollama/ollama/api"
)

// Ollama is a generation client for a local Ollama server.
type Ollama struct {
	client *ollama.Client
	model  string
}

// NewOllama creates an Ollama generation client. baseURL defaults to the
// local Ollama address when empty.
func NewOllama(model, baseURL string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	hc := &http.Client{Timeout: 120 * time.Second}
	client := ollama.NewClient(parsedURL, hc)

	return &Ollama{client: client, model: model}, nil
}

// Complete runs one chat completion and returns the generated text.
func (o *Ollama) Complete(ctx context.Context, messages []schema.Message, temperature float32, maxTokens int) (string, error) {
	msgs := make([]ollama.Message, len(messages))
	for i, m := range messages {
		msgs[i] = ollama.Message{Role: m.Role, Content: m.Content}
	}

	stream := false
	var sb strings.Builder
	err := o.client.Chat(ctx, &ollama.ChatRequest{
		Model:    o.model,
		Messages: msgs,
		Stream:   &stream,
		Options: map[string]interface{}{
			"temperature": temperature,
			"num_predict": maxTokens,
		},
	}, func(resp ollama.ChatResponse) error {
		sb.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", &GenerationError{Provider: "ollama", Err: err}
	}

	return sb.String(), nil
}

// compile-time check to ensure Ollama implements the Generator interface
var _ interfaces.Generator = (*Ollama)(nil)
