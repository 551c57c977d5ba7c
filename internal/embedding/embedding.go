package embedding

import (
	"fmt"

	"docqa/internal/config"
	"docqa/internal/rag/interfaces"
)

// New creates an embedding client for the configured provider.
func New(cfg *config.EmbeddingConfig) (interfaces.EmbeddingModel, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIModel(cfg.Model, cfg.APIKey, cfg.BaseURL)
	case "ollama":
		return NewOllamaModel(cfg.Model, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
