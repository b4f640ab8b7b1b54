package llm

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/m-abdeltwab/mini-rag/internal/config"
	"github.com/m-abdeltwab/mini-rag/internal/models"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// NewEmbedder builds the embedding provider selected by the config. Backend
// selection happens here, once; callers only see the Embedder interface.
func NewEmbedder(cfg config.LLMConfig, dimension int) (Embedder, error) {
	model, err := newBackend(cfg)
	if err != nil {
		return nil, err
	}
	client, ok := model.(embeddings.EmbedderClient)
	if !ok {
		return nil, fmt.Errorf("%w: provider %q does not support embeddings", models.ErrConfiguration, cfg.Provider)
	}
	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	return NewLangchainEmbedder(embedder, cfg.Model, dimension)
}

// NewGenerator builds the generation provider selected by the config.
// Generation and embedding backends are independently configurable.
func NewGenerator(cfg config.LLMConfig) (Generator, error) {
	model, err := newBackend(cfg)
	if err != nil {
		return nil, err
	}
	return NewLangchainGenerator(model, cfg.Model), nil
}

func newBackend(cfg config.LLMConfig) (llms.Model, error) {
	switch cfg.Provider {
	case "openai":
		opts := []openai.Option{
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithModel(cfg.Model),
			openai.WithEmbeddingModel(cfg.Model),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		model, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("initializing openai backend: %w", err)
		}
		return model, nil
	case "openrouter":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = openRouterBaseURL
		}
		model, err := openai.New(
			openai.WithBaseURL(baseURL),
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithModel(cfg.Model),
			openai.WithEmbeddingModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("initializing openrouter backend: %w", err)
		}
		return model, nil
	case "ollama":
		model, err := ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("initializing ollama backend: %w", err)
		}
		return model, nil
	default:
		return nil, fmt.Errorf("%w: unknown LLM provider %q", models.ErrConfiguration, cfg.Provider)
	}
}
