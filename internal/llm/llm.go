package llm

import (
	"context"

	"github.com/m-abdeltwab/mini-rag/internal/models"
)

// Embedder turns text into fixed-length vectors. Implementations validate the
// vector length against the configured embedding dimension on every call; a
// silent mismatch would corrupt the index downstream.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	ModelName() string
}

// Generator produces a completion for an assembled prompt preceded by prior
// chat turns, oldest first.
type Generator interface {
	GenerateText(ctx context.Context, prompt string, history []models.Message, maxTokens int, temperature float64) (string, error)
	ModelName() string
}
