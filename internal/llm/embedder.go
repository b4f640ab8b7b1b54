package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"

	"github.com/m-abdeltwab/mini-rag/internal/models"
)

// LangchainEmbedder adapts a langchaingo embedder to the Embedder interface
// and enforces the declared embedding dimension on every returned vector.
type LangchainEmbedder struct {
	client    embeddings.Embedder
	model     string
	dimension int
}

func NewLangchainEmbedder(client embeddings.Embedder, model string, dimension int) (*LangchainEmbedder, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: embedding dimension is unset", models.ErrConfiguration)
	}
	return &LangchainEmbedder{client: client, model: model, dimension: dimension}, nil
}

func (e *LangchainEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.client.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding with %s: %v", models.ErrProviderUnavailable, e.model, err)
	}
	if err := e.checkDimension(vec); err != nil {
		return nil, err
	}
	return vec, nil
}

func (e *LangchainEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vecs, err := e.client.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding batch with %s: %v", models.ErrProviderUnavailable, e.model, err)
	}
	for _, vec := range vecs {
		if err := e.checkDimension(vec); err != nil {
			return nil, err
		}
	}
	return vecs, nil
}

func (e *LangchainEmbedder) checkDimension(vec []float32) error {
	if len(vec) != e.dimension {
		return fmt.Errorf("%w: model %s returned a vector of length %d, configured embedding size is %d",
			models.ErrDimensionMismatch, e.model, len(vec), e.dimension)
	}
	return nil
}

func (e *LangchainEmbedder) Dimension() int { return e.dimension }

func (e *LangchainEmbedder) ModelName() string { return e.model }
