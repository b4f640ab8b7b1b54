package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-abdeltwab/mini-rag/internal/llm"
	"github.com/m-abdeltwab/mini-rag/internal/models"
	"github.com/m-abdeltwab/mini-rag/internal/vectordb"
)

// CollectionName maps a project to its vector collection. One collection per
// project.
func CollectionName(projectID string) string {
	return "collection_" + projectID
}

// Retriever answers "top-K most similar chunks to this query" by composing
// the embedding provider with the vector index. The query must be embedded
// with the same model and dimension that populated the collection; the
// dimension check in the index guards the most common latent failure mode.
type Retriever struct {
	embedder      llm.Embedder
	vdb           vectordb.VectorDB
	maxInputChars int
}

func NewRetriever(embedder llm.Embedder, vdb vectordb.VectorDB, maxInputChars int) *Retriever {
	return &Retriever{embedder: embedder, vdb: vdb, maxInputChars: maxInputChars}
}

// Retrieve returns up to limit results ordered highest score first. Results
// are passed through exactly as the index returns them: no reordering, no
// deduplication. A project with no collection fails with
// models.ErrCollectionNotFound; an existing but empty collection returns an
// empty slice.
func (r *Retriever) Retrieve(ctx context.Context, projectID, text string, limit int) ([]models.RetrievedResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: query text is empty", models.ErrConfiguration)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be > 0, got %d", models.ErrConfiguration, limit)
	}

	vector, err := r.embedder.EmbedText(ctx, clampRunes(text, r.maxInputChars))
	if err != nil {
		return nil, fmt.Errorf("project %s: embedding query: %w", projectID, err)
	}

	results, err := r.vdb.Query(ctx, CollectionName(projectID), vector, limit)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", projectID, err)
	}
	return results, nil
}

// clampRunes bounds provider input length without splitting a codepoint.
func clampRunes(text string, max int) string {
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
