package rag

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/m-abdeltwab/mini-rag/internal/helper"
	"github.com/m-abdeltwab/mini-rag/internal/llm"
	"github.com/m-abdeltwab/mini-rag/internal/models"
	"github.com/m-abdeltwab/mini-rag/internal/vectordb"
)

// listPageSize is the chunk store pagination unit during bulk indexing.
const listPageSize = 50

// ChunkLister pages through a project's stored chunks in stable order.
// Satisfied by store.ChunkStore.
type ChunkLister interface {
	ListChunks(ctx context.Context, projectID string, page, pageSize int) ([]models.Chunk, error)
}

// Indexer moves a project's stored chunks into its vector collection.
//
// A reset is an exclusive operation per project: a reset racing an in-flight
// query or insert can observe a partially recreated collection, so callers
// serialize resets (one in flight per project at a time).
type Indexer struct {
	chunks        ChunkLister
	embedder      llm.Embedder
	vdb           vectordb.VectorDB
	distance      vectordb.Distance
	maxInputChars int
}

func NewIndexer(chunks ChunkLister, embedder llm.Embedder, vdb vectordb.VectorDB, distance vectordb.Distance, maxInputChars int) *Indexer {
	return &Indexer{
		chunks:        chunks,
		embedder:      embedder,
		vdb:           vdb,
		distance:      distance,
		maxInputChars: maxInputChars,
	}
}

// Push embeds and indexes every stored chunk of the project. Embedding runs
// sequentially per chunk to respect upstream rate limits. Returns the number
// of items inserted. On a provider outage mid-run, already inserted items
// stay in the collection; the caller must reset to re-synchronize.
func (ix *Indexer) Push(ctx context.Context, projectID string, reset bool) (int, error) {
	name := CollectionName(projectID)
	err := ix.vdb.CreateCollection(ctx, name, ix.embedder.Dimension(), ix.distance, reset)
	if err != nil {
		return 0, fmt.Errorf("project %s: %w", projectID, err)
	}

	inserted := 0
	for page := 1; ; page++ {
		chunks, err := ix.chunks.ListChunks(ctx, projectID, page, listPageSize)
		if err != nil {
			return inserted, fmt.Errorf("project %s: %w", projectID, err)
		}
		if len(chunks) == 0 {
			break
		}

		items := make([]vectordb.Item, 0, len(chunks))
		for _, chunk := range chunks {
			vector, err := ix.embedder.EmbedText(ctx, clampRunes(chunk.Text, ix.maxInputChars))
			if err != nil {
				return inserted, fmt.Errorf("project %s: indexing stopped after %d inserted items, reset to re-synchronize: %w",
					projectID, inserted, err)
			}
			id, err := helper.GenerateUUID()
			if err != nil {
				return inserted, err
			}
			metadata := map[string]string{
				"chunk_id": chunk.ID,
				"asset_id": chunk.AssetID,
				"order":    strconv.Itoa(chunk.Order),
			}
			for k, v := range chunk.Metadata {
				metadata[k] = v
			}
			items = append(items, vectordb.Item{
				ID:       id,
				Vector:   vector,
				Text:     chunk.Text,
				Metadata: metadata,
			})
		}

		n, err := ix.vdb.InsertMany(ctx, name, items)
		inserted += n
		if err != nil {
			return inserted, fmt.Errorf("project %s: indexing stopped after %d inserted items, reset to re-synchronize: %w",
				projectID, inserted, err)
		}
		log.Debug().Str("project", projectID).Int("page", page).Int("inserted", inserted).Msg("indexed chunk page")
	}
	return inserted, nil
}

// Info returns the project collection's stats.
func (ix *Indexer) Info(ctx context.Context, projectID string) (*models.CollectionInfo, error) {
	info, err := ix.vdb.Info(ctx, CollectionName(projectID))
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", projectID, err)
	}
	return info, nil
}
