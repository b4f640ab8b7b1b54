package rag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/m-abdeltwab/mini-rag/internal/helper"
	"github.com/m-abdeltwab/mini-rag/internal/models"
	"github.com/m-abdeltwab/mini-rag/internal/parser"
)

// ChunkWriter persists and clears a project's chunks. Satisfied by
// store.ChunkStore.
type ChunkWriter interface {
	InsertChunks(ctx context.Context, chunks []models.Chunk) (int, error)
	DeleteChunks(ctx context.Context, projectID string) (int64, error)
}

// Processor ingests a project's asset files: load, chunk, persist. Chunk
// order is assigned per asset from the original document position.
type Processor struct {
	chunks    ChunkWriter
	assetsDir string
}

func NewProcessor(chunks ChunkWriter, assetsDir string) *Processor {
	return &Processor{chunks: chunks, assetsDir: assetsDir}
}

// Process reads every supported file under the project's asset directory,
// splits it with the chunking strategy matching its format, and stores the
// chunks. With reset, the project's previous chunks are deleted first.
func (p *Processor) Process(ctx context.Context, projectID string, chunkSize, overlap int, reset bool) (*models.ProcessResult, error) {
	dir := filepath.Join(p.assetsDir, projectID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("project %s: reading assets: %w", projectID, err)
	}

	if reset {
		deleted, err := p.chunks.DeleteChunks(ctx, projectID)
		if err != nil {
			return nil, fmt.Errorf("project %s: %w", projectID, err)
		}
		log.Debug().Str("project", projectID).Int64("deleted", deleted).Msg("cleared stored chunks")
	}

	result := &models.ProcessResult{}
	for _, entry := range entries {
		if entry.IsDir() || !parser.Supported(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		inserted, err := p.processFile(ctx, projectID, entry.Name(), path, chunkSize, overlap)
		if err != nil {
			return nil, fmt.Errorf("project %s: file %s: %w", projectID, entry.Name(), err)
		}
		result.InsertedChunks += inserted
		result.ProcessedFiles++
	}
	return result, nil
}

func (p *Processor) processFile(ctx context.Context, projectID, assetID, path string, chunkSize, overlap int) (int, error) {
	sources, err := parser.Load(path)
	if err != nil {
		return 0, err
	}
	if len(sources) == 0 {
		return 0, nil
	}

	splitter, err := parser.ChunkerFor(sources[0].Metadata["format"], chunkSize, overlap)
	if err != nil {
		return 0, err
	}
	pieces, err := splitter.Chunk(sources)
	if err != nil {
		return 0, err
	}

	chunks := make([]models.Chunk, 0, len(pieces))
	for order, piece := range pieces {
		id, err := helper.GenerateUUID()
		if err != nil {
			return 0, err
		}
		chunks = append(chunks, models.Chunk{
			ID:        id,
			ProjectID: projectID,
			AssetID:   assetID,
			Text:      piece.Text,
			Order:     order,
			Metadata:  piece.Metadata,
		})
	}
	return p.chunks.InsertChunks(ctx, chunks)
}
