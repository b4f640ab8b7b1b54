package rag

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/m-abdeltwab/mini-rag/internal/models"
	"github.com/m-abdeltwab/mini-rag/internal/vectordb"
)

// memLister serves chunks from memory with the same 1-based pagination
// contract as the chunk store.
type memLister struct {
	chunks []models.Chunk
}

func (m *memLister) ListChunks(ctx context.Context, projectID string, page, pageSize int) ([]models.Chunk, error) {
	start := (page - 1) * pageSize
	if start >= len(m.chunks) {
		return nil, nil
	}
	end := start + pageSize
	if end > len(m.chunks) {
		end = len(m.chunks)
	}
	return m.chunks[start:end], nil
}

// constEmbedder returns the same vector for every input, optionally failing
// from a given call number on.
type constEmbedder struct {
	vector   []float32
	calls    int
	failFrom int
}

func (c *constEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	c.calls++
	if c.failFrom > 0 && c.calls >= c.failFrom {
		return nil, fmt.Errorf("%w: embed backend down", models.ErrProviderUnavailable)
	}
	return c.vector, nil
}

func (c *constEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		v, err := c.EmbedText(ctx, text)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *constEmbedder) Dimension() int    { return len(c.vector) }
func (c *constEmbedder) ModelName() string { return "const-embedder" }

func makeChunks(projectID string, n int) []models.Chunk {
	chunks := make([]models.Chunk, n)
	for i := range chunks {
		chunks[i] = models.Chunk{
			ID:        fmt.Sprintf("chunk-%03d", i),
			ProjectID: projectID,
			AssetID:   "doc.txt",
			Text:      fmt.Sprintf("chunk body %d", i),
			Order:     i,
		}
	}
	return chunks
}

func TestPushIndexesAllChunks(t *testing.T) {
	vdb := newTestIndex(t)
	lister := &memLister{chunks: makeChunks("p1", 7)}
	embedder := &constEmbedder{vector: []float32{1, 0, 0, 0}}
	ix := NewIndexer(lister, embedder, vdb, vectordb.DistanceCosine, 0)

	inserted, err := ix.Push(context.Background(), "p1", false)
	if err != nil {
		t.Fatal(err)
	}
	if inserted != 7 {
		t.Fatalf("inserted %d, want 7", inserted)
	}

	info, err := ix.Info(context.Background(), "p1")
	if err != nil {
		t.Fatal(err)
	}
	if info.PointsCount != 7 {
		t.Fatalf("points count %d, want 7", info.PointsCount)
	}
	if info.VectorSize != 4 {
		t.Fatalf("vector size %d, want 4", info.VectorSize)
	}
}

func TestPushPaginates(t *testing.T) {
	vdb := newTestIndex(t)
	lister := &memLister{chunks: makeChunks("p1", 120)}
	embedder := &constEmbedder{vector: []float32{0, 1, 0, 0}}
	ix := NewIndexer(lister, embedder, vdb, vectordb.DistanceCosine, 0)

	inserted, err := ix.Push(context.Background(), "p1", false)
	if err != nil {
		t.Fatal(err)
	}
	if inserted != 120 {
		t.Fatalf("inserted %d, want 120", inserted)
	}
	if embedder.calls != 120 {
		t.Fatalf("embedder called %d times, want once per chunk", embedder.calls)
	}
}

func TestPushResetClearsPreviousItems(t *testing.T) {
	vdb := newTestIndex(t)
	embedder := &constEmbedder{vector: []float32{0, 0, 1, 0}}

	ix := NewIndexer(&memLister{chunks: makeChunks("p1", 10)}, embedder, vdb, vectordb.DistanceCosine, 0)
	if _, err := ix.Push(context.Background(), "p1", false); err != nil {
		t.Fatal(err)
	}

	ix = NewIndexer(&memLister{chunks: makeChunks("p1", 4)}, embedder, vdb, vectordb.DistanceCosine, 0)
	if _, err := ix.Push(context.Background(), "p1", true); err != nil {
		t.Fatal(err)
	}

	info, err := ix.Info(context.Background(), "p1")
	if err != nil {
		t.Fatal(err)
	}
	if info.PointsCount != 4 {
		t.Fatalf("points count after reset %d, want 4", info.PointsCount)
	}
}

func TestPushWithoutResetAppends(t *testing.T) {
	vdb := newTestIndex(t)
	embedder := &constEmbedder{vector: []float32{0, 0, 0, 1}}
	ix := NewIndexer(&memLister{chunks: makeChunks("p1", 3)}, embedder, vdb, vectordb.DistanceCosine, 0)

	if _, err := ix.Push(context.Background(), "p1", false); err != nil {
		t.Fatal(err)
	}
	if _, err := ix.Push(context.Background(), "p1", false); err != nil {
		t.Fatal(err)
	}

	info, err := ix.Info(context.Background(), "p1")
	if err != nil {
		t.Fatal(err)
	}
	if info.PointsCount != 6 {
		t.Fatalf("points count %d, want 6", info.PointsCount)
	}
}

func TestPushProviderOutageKeepsInsertedItems(t *testing.T) {
	vdb := newTestIndex(t)
	lister := &memLister{chunks: makeChunks("p1", 60)}
	embedder := &constEmbedder{vector: []float32{1, 0, 0, 0}, failFrom: 55}
	ix := NewIndexer(lister, embedder, vdb, vectordb.DistanceCosine, 0)

	inserted, err := ix.Push(context.Background(), "p1", false)
	if !errors.Is(err, models.ErrProviderUnavailable) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if inserted != 50 {
		t.Fatalf("inserted %d, want the 50 items of the completed page", inserted)
	}

	info, err := ix.Info(context.Background(), "p1")
	if err != nil {
		t.Fatal(err)
	}
	if info.PointsCount != 50 {
		t.Fatalf("points count %d, want 50", info.PointsCount)
	}
}

func TestInfoMissingCollection(t *testing.T) {
	vdb := newTestIndex(t)
	embedder := &constEmbedder{vector: []float32{1, 0, 0, 0}}
	ix := NewIndexer(&memLister{}, embedder, vdb, vectordb.DistanceCosine, 0)

	if _, err := ix.Info(context.Background(), "ghost"); !errors.Is(err, models.ErrCollectionNotFound) {
		t.Fatalf("expected collection not found, got %v", err)
	}
}
