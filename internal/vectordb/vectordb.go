package vectordb

import (
	"context"
	"fmt"

	"github.com/m-abdeltwab/mini-rag/internal/config"
	"github.com/m-abdeltwab/mini-rag/internal/models"
)

// Distance is the similarity metric of a collection, chosen once at creation
// and immutable thereafter.
type Distance string

const (
	DistanceCosine    Distance = "cosine"
	DistanceDot       Distance = "dot"
	DistanceEuclidean Distance = "euclidean"
)

// insertBatchSize bounds peak memory and request payload size per insert
// call. The first failing sub-batch aborts the insert; remaining items are
// not silently skipped.
const insertBatchSize = 50

// Item is one vector+payload pair to index.
type Item struct {
	ID       string
	Vector   []float32
	Text     string
	Metadata map[string]string
}

// VectorDB stores (vector, payload) pairs per named collection and answers
// similarity queries. Implementations must reject vectors whose length
// disagrees with the collection dimension and must distinguish a missing
// collection from an empty one.
type VectorDB interface {
	CollectionExists(ctx context.Context, name string) (bool, error)
	CreateCollection(ctx context.Context, name string, dimension int, distance Distance, reset bool) error
	DeleteCollection(ctx context.Context, name string) error
	InsertMany(ctx context.Context, name string, items []Item) (int, error)
	Query(ctx context.Context, name string, vector []float32, limit int) ([]models.RetrievedResult, error)
	Info(ctx context.Context, name string) (*models.CollectionInfo, error)
}

// New builds the vector index backend selected by the config.
func New(cfg config.VectorDBConfig, dimension int) (VectorDB, error) {
	distance := Distance(cfg.Distance)
	switch cfg.Backend {
	case "chromem":
		return NewChromemDB(cfg.Path, distance, dimension)
	case "qdrant":
		return NewQdrantDB(cfg.URL, cfg.APIKey, distance, dimension), nil
	default:
		return nil, fmt.Errorf("%w: unknown vector_db backend %q", models.ErrConfiguration, cfg.Backend)
	}
}

// checkVectors rejects the whole item set before anything is written when any
// vector length disagrees with the collection dimension.
func checkVectors(items []Item, dimension int) error {
	for _, item := range items {
		if len(item.Vector) != dimension {
			return fmt.Errorf("%w: item %s has vector length %d, collection dimension is %d",
				models.ErrDimensionMismatch, item.ID, len(item.Vector), dimension)
		}
	}
	return nil
}
