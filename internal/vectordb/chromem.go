package vectordb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/m-abdeltwab/mini-rag/internal/models"
)

// dimsFileName is the sidecar file holding collection dimensions next to the
// chromem data. chromem persists collection metadata but does not expose it
// for reading, so the dimensions are tracked here and must survive restarts.
const dimsFileName = "dimensions.json"

// ChromemDB is the embedded vector index backend. chromem-go computes cosine
// similarity over normalized vectors, so it only accepts the cosine metric.
type ChromemDB struct {
	db         *chromem.DB
	path       string
	defaultDim int

	mu   sync.RWMutex
	dims map[string]int
}

// NewChromemDB opens (or creates) a persistent chromem database at path. An
// empty path gives an in-memory database, used by tests.
func NewChromemDB(path string, distance Distance, defaultDim int) (*ChromemDB, error) {
	if distance != DistanceCosine {
		return nil, fmt.Errorf("%w: chromem backend supports only the cosine metric, got %q",
			models.ErrConfiguration, distance)
	}

	var db *chromem.DB
	var err error
	if path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("opening chromem database: %v", err)
		}
	}

	c := &ChromemDB{db: db, path: path, defaultDim: defaultDim, dims: make(map[string]int)}
	if err := c.loadDims(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *ChromemDB) loadDims() error {
	if c.path == "" {
		return nil
	}
	data, err := os.ReadFile(filepath.Join(c.path, dimsFileName))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading collection dimensions: %v", err)
	}
	if err := json.Unmarshal(data, &c.dims); err != nil {
		return fmt.Errorf("decoding collection dimensions: %v", err)
	}
	return nil
}

// saveDims is called with c.mu held.
func (c *ChromemDB) saveDims() error {
	if c.path == "" {
		return nil
	}
	data, err := json.Marshal(c.dims)
	if err != nil {
		return fmt.Errorf("encoding collection dimensions: %v", err)
	}
	if err := os.WriteFile(filepath.Join(c.path, dimsFileName), data, 0o644); err != nil {
		return fmt.Errorf("writing collection dimensions: %v", err)
	}
	return nil
}

func (c *ChromemDB) CollectionExists(ctx context.Context, name string) (bool, error) {
	return c.db.GetCollection(name, nil) != nil, nil
}

func (c *ChromemDB) CreateCollection(ctx context.Context, name string, dimension int, distance Distance, reset bool) error {
	if distance != DistanceCosine {
		return fmt.Errorf("%w: chromem backend supports only the cosine metric, got %q",
			models.ErrConfiguration, distance)
	}
	if reset && c.db.GetCollection(name, nil) != nil {
		if err := c.db.DeleteCollection(name); err != nil {
			return fmt.Errorf("resetting collection %s: %v", name, err)
		}
	}
	if _, err := c.db.GetOrCreateCollection(name, nil, nil); err != nil {
		return fmt.Errorf("creating collection %s: %v", name, err)
	}
	// a dimension change requires a full reset; without one the existing
	// collection keeps its original dimension
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.dims[name]; !ok || reset {
		c.dims[name] = dimension
		return c.saveDims()
	}
	return nil
}

func (c *ChromemDB) DeleteCollection(ctx context.Context, name string) error {
	if c.db.GetCollection(name, nil) == nil {
		return fmt.Errorf("%w: %s", models.ErrCollectionNotFound, name)
	}
	if err := c.db.DeleteCollection(name); err != nil {
		return fmt.Errorf("deleting collection %s: %v", name, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.dims, name)
	return c.saveDims()
}

func (c *ChromemDB) InsertMany(ctx context.Context, name string, items []Item) (int, error) {
	col := c.db.GetCollection(name, nil)
	if col == nil {
		return 0, fmt.Errorf("%w: %s", models.ErrCollectionNotFound, name)
	}
	if err := checkVectors(items, c.dimension(name)); err != nil {
		return 0, err
	}

	inserted := 0
	for start := 0; start < len(items); start += insertBatchSize {
		end := min(start+insertBatchSize, len(items))
		docs := make([]chromem.Document, 0, end-start)
		for _, item := range items[start:end] {
			docs = append(docs, chromem.Document{
				ID:        item.ID,
				Content:   item.Text,
				Metadata:  item.Metadata,
				Embedding: item.Vector,
			})
		}
		if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
			return inserted, fmt.Errorf("inserting batch starting at %d: %v", start, err)
		}
		inserted += len(docs)
	}
	return inserted, nil
}

func (c *ChromemDB) Query(ctx context.Context, name string, vector []float32, limit int) ([]models.RetrievedResult, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: query limit must be > 0, got %d", models.ErrConfiguration, limit)
	}
	col := c.db.GetCollection(name, nil)
	if col == nil {
		return nil, fmt.Errorf("%w: %s", models.ErrCollectionNotFound, name)
	}
	if len(vector) != c.dimension(name) {
		return nil, fmt.Errorf("%w: query vector length %d, collection dimension is %d",
			models.ErrDimensionMismatch, len(vector), c.dimension(name))
	}

	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	// chromem rejects result counts above the number of stored documents
	if limit > count {
		limit = count
	}

	res, err := col.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: vector,
		NResults:       limit,
	})
	if err != nil {
		return nil, fmt.Errorf("querying collection %s: %v", name, err)
	}

	results := make([]models.RetrievedResult, 0, len(res))
	for _, r := range res {
		results = append(results, models.RetrievedResult{Score: r.Similarity, Text: r.Content})
	}
	return results, nil
}

func (c *ChromemDB) Info(ctx context.Context, name string) (*models.CollectionInfo, error) {
	col := c.db.GetCollection(name, nil)
	if col == nil {
		return nil, fmt.Errorf("%w: %s", models.ErrCollectionNotFound, name)
	}
	return &models.CollectionInfo{
		Name:        name,
		Status:      "green",
		PointsCount: col.Count(),
		VectorSize:  c.dimension(name),
	}, nil
}

func (c *ChromemDB) dimension(name string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if dim, ok := c.dims[name]; ok {
		return dim
	}
	return c.defaultDim
}
