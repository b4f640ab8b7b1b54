package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/m-abdeltwab/mini-rag/internal/config"
	"github.com/m-abdeltwab/mini-rag/internal/models"
)

// ChunkRecord is the persisted form of a chunk. Chunks are immutable once
// written; a reprocess deletes the project's rows en masse and re-inserts.
type ChunkRecord struct {
	bun.BaseModel `bun:"table:chunks,alias:c"`
	ID            int64             `bun:"id,pk,autoincrement"`
	ChunkID       string            `bun:"chunk_id,notnull"`
	ProjectID     string            `bun:"project_id,notnull"`
	AssetID       string            `bun:"asset_id,notnull"`
	Text          string            `bun:"text,notnull"`
	Order         int               `bun:"chunk_order,notnull"`
	Metadata      map[string]string `bun:"metadata,type:jsonb"`
}

func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	dsn := dsnWithDefaultSSLMode(cfg.URL)
	return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn), pgdriver.WithPassword(cfg.Password))), nil
}

// dsnWithDefaultSSLMode appends sslmode=disable unless the URL already sets
// an sslmode, preserving any query parameters it carries.
func dsnWithDefaultSSLMode(url string) string {
	if strings.Contains(url, "sslmode=") {
		return url
	}
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "sslmode=disable"
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// ChunkStore is the durable record of chunks per project/asset.
type ChunkStore struct {
	db *bun.DB
}

func NewChunkStore(db *bun.DB) *ChunkStore {
	return &ChunkStore{db: db}
}

func (s *ChunkStore) Init(ctx context.Context) error {
	_, err := s.db.NewCreateTable().Model((*ChunkRecord)(nil)).IfNotExists().Exec(ctx)
	return err
}

func (s *ChunkStore) InsertChunks(ctx context.Context, chunks []models.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}
	records := make([]ChunkRecord, len(chunks))
	for i, c := range chunks {
		records[i] = ChunkRecord{
			ChunkID:   c.ID,
			ProjectID: c.ProjectID,
			AssetID:   c.AssetID,
			Text:      c.Text,
			Order:     c.Order,
			Metadata:  c.Metadata,
		}
	}
	res, err := s.db.NewInsert().Model(&records).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("inserting chunks: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// ListChunks returns one page of a project's chunks in stable asset/order
// sequence. Page numbering is 1-based.
func (s *ChunkStore) ListChunks(ctx context.Context, projectID string, page, pageSize int) ([]models.Chunk, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		return nil, fmt.Errorf("%w: page size must be > 0, got %d", models.ErrConfiguration, pageSize)
	}
	var records []ChunkRecord
	err := s.db.NewSelect().
		Model(&records).
		Where("project_id = ?", projectID).
		Order("asset_id ASC", "chunk_order ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing chunks for project %s: %w", projectID, err)
	}
	chunks := make([]models.Chunk, len(records))
	for i, r := range records {
		chunks[i] = models.Chunk{
			ID:        r.ChunkID,
			ProjectID: r.ProjectID,
			AssetID:   r.AssetID,
			Text:      r.Text,
			Order:     r.Order,
			Metadata:  r.Metadata,
		}
	}
	return chunks, nil
}

func (s *ChunkStore) CountChunks(ctx context.Context, projectID string) (int, error) {
	return s.db.NewSelect().
		Model((*ChunkRecord)(nil)).
		Where("project_id = ?", projectID).
		Count(ctx)
}

func (s *ChunkStore) DeleteChunks(ctx context.Context, projectID string) (int64, error) {
	res, err := s.db.NewDelete().
		Model((*ChunkRecord)(nil)).
		Where("project_id = ?", projectID).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("deleting chunks for project %s: %w", projectID, err)
	}
	return res.RowsAffected()
}
