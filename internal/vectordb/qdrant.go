package vectordb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/m-abdeltwab/mini-rag/internal/models"
)

// QdrantDB is a minimal REST client to a remote Qdrant instance. No SDK; the
// four endpoints the pipeline needs are called directly.
type QdrantDB struct {
	url        string
	apiKey     string
	distance   Distance
	defaultDim int
	client     *http.Client
}

func NewQdrantDB(url, apiKey string, distance Distance, defaultDim int) *QdrantDB {
	return &QdrantDB{
		url:        url,
		apiKey:     apiKey,
		distance:   distance,
		defaultDim: defaultDim,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

func qdrantDistance(d Distance) (string, error) {
	switch d {
	case DistanceCosine:
		return "Cosine", nil
	case DistanceDot:
		return "Dot", nil
	case DistanceEuclidean:
		return "Euclid", nil
	default:
		return "", fmt.Errorf("%w: unknown distance %q", models.ErrConfiguration, d)
	}
}

func (q *QdrantDB) CollectionExists(ctx context.Context, name string) (bool, error) {
	status, _, err := q.do(ctx, http.MethodGet, fmt.Sprintf("/collections/%s", name), nil)
	if err != nil {
		return false, err
	}
	switch status {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("qdrant returned status %d for collection %s", status, name)
	}
}

func (q *QdrantDB) CreateCollection(ctx context.Context, name string, dimension int, distance Distance, reset bool) error {
	dist, err := qdrantDistance(distance)
	if err != nil {
		return err
	}
	exists, err := q.CollectionExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		if !reset {
			return nil
		}
		if err := q.DeleteCollection(ctx, name); err != nil {
			return err
		}
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": dist,
		},
	}
	status, respBody, err := q.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s", name), body)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("creating collection %s: status %d: %s", name, status, respBody)
	}
	return nil
}

func (q *QdrantDB) DeleteCollection(ctx context.Context, name string) error {
	status, respBody, err := q.do(ctx, http.MethodDelete, fmt.Sprintf("/collections/%s", name), nil)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return fmt.Errorf("%w: %s", models.ErrCollectionNotFound, name)
	}
	if status >= 300 {
		return fmt.Errorf("deleting collection %s: status %d: %s", name, status, respBody)
	}
	return nil
}

func (q *QdrantDB) InsertMany(ctx context.Context, name string, items []Item) (int, error) {
	if err := checkVectors(items, q.defaultDim); err != nil {
		return 0, err
	}

	inserted := 0
	for start := 0; start < len(items); start += insertBatchSize {
		end := min(start+insertBatchSize, len(items))
		points := make([]map[string]any, 0, end-start)
		for _, item := range items[start:end] {
			payload := map[string]any{"text": item.Text}
			for k, v := range item.Metadata {
				payload[k] = v
			}
			points = append(points, map[string]any{
				"id":      item.ID,
				"vector":  item.Vector,
				"payload": payload,
			})
		}
		body := map[string]any{"points": points}
		status, respBody, err := q.do(ctx, http.MethodPut,
			fmt.Sprintf("/collections/%s/points?wait=true", name), body)
		if err != nil {
			return inserted, err
		}
		if status == http.StatusNotFound {
			return inserted, fmt.Errorf("%w: %s", models.ErrCollectionNotFound, name)
		}
		if status >= 300 {
			return inserted, fmt.Errorf("inserting batch starting at %d: status %d: %s", start, status, respBody)
		}
		inserted += len(points)
	}
	return inserted, nil
}

func (q *QdrantDB) Query(ctx context.Context, name string, vector []float32, limit int) ([]models.RetrievedResult, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: query limit must be > 0, got %d", models.ErrConfiguration, limit)
	}
	if len(vector) != q.defaultDim {
		return nil, fmt.Errorf("%w: query vector length %d, configured dimension is %d",
			models.ErrDimensionMismatch, len(vector), q.defaultDim)
	}

	body := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	status, respBody, err := q.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/search", name), body)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", models.ErrCollectionNotFound, name)
	}
	if status >= 300 {
		return nil, fmt.Errorf("querying collection %s: status %d: %s", name, status, respBody)
	}

	var resp struct {
		Result []struct {
			Score   float32        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("decoding search response: %v", err)
	}

	results := make([]models.RetrievedResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		text, _ := r.Payload["text"].(string)
		results = append(results, models.RetrievedResult{Score: r.Score, Text: text})
	}
	return results, nil
}

func (q *QdrantDB) Info(ctx context.Context, name string) (*models.CollectionInfo, error) {
	status, respBody, err := q.do(ctx, http.MethodGet, fmt.Sprintf("/collections/%s", name), nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", models.ErrCollectionNotFound, name)
	}
	if status >= 300 {
		return nil, fmt.Errorf("fetching collection %s info: status %d: %s", name, status, respBody)
	}

	var resp struct {
		Result struct {
			Status      string `json:"status"`
			PointsCount int    `json:"points_count"`
			Config      struct {
				Params struct {
					Vectors struct {
						Size int `json:"size"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("decoding collection info: %v", err)
	}
	return &models.CollectionInfo{
		Name:        name,
		Status:      resp.Result.Status,
		PointsCount: resp.Result.PointsCount,
		VectorSize:  resp.Result.Config.Params.Vectors.Size,
	}, nil
}

func (q *QdrantDB) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, q.url+path, reader)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("qdrant %s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, respBody, nil
}
