package retrieval

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// ChromaIndex talks to a Chroma server over its REST API. The collection is
// created on first use with cosine distance.
type ChromaIndex struct {
	client     *resty.Client
	collection string

	mu           sync.Mutex
	collectionID string
}

// NewChromaIndex creates a client for the collection at baseURL
func NewChromaIndex(baseURL, collection string, timeout time.Duration) *ChromaIndex {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &ChromaIndex{client: client, collection: collection}
}

type chromaCollection struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type chromaQueryResult struct {
	IDs       [][]string  `json:"ids"`
	Distances [][]float64 `json:"distances"`
}

func (c *ChromaIndex) ensureCollection(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.collectionID != "" {
		return c.collectionID, nil
	}

	var col chromaCollection
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"name":          c.collection,
			"get_or_create": true,
			"metadata":      map[string]string{"hnsw:space": "cosine"},
		}).
		SetResult(&col).
		Post("/api/v1/collections")
	if err != nil {
		return "", fmt.Errorf("failed to reach chroma: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("chroma create collection: status %d: %s", resp.StatusCode(), resp.String())
	}
	if col.ID == "" {
		return "", fmt.Errorf("chroma returned no collection id")
	}
	c.collectionID = col.ID
	return col.ID, nil
}

// Upsert stores vector under id
func (c *ChromaIndex) Upsert(ctx context.Context, id string, vector []float32) error {
	colID, err := c.ensureCollection(ctx)
	if err != nil {
		return err
	}
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"ids":        []string{id},
			"embeddings": [][]float32{vector},
		}).
		Post("/api/v1/collections/" + colID + "/upsert")
	if err != nil {
		return fmt.Errorf("failed to upsert into chroma: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("chroma upsert: status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// Query returns the k nearest items with their distances
func (c *ChromaIndex) Query(ctx context.Context, vector []float32, k int) ([]Match, error) {
	colID, err := c.ensureCollection(ctx)
	if err != nil {
		return nil, err
	}

	var result chromaQueryResult
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"query_embeddings": [][]float32{vector},
			"n_results":        k,
			"include":          []string{"distances"},
		}).
		SetResult(&result).
		Post("/api/v1/collections/" + colID + "/query")
	if err != nil {
		return nil, fmt.Errorf("failed to query chroma: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("chroma query: status %d: %s", resp.StatusCode(), resp.String())
	}

	if len(result.IDs) == 0 {
		return []Match{}, nil
	}
	ids := result.IDs[0]
	matches := make([]Match, 0, len(ids))
	for i, id := range ids {
		m := Match{ID: id}
		if len(result.Distances) > 0 && i < len(result.Distances[0]) {
			m.Distance = result.Distances[0][i]
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// Count returns the number of items in the collection
func (c *ChromaIndex) Count(ctx context.Context) (int, error) {
	colID, err := c.ensureCollection(ctx)
	if err != nil {
		return 0, err
	}
	var n int
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&n).
		Get("/api/v1/collections/" + colID + "/count")
	if err != nil {
		return 0, fmt.Errorf("failed to count chroma collection: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("chroma count: status %d: %s", resp.StatusCode(), resp.String())
	}
	return n, nil
}
