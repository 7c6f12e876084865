package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// Match is one nearest-neighbour hit from a vector index.
type Match struct {
	ID       string  `json:"id"`
	Distance float64 `json:"distance"`
}

// Index is the vector index collaborator. Query returns up to k matches
// ordered by ascending distance.
type Index interface {
	Upsert(ctx context.Context, id string, vector []float32) error
	Query(ctx context.Context, vector []float32, k int) ([]Match, error)
	Count(ctx context.Context) (int, error)
}

// MemoryIndex is an in-process index using cosine distance.
type MemoryIndex struct {
	mu      sync.RWMutex
	vectors map[string][]float32
}

// NewMemoryIndex creates an empty in-memory index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{vectors: make(map[string][]float32)}
}

// Upsert stores a copy of vector under id
func (idx *MemoryIndex) Upsert(_ context.Context, id string, vector []float32) error {
	if id == "" {
		return fmt.Errorf("index id is required")
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.vectors[id] = append([]float32(nil), vector...)
	return nil
}

// Query returns the k nearest vectors by cosine distance
func (idx *MemoryIndex) Query(_ context.Context, vector []float32, k int) ([]Match, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return Nearest(vector, idx.vectors, k), nil
}

// Nearest ranks candidates by cosine distance to vector and keeps the top k.
// Ties are broken by id.
func Nearest(vector []float32, candidates map[string][]float32, k int) []Match {
	matches := make([]Match, 0, len(candidates))
	for id, v := range candidates {
		matches = append(matches, Match{ID: id, Distance: 1 - CosineSimilarity(vector, v)})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].ID < matches[j].ID
	})

	if k < len(matches) {
		matches = matches[:k]
	}
	return matches
}

// Count returns the number of stored vectors
func (idx *MemoryIndex) Count(_ context.Context) (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors), nil
}

// CosineSimilarity calculates the cosine similarity between two vectors
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
