package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"maitred/internal/catalog"
	"maitred/internal/models"
	"maitred/internal/retry"
)

// Engine turns a free-text query into a ranked, scored set of catalog items.
// It keeps no per-call state and is safe for concurrent use.
type Engine struct {
	embedder Embedder
	index    Index
	catalog  *catalog.Catalog
	policy   retry.Policy
}

// NewEngine wires an engine over the given collaborators
func NewEngine(embedder Embedder, index Index, cat *catalog.Catalog, policy retry.Policy) *Engine {
	return &Engine{embedder: embedder, index: index, catalog: cat, policy: policy}
}

// Retrieve embeds query, asks the index for the topK nearest items and returns
// those with similarity >= minSimilarity, most similar first.
func (e *Engine) Retrieve(ctx context.Context, query string, topK int, minSimilarity float64) (models.RetrievedContext, error) {
	if strings.TrimSpace(query) == "" {
		return nil, models.Validationf("query must not be empty")
	}
	if topK <= 0 {
		return nil, models.Validationf("top_k must be positive, got %d", topK)
	}
	if minSimilarity < 0 || minSimilarity > 1 {
		return nil, models.Validationf("min_similarity must be within [0,1], got %.2f", minSimilarity)
	}

	var vector []float32
	err := retry.Do(ctx, e.policy, func(ctx context.Context) error {
		var err error
		vector, err = e.embedder.Embed(ctx, query)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	var matches []Match
	err = retry.Do(ctx, e.policy, func(ctx context.Context) error {
		var err error
		matches, err = e.index.Query(ctx, vector, topK)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	results := make(models.RetrievedContext, 0, len(matches))
	for _, m := range matches {
		meal, err := e.catalog.Get(m.ID)
		if err != nil {
			// index and catalog can drift when the index is remote
			continue
		}
		sim := clamp01(1 - m.Distance)
		if sim < minSimilarity {
			continue
		}
		results = append(results, models.RetrievedItem{
			Meal:       meal,
			Similarity: sim,
			Source:     catalog.Document(meal),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	return results, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// IndexCatalog embeds every catalog item and stores it in index.
func IndexCatalog(ctx context.Context, embedder Embedder, index Index, cat *catalog.Catalog) error {
	for _, meal := range cat.All() {
		vec, err := embedder.Embed(ctx, catalog.Document(meal))
		if err != nil {
			return fmt.Errorf("embed meal %s: %w", meal.ID, err)
		}
		if err := index.Upsert(ctx, meal.ID, vec); err != nil {
			return fmt.Errorf("index meal %s: %w", meal.ID, err)
		}
	}
	return nil
}
