package database

import (
	"context"
	"fmt"

	"maitred/internal/retrieval"

	"github.com/jinzhu/gorm"
	"github.com/lib/pq"
)

// embeddingRow is one catalog embedding. The vector is kept as a Postgres
// array literal in a text column so the table works on SQLite as well.
type embeddingRow struct {
	ID     string          `gorm:"primary_key"`
	Vector pq.Float64Array `gorm:"type:text"`
}

func (embeddingRow) TableName() string {
	return "meal_embeddings"
}

// VectorIndex is a retrieval.Index persisted in the database. Queries scan
// every row; the catalog is small enough for that.
type VectorIndex struct {
	db *gorm.DB
}

func NewVectorIndex(db *gorm.DB) *VectorIndex {
	return &VectorIndex{db: db}
}

func (v *VectorIndex) Upsert(ctx context.Context, id string, vector []float32) error {
	if id == "" {
		return fmt.Errorf("index id is required")
	}
	row := embeddingRow{ID: id, Vector: make(pq.Float64Array, len(vector))}
	for i, x := range vector {
		row.Vector[i] = float64(x)
	}
	return v.db.Save(&row).Error
}

func (v *VectorIndex) Query(ctx context.Context, vector []float32, k int) ([]retrieval.Match, error) {
	var rows []embeddingRow
	if err := v.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	candidates := make(map[string][]float32, len(rows))
	for _, r := range rows {
		vec := make([]float32, len(r.Vector))
		for i, x := range r.Vector {
			vec[i] = float32(x)
		}
		candidates[r.ID] = vec
	}
	return retrieval.Nearest(vector, candidates, k), nil
}

func (v *VectorIndex) Count(ctx context.Context) (int, error) {
	var n int
	if err := v.db.Model(&embeddingRow{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
