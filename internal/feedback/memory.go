package feedback

import (
	"context"
	"sync"

	"maitred/internal/models"
)

// MemoryRepository keeps feedback for the life of the process.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]models.FeedbackRecord
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string]models.FeedbackRecord)}
}

func (m *MemoryRepository) Create(_ context.Context, r *models.FeedbackRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[r.ID] = *r
	return nil
}

func (m *MemoryRepository) Get(_ context.Context, id string) (*models.FeedbackRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id]
	if !ok {
		return nil, models.NotFoundf("feedback %s", id)
	}
	return &r, nil
}

func (m *MemoryRepository) List(_ context.Context) ([]models.FeedbackRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.FeedbackRecord, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	sortNewestFirst(out)
	return out, nil
}
