package kitchen

import (
	"context"
	"sort"
	"sync"

	"maitred/internal/models"
)

// MemoryRepository is the default in-process store.
type MemoryRepository struct {
	mu       sync.RWMutex
	requests map[string]models.KitchenRequest
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{requests: make(map[string]models.KitchenRequest)}
}

func (m *MemoryRepository) Create(_ context.Context, r *models.KitchenRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[r.ID] = clone(*r)
	return nil
}

func (m *MemoryRepository) Get(_ context.Context, id string) (*models.KitchenRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, models.NotFoundf("kitchen request %s", id)
	}
	c := clone(r)
	return &c, nil
}

func (m *MemoryRepository) Update(_ context.Context, r *models.KitchenRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[r.ID]; !ok {
		return models.NotFoundf("kitchen request %s", r.ID)
	}
	m.requests[r.ID] = clone(*r)
	return nil
}

func (m *MemoryRepository) List(_ context.Context) ([]models.KitchenRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.KitchenRequest, 0, len(m.requests))
	for _, r := range m.requests {
		out = append(out, clone(r))
	}
	sortByCreated(out)
	return out, nil
}

func (m *MemoryRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[id]; !ok {
		return models.NotFoundf("kitchen request %s", id)
	}
	delete(m.requests, id)
	return nil
}

func clone(r models.KitchenRequest) models.KitchenRequest {
	details := make(models.StringMap, len(r.Details))
	for k, v := range r.Details {
		details[k] = v
	}
	r.Details = details
	r.History = append(models.StatusHistory(nil), r.History...)
	return r
}

// sortByCreated orders newest first.
func sortByCreated(rs []models.KitchenRequest) {
	sort.SliceStable(rs, func(i, j int) bool {
		if !rs[i].CreatedAt.Equal(rs[j].CreatedAt) {
			return rs[i].CreatedAt.After(rs[j].CreatedAt)
		}
		return rs[i].ID < rs[j].ID
	})
}
