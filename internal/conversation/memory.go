package conversation

import (
	"context"
	"errors"
	"sync"

	"maitred/internal/models"
)

// MemoryRepository keeps conversations for the life of the process.
type MemoryRepository struct {
	mu    sync.RWMutex
	convs map[string]*models.Conversation
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{convs: make(map[string]*models.Conversation)}
}

func (r *MemoryRepository) Load(_ context.Context, id string) (*models.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conv, ok := r.convs[id]
	if !ok {
		return nil, models.NotFoundf("conversation %s", id)
	}
	return conv.Clone(), nil
}

func (r *MemoryRepository) Save(_ context.Context, conv *models.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.convs[conv.ID] = conv.Clone()
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.convs[id]; !ok {
		return models.NotFoundf("conversation %s", id)
	}
	delete(r.convs, id)
	return nil
}

// Len reports how many conversations are held.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.convs)
}

func isNotFound(err error) bool {
	return errors.Is(err, models.ErrNotFound)
}
