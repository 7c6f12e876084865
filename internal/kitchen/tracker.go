// Package kitchen tracks operational requests escalated to the kitchen team.
package kitchen

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"maitred/internal/logger"
	"maitred/internal/models"

	"github.com/google/uuid"
)

// Repository persists kitchen requests.
type Repository interface {
	Create(ctx context.Context, r *models.KitchenRequest) error
	// Get returns models.ErrNotFound when id is unknown.
	Get(ctx context.Context, id string) (*models.KitchenRequest, error)
	Update(ctx context.Context, r *models.KitchenRequest) error
	List(ctx context.Context) ([]models.KitchenRequest, error)
	Delete(ctx context.Context, id string) error
}

// NewRequest is the input to Create.
type NewRequest struct {
	UserID   string             `json:"user_id"`
	Message  string             `json:"message"`
	Type     models.RequestType `json:"request_type"`
	Details  map[string]string  `json:"details"`
	Priority int                `json:"priority"`
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Status      models.RequestStatus
	Type        models.RequestType
	PriorityMin int
	UserID      string
}

func (f Filter) matches(r models.KitchenRequest) bool {
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.Type != "" && r.Type != f.Type {
		return false
	}
	if f.PriorityMin > 0 && r.Priority < f.PriorityMin {
		return false
	}
	if f.UserID != "" && r.UserID != f.UserID {
		return false
	}
	return true
}

// Tracker owns the request lifecycle. Writes are serialized.
type Tracker struct {
	repo Repository
	now  func() time.Time
	mu   sync.Mutex
}

// NewTracker creates a tracker over repo
func NewTracker(repo Repository) *Tracker {
	return &Tracker{repo: repo, now: time.Now}
}

// Create validates and stores a new pending request. The maximum priority is
// reserved for allergy requests, which always get it.
func (t *Tracker) Create(ctx context.Context, in NewRequest) (*models.KitchenRequest, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return nil, models.Validationf("user_id is required")
	}
	if strings.TrimSpace(in.Message) == "" {
		return nil, models.Validationf("message is required")
	}
	if !in.Type.Valid() {
		return nil, models.Validationf("unknown request type %q", in.Type)
	}
	if in.Priority < models.MinPriority || in.Priority > models.MaxPriority {
		return nil, models.Validationf("priority must be between %d and %d, got %d", models.MinPriority, models.MaxPriority, in.Priority)
	}

	priority := in.Priority
	switch {
	case in.Type == models.RequestTypeAllergy:
		priority = models.MaxPriority
	case priority == models.MaxPriority:
		return nil, models.Validationf("priority %d is reserved for allergy requests", models.MaxPriority)
	}
	details := models.StringMap{}
	for k, v := range in.Details {
		details[k] = v
	}

	now := t.now()
	req := &models.KitchenRequest{
		ID:        uuid.New().String(),
		UserID:    in.UserID,
		Message:   in.Message,
		Type:      in.Type,
		Details:   details,
		Priority:  priority,
		Status:    models.RequestStatusPending,
		History:   models.StatusHistory{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.repo.Create(ctx, req); err != nil {
		return nil, err
	}
	logger.Info("kitchen request %s created: type=%s priority=%d", req.ID, req.Type, req.Priority)
	return req, nil
}

// CreateFromDraft stores a request drafted by the kitchen strategy.
func (t *Tracker) CreateFromDraft(ctx context.Context, draft *models.KitchenRequest) (*models.KitchenRequest, error) {
	return t.Create(ctx, NewRequest{
		UserID:   draft.UserID,
		Message:  draft.Message,
		Type:     draft.Type,
		Details:  draft.Details,
		Priority: draft.Priority,
	})
}

func (t *Tracker) Get(ctx context.Context, id string) (*models.KitchenRequest, error) {
	return t.repo.Get(ctx, id)
}

// List returns matching requests by priority desc, then newest first.
func (t *Tracker) List(ctx context.Context, f Filter) ([]models.KitchenRequest, error) {
	all, err := t.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.KitchenRequest, 0, len(all))
	for _, r := range all {
		if f.matches(r) {
			out = append(out, r)
		}
	}
	sortRequests(out)
	return out, nil
}

func sortRequests(rs []models.KitchenRequest) {
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].Priority != rs[j].Priority {
			return rs[i].Priority > rs[j].Priority
		}
		if !rs[i].CreatedAt.Equal(rs[j].CreatedAt) {
			return rs[i].CreatedAt.After(rs[j].CreatedAt)
		}
		return rs[i].ID < rs[j].ID
	})
}

// Transition moves a request to status and records the change.
func (t *Tracker) Transition(ctx context.Context, id string, status models.RequestStatus, notes string) (*models.KitchenRequest, error) {
	if !status.Valid() {
		return nil, models.Validationf("unknown status %q", status)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	req, err := t.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !req.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, req.Status, status)
	}

	now := t.now()
	req.History = append(req.History, models.StatusChange{From: req.Status, To: status, Notes: notes, At: now})
	req.Status = status
	req.UpdatedAt = now
	if err := t.repo.Update(ctx, req); err != nil {
		return nil, err
	}
	logger.Info("kitchen request %s moved to %s", id, status)
	return req, nil
}

func (t *Tracker) Delete(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.repo.Delete(ctx, id)
}
