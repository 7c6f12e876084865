package kitchen

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"maitred/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestTracker returns a tracker whose clock advances one second per call.
func newTestTracker() *Tracker {
	t := NewTracker(NewMemoryRepository())
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	tick := 0
	t.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return t
}

func create(t *testing.T, tr *Tracker, typ models.RequestType, priority int) *models.KitchenRequest {
	t.Helper()
	r, err := tr.Create(context.Background(), NewRequest{UserID: "u1", Message: "msg", Type: typ, Priority: priority})
	require.NoError(t, err)
	return r
}

func TestCreate_Validation(t *testing.T) {
	tr := newTestTracker()
	ctx := context.Background()

	tests := []struct {
		name string
		in   NewRequest
	}{
		{"missing user", NewRequest{Message: "m", Type: models.RequestTypeComplaint, Priority: 3}},
		{"blank message", NewRequest{UserID: "u", Message: "  ", Type: models.RequestTypeComplaint, Priority: 3}},
		{"unknown type", NewRequest{UserID: "u", Message: "m", Type: "billing", Priority: 3}},
		{"priority too low", NewRequest{UserID: "u", Message: "m", Type: models.RequestTypeComplaint, Priority: 0}},
		{"priority too high", NewRequest{UserID: "u", Message: "m", Type: models.RequestTypeComplaint, Priority: 6}},
		{"max priority on complaint", NewRequest{UserID: "u", Message: "cold food", Type: models.RequestTypeComplaint, Priority: 5}},
		{"max priority on preference", NewRequest{UserID: "u", Message: "no onions", Type: models.RequestTypePreference, Priority: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tr.Create(ctx, tt.in)
			assert.ErrorIs(t, err, models.ErrValidation)
		})
	}
}

func TestCreate_AllergyForcesMaxPriority(t *testing.T) {
	tr := newTestTracker()
	r := create(t, tr, models.RequestTypeAllergy, 2)
	assert.Equal(t, models.MaxPriority, r.Priority)
	assert.Equal(t, models.RequestStatusPending, r.Status)
	assert.NotEmpty(t, r.ID)
}

func TestCreateFromDraft(t *testing.T) {
	tr := newTestTracker()
	r, err := tr.CreateFromDraft(context.Background(), &models.KitchenRequest{
		UserID: "u1", Message: "I'm allergic to peanuts", Type: models.RequestTypeAllergy,
		Details: models.StringMap{"allergen": "peanuts"}, Priority: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, "peanuts", r.Details["allergen"])
}

func TestTransition(t *testing.T) {
	ctx := context.Background()
	tr := newTestTracker()

	t.Run("pending to completed is rejected", func(t *testing.T) {
		r := create(t, tr, models.RequestTypeModification, 3)
		_, err := tr.Transition(ctx, r.ID, models.RequestStatusCompleted, "")
		assert.ErrorIs(t, err, models.ErrInvalidTransition)
	})

	t.Run("pending to cancelled", func(t *testing.T) {
		r := create(t, tr, models.RequestTypeModification, 3)
		got, err := tr.Transition(ctx, r.ID, models.RequestStatusCancelled, "customer changed mind")
		require.NoError(t, err)
		assert.Equal(t, models.RequestStatusCancelled, got.Status)
		assert.Equal(t, "customer changed mind", got.Notes())
	})

	t.Run("full lifecycle records history", func(t *testing.T) {
		r := create(t, tr, models.RequestTypeComplaint, 4)
		_, err := tr.Transition(ctx, r.ID, models.RequestStatusInProgress, "looking into it")
		require.NoError(t, err)
		got, err := tr.Transition(ctx, r.ID, models.RequestStatusCompleted, "refunded")
		require.NoError(t, err)

		require.Len(t, got.History, 2)
		assert.Equal(t, models.RequestStatusPending, got.History[0].From)
		assert.Equal(t, models.RequestStatusInProgress, got.History[0].To)
		assert.Equal(t, models.RequestStatusCompleted, got.History[1].To)
		assert.True(t, got.UpdatedAt.After(got.CreatedAt))

		_, err = tr.Transition(ctx, r.ID, models.RequestStatusInProgress, "")
		assert.ErrorIs(t, err, models.ErrInvalidTransition)
	})

	t.Run("same state is rejected", func(t *testing.T) {
		r := create(t, tr, models.RequestTypePreference, 2)
		_, err := tr.Transition(ctx, r.ID, models.RequestStatusPending, "")
		assert.ErrorIs(t, err, models.ErrInvalidTransition)
	})

	t.Run("unknown id and status", func(t *testing.T) {
		_, err := tr.Transition(ctx, "nope", models.RequestStatusInProgress, "")
		assert.ErrorIs(t, err, models.ErrNotFound)
		r := create(t, tr, models.RequestTypePreference, 2)
		_, err = tr.Transition(ctx, r.ID, "done", "")
		assert.ErrorIs(t, err, models.ErrValidation)
	})
}

func TestTransition_ConcurrentOnlyOneWins(t *testing.T) {
	ctx := context.Background()
	tr := newTestTracker()
	r := create(t, tr, models.RequestTypeComplaint, 4)

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := tr.Transition(ctx, r.ID, models.RequestStatusInProgress, ""); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestList_SortedAndFiltered(t *testing.T) {
	ctx := context.Background()
	tr := newTestTracker()
	low := create(t, tr, models.RequestTypePreference, 2)
	oldUrgent := create(t, tr, models.RequestTypeComplaint, 4)
	allergy := create(t, tr, models.RequestTypeAllergy, 5)
	newUrgent := create(t, tr, models.RequestTypeComplaint, 4)

	all, err := tr.List(ctx, Filter{})
	require.NoError(t, err)
	var ids []string
	for _, r := range all {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{allergy.ID, newUrgent.ID, oldUrgent.ID, low.ID}, ids)

	complaints, err := tr.List(ctx, Filter{Type: models.RequestTypeComplaint})
	require.NoError(t, err)
	assert.Len(t, complaints, 2)

	high, err := tr.List(ctx, Filter{PriorityMin: 5})
	require.NoError(t, err)
	require.Len(t, high, 1)
	assert.Equal(t, allergy.ID, high[0].ID)

	none, err := tr.List(ctx, Filter{UserID: "someone-else"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	tr := newTestTracker()
	for i := 0; i < 12; i++ {
		create(t, tr, models.RequestTypePreference, 1+i%3)
	}
	allergy := create(t, tr, models.RequestTypeAllergy, 5)
	done := create(t, tr, models.RequestTypeComplaint, 4)
	_, err := tr.Transition(ctx, done.ID, models.RequestStatusCancelled, "")
	require.NoError(t, err)

	d, err := tr.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 14, d.Total)
	assert.Equal(t, 13, d.ByStatus[models.RequestStatusPending])
	assert.Equal(t, 1, d.ByStatus[models.RequestStatusCancelled])
	assert.Equal(t, 0, d.ByStatus[models.RequestStatusCompleted])
	assert.Equal(t, 12, d.ByType[models.RequestTypePreference])

	require.Len(t, d.Urgent, 1)
	assert.Equal(t, allergy.ID, d.Urgent[0].ID)
	require.Len(t, d.Recent, recentLimit)
	assert.Equal(t, done.ID, d.Recent[0].ID)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	tr := newTestTracker()
	r := create(t, tr, models.RequestTypePreference, 2)

	require.NoError(t, tr.Delete(ctx, r.ID))
	_, err := tr.Get(ctx, r.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, tr.Delete(ctx, r.ID), models.ErrNotFound)
}

func ExampleTracker_Transition() {
	tr := NewTracker(NewMemoryRepository())
	ctx := context.Background()
	r, _ := tr.Create(ctx, NewRequest{UserID: "u1", Message: "no onions please", Type: models.RequestTypeModification, Priority: 3})
	_, err := tr.Transition(ctx, r.ID, models.RequestStatusCompleted, "")
	fmt.Println(err != nil)
	// Output: true
}
