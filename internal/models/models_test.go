package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to RequestStatus
		allowed  bool
	}{
		{RequestStatusPending, RequestStatusInProgress, true},
		{RequestStatusPending, RequestStatusCancelled, true},
		{RequestStatusPending, RequestStatusCompleted, false},
		{RequestStatusPending, RequestStatusPending, false},
		{RequestStatusInProgress, RequestStatusCompleted, true},
		{RequestStatusInProgress, RequestStatusCancelled, true},
		{RequestStatusInProgress, RequestStatusPending, false},
		{RequestStatusCompleted, RequestStatusInProgress, false},
		{RequestStatusCompleted, RequestStatusCancelled, false},
		{RequestStatusCancelled, RequestStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}

	assert.True(t, RequestStatusCompleted.Terminal())
	assert.True(t, RequestStatusCancelled.Terminal())
	assert.False(t, RequestStatusInProgress.Terminal())
}

func TestValidateMeal(t *testing.T) {
	meal := Meal{
		ID:          "meal_1",
		Name:        "Bowl",
		Category:    MealCategoryLunch,
		Nutrition:   Nutrition{Calories: 500, Protein: 30},
		DietaryTags: StringSlice{"Vegan", "vegan", " high_protein "},
		Popularity:  0.5,
	}
	require.NoError(t, ValidateMeal(&meal))
	assert.Equal(t, StringSlice{"vegan", "high_protein"}, meal.DietaryTags)

	bad := meal
	bad.Nutrition.Protein = -1
	err := ValidateMeal(&bad)
	assert.True(t, errors.Is(err, ErrValidation))

	bad = meal
	bad.Popularity = 1.5
	assert.ErrorIs(t, ValidateMeal(&bad), ErrValidation)

	bad = meal
	bad.Category = "brunch"
	assert.ErrorIs(t, ValidateMeal(&bad), ErrValidation)
}

func TestPreferences_Merge(t *testing.T) {
	p := Preferences{DietaryTags: StringSlice{"vegan"}, CalorieTarget: 1800}
	merged := p.Merge(Preferences{DietaryTags: StringSlice{"keto", "vegan"}})

	assert.Equal(t, StringSlice{"vegan", "keto"}, merged.DietaryTags)
	assert.Equal(t, 1800, merged.CalorieTarget)

	merged = merged.Merge(Preferences{CalorieTarget: 2200})
	assert.Equal(t, 2200, merged.CalorieTarget)
}

func TestStringSlice_ValueScan(t *testing.T) {
	v, err := StringSlice{"a", "b"}.Value()
	require.NoError(t, err)

	var s StringSlice
	require.NoError(t, s.Scan(v))
	assert.Equal(t, StringSlice{"a", "b"}, s)

	require.NoError(t, s.Scan(nil))
	assert.Empty(t, s)
	assert.Error(t, s.Scan(42))
}

func TestConversation_CloneIsIndependent(t *testing.T) {
	c := &Conversation{ID: "c1", Messages: []Message{{Role: RoleUser, Content: "hi"}}}
	cp := c.Clone()
	cp.Messages[0].Content = "changed"
	cp.Messages = append(cp.Messages, Message{Role: RoleAssistant, Content: "hello"})

	assert.Equal(t, "hi", c.Messages[0].Content)
	assert.Len(t, c.Messages, 1)
	assert.Len(t, c.Recent(5), 1)
	assert.Len(t, cp.Recent(1), 1)
	assert.Equal(t, "hello", cp.Recent(1)[0].Content)
}
