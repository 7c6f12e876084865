package models

import (
	"fmt"
	"strings"
)

// MealCategory represents the category of a meal
type MealCategory string

const (
	MealCategoryBreakfast MealCategory = "breakfast"
	MealCategoryLunch     MealCategory = "lunch"
	MealCategoryDinner    MealCategory = "dinner"
	MealCategorySnack     MealCategory = "snack"
)

// Valid reports whether the category is one of the known values.
func (c MealCategory) Valid() bool {
	switch c {
	case MealCategoryBreakfast, MealCategoryLunch, MealCategoryDinner, MealCategorySnack:
		return true
	}
	return false
}

// Dietary tags understood by the catalog and preference extraction
const (
	TagVegetarian  = "vegetarian"
	TagVegan       = "vegan"
	TagKeto        = "keto"
	TagGlutenFree  = "gluten_free"
	TagDairyFree   = "dairy_free"
	TagHalal       = "halal"
	TagHighProtein = "high_protein"
	TagLowCarb     = "low_carb"
)

// Allergen represents a food allergen
type Allergen string

const (
	AllergenMilk      Allergen = "milk"
	AllergenDairy     Allergen = "dairy"
	AllergenEggs      Allergen = "eggs"
	AllergenFish      Allergen = "fish"
	AllergenShellfish Allergen = "shellfish"
	AllergenTreeNuts  Allergen = "tree_nuts"
	AllergenPeanuts   Allergen = "peanuts"
	AllergenWheat     Allergen = "wheat"
	AllergenGluten    Allergen = "gluten"
	AllergenSoy       Allergen = "soy"
	AllergenSesame    Allergen = "sesame"
)

// Nutrition holds per-serving quantities. Calories in kcal, the rest in grams.
type Nutrition struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber,omitempty"`
}

// Meal is a catalog item. Meals are loaded once and never mutated afterwards.
type Meal struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Description     string       `json:"description"`
	Category        MealCategory `json:"category"`
	Nutrition       Nutrition    `json:"nutrition"`
	DietaryTags     StringSlice  `json:"dietary_tags"`
	Allergens       StringSlice  `json:"allergens"`
	Ingredients     StringSlice  `json:"ingredients,omitempty"`
	Price           float64      `json:"price"`
	PrepTimeMinutes int          `json:"prep_time_minutes"`
	Popularity      float64      `json:"popularity_score"`
	Available       bool         `json:"available"`
}

// ValidateMeal checks the catalog invariants and normalises tag sets in place.
func ValidateMeal(m *Meal) error {
	if strings.TrimSpace(m.ID) == "" {
		return Validationf("meal id is required")
	}
	if strings.TrimSpace(m.Name) == "" {
		return Validationf("meal %s: name is required", m.ID)
	}
	n := m.Nutrition
	if n.Calories < 0 || n.Protein < 0 || n.Carbs < 0 || n.Fat < 0 || n.Fiber < 0 {
		return Validationf("meal %s: nutrition values must be non-negative", m.ID)
	}
	if m.Price < 0 {
		return Validationf("meal %s: price must be non-negative", m.ID)
	}
	if m.PrepTimeMinutes < 0 {
		return Validationf("meal %s: prep time must be non-negative", m.ID)
	}
	if m.Popularity < 0 || m.Popularity > 1 {
		return Validationf("meal %s: popularity %.2f outside [0,1]", m.ID, m.Popularity)
	}
	if m.Category != "" && !m.Category.Valid() {
		return Validationf("meal %s: unknown category %q", m.ID, m.Category)
	}
	m.DietaryTags = Dedupe(m.DietaryTags)
	m.Allergens = Dedupe(m.Allergens)
	m.Ingredients = Dedupe(m.Ingredients)
	return nil
}

// Summary renders a one-line description used in templated replies.
func (m Meal) Summary() string {
	return fmt.Sprintf("%s (%.0f kcal, %.0fg protein)", m.Name, m.Nutrition.Calories, m.Nutrition.Protein)
}

// RetrievedItem is one ranked retrieval hit.
type RetrievedItem struct {
	Meal       Meal    `json:"meal"`
	Similarity float64 `json:"similarity"`
	Source     string  `json:"source"`
}

// RetrievedContext is ordered by non-increasing similarity.
type RetrievedContext []RetrievedItem

// IDs returns the meal ids in rank order.
func (rc RetrievedContext) IDs() []string {
	ids := make([]string, len(rc))
	for i, item := range rc {
		ids[i] = item.Meal.ID
	}
	return ids
}
