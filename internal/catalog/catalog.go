// Package catalog holds the read-only meal catalog and its query helpers.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"maitred/internal/models"
)

// Catalog is an immutable, validated set of meals.
type Catalog struct {
	items []models.Meal
	byID  map[string]int
}

// New validates items and builds a catalog. Duplicate ids are rejected.
func New(items []models.Meal) (*Catalog, error) {
	c := &Catalog{
		items: make([]models.Meal, 0, len(items)),
		byID:  make(map[string]int, len(items)),
	}
	for i := range items {
		meal := items[i]
		if err := models.ValidateMeal(&meal); err != nil {
			return nil, err
		}
		if _, dup := c.byID[meal.ID]; dup {
			return nil, models.Validationf("duplicate meal id %s", meal.ID)
		}
		c.byID[meal.ID] = len(c.items)
		c.items = append(c.items, meal)
	}
	return c, nil
}

// Load reads a JSON array of meals from path. An empty path loads the
// built-in sample menu.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return New(SampleMeals())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	var items []models.Meal
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	return New(items)
}

// Len returns the number of meals.
func (c *Catalog) Len() int { return len(c.items) }

// Get returns the meal with id.
func (c *Catalog) Get(id string) (models.Meal, error) {
	i, ok := c.byID[id]
	if !ok {
		return models.Meal{}, models.NotFoundf("meal %s", id)
	}
	return c.items[i], nil
}

// Has reports whether id is in the catalog.
func (c *Catalog) Has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// All returns every meal in load order.
func (c *Catalog) All() []models.Meal {
	return append([]models.Meal(nil), c.items...)
}

// Criteria narrows a catalog listing. Zero values are ignored.
type Criteria struct {
	Category         models.MealCategory
	DietaryTags      []string // any of
	MaxCalories      float64
	MinProtein       float64
	ExcludeAllergens []string
	AvailableOnly    bool
}

// Filter returns meals matching every set criterion, in load order.
func (c *Catalog) Filter(cr Criteria) []models.Meal {
	out := make([]models.Meal, 0, len(c.items))
	for _, m := range c.items {
		if cr.Category != "" && m.Category != cr.Category {
			continue
		}
		if len(cr.DietaryTags) > 0 && !anyTag(m.DietaryTags, cr.DietaryTags) {
			continue
		}
		if cr.MaxCalories > 0 && m.Nutrition.Calories > cr.MaxCalories {
			continue
		}
		if cr.MinProtein > 0 && m.Nutrition.Protein < cr.MinProtein {
			continue
		}
		if len(cr.ExcludeAllergens) > 0 && anyTag(m.Allergens, cr.ExcludeAllergens) {
			continue
		}
		if cr.AvailableOnly && !m.Available {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Popular returns up to limit meals ordered by popularity.
func (c *Catalog) Popular(limit int) []models.Meal {
	out := c.All()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Popularity > out[j].Popularity
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func anyTag(have models.StringSlice, want []string) bool {
	for _, w := range want {
		if have.Contains(strings.TrimSpace(w)) {
			return true
		}
	}
	return false
}

// Document renders the text embedded for a meal.
func Document(m models.Meal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Meal: %s\n", m.Name)
	fmt.Fprintf(&b, "Category: %s\n", m.Category)
	fmt.Fprintf(&b, "Description: %s\n", m.Description)
	fmt.Fprintf(&b, "Dietary Tags: %s\n", strings.Join(m.DietaryTags, ", "))
	fmt.Fprintf(&b, "Nutrition: %.0f calories, %.0fg protein, %.0fg carbs, %.0fg fat\n",
		m.Nutrition.Calories, m.Nutrition.Protein, m.Nutrition.Carbs, m.Nutrition.Fat)
	fmt.Fprintf(&b, "Ingredients: %s\n", strings.Join(m.Ingredients, ", "))
	fmt.Fprintf(&b, "Allergens: %s", strings.Join(m.Allergens, ", "))
	return b.String()
}
