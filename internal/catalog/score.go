package catalog

import (
	"fmt"
	"math"
	"sort"

	"maitred/internal/models"
)

// Score rates how well a meal fits learned preferences, in [0,1]. Each
// present signal (tags, calorie target, protein floor) contributes one factor
// and popularity always contributes one.
func Score(m models.Meal, prefs models.Preferences, minProtein float64) float64 {
	score, factors := 0.0, 0

	if len(prefs.DietaryTags) > 0 {
		matches := 0
		for _, tag := range prefs.DietaryTags {
			if m.DietaryTags.Contains(tag) {
				matches++
			}
		}
		score += float64(matches) / float64(len(prefs.DietaryTags))
		factors++
	}

	if prefs.CalorieTarget > 0 {
		target := float64(prefs.CalorieTarget)
		diff := math.Abs(m.Nutrition.Calories-target) / target
		if diff <= 0.5 {
			score += math.Max(0, 1-diff)
		}
		factors++
	}

	if minProtein > 0 {
		score += math.Min(1, m.Nutrition.Protein/minProtein)
		factors++
	}

	score += m.Popularity
	factors++

	return score / float64(factors)
}

// DayPlan is the set of meals chosen for one day.
type DayPlan struct {
	Day   string        `json:"day"`
	Meals []models.Meal `json:"meals"`
}

var planCategories = []models.MealCategory{
	models.MealCategoryBreakfast,
	models.MealCategoryLunch,
	models.MealCategoryDinner,
	models.MealCategorySnack,
}

// Plan picks the best scoring meal per category for each day, avoiding
// repeating yesterday's pick when an alternative exists.
func (c *Catalog) Plan(prefs models.Preferences, days, mealsPerDay int) ([]DayPlan, error) {
	if days < 1 || days > 31 {
		return nil, models.Validationf("days must be between 1 and 31")
	}
	if mealsPerDay < 1 || mealsPerDay > len(planCategories) {
		return nil, models.Validationf("meals per day must be between 1 and %d", len(planCategories))
	}

	ranked := make(map[models.MealCategory][]models.Meal)
	for _, cat := range planCategories[:mealsPerDay] {
		meals := c.Filter(Criteria{Category: cat})
		sort.SliceStable(meals, func(i, j int) bool {
			return Score(meals[i], prefs, 0) > Score(meals[j], prefs, 0)
		})
		ranked[cat] = meals
	}

	plan := make([]DayPlan, 0, days)
	previous := make(map[models.MealCategory]string)
	for day := 1; day <= days; day++ {
		dp := DayPlan{Day: fmt.Sprintf("day_%d", day)}
		for _, cat := range planCategories[:mealsPerDay] {
			options := ranked[cat]
			if len(options) == 0 {
				continue
			}
			pick := options[0]
			if pick.ID == previous[cat] && len(options) > 1 {
				pick = options[1]
			}
			previous[cat] = pick.ID
			dp.Meals = append(dp.Meals, pick)
		}
		plan = append(plan, dp)
	}
	return plan, nil
}
