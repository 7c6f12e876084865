package api

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"maitred/internal/catalog"
	"maitred/internal/models"

	"github.com/gin-gonic/gin"
)

const defaultPopularLimit = 5

// SearchRequest narrows the catalog and optionally ranks it against free text
type SearchRequest struct {
	Query            string              `json:"query"`
	Category         models.MealCategory `json:"category"`
	DietaryTags      []string            `json:"dietary_tags"`
	MaxCalories      float64             `json:"max_calories"`
	MinProtein       float64             `json:"min_protein"`
	ExcludeAllergens []string            `json:"exclude_allergens"`
	AvailableOnly    bool                `json:"available_only"`
	Limit            int                 `json:"limit"`
}

// PlanRequest asks for a multi-day meal plan
type PlanRequest struct {
	DietaryTags   []string `json:"dietary_tags"`
	CalorieTarget int      `json:"calorie_target"`
	Days          int      `json:"days"`
	MealsPerDay   int      `json:"meals_per_day"`
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func queryFloat(c *gin.Context, key string) (float64, error) {
	v := c.Query(key)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0, models.Validationf("%s must be a non-negative number", key)
	}
	return f, nil
}

func validCategory(cat models.MealCategory) error {
	if cat != "" && !cat.Valid() {
		return models.Validationf("unknown meal category %q", cat)
	}
	return nil
}

// ListMeals returns catalog meals filtered by query parameters
func (s *Server) ListMeals(c *gin.Context) {
	cr := catalog.Criteria{
		Category:         models.MealCategory(c.Query("category")),
		DietaryTags:      splitList(c.Query("dietary_tags")),
		ExcludeAllergens: splitList(c.Query("exclude_allergens")),
		AvailableOnly:    c.Query("available") == "true",
	}
	if err := validCategory(cr.Category); err != nil {
		abort(c, err)
		return
	}
	var err error
	if cr.MaxCalories, err = queryFloat(c, "max_calories"); err != nil {
		abort(c, err)
		return
	}
	if cr.MinProtein, err = queryFloat(c, "min_protein"); err != nil {
		abort(c, err)
		return
	}

	meals := s.Catalog.Filter(cr)
	c.JSON(http.StatusOK, gin.H{"meals": meals, "count": len(meals)})
}

// PopularMeals returns the most popular meals
func (s *Server) PopularMeals(c *gin.Context) {
	limit := defaultPopularLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			abort(c, models.Validationf("limit must be a positive integer"))
			return
		}
		limit = n
	}
	c.JSON(http.StatusOK, gin.H{"meals": s.Catalog.Popular(limit)})
}

// GetMeal returns one meal
func (s *Server) GetMeal(c *gin.Context) {
	meal, err := s.Catalog.Get(c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, meal)
}

// SearchMeals filters the catalog and ranks the result by preference fit.
// Dietary words in the query add to the requested tags.
func (s *Server) SearchMeals(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := validCategory(req.Category); err != nil {
		abort(c, err)
		return
	}
	if req.MaxCalories < 0 || req.MinProtein < 0 || req.Limit < 0 {
		abort(c, models.Validationf("numeric filters must be non-negative"))
		return
	}

	prefs := catalog.ExtractPreferences(req.Query)
	prefs.DietaryTags = models.Dedupe(append(prefs.DietaryTags, req.DietaryTags...))

	meals := s.Catalog.Filter(catalog.Criteria{
		Category:         req.Category,
		DietaryTags:      prefs.DietaryTags,
		MaxCalories:      req.MaxCalories,
		MinProtein:       req.MinProtein,
		ExcludeAllergens: req.ExcludeAllergens,
		AvailableOnly:    req.AvailableOnly,
	})
	sort.SliceStable(meals, func(i, j int) bool {
		return catalog.Score(meals[i], prefs, req.MinProtein) > catalog.Score(meals[j], prefs, req.MinProtein)
	})
	if req.Limit > 0 && len(meals) > req.Limit {
		meals = meals[:req.Limit]
	}
	c.JSON(http.StatusOK, gin.H{"meals": meals, "count": len(meals), "preferences": prefs})
}

// PlanMeals builds a meal plan for the requested preferences
func (s *Server) PlanMeals(c *gin.Context) {
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Days == 0 {
		req.Days = 7
	}
	if req.MealsPerDay == 0 {
		req.MealsPerDay = 3
	}

	prefs := models.Preferences{DietaryTags: models.Dedupe(req.DietaryTags), CalorieTarget: req.CalorieTarget}
	plan, err := s.Catalog.Plan(prefs, req.Days, req.MealsPerDay)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plan": plan, "days": req.Days})
}
