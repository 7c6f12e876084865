package catalog

import (
	"regexp"
	"strconv"

	"maitred/internal/models"
)

var preferencePatterns = []struct {
	tag     string
	pattern *regexp.Regexp
}{
	{models.TagVegetarian, regexp.MustCompile(`(?i)\bvegetarian\b`)},
	{models.TagVegan, regexp.MustCompile(`(?i)\bvegan\b`)},
	{models.TagKeto, regexp.MustCompile(`(?i)\bketo\b`)},
	{models.TagGlutenFree, regexp.MustCompile(`(?i)\bgluten[\s-]?free\b`)},
	{models.TagDairyFree, regexp.MustCompile(`(?i)\bdairy[\s-]?free\b`)},
	{models.TagHalal, regexp.MustCompile(`(?i)\bhalal\b`)},
	{models.TagHighProtein, regexp.MustCompile(`(?i)\bhigh[\s-]?protein\b`)},
	{models.TagLowCarb, regexp.MustCompile(`(?i)\blow[\s-]?carbs?\b`)},
}

var calorieTarget = regexp.MustCompile(`(?i)\b(\d{3,4})\s*(?:k?cal|calories)\b`)

// ExtractPreferences pulls dietary tags and a calorie target out of a message.
func ExtractPreferences(message string) models.Preferences {
	var prefs models.Preferences
	for _, p := range preferencePatterns {
		if p.pattern.MatchString(message) {
			prefs.DietaryTags = append(prefs.DietaryTags, p.tag)
		}
	}

	if m := calorieTarget.FindStringSubmatch(message); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 200 && n < 5000 {
			prefs.CalorieTarget = n
		}
	}
	return prefs
}
