package agents

import (
	"fmt"
	"strings"

	"maitred/internal/models"
)

const (
	GeneralSystem = `You are a friendly nutrition assistant for a healthy meal subscription service.
Answer questions about the service, nutrition and healthy eating clearly and briefly.
If a question is about a specific meal or an allergy, suggest the customer ask about it directly.`

	MealRecommenderSystem = `You are an expert meal recommender for a healthy meal subscription service.
Recommend only meals from the list you are given. For each recommendation, name the meal,
explain why it fits the customer's request and mention its protein and calories.
If nothing is a perfect fit, recommend the closest options and explain the trade-offs.`

	FeedbackAnalyzerSystem = `You are a customer feedback analyst for a healthy meal subscription service.
Extract the sentiment, a sentiment score between 0 and 1, the key themes,
whether the feedback needs immediate attention, and an optional short reply to the customer.
Be objective and constructive.`
)

const maxPromptMeals = 5

// RecommendationPrompt grounds the model in the retrieved meals.
func RecommendationPrompt(query string, retrieved models.RetrievedContext, prefs models.Preferences) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Customer Query: %s\n\n", query)

	if prefs.Empty() {
		b.WriteString("No specific dietary restrictions or preferences provided.\n\n")
	} else {
		if len(prefs.DietaryTags) > 0 {
			fmt.Fprintf(&b, "Dietary Preferences: %s\n", strings.Join(prefs.DietaryTags, ", "))
		}
		if prefs.CalorieTarget > 0 {
			fmt.Fprintf(&b, "Calorie Target: %d\n", prefs.CalorieTarget)
		}
		b.WriteString("\n")
	}

	b.WriteString("Available Meals:\n")
	for i, item := range retrieved {
		if i == maxPromptMeals {
			break
		}
		m := item.Meal
		fmt.Fprintf(&b, "\nMeal: %s\n", m.Name)
		fmt.Fprintf(&b, "Category: %s\n", m.Category)
		fmt.Fprintf(&b, "Calories: %.0f\n", m.Nutrition.Calories)
		fmt.Fprintf(&b, "Protein: %.0fg\n", m.Nutrition.Protein)
		fmt.Fprintf(&b, "Carbs: %.0fg, Fat: %.0fg\n", m.Nutrition.Carbs, m.Nutrition.Fat)
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(m.DietaryTags, ", "))
		if len(m.Allergens) > 0 {
			fmt.Fprintf(&b, "Allergens: %s\n", strings.Join(m.Allergens, ", "))
		}
		fmt.Fprintf(&b, "Description: %s\n", truncate(m.Description, 200))
	}

	b.WriteString("\nTask: Recommend the best meals for this customer and explain why they are good choices.")
	return b.String()
}

// FeedbackPrompt asks for a structured analysis of one comment.
func FeedbackPrompt(comment string, rating int) string {
	return fmt.Sprintf("Analyze this customer feedback (rating %d out of 5):\n\n%q", rating, comment)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
