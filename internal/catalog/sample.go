package catalog

import "maitred/internal/models"

// SampleMeals is the demo menu loaded when no catalog file is configured.
func SampleMeals() []models.Meal {
	return []models.Meal{
		{
			ID:              "meal_grilled_chicken",
			Name:            "Grilled Chicken Quinoa Bowl",
			Description:     "Tender grilled chicken breast over fluffy quinoa with roasted vegetables and tahini dressing",
			Category:        models.MealCategoryLunch,
			Nutrition:       models.Nutrition{Calories: 450, Protein: 35, Carbs: 45, Fat: 12, Fiber: 8},
			DietaryTags:     models.StringSlice{models.TagHighProtein, models.TagGlutenFree, models.TagHalal},
			Allergens:       models.StringSlice{"sesame"},
			Ingredients:     models.StringSlice{"chicken breast", "quinoa", "bell peppers", "zucchini", "tahini", "lemon", "garlic"},
			Price:           12.99,
			PrepTimeMinutes: 25,
			Popularity:      0.92,
			Available:       true,
		},
		{
			ID:              "meal_vegan_wrap",
			Name:            "Mediterranean Falafel Wrap",
			Description:     "Crispy baked falafel with fresh vegetables, hummus and a cucumber sauce in a whole wheat wrap",
			Category:        models.MealCategoryLunch,
			Nutrition:       models.Nutrition{Calories: 520, Protein: 18, Carbs: 68, Fat: 18, Fiber: 12},
			DietaryTags:     models.StringSlice{models.TagVegan, models.TagVegetarian},
			Allergens:       models.StringSlice{"wheat", "sesame"},
			Ingredients:     models.StringSlice{"chickpeas", "whole wheat wrap", "hummus", "cucumber", "tomato", "lettuce"},
			Price:           10.99,
			PrepTimeMinutes: 20,
			Popularity:      0.85,
			Available:       true,
		},
		{
			ID:              "meal_salmon_bowl",
			Name:            "Salmon Teriyaki Bowl",
			Description:     "Glazed salmon fillet with brown rice, edamame and pickled ginger",
			Category:        models.MealCategoryDinner,
			Nutrition:       models.Nutrition{Calories: 580, Protein: 38, Carbs: 52, Fat: 22, Fiber: 6},
			DietaryTags:     models.StringSlice{models.TagHighProtein, models.TagDairyFree},
			Allergens:       models.StringSlice{"fish", "soy"},
			Ingredients:     models.StringSlice{"salmon", "brown rice", "edamame", "teriyaki sauce", "ginger", "sesame seeds"},
			Price:           15.99,
			PrepTimeMinutes: 30,
			Popularity:      0.88,
			Available:       true,
		},
		{
			ID:              "meal_beef_steak",
			Name:            "Keto Beef Steak with Greens",
			Description:     "Seared sirloin with garlic butter, sauteed spinach and avocado",
			Category:        models.MealCategoryDinner,
			Nutrition:       models.Nutrition{Calories: 620, Protein: 45, Carbs: 8, Fat: 44, Fiber: 7},
			DietaryTags:     models.StringSlice{models.TagKeto, models.TagLowCarb, models.TagHighProtein, models.TagGlutenFree},
			Allergens:       models.StringSlice{"dairy"},
			Ingredients:     models.StringSlice{"sirloin steak", "butter", "garlic", "spinach", "avocado"},
			Price:           18.99,
			PrepTimeMinutes: 25,
			Popularity:      0.79,
			Available:       true,
		},
		{
			ID:              "meal_protein_bowl",
			Name:            "Vegan Power Buddha Bowl",
			Description:     "Tofu, tempeh and lentils with sweet potato, kale and a peanut-free miso dressing",
			Category:        models.MealCategoryLunch,
			Nutrition:       models.Nutrition{Calories: 540, Protein: 32, Carbs: 58, Fat: 16, Fiber: 14},
			DietaryTags:     models.StringSlice{models.TagVegan, models.TagVegetarian, models.TagHighProtein, models.TagDairyFree},
			Allergens:       models.StringSlice{"soy"},
			Ingredients:     models.StringSlice{"tofu", "tempeh", "lentils", "sweet potato", "kale", "miso"},
			Price:           13.49,
			PrepTimeMinutes: 20,
			Popularity:      0.81,
			Available:       true,
		},
		{
			ID:              "meal_chicken_salad",
			Name:            "Chicken Caesar Salad",
			Description:     "Grilled chicken on romaine with parmesan, light caesar dressing and whole grain croutons",
			Category:        models.MealCategoryLunch,
			Nutrition:       models.Nutrition{Calories: 410, Protein: 32, Carbs: 20, Fat: 22, Fiber: 4},
			DietaryTags:     models.StringSlice{models.TagHighProtein},
			Allergens:       models.StringSlice{"dairy", "eggs", "wheat", "fish"},
			Ingredients:     models.StringSlice{"chicken breast", "romaine", "parmesan", "croutons", "caesar dressing"},
			Price:           11.49,
			PrepTimeMinutes: 15,
			Popularity:      0.74,
			Available:       true,
		},
		{
			ID:              "meal_overnight_oats",
			Name:            "Berry Overnight Oats",
			Description:     "Rolled oats soaked in almond milk with chia seeds, mixed berries and maple",
			Category:        models.MealCategoryBreakfast,
			Nutrition:       models.Nutrition{Calories: 360, Protein: 12, Carbs: 58, Fat: 9, Fiber: 10},
			DietaryTags:     models.StringSlice{models.TagVegan, models.TagVegetarian, models.TagDairyFree},
			Allergens:       models.StringSlice{"tree_nuts"},
			Ingredients:     models.StringSlice{"rolled oats", "almond milk", "chia seeds", "berries", "maple syrup"},
			Price:           7.99,
			PrepTimeMinutes: 5,
			Popularity:      0.83,
			Available:       true,
		},
		{
			ID:              "meal_egg_scramble",
			Name:            "Spinach Egg White Scramble",
			Description:     "Egg whites scrambled with spinach, feta and cherry tomatoes on rye toast",
			Category:        models.MealCategoryBreakfast,
			Nutrition:       models.Nutrition{Calories: 320, Protein: 28, Carbs: 24, Fat: 11, Fiber: 4},
			DietaryTags:     models.StringSlice{models.TagVegetarian, models.TagHighProtein},
			Allergens:       models.StringSlice{"eggs", "dairy", "wheat"},
			Ingredients:     models.StringSlice{"egg whites", "spinach", "feta", "cherry tomatoes", "rye bread"},
			Price:           8.99,
			PrepTimeMinutes: 10,
			Popularity:      0.77,
			Available:       true,
		},
		{
			ID:              "meal_greek_yogurt",
			Name:            "Greek Yogurt Protein Cup",
			Description:     "Thick greek yogurt with honey, walnuts and pomegranate seeds",
			Category:        models.MealCategorySnack,
			Nutrition:       models.Nutrition{Calories: 240, Protein: 20, Carbs: 22, Fat: 8, Fiber: 2},
			DietaryTags:     models.StringSlice{models.TagVegetarian, models.TagHighProtein, models.TagGlutenFree},
			Allergens:       models.StringSlice{"dairy", "tree_nuts"},
			Ingredients:     models.StringSlice{"greek yogurt", "honey", "walnuts", "pomegranate"},
			Price:           5.49,
			PrepTimeMinutes: 3,
			Popularity:      0.7,
			Available:       true,
		},
	}
}
