package database

import (
	"context"
	"time"

	"maitred/internal/logger"
	"maitred/internal/models"
)

// KitchenStore is the part of a kitchen repository Seed writes through.
type KitchenStore interface {
	Create(ctx context.Context, r *models.KitchenRequest) error
	List(ctx context.Context) ([]models.KitchenRequest, error)
}

// FeedbackStore is the part of a feedback repository Seed writes through.
type FeedbackStore interface {
	Create(ctx context.Context, r *models.FeedbackRecord) error
	List(ctx context.Context) ([]models.FeedbackRecord, error)
}

// Seed fills empty stores with demo data relative to now.
func Seed(ctx context.Context, kitchen KitchenStore, feedback FeedbackStore, now time.Time) error {
	existing, err := kitchen.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		for _, r := range DemoKitchenRequests(now) {
			r := r
			if err := kitchen.Create(ctx, &r); err != nil {
				return err
			}
		}
		logger.Info("seeded demo kitchen requests")
	}

	records, err := feedback.List(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		for _, r := range DemoFeedback(now) {
			r := r
			if err := feedback.Create(ctx, &r); err != nil {
				return err
			}
		}
		logger.Info("seeded demo feedback")
	}
	return nil
}

func demoRequest(id, user, message string, typ models.RequestType, priority int, status models.RequestStatus, created time.Time, details models.StringMap) models.KitchenRequest {
	r := models.KitchenRequest{
		ID:        id,
		UserID:    user,
		Message:   message,
		Type:      typ,
		Details:   details,
		Priority:  priority,
		Status:    models.RequestStatusPending,
		History:   models.StatusHistory{},
		CreatedAt: created,
		UpdatedAt: created,
	}
	// replay the legal path to the demo status
	path := map[models.RequestStatus][]models.RequestStatus{
		models.RequestStatusInProgress: {models.RequestStatusInProgress},
		models.RequestStatusCompleted:  {models.RequestStatusInProgress, models.RequestStatusCompleted},
	}[status]
	for i, next := range path {
		at := created.Add(time.Duration(i+1) * 15 * time.Minute)
		r.History = append(r.History, models.StatusChange{From: r.Status, To: next, At: at})
		r.Status = next
		r.UpdatedAt = at
	}
	return r
}

// DemoKitchenRequests returns a small queue covering every request type.
func DemoKitchenRequests(now time.Time) []models.KitchenRequest {
	return []models.KitchenRequest{
		demoRequest("kr-001", "user_demo1", "The grilled chicken was too salty yesterday",
			models.RequestTypeComplaint, 4, models.RequestStatusPending, now.Add(-2*time.Hour),
			models.StringMap{"meal_id": "meal_grilled_chicken", "issue": "overseasoned"}),
		demoRequest("kr-002", "user_demo2", "Can I get extra protein in my meals?",
			models.RequestTypeModification, 3, models.RequestStatusInProgress, now.Add(-5*time.Hour),
			models.StringMap{"ingredient": "protein", "preference": "chicken or beef"}),
		demoRequest("kr-003", "user_demo3", "I'm severely allergic to nuts, please be careful",
			models.RequestTypeAllergy, models.MaxPriority, models.RequestStatusPending, now.Add(-30*time.Minute),
			models.StringMap{"allergen": "nuts", "severity": "severe"}),
		demoRequest("kr-004", "user_demo4", "The portion was too small for lunch",
			models.RequestTypeComplaint, 3, models.RequestStatusCompleted, now.Add(-24*time.Hour),
			models.StringMap{"meal_id": "meal_salmon_bowl", "issue": "portion size"}),
		demoRequest("kr-005", "user_demo5", "Please no onions in any of my meals",
			models.RequestTypePreference, 2, models.RequestStatusInProgress, now.Add(-8*time.Hour),
			models.StringMap{"ingredient": "onions"}),
	}
}

func demoFeedback(id, user, meal string, rating int, comment string, sentiment models.Sentiment, created time.Time, categories ...string) models.FeedbackRecord {
	return models.FeedbackRecord{
		ID:                id,
		UserID:            user,
		MealID:            meal,
		Rating:            rating,
		Comment:           comment,
		Sentiment:         sentiment,
		SentimentScore:    float64(rating-1) / 4,
		Themes:            models.StringSlice(categories),
		Categories:        models.StringSlice(categories),
		RequiresAttention: rating <= 2 || sentiment == models.SentimentNegative,
		AnalysisSource:    models.AnalysisSourceHeuristic,
		CreatedAt:         created,
	}
}

// DemoFeedback returns a week of mixed feedback on the sample menu.
func DemoFeedback(now time.Time) []models.FeedbackRecord {
	day := 24 * time.Hour
	return []models.FeedbackRecord{
		demoFeedback("fb-001", "user_demo1", "meal_grilled_chicken", 5,
			"The grilled chicken was absolutely delicious! Fresh ingredients and perfect seasoning.",
			models.SentimentPositive, now.Add(-day), "taste"),
		demoFeedback("fb-002", "user_demo2", "meal_salmon_bowl", 4,
			"Great healthy option, love the protein content. Would order again!",
			models.SentimentPositive, now.Add(-2*day), "nutrition", "taste"),
		demoFeedback("fb-003", "user_demo3", "meal_vegan_wrap", 2,
			"Portion was too small for the price. Left me hungry.",
			models.SentimentNegative, now.Add(-day), "portion", "price"),
		demoFeedback("fb-004", "user_demo4", "meal_beef_steak", 5,
			"Best steak I've had in ages! Perfectly cooked and tasty.",
			models.SentimentPositive, now.Add(-3*day), "taste"),
		demoFeedback("fb-005", "user_demo5", "meal_chicken_salad", 3,
			"Decent meal but delivery was late. Food was cold.",
			models.SentimentNeutral, now.Add(-2*day), "delivery"),
		demoFeedback("fb-006", "user_demo6", "meal_protein_bowl", 5,
			"Amazing variety of options! Love the healthy choices.",
			models.SentimentPositive, now.Add(-day), "variety", "nutrition"),
		demoFeedback("fb-007", "user_demo7", "meal_grilled_chicken", 1,
			"Chicken was way too salty. Terrible experience.",
			models.SentimentNegative, now.Add(-12*time.Hour), "taste"),
		demoFeedback("fb-008", "user_demo8", "meal_salmon_bowl", 4,
			"Fresh and healthy! The salmon was delicious.",
			models.SentimentPositive, now.Add(-4*day), "taste", "nutrition"),
	}
}
