package feedback

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"maitred/internal/models"
)

const (
	DefaultDays = 30
	MaxDays     = 365

	topLimit           = 5
	negativeShareLimit = 0.2
	repeatedComplaints = 3
)

var praiseKeywords = []struct {
	praise string
	words  []string
}{
	{"Great taste", []string{"delicious", "tasty"}},
	{"Healthy options", []string{"healthy"}},
	{"Fresh ingredients", []string{"fresh"}},
	{"Generous portions", []string{"filling", "generous"}},
}

// CategoryCount is one entry of a ranked category list.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Summary aggregates feedback over a window.
type Summary struct {
	TimePeriod         string                   `json:"time_period"`
	TotalFeedback      int                      `json:"total_feedback"`
	AverageRating      float64                  `json:"average_rating"`
	SentimentBreakdown map[models.Sentiment]int `json:"sentiment_breakdown"`
	TopCategories      []CategoryCount          `json:"top_categories"`
	TopPraises         []string                 `json:"top_praises"`
	PopularMeals       []string                 `json:"popular_meals"`
	ActionItems        []string                 `json:"action_items"`
	RequiresAttention  int                      `json:"requires_attention"`
}

// DayTrend is the feedback received on one calendar day.
type DayTrend struct {
	Date                  string                   `json:"date"`
	Count                 int                      `json:"count"`
	AverageRating         float64                  `json:"average_rating"`
	SentimentDistribution map[models.Sentiment]int `json:"sentiment_distribution"`
}

func validateDays(days int) (int, error) {
	if days == 0 {
		return DefaultDays, nil
	}
	if days < 1 || days > MaxDays {
		return 0, models.Validationf("days must be between 1 and %d, got %d", MaxDays, days)
	}
	return days, nil
}

func (s *Service) window(ctx context.Context, days int, mealID string) ([]models.FeedbackRecord, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour)
	out := make([]models.FeedbackRecord, 0, len(all))
	for _, r := range all {
		if r.CreatedAt.Before(cutoff) {
			continue
		}
		if mealID != "" && r.MealID != mealID {
			continue
		}
		out = append(out, r)
	}
	sortNewestFirst(out)
	return out, nil
}

func emptyBreakdown() map[models.Sentiment]int {
	return map[models.Sentiment]int{
		models.SentimentPositive: 0,
		models.SentimentNeutral:  0,
		models.SentimentNegative: 0,
	}
}

// Summary reports on the last days of feedback, optionally for one meal.
func (s *Service) Summary(ctx context.Context, days int, mealID string) (*Summary, error) {
	days, err := validateDays(days)
	if err != nil {
		return nil, err
	}
	recs, err := s.window(ctx, days, mealID)
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		TimePeriod:         fmt.Sprintf("Last %d days", days),
		TotalFeedback:      len(recs),
		SentimentBreakdown: emptyBreakdown(),
		TopCategories:      []CategoryCount{},
		TopPraises:         []string{},
		PopularMeals:       []string{},
		ActionItems:        []string{},
	}
	if len(recs) == 0 {
		return sum, nil
	}

	total := 0
	categoryCounts := make(map[string]int)
	mealCounts := make(map[string]int)
	for _, r := range recs {
		total += r.Rating
		sum.SentimentBreakdown[r.Sentiment]++
		if r.RequiresAttention {
			sum.RequiresAttention++
		}
		for _, c := range r.Categories {
			categoryCounts[c]++
		}
		if r.MealID != "" {
			mealCounts[r.MealID]++
		}
	}
	sum.AverageRating = round2(float64(total) / float64(len(recs)))

	for _, c := range models.SortedKeys(categoryCounts) {
		if len(sum.TopCategories) == topLimit {
			break
		}
		sum.TopCategories = append(sum.TopCategories, CategoryCount{Category: c, Count: categoryCounts[c]})
	}
	sum.PopularMeals = head(models.SortedKeys(mealCounts), topLimit)
	sum.TopPraises = praises(recs)
	sum.ActionItems = actionItems(recs)
	return sum, nil
}

func praises(recs []models.FeedbackRecord) []string {
	found := make(map[string]bool)
	for _, r := range recs {
		if r.Sentiment != models.SentimentPositive {
			continue
		}
		comment := strings.ToLower(r.Comment)
		for _, pk := range praiseKeywords {
			for _, w := range pk.words {
				if strings.Contains(comment, w) {
					found[pk.praise] = true
					break
				}
			}
		}
	}
	out := []string{}
	for _, pk := range praiseKeywords {
		if found[pk.praise] {
			out = append(out, pk.praise)
		}
	}
	return out
}

func actionItems(recs []models.FeedbackRecord) []string {
	items := []string{}
	negative := make(map[string]int)
	negativeTotal := 0
	for _, r := range recs {
		if r.Sentiment != models.SentimentNegative {
			continue
		}
		negativeTotal++
		for _, c := range r.Categories {
			negative[c]++
		}
	}

	if float64(negativeTotal) > float64(len(recs))*negativeShareLimit {
		items = append(items, "High negative feedback rate - investigate quality issues")
	}
	for _, c := range models.SortedKeys(negative) {
		if negative[c] < repeatedComplaints || len(items) == topLimit {
			break
		}
		items = append(items, fmt.Sprintf("Multiple complaints about %s - needs attention", c))
	}
	return items
}

// Trends groups the last days of feedback by calendar day, oldest first.
func (s *Service) Trends(ctx context.Context, days int) ([]DayTrend, error) {
	days, err := validateDays(days)
	if err != nil {
		return nil, err
	}
	recs, err := s.window(ctx, days, "")
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]*DayTrend)
	totals := make(map[string]int)
	var order []string
	for i := len(recs) - 1; i >= 0; i-- {
		r := recs[i]
		day := r.CreatedAt.Format("2006-01-02")
		t, ok := byDay[day]
		if !ok {
			t = &DayTrend{Date: day, SentimentDistribution: emptyBreakdown()}
			byDay[day] = t
			order = append(order, day)
		}
		t.Count++
		t.SentimentDistribution[r.Sentiment]++
		totals[day] += r.Rating
	}

	out := make([]DayTrend, 0, len(order))
	for _, day := range order {
		t := byDay[day]
		t.AverageRating = round2(float64(totals[day]) / float64(t.Count))
		out = append(out, *t)
	}
	return out, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
