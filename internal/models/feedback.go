package models

import (
	"time"
)

// Sentiment is the derived polarity of a piece of feedback
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Valid reports whether the sentiment is one of the three known values.
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}

// FeedbackCategory groups feedback by operational area
type FeedbackCategory string

const (
	CategoryTaste         FeedbackCategory = "taste"
	CategoryPortion       FeedbackCategory = "portion"
	CategoryDelivery      FeedbackCategory = "delivery"
	CategoryPackaging     FeedbackCategory = "packaging"
	CategoryNutrition     FeedbackCategory = "nutrition"
	CategoryPrice         FeedbackCategory = "price"
	CategoryVariety       FeedbackCategory = "variety"
	CategoryCustomRequest FeedbackCategory = "custom_request"
)

// Analysis sources
const (
	AnalysisSourceModel     = "model"
	AnalysisSourceHeuristic = "heuristic"
)

// FeedbackAnalysis is the structured result of analysing a comment.
type FeedbackAnalysis struct {
	Sentiment         Sentiment   `json:"sentiment"`
	SentimentScore    float64     `json:"sentiment_score"`
	Themes            StringSlice `json:"themes"`
	RequiresAttention bool        `json:"requires_attention"`
	SuggestedResponse string      `json:"suggested_response,omitempty"`
	Source            string      `json:"source"`
}

// FeedbackRecord is a submitted and analysed piece of customer feedback.
// Records are immutable once stored.
type FeedbackRecord struct {
	ID                string      `json:"id" gorm:"primary_key"`
	UserID            string      `json:"user_id" gorm:"index"`
	MealID            string      `json:"meal_id,omitempty" gorm:"index"`
	Rating            int         `json:"rating"`
	Comment           string      `json:"comment" gorm:"type:text"`
	Sentiment         Sentiment   `json:"sentiment" gorm:"index"`
	SentimentScore    float64     `json:"sentiment_score"`
	Themes            StringSlice `json:"themes" gorm:"type:text"`
	Categories        StringSlice `json:"categories" gorm:"type:text"`
	RequiresAttention bool        `json:"requires_attention"`
	SuggestedResponse string      `json:"suggested_response,omitempty" gorm:"type:text"`
	AnalysisSource    string      `json:"analysis_source"`
	EscalationID      string      `json:"escalation_id,omitempty"`
	CreatedAt         time.Time   `json:"created_at" gorm:"index"`
}

// ValidateRating checks a 1-5 star rating.
func ValidateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return Validationf("rating must be between 1 and 5, got %d", rating)
	}
	return nil
}
