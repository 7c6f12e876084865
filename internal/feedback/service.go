// Package feedback stores analysed customer feedback and derives analytics
// from it.
package feedback

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"maitred/internal/agents"
	"maitred/internal/intent"
	"maitred/internal/kitchen"
	"maitred/internal/logger"
	"maitred/internal/models"
	"maitred/internal/monitoring"

	"github.com/google/uuid"
)

const (
	DefaultListLimit = 50
	maxCommentLength = 2000
)

// Repository persists feedback records.
type Repository interface {
	Create(ctx context.Context, r *models.FeedbackRecord) error
	// Get returns models.ErrNotFound when id is unknown.
	Get(ctx context.Context, id string) (*models.FeedbackRecord, error)
	// List returns every record, newest first.
	List(ctx context.Context) ([]models.FeedbackRecord, error)
}

// Escalator opens kitchen requests; *kitchen.Tracker implements it.
type Escalator interface {
	Create(ctx context.Context, in kitchen.NewRequest) (*models.KitchenRequest, error)
}

// MealLookup checks meal ids; *catalog.Catalog implements it.
type MealLookup interface {
	Has(id string) bool
}

// Service accepts feedback submissions and answers analytics queries.
type Service struct {
	repo      Repository
	analyzer  *agents.Analyzer
	escalator Escalator
	meals     MealLookup
	metrics   *monitoring.Collector
	now       func() time.Time
}

// NewService wires the feedback service. escalator and meals may be nil.
func NewService(repo Repository, analyzer *agents.Analyzer, escalator Escalator, meals MealLookup) *Service {
	return &Service{repo: repo, analyzer: analyzer, escalator: escalator, meals: meals, now: time.Now}
}

// WithMetrics records submissions and escalations on c.
func (s *Service) WithMetrics(c *monitoring.Collector) *Service {
	s.metrics = c
	return s
}

// SubmitParams is a feedback submission.
type SubmitParams struct {
	UserID  string `json:"user_id"`
	MealID  string `json:"meal_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (p SubmitParams) validate(meals MealLookup) error {
	if strings.TrimSpace(p.UserID) == "" {
		return models.Validationf("user_id is required")
	}
	if err := models.ValidateRating(p.Rating); err != nil {
		return err
	}
	if len(p.Comment) > maxCommentLength {
		return models.Validationf("comment exceeds %d characters", maxCommentLength)
	}
	if p.MealID != "" && meals != nil && !meals.Has(p.MealID) {
		return models.NotFoundf("meal %s", p.MealID)
	}
	return nil
}

// Submit analyses, categorises and stores feedback. Feedback that needs
// attention is escalated to the kitchen before the record is stored.
func (s *Service) Submit(ctx context.Context, p SubmitParams) (*models.FeedbackRecord, error) {
	if err := p.validate(s.meals); err != nil {
		return nil, err
	}

	analysis, err := s.analyzer.Analyze(ctx, p.Comment, p.Rating)
	if err != nil {
		return nil, err
	}

	rec := &models.FeedbackRecord{
		ID:                uuid.New().String(),
		UserID:            p.UserID,
		MealID:            p.MealID,
		Rating:            p.Rating,
		Comment:           p.Comment,
		Sentiment:         analysis.Sentiment,
		SentimentScore:    analysis.SentimentScore,
		Themes:            analysis.Themes,
		Categories:        categories(p.Comment),
		RequiresAttention: analysis.RequiresAttention,
		SuggestedResponse: analysis.SuggestedResponse,
		AnalysisSource:    analysis.Source,
		CreatedAt:         s.now(),
	}

	if rec.RequiresAttention && s.escalator != nil {
		if kr, err := s.escalate(ctx, rec); err != nil {
			logger.Warn("failed to escalate feedback %s: %v", rec.ID, err)
		} else {
			rec.EscalationID = kr.ID
			s.metrics.ObserveEscalation(string(kr.Type))
		}
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}
	s.metrics.ObserveFeedback(string(rec.Sentiment), rec.AnalysisSource)
	logger.Info("feedback %s stored: rating=%d sentiment=%s source=%s", rec.ID, rec.Rating, rec.Sentiment, rec.AnalysisSource)
	return rec, nil
}

func (s *Service) escalate(ctx context.Context, rec *models.FeedbackRecord) (*models.KitchenRequest, error) {
	message := rec.Comment
	if strings.TrimSpace(message) == "" {
		message = "Low rating without comment (" + strconv.Itoa(rec.Rating) + "/5)"
	}

	req := kitchen.NewRequest{
		UserID:   rec.UserID,
		Message:  message,
		Type:     models.RequestTypeComplaint,
		Priority: 4,
		Details: map[string]string{
			"feedback_id": rec.ID,
			"rating":      strconv.Itoa(rec.Rating),
			"source":      "feedback",
		},
	}
	if rec.MealID != "" {
		req.Details["meal_id"] = rec.MealID
	}
	if mentionsAllergy(rec.Comment) {
		req.Type = models.RequestTypeAllergy
		req.Priority = models.MaxPriority
		if allergen := agents.ExtractAllergen(rec.Comment); allergen != "" {
			req.Details["allergen"] = allergen
		}
	}
	return s.escalator.Create(ctx, req)
}

func mentionsAllergy(text string) bool {
	for _, p := range intent.AllergyPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// categories falls back to custom_request when no keyword matches.
func categories(comment string) models.StringSlice {
	cats := agents.Categorize(comment)
	if len(cats) == 0 {
		return models.StringSlice{string(models.CategoryCustomRequest)}
	}
	out := make(models.StringSlice, len(cats))
	for i, c := range cats {
		out[i] = string(c)
	}
	return out
}

func (s *Service) Get(ctx context.Context, id string) (*models.FeedbackRecord, error) {
	return s.repo.Get(ctx, id)
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Sentiment models.Sentiment
	Category  models.FeedbackCategory
	MinRating int
	MealID    string
	UserID    string
	Limit     int
}

func (f Filter) matches(r models.FeedbackRecord) bool {
	if f.Sentiment != "" && r.Sentiment != f.Sentiment {
		return false
	}
	if f.Category != "" && !r.Categories.Contains(string(f.Category)) {
		return false
	}
	if f.MinRating > 0 && r.Rating < f.MinRating {
		return false
	}
	if f.MealID != "" && r.MealID != f.MealID {
		return false
	}
	if f.UserID != "" && r.UserID != f.UserID {
		return false
	}
	return true
}

// List returns matching records newest first, at most f.Limit of them.
func (s *Service) List(ctx context.Context, f Filter) ([]models.FeedbackRecord, error) {
	if f.Sentiment != "" && !f.Sentiment.Valid() {
		return nil, models.Validationf("unknown sentiment %q", f.Sentiment)
	}
	if f.MinRating != 0 {
		if err := models.ValidateRating(f.MinRating); err != nil {
			return nil, err
		}
	}
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(all)

	out := make([]models.FeedbackRecord, 0)
	for _, r := range all {
		if len(out) == limit {
			break
		}
		if f.matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func sortNewestFirst(rs []models.FeedbackRecord) {
	sort.SliceStable(rs, func(i, j int) bool {
		if !rs[i].CreatedAt.Equal(rs[j].CreatedAt) {
			return rs[i].CreatedAt.After(rs[j].CreatedAt)
		}
		return rs[i].ID < rs[j].ID
	})
}
