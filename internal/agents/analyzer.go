package agents

import (
	"context"
	"fmt"
	"strings"

	"maitred/internal/llm"
	"maitred/internal/logger"
	"maitred/internal/models"
	"maitred/internal/retry"
)

// AnalysisSchema is the structured output requested for feedback analysis.
var AnalysisSchema = llm.Schema{
	{Name: "sentiment", Type: llm.TypeString, Description: `one of "positive", "neutral" or "negative"`},
	{Name: "sentiment_score", Type: llm.TypeNumber, Description: "0 is very negative, 1 is very positive"},
	{Name: "key_themes", Type: llm.TypeArray, Description: "short phrases naming what the customer talks about"},
	{Name: "requires_attention", Type: llm.TypeBoolean, Description: "true if staff should follow up urgently"},
	{Name: "suggested_response", Type: llm.TypeString, Description: "a short reply to the customer, may be empty"},
}

var (
	positiveWords = []string{"love", "loved", "great", "excellent", "amazing", "delicious", "perfect", "fantastic", "tasty", "fresh", "good", "enjoy"}
	negativeWords = []string{"terrible", "awful", "bad", "cold", "late", "disgusting", "hate", "worst", "bland", "stale", "disappointed", "sick", "wrong", "missing"}
)

var categoryKeywords = []struct {
	category models.FeedbackCategory
	words    []string
}{
	{models.CategoryTaste, []string{"taste", "flavor", "flavour", "delicious", "bland", "spicy", "salty", "seasoning"}},
	{models.CategoryPortion, []string{"portion", "size", "small", "big", "large", "hungry", "filling"}},
	{models.CategoryDelivery, []string{"delivery", "delivered", "late", "driver", "arrived", "shipping"}},
	{models.CategoryPackaging, []string{"packaging", "container", "leaked", "leak", "plastic", "box"}},
	{models.CategoryNutrition, []string{"calorie", "calories", "protein", "carbs", "macro", "nutrition", "healthy"}},
	{models.CategoryPrice, []string{"price", "expensive", "cheap", "cost", "value", "worth"}},
	{models.CategoryVariety, []string{"variety", "same", "repetitive", "options", "choice", "boring"}},
	{models.CategoryCustomRequest, []string{"request", "custom", "substitute", "without", "instead", "allergy", "allergic"}},
}

// Analyzer derives sentiment and themes from a rating and a comment.
type Analyzer struct {
	llm    llm.Provider
	policy retry.Policy
}

// NewAnalyzer creates an analyzer. A nil provider always uses the heuristic.
func NewAnalyzer(provider llm.Provider, policy retry.Policy) *Analyzer {
	return &Analyzer{llm: provider, policy: policy}
}

// Analyze asks the model for a structured analysis and falls back to the
// rating-based heuristic when the model is unavailable or its output is unusable.
func (a *Analyzer) Analyze(ctx context.Context, comment string, rating int) (models.FeedbackAnalysis, error) {
	if err := models.ValidateRating(rating); err != nil {
		return models.FeedbackAnalysis{}, err
	}

	if a.llm != nil && strings.TrimSpace(comment) != "" {
		analysis, err := a.modelAnalysis(ctx, comment, rating)
		if err == nil {
			return analysis, nil
		}
		if ctx.Err() != nil {
			return models.FeedbackAnalysis{}, ctx.Err()
		}
		logger.Warn("feedback analysis fell back to heuristic: %v", err)
	}
	return HeuristicAnalysis(comment, rating), nil
}

func (a *Analyzer) modelAnalysis(ctx context.Context, comment string, rating int) (models.FeedbackAnalysis, error) {
	var fields llm.Fields
	err := retry.Do(ctx, a.policy, func(ctx context.Context) error {
		var err error
		fields, err = a.llm.CompleteStructured(ctx, FeedbackAnalyzerSystem, FeedbackPrompt(comment, rating), AnalysisSchema)
		if err != nil {
			return err
		}
		_, err = analysisFromFields(fields, rating)
		return err
	})
	if err != nil {
		return models.FeedbackAnalysis{}, err
	}
	return analysisFromFields(fields, rating)
}

func analysisFromFields(f llm.Fields, rating int) (models.FeedbackAnalysis, error) {
	sentiment := models.Sentiment(strings.ToLower(strings.TrimSpace(f.String("sentiment"))))
	if !sentiment.Valid() {
		return models.FeedbackAnalysis{}, fmt.Errorf("%w: unknown sentiment %q", models.ErrMalformedOutput, f.String("sentiment"))
	}
	score := f.Float("sentiment_score")
	if score < 0 || score > 1 {
		return models.FeedbackAnalysis{}, fmt.Errorf("%w: sentiment_score %.2f outside [0,1]", models.ErrMalformedOutput, score)
	}
	return models.FeedbackAnalysis{
		Sentiment:         sentiment,
		SentimentScore:    score,
		Themes:            models.Dedupe(f.Strings("key_themes")),
		RequiresAttention: f.Bool("requires_attention") || needsAttention(sentiment, rating),
		SuggestedResponse: strings.TrimSpace(f.String("suggested_response")),
		Source:            models.AnalysisSourceModel,
	}, nil
}

// HeuristicAnalysis maps the rating to a sentiment and the comment to themes.
func HeuristicAnalysis(comment string, rating int) models.FeedbackAnalysis {
	var sentiment models.Sentiment
	switch {
	case rating <= 2:
		sentiment = models.SentimentNegative
	case rating == 3:
		sentiment = models.SentimentNeutral
	default:
		sentiment = models.SentimentPositive
	}

	themes := make([]string, 0)
	for _, c := range Categorize(comment) {
		themes = append(themes, string(c))
	}

	return models.FeedbackAnalysis{
		Sentiment:         sentiment,
		SentimentScore:    float64(rating-1) / 4,
		Themes:            models.Dedupe(themes),
		RequiresAttention: needsAttention(sentiment, rating),
		Source:            models.AnalysisSourceHeuristic,
	}
}

func needsAttention(s models.Sentiment, rating int) bool {
	return rating <= 2 || s == models.SentimentNegative
}

// QuickSentiment is a keyword vote over the text.
func QuickSentiment(text string) models.Sentiment {
	words := wordSet(text)
	pos, neg := 0, 0
	for _, w := range positiveWords {
		if words[w] {
			pos++
		}
	}
	for _, w := range negativeWords {
		if words[w] {
			neg++
		}
	}
	switch {
	case pos > neg:
		return models.SentimentPositive
	case neg > pos:
		return models.SentimentNegative
	}
	return models.SentimentNeutral
}

// Categorize returns the operational areas a comment touches, in a fixed order.
func Categorize(text string) []models.FeedbackCategory {
	words := wordSet(text)
	var out []models.FeedbackCategory
	for _, ck := range categoryKeywords {
		for _, w := range ck.words {
			if words[w] {
				out = append(out, ck.category)
				break
			}
		}
	}
	return out
}

func wordSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '\'')
	}) {
		set[strings.Trim(w, "'")] = true
	}
	return set
}
