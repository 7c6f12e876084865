package agents

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"maitred/internal/intent"
	"maitred/internal/models"
)

var explicitRating = regexp.MustCompile(`(?i)\b([1-5])\s*(?:/\s*5|out of 5|stars?)\b`)

// FeedbackAgent acknowledges feedback given in chat.
type FeedbackAgent struct {
	*BaseAgent
	analyzer *Analyzer
}

// NewFeedbackAgent creates a feedback agent backed by analyzer
func NewFeedbackAgent(analyzer *Analyzer) *FeedbackAgent {
	return &FeedbackAgent{
		BaseAgent: NewBaseAgent(intent.Feedback, analyzer.llm, analyzer.policy),
		analyzer:  analyzer,
	}
}

// Respond analyses the message and acknowledges the derived sentiment.
func (a *FeedbackAgent) Respond(ctx context.Context, req Request) (*Result, error) {
	rating := InferRating(req.Message)
	analysis, err := a.analyzer.Analyze(ctx, req.Message, rating)
	if err != nil {
		return nil, err
	}
	return &Result{
		Reply:    feedbackReply(analysis),
		Agent:    a.Label(),
		Analysis: &analysis,
	}, nil
}

// InferRating reads an explicit "N/5" or "N stars" rating, or maps a quick
// keyword sentiment to 4, 3 or 2.
func InferRating(message string) int {
	if m := explicitRating.FindStringSubmatch(message); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	switch QuickSentiment(message) {
	case models.SentimentPositive:
		return 4
	case models.SentimentNegative:
		return 2
	}
	return 3
}

func feedbackReply(a models.FeedbackAnalysis) string {
	if a.SuggestedResponse != "" {
		return a.SuggestedResponse
	}

	var about string
	if len(a.Themes) > 0 {
		about = " about " + strings.Join(a.Themes, " and ")
	}

	switch a.Sentiment {
	case models.SentimentPositive:
		return fmt.Sprintf("Thank you for the kind words%s! We're glad you enjoyed it and we'll share this with the kitchen team.", about)
	case models.SentimentNegative:
		return fmt.Sprintf("I'm sorry to hear that. Thank you for the feedback%s. Our team will look into it and make it right.", about)
	}
	return fmt.Sprintf("Thanks for the feedback%s. It helps us improve our meals.", about)
}
