package agents

import (
	"context"
	"fmt"
	"strings"

	"maitred/internal/intent"
	"maitred/internal/llm"
	"maitred/internal/logger"
	"maitred/internal/models"
	"maitred/internal/retry"
)

const noMatchReply = "I couldn't find any meals matching that request right now. Could you tell me a bit more about what you're looking for, for example a dietary preference or a calorie target?"

// RecommendationAgent writes a narrative grounded in retrieved meals.
type RecommendationAgent struct {
	*BaseAgent
}

// NewRecommendationAgent creates a meal recommendation agent
func NewRecommendationAgent(provider llm.Provider, policy retry.Policy) *RecommendationAgent {
	return &RecommendationAgent{BaseAgent: NewBaseAgent(intent.Recommendation, provider, policy)}
}

// Respond recommends from req.Retrieved only.
func (a *RecommendationAgent) Respond(ctx context.Context, req Request) (*Result, error) {
	res := &Result{Agent: a.Label(), Recommendations: req.Retrieved.IDs()}
	if len(req.Retrieved) == 0 {
		res.Reply = noMatchReply
		return res, nil
	}

	prompt := RecommendationPrompt(req.Message, req.Retrieved, req.Preferences())
	reply, err := a.complete(ctx, MealRecommenderSystem, prompt, req.History)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("recommendation model failed, using template: %v", err)
		res.Reply = templatedRecommendation(req.Retrieved)
		res.Degraded = true
		return res, nil
	}
	res.Reply = reply
	return res, nil
}

func templatedRecommendation(retrieved models.RetrievedContext) string {
	var b strings.Builder
	b.WriteString("Here are some meals that match what you're looking for:")
	for i, item := range retrieved {
		fmt.Fprintf(&b, "\n%d. %s", i+1, item.Meal.Summary())
	}
	return b.String()
}
