package agents

import (
	"context"

	"maitred/internal/intent"
	"maitred/internal/llm"
	"maitred/internal/logger"
	"maitred/internal/retry"
)

const apologyReply = "Sorry, I'm having trouble answering right now. Please try again in a moment, or ask me for meal recommendations."

// GeneralAgent answers everything that is not routed elsewhere.
type GeneralAgent struct {
	*BaseAgent
}

// NewGeneralAgent creates a general assistant agent
func NewGeneralAgent(provider llm.Provider, policy retry.Policy) *GeneralAgent {
	return &GeneralAgent{BaseAgent: NewBaseAgent(intent.General, provider, policy)}
}

func (a *GeneralAgent) Respond(ctx context.Context, req Request) (*Result, error) {
	reply, err := a.complete(ctx, GeneralSystem, req.Message, req.History)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("general model failed, using apology: %v", err)
		return &Result{Reply: apologyReply, Agent: a.Label(), Degraded: true}, nil
	}
	return &Result{Reply: reply, Agent: a.Label()}, nil
}
