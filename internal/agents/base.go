// Package agents holds the four response strategies and the feedback analyzer.
package agents

import (
	"context"

	"maitred/internal/intent"
	"maitred/internal/llm"
	"maitred/internal/models"
	"maitred/internal/retry"
)

// Agent is a response strategy selected by the intent classifier.
type Agent interface {
	Label() intent.Label
	Respond(ctx context.Context, req Request) (*Result, error)
}

// Request is everything a strategy may consult for one turn.
type Request struct {
	UserID       string
	Message      string
	Conversation *models.Conversation
	// History is the trimmed slice of prior turns to send to the model.
	History []models.Message
	// Retrieved is only set for recommendation turns.
	Retrieved models.RetrievedContext
}

// Preferences returns what has been learned about the customer so far.
func (r Request) Preferences() models.Preferences {
	if r.Conversation == nil {
		return models.Preferences{}
	}
	return r.Conversation.Preferences
}

// Result is a reply plus the structured side effects of a turn.
type Result struct {
	Reply           string
	Agent           intent.Label
	Recommendations []string
	KitchenRequest  *models.KitchenRequest
	Analysis        *models.FeedbackAnalysis
	// Degraded is set when a collaborator failed and a templated reply was used.
	Degraded bool
}

// BaseAgent provides common functionality for all agents
type BaseAgent struct {
	label  intent.Label
	llm    llm.Provider
	policy retry.Policy
}

// NewBaseAgent creates a new base agent with the specified label and model
func NewBaseAgent(label intent.Label, provider llm.Provider, policy retry.Policy) *BaseAgent {
	return &BaseAgent{label: label, llm: provider, policy: policy}
}

// Label returns the routing label this agent serves
func (a *BaseAgent) Label() intent.Label {
	return a.label
}

// complete calls the model with the agent's retry policy.
func (a *BaseAgent) complete(ctx context.Context, system, prompt string, history []models.Message) (string, error) {
	if a.llm == nil {
		return "", models.ErrCollaboratorUnavailable
	}
	var reply string
	err := retry.Do(ctx, a.policy, func(ctx context.Context) error {
		var err error
		reply, err = a.llm.Complete(ctx, system, prompt, history)
		return err
	})
	return reply, err
}

// Registry maps labels to agents
type Registry map[intent.Label]Agent

// NewRegistry indexes agents by their label.
func NewRegistry(agents ...Agent) Registry {
	r := make(Registry, len(agents))
	for _, a := range agents {
		r[a.Label()] = a
	}
	return r
}

// For returns the agent for label, falling back to the general agent.
func (r Registry) For(label intent.Label) (Agent, bool) {
	if a, ok := r[label]; ok {
		return a, true
	}
	a, ok := r[intent.General]
	return a, ok
}
