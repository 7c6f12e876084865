// Package orchestrator runs one chat turn end to end: classify, retrieve,
// respond, record and escalate.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"maitred/internal/agents"
	"maitred/internal/catalog"
	"maitred/internal/conversation"
	"maitred/internal/intent"
	"maitred/internal/logger"
	"maitred/internal/models"
	"maitred/internal/monitoring"
	"maitred/internal/retry"
)

// MaxMessageLength bounds a customer message in characters.
const MaxMessageLength = 2000

// EscalationFailedReply replaces a kitchen confirmation when the request
// could not be recorded.
const EscalationFailedReply = "I'm sorry, I wasn't able to reach our kitchen team just now. " +
	"Please contact our support team directly about this so it can be handled safely before your next delivery."

// Retriever finds catalog meals relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int, minSimilarity float64) (models.RetrievedContext, error)
}

// Escalator persists kitchen request drafts; *kitchen.Tracker implements it.
type Escalator interface {
	CreateFromDraft(ctx context.Context, draft *models.KitchenRequest) (*models.KitchenRequest, error)
}

// Options tune retrieval and streaming.
type Options struct {
	TopK          int
	MinSimilarity float64
	// HistoryMessages is how many prior messages are used for routing and prompts.
	HistoryMessages int
	ChunkSize       int
	ChunkDelay      time.Duration
}

func (o Options) withDefaults() Options {
	if o.TopK <= 0 {
		o.TopK = 5
	}
	if o.HistoryMessages <= 0 {
		o.HistoryMessages = 10
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	return o
}

// Orchestrator is safe for concurrent use.
type Orchestrator struct {
	classifier *intent.Classifier
	retriever  Retriever
	agents     agents.Registry
	store      *conversation.Store
	escalator  Escalator
	metrics    *monitoring.Collector
	monitor    *monitoring.Monitor
	retry      retry.Policy
	opts       Options
}

// Deps are the orchestrator's collaborators. Retriever, Escalator, Metrics
// and Monitor may be nil. Without an Escalator kitchen replies are degraded.
// Retry applies to escalation and defaults to retry.Once.
type Deps struct {
	Classifier *intent.Classifier
	Retriever  Retriever
	Agents     agents.Registry
	Store      *conversation.Store
	Escalator  Escalator
	Metrics    *monitoring.Collector
	Monitor    *monitoring.Monitor
	Retry      *retry.Policy
}

// New creates an orchestrator.
func New(deps Deps, opts Options) *Orchestrator {
	classifier := deps.Classifier
	if classifier == nil {
		classifier = intent.NewClassifier()
	}
	policy := retry.Once
	if deps.Retry != nil {
		policy = *deps.Retry
	}
	return &Orchestrator{
		classifier: classifier,
		retriever:  deps.Retriever,
		agents:     deps.Agents,
		store:      deps.Store,
		escalator:  deps.Escalator,
		metrics:    deps.Metrics,
		monitor:    deps.Monitor,
		retry:      policy,
		opts:       opts.withDefaults(),
	}
}

// Reply is the outcome of one chat turn.
type Reply struct {
	Reply                 string           `json:"reply"`
	ConversationID        string           `json:"conversation_id"`
	AgentUsed             intent.Label     `json:"agent_used"`
	Recommendations       []string         `json:"recommendations"`
	RequiresKitchenAction bool             `json:"requires_kitchen_action"`
	KitchenRequestID      string           `json:"kitchen_request_id,omitempty"`
	Sentiment             models.Sentiment `json:"sentiment,omitempty"`
	Degraded              bool             `json:"degraded"`
}

func validate(userID, message string) error {
	if strings.TrimSpace(userID) == "" {
		return models.Validationf("user_id is required")
	}
	if strings.TrimSpace(message) == "" {
		return models.Validationf("message is required")
	}
	if n := utf8.RuneCountInString(message); n > MaxMessageLength {
		return models.Validationf("message is %d characters, the limit is %d", n, MaxMessageLength)
	}
	return nil
}

// HandleMessage answers message within the given conversation. An empty or
// unknown conversation id starts a new conversation.
func (o *Orchestrator) HandleMessage(ctx context.Context, userID, message, conversationID string) (*Reply, error) {
	if err := validate(userID, message); err != nil {
		return nil, err
	}
	start := time.Now()

	conv, err := o.store.GetOrCreate(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	history := conv.Recent(o.opts.HistoryMessages)

	decision := o.classifier.Explain(message, history)
	o.metrics.ObserveIntent(string(decision.Label), string(decision.Family))
	logger.Debug("conversation %s routed to %s (%s)", conv.ID, decision.Label, decision.Family)

	learned := catalog.ExtractPreferences(message)
	conv.Preferences = conv.Preferences.Merge(learned)

	req := agents.Request{
		UserID:       userID,
		Message:      message,
		Conversation: conv,
		History:      history,
	}
	if decision.Label == intent.Recommendation {
		req.Retrieved = o.retrieve(ctx, retrievalQuery(message, decision, history))
	}

	agent, ok := o.agents.For(decision.Label)
	if !ok {
		return nil, models.Validationf("no agent configured for %s", decision.Label)
	}
	agentStart := time.Now()
	res, err := agent.Respond(ctx, req)
	o.metrics.ObserveCollaborator("agent_"+string(agent.Label()), err, time.Since(agentStart))
	if err != nil {
		return nil, err
	}

	reply := &Reply{
		Reply:           res.Reply,
		ConversationID:  conv.ID,
		AgentUsed:       res.Agent,
		Recommendations: res.Recommendations,
		Degraded:        res.Degraded,
	}
	if reply.Recommendations == nil {
		reply.Recommendations = []string{}
	}

	// The request is recorded before the turn so a stored confirmation
	// always refers to a real kitchen request.
	if res.KitchenRequest != nil {
		id, err := o.escalate(ctx, res.KitchenRequest)
		if err != nil {
			logger.Error("failed to create kitchen request for %s: %v", userID, err)
			reply.Reply = EscalationFailedReply
			reply.Degraded = true
		} else {
			reply.RequiresKitchenAction = true
			reply.KitchenRequestID = id
		}
	}

	if _, err := o.store.AppendTurn(ctx, conv.ID, conversation.Turn{
		UserMessage: message,
		Reply:       reply.Reply,
		Agent:       string(res.Agent),
		Preferences: learned,
	}); err != nil {
		return nil, err
	}

	if res.Analysis != nil {
		reply.Sentiment = res.Analysis.Sentiment
		o.metrics.ObserveFeedback(string(res.Analysis.Sentiment), res.Analysis.Source)
	}

	o.metrics.ObserveMessage(string(res.Agent))
	if reply.Degraded {
		o.metrics.ObserveDegraded(string(res.Agent))
	}
	if o.monitor != nil {
		o.monitor.RecordTurn(string(res.Agent), reply.Degraded, time.Since(start))
	}
	return reply, nil
}

// retrieve degrades to an empty context when the retriever fails.
func (o *Orchestrator) retrieve(ctx context.Context, query string) models.RetrievedContext {
	if o.retriever == nil {
		return nil
	}
	start := time.Now()
	results, err := o.retriever.Retrieve(ctx, query, o.opts.TopK, o.opts.MinSimilarity)
	o.metrics.ObserveCollaborator("retrieval", err, time.Since(start))
	if err != nil {
		logger.Warn("retrieval failed, answering without context: %v", err)
		return nil
	}
	o.metrics.ObserveRetrieval(len(results))
	return results
}

// escalate records the draft, retrying transient failures.
func (o *Orchestrator) escalate(ctx context.Context, draft *models.KitchenRequest) (string, error) {
	if o.escalator == nil {
		return "", fmt.Errorf("%w: no kitchen tracker configured", models.ErrCollaboratorUnavailable)
	}
	start := time.Now()
	var kr *models.KitchenRequest
	err := retry.Do(ctx, o.retry, func(ctx context.Context) error {
		var err error
		kr, err = o.escalator.CreateFromDraft(ctx, draft)
		return err
	})
	o.metrics.ObserveCollaborator("kitchen", err, time.Since(start))
	if err != nil {
		return "", err
	}
	o.metrics.ObserveEscalation(string(kr.Type))
	if o.monitor != nil {
		o.monitor.Increment("kitchen_requests_created", 1)
	}
	return kr.ID, nil
}

// retrievalQuery widens a bare follow-up with the previous user request.
func retrievalQuery(message string, d intent.Decision, history []models.Message) string {
	if d.Family != intent.FamilyFollowUp {
		return message
	}
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == models.RoleUser {
			return history[i].Content + " " + message
		}
	}
	return message
}

// Conversation returns a snapshot of a stored conversation.
func (o *Orchestrator) Conversation(ctx context.Context, id string) (*models.Conversation, error) {
	return o.store.Get(ctx, id)
}

// Forget deletes a conversation.
func (o *Orchestrator) Forget(ctx context.Context, id string) error {
	return o.store.Delete(ctx, id)
}
