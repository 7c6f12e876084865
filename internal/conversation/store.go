// Package conversation keeps per-conversation message history behind a
// pluggable repository.
package conversation

import (
	"context"
	"strings"
	"sync"
	"time"

	"maitred/internal/models"

	"github.com/google/uuid"
)

// Repository persists whole conversations.
type Repository interface {
	// Load returns models.ErrNotFound when id is unknown.
	Load(ctx context.Context, id string) (*models.Conversation, error)
	Save(ctx context.Context, conv *models.Conversation) error
	// Delete returns models.ErrNotFound when id is unknown.
	Delete(ctx context.Context, id string) error
}

// TrimPolicy bounds the stored history. MaxMessages is always applied when
// positive; MaxTokens only when a Counter is set.
type TrimPolicy struct {
	MaxMessages int
	MaxTokens   int
	Counter     func(string) int
}

// minKept is the latest turn, which is never evicted.
const minKept = 2

// Apply evicts the oldest messages until the history fits.
func (p TrimPolicy) Apply(msgs []models.Message) []models.Message {
	if p.MaxMessages > 0 && len(msgs) > p.MaxMessages {
		msgs = msgs[len(msgs)-p.MaxMessages:]
	}
	if p.MaxTokens <= 0 || p.Counter == nil {
		return msgs
	}

	total := 0
	for _, m := range msgs {
		total += p.Counter(m.Content)
	}
	for total > p.MaxTokens && len(msgs) > minKept {
		total -= p.Counter(msgs[0].Content)
		msgs = msgs[1:]
	}
	return msgs
}

// Turn is one user message and the reply it produced.
type Turn struct {
	UserMessage string
	Reply       string
	Agent       string
	Preferences models.Preferences
}

// Store serializes writes per conversation. Reads return snapshots.
type Store struct {
	repo   Repository
	policy TrimPolicy
	now    func() time.Time

	mu    sync.Mutex
	locks map[string]*idLock
}

// idLock is dropped from the map once no caller holds or waits on it.
type idLock struct {
	mu   sync.Mutex
	refs int
}

// NewStore creates a store over repo
func NewStore(repo Repository, policy TrimPolicy) *Store {
	return &Store{
		repo:   repo,
		policy: policy,
		now:    time.Now,
		locks:  make(map[string]*idLock),
	}
}

func (s *Store) lock(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &idLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

// GetOrCreate returns the conversation with id, creating it when id is empty
// or unknown. A new conversation keeps a caller-supplied id.
func (s *Store) GetOrCreate(ctx context.Context, id, userID string) (*models.Conversation, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.New().String()
	}

	unlock := s.lock(id)
	defer unlock()

	conv, err := s.repo.Load(ctx, id)
	if err == nil {
		return conv.Clone(), nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	now := s.now()
	conv = &models.Conversation{
		ID:        id,
		UserID:    userID,
		Messages:  []models.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Save(ctx, conv); err != nil {
		return nil, err
	}
	return conv.Clone(), nil
}

// AppendTurn appends the user message and reply together, merges learned
// preferences and applies the trim policy.
func (s *Store) AppendTurn(ctx context.Context, id string, turn Turn) (*models.Conversation, error) {
	unlock := s.lock(id)
	defer unlock()

	conv, err := s.repo.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	conv.Messages = append(conv.Messages,
		models.Message{Role: models.RoleUser, Content: turn.UserMessage, Timestamp: now},
		models.Message{Role: models.RoleAssistant, Content: turn.Reply, Timestamp: now},
	)
	conv.Messages = s.policy.Apply(conv.Messages)
	conv.Preferences = conv.Preferences.Merge(turn.Preferences)
	if turn.Agent != "" {
		conv.LastAgent = turn.Agent
	}
	conv.UpdatedAt = now

	if err := s.repo.Save(ctx, conv); err != nil {
		return nil, err
	}
	return conv.Clone(), nil
}

// Get returns a snapshot of the conversation.
func (s *Store) Get(ctx context.Context, id string) (*models.Conversation, error) {
	conv, err := s.repo.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return conv.Clone(), nil
}

// Delete removes the conversation.
func (s *Store) Delete(ctx context.Context, id string) error {
	unlock := s.lock(id)
	defer unlock()
	return s.repo.Delete(ctx, id)
}
