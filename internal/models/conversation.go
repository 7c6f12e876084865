package models

import (
	"time"
)

// Role identifies who authored a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single entry in a conversation history
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Preferences are dietary signals learned from a customer's messages.
type Preferences struct {
	DietaryTags   StringSlice `json:"dietary_tags,omitempty"`
	CalorieTarget int         `json:"calorie_target,omitempty"`
}

// Empty reports whether nothing has been learned yet.
func (p Preferences) Empty() bool {
	return len(p.DietaryTags) == 0 && p.CalorieTarget == 0
}

// Merge unions dietary tags and lets a newer calorie target win.
func (p Preferences) Merge(other Preferences) Preferences {
	merged := Preferences{
		DietaryTags:   Dedupe(append(append([]string{}, p.DietaryTags...), other.DietaryTags...)),
		CalorieTarget: p.CalorieTarget,
	}
	if other.CalorieTarget > 0 {
		merged.CalorieTarget = other.CalorieTarget
	}
	return merged
}

// Conversation holds the ordered history of one chat.
type Conversation struct {
	ID          string      `json:"conversation_id"`
	UserID      string      `json:"user_id"`
	Messages    []Message   `json:"messages"`
	LastAgent   string      `json:"last_agent,omitempty"`
	Preferences Preferences `json:"preferences"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Clone returns a deep copy so callers can read a snapshot without holding locks.
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Messages = append([]Message(nil), c.Messages...)
	cp.Preferences.DietaryTags = append(StringSlice(nil), c.Preferences.DietaryTags...)
	return &cp
}

// Recent returns at most n of the newest messages, oldest first.
func (c *Conversation) Recent(n int) []Message {
	if c == nil || n <= 0 {
		return nil
	}
	if len(c.Messages) <= n {
		return append([]Message(nil), c.Messages...)
	}
	return append([]Message(nil), c.Messages[len(c.Messages)-n:]...)
}
