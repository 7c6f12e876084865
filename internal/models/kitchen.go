package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// RequestType classifies a kitchen escalation
type RequestType string

const (
	RequestTypeAllergy      RequestType = "allergy"
	RequestTypeModification RequestType = "modification"
	RequestTypeComplaint    RequestType = "complaint"
	RequestTypePreference   RequestType = "preference"
)

// Valid reports whether the type is known.
func (t RequestType) Valid() bool {
	switch t {
	case RequestTypeAllergy, RequestTypeModification, RequestTypeComplaint, RequestTypePreference:
		return true
	}
	return false
}

// RequestStatus represents the status of a kitchen request
type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusInProgress RequestStatus = "in_progress"
	RequestStatusCompleted  RequestStatus = "completed"
	RequestStatusCancelled  RequestStatus = "cancelled"
)

// Priority bounds. MaxPriority is reserved for allergy requests, which always carry it.
const (
	MinPriority    = 1
	MaxPriority    = 5
	UrgentPriority = 4
)

var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestStatusPending:    {RequestStatusInProgress, RequestStatusCancelled},
	RequestStatusInProgress: {RequestStatusCompleted, RequestStatusCancelled},
}

// Valid reports whether the status is known.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusInProgress, RequestStatusCompleted, RequestStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed.
func (s RequestStatus) Terminal() bool {
	return s == RequestStatusCompleted || s == RequestStatusCancelled
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, allowed := range requestTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// StatusChange is one entry in a request's status history
type StatusChange struct {
	From  RequestStatus `json:"from"`
	To    RequestStatus `json:"to"`
	Notes string        `json:"notes,omitempty"`
	At    time.Time     `json:"at"`
}

// StatusHistory is persisted as a JSON column
type StatusHistory []StatusChange

// Value converts the history to a JSON string for storage
func (h StatusHistory) Value() (driver.Value, error) {
	if len(h) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal([]StatusChange(h))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan converts the database value back to a history
func (h *StatusHistory) Scan(value interface{}) error {
	if value == nil {
		*h = StatusHistory{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, h)
	case string:
		return json.Unmarshal([]byte(v), h)
	default:
		return errors.New("unsupported type for StatusHistory")
	}
}

// KitchenRequest is an operational request escalated to the kitchen team.
type KitchenRequest struct {
	ID        string        `json:"id" gorm:"primary_key"`
	UserID    string        `json:"user_id" gorm:"index"`
	Message   string        `json:"message" gorm:"type:text"`
	Type      RequestType   `json:"request_type" gorm:"index"`
	Details   StringMap     `json:"details" gorm:"type:text"`
	Priority  int           `json:"priority"`
	Status    RequestStatus `json:"status" gorm:"index"`
	History   StatusHistory `json:"status_history" gorm:"type:text"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Urgent reports whether the request should surface on the dashboard.
func (r KitchenRequest) Urgent() bool {
	return r.Priority >= UrgentPriority && !r.Status.Terminal()
}

// Notes returns the notes of the latest status change, if any.
func (r KitchenRequest) Notes() string {
	if len(r.History) == 0 {
		return ""
	}
	return r.History[len(r.History)-1].Notes
}
