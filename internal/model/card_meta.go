package model

import "time"

// Card priority constants for the local metadata store.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// CardMeta holds card attributes the API does not model yet. It lives only
// on this machine and is keyed by the server card id.
//
// Deprecated: priority and tags move to the API's card payload; new code
// should prefer Card.Labels.
type CardMeta struct {
	CardID    string     `json:"card_id" db:"card_id"`
	Priority  string     `json:"priority" db:"priority"`
	Tags      []string   `json:"tags" db:"-"`
	DueDate   *time.Time `json:"due_date,omitempty" db:"due_date"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// ValidPriority reports whether p is one of the known priorities.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}
