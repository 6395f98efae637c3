package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TempIDPrefix marks ids minted locally for entities the server has not
// acknowledged yet.
const TempIDPrefix = "temp-"

// IsTempID reports whether id was minted locally for an optimistic entity.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// Board is a top-level Kanban board owned by a user.
type Board struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Description   *string    `json:"description"`
	BackgroundURL *string    `json:"background_url"`
	OwnerID       string     `json:"owner_id"`
	ArchivedAt    *Timestamp `json:"archived_at"`
	InsertedAt    Timestamp  `json:"inserted_at"`
	UpdatedAt     Timestamp  `json:"updated_at"`
}

// IsArchived reports whether the board has been archived.
func (b Board) IsArchived() bool {
	return b.ArchivedAt != nil && !b.ArchivedAt.IsZero()
}

// FullBoard is a board together with its ordered columns and their cards.
type FullBoard struct {
	Board
	Columns []Column `json:"columns"`
}

// Column is an ordered lane within a board.
type Column struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Position        int       `json:"position"`
	BackgroundColor *string   `json:"background_color"`
	BoardID         string    `json:"board_id,omitempty"`
	Cards           []Card    `json:"cards"`
	InsertedAt      Timestamp `json:"inserted_at"`
	UpdatedAt       Timestamp `json:"updated_at"`
}

// Card is a task item inside a column.
type Card struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Position    Position   `json:"position"`
	ColumnID    string     `json:"column_id"`
	DueDate     *Timestamp `json:"due_date"`
	Labels      Labels     `json:"labels"`
	Checklist   []string   `json:"checklist"`
	Attachments []string   `json:"attachments"`
	InsertedAt  Timestamp  `json:"inserted_at"`
	UpdatedAt   Timestamp  `json:"updated_at"`
}

// Position orders cards within a column. The API has served it both as a
// JSON number and as a numeric string; it is always sent as a number.
type Position float64

// UnmarshalJSON accepts a JSON number, a numeric string, or null.
func (p *Position) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*p = 0
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*p = Position(f)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decoding position: %w", err)
	}
	if strings.TrimSpace(s) == "" {
		*p = 0
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("decoding position %q: %w", s, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("decoding position %q: not a finite number", s)
	}
	*p = Position(f)
	return nil
}

// Labels is the canonical list-of-strings form of card labels.
type Labels []string

// MarshalJSON always emits an array, or null when there are no labels.
func (l Labels) MarshalJSON() ([]byte, error) {
	if len(l) == 0 {
		return []byte("null"), nil
	}
	return json.Marshal([]string(l))
}

// UnmarshalJSON accepts an array of strings. Older board payloads carry a
// string instead: either an encoded JSON array or a comma-separated list.
func (l *Labels) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = normalizeLabels(list)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decoding labels: %w", err)
	}

	s = strings.TrimSpace(s)
	if s == "" {
		*l = nil
		return nil
	}
	if strings.HasPrefix(s, "[") {
		if err := json.Unmarshal([]byte(s), &list); err != nil {
			return fmt.Errorf("decoding labels %q: %w", s, err)
		}
		*l = normalizeLabels(list)
		return nil
	}

	*l = normalizeLabels(strings.Split(s, ","))
	return nil
}

// Contains reports whether the label value is present.
func (l Labels) Contains(value string) bool {
	for _, v := range l {
		if v == value {
			return true
		}
	}
	return false
}

func normalizeLabels(in []string) Labels {
	var out Labels
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

// DeleteResult is returned by the API when an entity is removed.
type DeleteResult struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}
