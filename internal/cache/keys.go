package cache

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nhle/trakker/internal/model"
)

// Key identifies a cache entry. Keys are hierarchical; operations that take
// a prefix apply to every key that starts with it.
type Key []string

func (k Key) String() string {
	return strings.Join(k, "/")
}

// HasPrefix reports whether k starts with every segment of prefix.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

// ParseKey splits a key produced by Key.String.
func ParseKey(s string) Key {
	if s == "" {
		return nil
	}
	return Key(strings.Split(s, "/"))
}

// Resource keys.
var (
	BoardAll   = Key{"board"}
	BoardLists = Key{"board", "list"}
	ColumnAll  = Key{"column"}
	CardAll    = Key{"card"}
	UserMe     = Key{"user", "me"}
)

// BoardDetail is the full board (columns and cards) for id.
func BoardDetail(id string) Key { return Key{"board", "detail", id} }

// ColumnList is the column list of a board.
func ColumnList(boardID string) Key { return Key{"column", "list", boardID} }

// CardList is the flat card list of a board.
func CardList(boardID string) Key { return Key{"card", "list", boardID} }

// CardDetail is a single card.
func CardDetail(id string) Key { return Key{"card", "detail", id} }

// decodeValue restores a persisted value to the type its key implies.
func decodeValue(key Key, raw json.RawMessage) (any, error) {
	var (
		v   any
		err error
	)
	switch {
	case key.HasPrefix(BoardLists):
		var boards []model.Board
		err = json.Unmarshal(raw, &boards)
		v = boards
	case key.HasPrefix(Key{"board", "detail"}):
		var board model.FullBoard
		err = json.Unmarshal(raw, &board)
		v = board
	case key.HasPrefix(Key{"column", "list"}):
		var cols []model.Column
		err = json.Unmarshal(raw, &cols)
		v = cols
	case key.HasPrefix(Key{"card", "list"}):
		var cards []model.Card
		err = json.Unmarshal(raw, &cards)
		v = cards
	case key.HasPrefix(Key{"card", "detail"}):
		var card model.Card
		err = json.Unmarshal(raw, &card)
		v = card
	case key.HasPrefix(UserMe):
		var user model.User
		err = json.Unmarshal(raw, &user)
		v = user
	default:
		return nil, fmt.Errorf("unknown cache key %s", key)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding cache entry %s: %w", key, err)
	}
	return v, nil
}
