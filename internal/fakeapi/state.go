package fakeapi

import (
	"slices"

	"github.com/nhle/trakker/internal/model"
)

// Lookups below expect s.mu to be held.

func (s *Server) boardLocked(userID, boardID string) (*model.Board, bool) {
	b, ok := s.boards[boardID]
	if !ok || b.OwnerID != userID {
		return nil, false
	}
	return b, true
}

func (s *Server) columnLocked(userID, columnID string) (*model.Column, bool) {
	c, ok := s.columns[columnID]
	if !ok {
		return nil, false
	}
	if _, ok := s.boardLocked(userID, c.BoardID); !ok {
		return nil, false
	}
	return c, true
}

func (s *Server) cardLocked(userID, cardID string) (*model.Card, bool) {
	k, ok := s.cards[cardID]
	if !ok {
		return nil, false
	}
	if _, ok := s.columnLocked(userID, k.ColumnID); !ok {
		return nil, false
	}
	return k, true
}

// columnsOfLocked returns copies of a board's columns ordered by position,
// without their cards.
func (s *Server) columnsOfLocked(boardID string) []model.Column {
	out := []model.Column{}
	for _, c := range s.columns {
		if c.BoardID == boardID {
			col := *c
			col.Cards = nil
			out = append(out, col)
		}
	}
	slices.SortStableFunc(out, func(a, b model.Column) int {
		if a.Position != b.Position {
			return a.Position - b.Position
		}
		return a.InsertedAt.Compare(b.InsertedAt.Time)
	})
	return out
}

func (s *Server) cardsOfColumnLocked(columnID string) []model.Card {
	out := []model.Card{}
	for _, k := range s.cards {
		if k.ColumnID == columnID {
			out = append(out, cloneCard(*k))
		}
	}
	slices.SortStableFunc(out, func(a, b model.Card) int {
		switch {
		case a.Position < b.Position:
			return -1
		case a.Position > b.Position:
			return 1
		}
		return a.InsertedAt.Compare(b.InsertedAt.Time)
	})
	return out
}

func (s *Server) fullBoardLocked(b *model.Board) model.FullBoard {
	full := model.FullBoard{Board: *b, Columns: s.columnsOfLocked(b.ID)}
	for i := range full.Columns {
		full.Columns[i].Cards = s.cardsOfColumnLocked(full.Columns[i].ID)
	}
	return full
}

func (s *Server) deleteColumnLocked(columnID string) {
	for id, k := range s.cards {
		if k.ColumnID == columnID {
			delete(s.cards, id)
		}
	}
	delete(s.columns, columnID)
}

func cloneCard(k model.Card) model.Card {
	k.Labels = slices.Clone(k.Labels)
	k.Checklist = slices.Clone(k.Checklist)
	k.Attachments = slices.Clone(k.Attachments)
	return k
}
