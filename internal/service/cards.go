package service

import (
	"context"

	"github.com/nhle/trakker/internal/cache"
	"github.com/nhle/trakker/internal/id"
	"github.com/nhle/trakker/internal/model"
	"github.com/nhle/trakker/internal/reducer"
)

// CardService reads and mutates cards. Mutations patch the board detail
// entry, the board's card list and the card's own detail entry.
type CardService struct {
	*base
}

// List returns every card on a board.
func (s *CardService) List(ctx context.Context, boardID string) ([]model.Card, error) {
	return cache.Fetch(ctx, s.cache, cache.CardList(boardID), s.staleTime,
		func(ctx context.Context) ([]model.Card, error) {
			return s.api.GetCards(ctx, boardID)
		})
}

// Get returns one card.
func (s *CardService) Get(ctx context.Context, cardID string) (model.Card, error) {
	return cache.Fetch(ctx, s.cache, cache.CardDetail(cardID), s.staleTime,
		func(ctx context.Context) (model.Card, error) {
			c, err := s.api.GetCard(ctx, cardID)
			if err != nil {
				return model.Card{}, err
			}
			return *c, nil
		})
}

func (s *CardService) keys(boardID, cardID string) []cache.Key {
	keys := []cache.Key{cache.BoardDetail(boardID), cache.CardList(boardID)}
	if cardID != "" {
		keys = append(keys, cache.CardDetail(cardID))
	}
	return keys
}

// Create adds a card to the end of a column. The card's position is the
// number of cards already in the cached column.
func (s *CardService) Create(ctx context.Context, boardID, columnID string, req model.CreateCardRequest) (model.Card, error) {
	if b, ok := cache.Get[model.FullBoard](s.cache, cache.BoardDetail(boardID)); ok {
		for _, col := range b.Columns {
			if col.ID == columnID {
				req.Position = model.Position(len(col.Cards))
			}
		}
	}
	if err := s.validate(req); err != nil {
		return model.Card{}, err
	}

	tempID := id.Temp()
	now := s.timestamp()
	placeholder := model.Card{
		ID:          tempID,
		Title:       req.Title,
		Description: req.Description,
		Position:    req.Position,
		ColumnID:    columnID,
		Labels:      req.Labels,
		Checklist:   req.Checklist,
		Attachments: req.Attachments,
		InsertedAt:  now,
		UpdatedAt:   now,
	}
	if req.DueDate != nil {
		if ts, err := model.ParseTimestamp(*req.DueDate); err == nil {
			placeholder.DueDate = &ts
		}
	}

	return run(ctx, s.base, mutation[model.Card]{
		name:     "creating card",
		cancel:   s.keys(boardID, ""),
		snapshot: s.keys(boardID, ""),
		optimistic: func() {
			cache.Update(s.cache, cache.BoardDetail(boardID), func(b model.FullBoard) model.FullBoard {
				return reducer.AddCard(b, placeholder)
			})
			cache.Update(s.cache, cache.CardList(boardID), func(cards []model.Card) []model.Card {
				return reducer.AddCardToList(cards, placeholder)
			})
		},
		call: func(ctx context.Context) (model.Card, error) {
			c, err := s.api.CreateCard(ctx, columnID, req)
			if err != nil {
				return model.Card{}, err
			}
			return *c, nil
		},
		success: func(c model.Card) {
			cache.Update(s.cache, cache.BoardDetail(boardID), func(b model.FullBoard) model.FullBoard {
				return reducer.ReplaceCard(b, tempID, c)
			})
			cache.Update(s.cache, cache.CardList(boardID), func(cards []model.Card) []model.Card {
				return reducer.ReplaceCardInList(cards, tempID, c)
			})
			s.cache.Set(cache.CardDetail(c.ID), c)
		},
		invalidate: []cache.Key{cache.BoardDetail(boardID)},
	})
}

// Update patches a card. Setting req.ColumnID moves it; the server's
// column_id decides where the card ends up.
func (s *CardService) Update(ctx context.Context, boardID, cardID string, req model.UpdateCardRequest) (model.Card, error) {
	if err := s.validate(req); err != nil {
		return model.Card{}, err
	}

	name := "updating card"
	if req.ColumnID != nil {
		name = "moving card"
	}
	return s.update(ctx, name, boardID, cardID, req, func(b model.FullBoard) model.FullBoard {
		return reducer.PatchCard(b, cardID, req)
	})
}

// update runs a card patch. patchBoard is the optimistic board transition.
func (s *CardService) update(
	ctx context.Context,
	name, boardID, cardID string,
	req model.UpdateCardRequest,
	patchBoard func(model.FullBoard) model.FullBoard,
) (model.Card, error) {
	return run(ctx, s.base, mutation[model.Card]{
		name:     name,
		cancel:   s.keys(boardID, cardID),
		snapshot: s.keys(boardID, cardID),
		optimistic: func() {
			cache.Update(s.cache, cache.BoardDetail(boardID), patchBoard)
			cache.Update(s.cache, cache.CardList(boardID), func(cards []model.Card) []model.Card {
				return reducer.PatchCardInList(cards, cardID, req)
			})
			cache.Update(s.cache, cache.CardDetail(cardID), func(c model.Card) model.Card {
				return reducer.ApplyCardUpdate(c, req)
			})
		},
		call: func(ctx context.Context) (model.Card, error) {
			c, err := s.api.UpdateCard(ctx, cardID, req)
			if err != nil {
				return model.Card{}, err
			}
			return *c, nil
		},
		success: func(c model.Card) {
			cache.Update(s.cache, cache.BoardDetail(boardID), func(b model.FullBoard) model.FullBoard {
				return reducer.ReconcileCard(b, c)
			})
			cache.Update(s.cache, cache.CardList(boardID), func(cards []model.Card) []model.Card {
				return reducer.ReplaceCardInList(cards, cardID, c)
			})
			s.cache.Set(cache.CardDetail(c.ID), c)
		},
	})
}

// Move sends a card to the end of another column. Moving within the same
// column is a no-op.
func (s *CardService) Move(ctx context.Context, boardID, cardID, targetColumnID string) (model.Card, error) {
	var position model.Position
	if b, ok := cache.Get[model.FullBoard](s.cache, cache.BoardDetail(boardID)); ok {
		card, ci, found := reducer.FindCard(b, cardID)
		if found && b.Columns[ci].ID == targetColumnID {
			return card, nil
		}
		for _, col := range b.Columns {
			if col.ID == targetColumnID {
				position = model.Position(len(col.Cards))
			}
		}
	}

	req := model.UpdateCardRequest{
		ColumnID: &targetColumnID,
		Position: &position,
	}
	return s.update(ctx, "moving card", boardID, cardID, req, func(b model.FullBoard) model.FullBoard {
		return reducer.MoveCard(b, cardID, targetColumnID, position)
	})
}

// Delete removes a card.
func (s *CardService) Delete(ctx context.Context, boardID, cardID string) error {
	_, err := run(ctx, s.base, mutation[*model.DeleteResult]{
		name:     "deleting card",
		cancel:   s.keys(boardID, cardID),
		snapshot: s.keys(boardID, cardID),
		optimistic: func() {
			cache.Update(s.cache, cache.BoardDetail(boardID), func(b model.FullBoard) model.FullBoard {
				return reducer.RemoveCard(b, cardID)
			})
			cache.Update(s.cache, cache.CardList(boardID), func(cards []model.Card) []model.Card {
				return reducer.RemoveCardFromList(cards, cardID)
			})
		},
		call: func(ctx context.Context) (*model.DeleteResult, error) {
			return s.api.DeleteCard(ctx, cardID)
		},
		success: func(*model.DeleteResult) {
			s.cache.Remove(cache.CardDetail(cardID))
		},
	})
	return err
}
