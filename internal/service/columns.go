package service

import (
	"context"

	"github.com/nhle/trakker/internal/cache"
	"github.com/nhle/trakker/internal/id"
	"github.com/nhle/trakker/internal/model"
	"github.com/nhle/trakker/internal/reducer"
)

// ColumnService reads and mutates a board's columns. Mutations patch both
// the board detail entry and the board's column list.
type ColumnService struct {
	*base
}

// List returns a board's columns in position order.
func (s *ColumnService) List(ctx context.Context, boardID string) ([]model.Column, error) {
	return cache.Fetch(ctx, s.cache, cache.ColumnList(boardID), s.staleTime,
		func(ctx context.Context) ([]model.Column, error) {
			cols, err := s.api.GetColumns(ctx, boardID)
			if err != nil {
				return nil, err
			}
			return reducer.SortColumns(cols), nil
		})
}

func (s *ColumnService) keys(boardID string) []cache.Key {
	return []cache.Key{cache.BoardDetail(boardID), cache.ColumnList(boardID)}
}

// Create adds a column to the board. Without req.Position the column goes
// after the columns already on the cached board.
func (s *ColumnService) Create(ctx context.Context, boardID string, req model.CreateColumnRequest) (model.Column, error) {
	if req.Position == nil {
		position := 0
		if b, ok := cache.Get[model.FullBoard](s.cache, cache.BoardDetail(boardID)); ok {
			position = len(b.Columns)
		}
		req.Position = &position
	}
	if err := s.validate(req); err != nil {
		return model.Column{}, err
	}

	tempID := id.Temp()
	now := s.timestamp()
	placeholder := model.Column{
		ID:              tempID,
		Name:            req.Name,
		Position:        *req.Position,
		BackgroundColor: req.BackgroundColor,
		BoardID:         boardID,
		Cards:           []model.Card{},
		InsertedAt:      now,
		UpdatedAt:       now,
	}

	return run(ctx, s.base, mutation[model.Column]{
		name:     "creating column",
		cancel:   s.keys(boardID),
		snapshot: s.keys(boardID),
		optimistic: func() {
			cache.Update(s.cache, cache.BoardDetail(boardID), func(b model.FullBoard) model.FullBoard {
				return reducer.AddColumn(b, placeholder)
			})
			cache.Update(s.cache, cache.ColumnList(boardID), func(cols []model.Column) []model.Column {
				return reducer.AddColumnToList(cols, placeholder)
			})
		},
		call: func(ctx context.Context) (model.Column, error) {
			col, err := s.api.CreateColumn(ctx, boardID, req)
			if err != nil {
				return model.Column{}, err
			}
			return *col, nil
		},
		success: func(col model.Column) {
			cache.Update(s.cache, cache.BoardDetail(boardID), func(b model.FullBoard) model.FullBoard {
				return reducer.ReplaceColumn(b, tempID, col)
			})
			cache.Update(s.cache, cache.ColumnList(boardID), func(cols []model.Column) []model.Column {
				return reducer.ReplaceColumnInList(cols, tempID, col)
			})
		},
		invalidate: []cache.Key{cache.BoardDetail(boardID)},
	})
}

// Update patches a column's name, position or color.
func (s *ColumnService) Update(ctx context.Context, boardID, columnID string, req model.UpdateColumnRequest) (model.Column, error) {
	if err := s.validate(req); err != nil {
		return model.Column{}, err
	}

	return run(ctx, s.base, mutation[model.Column]{
		name:     "updating column",
		cancel:   s.keys(boardID),
		snapshot: s.keys(boardID),
		optimistic: func() {
			cache.Update(s.cache, cache.BoardDetail(boardID), func(b model.FullBoard) model.FullBoard {
				return reducer.PatchColumn(b, columnID, req)
			})
			cache.Update(s.cache, cache.ColumnList(boardID), func(cols []model.Column) []model.Column {
				return reducer.PatchColumnInList(cols, columnID, req)
			})
		},
		call: func(ctx context.Context) (model.Column, error) {
			col, err := s.api.UpdateColumn(ctx, columnID, req)
			if err != nil {
				return model.Column{}, err
			}
			return *col, nil
		},
		success: func(col model.Column) {
			cache.Update(s.cache, cache.BoardDetail(boardID), func(b model.FullBoard) model.FullBoard {
				return reducer.ReplaceColumn(b, columnID, col)
			})
			cache.Update(s.cache, cache.ColumnList(boardID), func(cols []model.Column) []model.Column {
				return reducer.ReplaceColumnInList(cols, columnID, col)
			})
		},
	})
}

// Delete removes a column and its cards.
func (s *ColumnService) Delete(ctx context.Context, boardID, columnID string) error {
	_, err := run(ctx, s.base, mutation[*model.DeleteResult]{
		name:     "deleting column",
		cancel:   s.keys(boardID),
		snapshot: s.keys(boardID),
		optimistic: func() {
			cache.Update(s.cache, cache.BoardDetail(boardID), func(b model.FullBoard) model.FullBoard {
				return reducer.RemoveColumn(b, columnID)
			})
			cache.Update(s.cache, cache.ColumnList(boardID), func(cols []model.Column) []model.Column {
				return reducer.RemoveColumnFromList(cols, columnID)
			})
		},
		call: func(ctx context.Context) (*model.DeleteResult, error) {
			return s.api.DeleteColumn(ctx, columnID)
		},
		success: func(*model.DeleteResult) {
			cache.Update(s.cache, cache.CardList(boardID), func(cards []model.Card) []model.Card {
				return reducer.RemoveColumnCards(cards, columnID)
			})
		},
	})
	return err
}

// Reorder puts the board's columns in the order of columnIDs. Each column's
// position becomes its index. The server's column list replaces the cached
// one on success.
func (s *ColumnService) Reorder(ctx context.Context, boardID string, columnIDs []string) ([]model.Column, error) {
	orders := reducer.OrdersFor(columnIDs)
	req := model.ReorderColumnsRequest{ColumnOrders: orders}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	return run(ctx, s.base, mutation[[]model.Column]{
		name:     "reordering columns",
		cancel:   s.keys(boardID),
		snapshot: s.keys(boardID),
		optimistic: func() {
			cache.Update(s.cache, cache.BoardDetail(boardID), func(b model.FullBoard) model.FullBoard {
				return reducer.ReorderColumns(b, orders)
			})
			cache.Update(s.cache, cache.ColumnList(boardID), func(cols []model.Column) []model.Column {
				return reducer.ReorderColumnList(cols, orders)
			})
		},
		call: func(ctx context.Context) ([]model.Column, error) {
			return s.api.ReorderColumns(ctx, boardID, req)
		},
		success: func(cols []model.Column) {
			sorted := reducer.SortColumns(cols)
			cache.Update(s.cache, cache.BoardDetail(boardID), func(b model.FullBoard) model.FullBoard {
				return reducer.SetColumns(b, sorted)
			})
			cache.Update(s.cache, cache.ColumnList(boardID), func(existing []model.Column) []model.Column {
				return reducer.SetColumns(model.FullBoard{Columns: existing}, sorted).Columns
			})
		},
	})
}
