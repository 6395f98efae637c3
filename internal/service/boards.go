package service

import (
	"context"

	"github.com/nhle/trakker/internal/cache"
	"github.com/nhle/trakker/internal/id"
	"github.com/nhle/trakker/internal/model"
	"github.com/nhle/trakker/internal/reducer"
)

// BoardService reads and mutates boards.
type BoardService struct {
	*base
}

// List returns the current user's boards.
func (s *BoardService) List(ctx context.Context) ([]model.Board, error) {
	return cache.Fetch(ctx, s.cache, cache.BoardLists, s.staleTime, s.api.GetBoards)
}

// Get returns a board with its columns and cards, sorted by position.
func (s *BoardService) Get(ctx context.Context, boardID string) (model.FullBoard, error) {
	return cache.Fetch(ctx, s.cache, cache.BoardDetail(boardID), s.staleTime,
		func(ctx context.Context) (model.FullBoard, error) {
			b, err := s.api.GetBoard(ctx, boardID)
			if err != nil {
				return model.FullBoard{}, err
			}
			return sortBoard(*b), nil
		})
}

// Refresh invalidates a board and fetches it again.
func (s *BoardService) Refresh(ctx context.Context, boardID string) (model.FullBoard, error) {
	s.cache.Invalidate(cache.BoardDetail(boardID))
	return s.Get(ctx, boardID)
}

// Cached returns the cached board without fetching.
func (s *BoardService) Cached(boardID string) (model.FullBoard, bool) {
	return cache.Get[model.FullBoard](s.cache, cache.BoardDetail(boardID))
}

// CachedList returns the cached board list without fetching.
func (s *BoardService) CachedList() ([]model.Board, bool) {
	return cache.Get[[]model.Board](s.cache, cache.BoardLists)
}

// Create adds a board. A placeholder with a temporary id shows in the
// board list until the server answers.
func (s *BoardService) Create(ctx context.Context, req model.CreateBoardRequest) (model.Board, error) {
	if err := s.validate(req); err != nil {
		return model.Board{}, err
	}

	tempID := id.Temp()
	now := s.timestamp()

	return run(ctx, s.base, mutation[model.Board]{
		name:     "creating board",
		cancel:   []cache.Key{cache.BoardLists},
		snapshot: []cache.Key{cache.BoardLists},
		optimistic: func() {
			cache.Update(s.cache, cache.BoardLists, func(boards []model.Board) []model.Board {
				return reducer.AddBoard(boards, model.Board{
					ID:            tempID,
					Name:          req.Name,
					Description:   req.Description,
					BackgroundURL: req.BackgroundURL,
					InsertedAt:    now,
					UpdatedAt:     now,
				})
			})
		},
		call: func(ctx context.Context) (model.Board, error) {
			b, err := s.api.CreateBoard(ctx, req)
			if err != nil {
				return model.Board{}, err
			}
			return *b, nil
		},
		success: func(b model.Board) {
			cache.Update(s.cache, cache.BoardLists, func(boards []model.Board) []model.Board {
				return reducer.ReplaceBoard(boards, tempID, b)
			})
			s.cache.Set(cache.BoardDetail(b.ID), model.FullBoard{Board: b, Columns: []model.Column{}})
		},
		invalidate: []cache.Key{cache.BoardLists},
	})
}

// Update patches a board's name, description or background.
func (s *BoardService) Update(ctx context.Context, boardID string, req model.UpdateBoardRequest) (model.Board, error) {
	if err := s.validate(req); err != nil {
		return model.Board{}, err
	}

	return run(ctx, s.base, mutation[model.Board]{
		name:     "updating board",
		cancel:   []cache.Key{cache.BoardLists, cache.BoardDetail(boardID)},
		snapshot: []cache.Key{cache.BoardLists, cache.BoardDetail(boardID)},
		optimistic: func() {
			cache.Update(s.cache, cache.BoardLists, func(boards []model.Board) []model.Board {
				return reducer.PatchBoard(boards, boardID, req)
			})
			cache.Update(s.cache, cache.BoardDetail(boardID), func(b model.FullBoard) model.FullBoard {
				return reducer.PatchBoardDetail(b, req)
			})
		},
		call: func(ctx context.Context) (model.Board, error) {
			b, err := s.api.UpdateBoard(ctx, boardID, req)
			if err != nil {
				return model.Board{}, err
			}
			return *b, nil
		},
		success: s.reconcileBoard,
	})
}

// Delete removes a board and every cache entry scoped to it.
func (s *BoardService) Delete(ctx context.Context, boardID string) error {
	_, err := run(ctx, s.base, mutation[*model.DeleteResult]{
		name:     "deleting board",
		cancel:   []cache.Key{cache.BoardLists, cache.BoardDetail(boardID)},
		snapshot: []cache.Key{cache.BoardLists},
		optimistic: func() {
			cache.Update(s.cache, cache.BoardLists, func(boards []model.Board) []model.Board {
				return reducer.RemoveBoard(boards, boardID)
			})
		},
		call: func(ctx context.Context) (*model.DeleteResult, error) {
			return s.api.DeleteBoard(ctx, boardID)
		},
		success: func(*model.DeleteResult) {
			s.cache.Remove(cache.BoardDetail(boardID))
			s.cache.Remove(cache.ColumnList(boardID))
			s.cache.Remove(cache.CardList(boardID))
		},
	})
	return err
}

// Archive hides a board from the default board list.
func (s *BoardService) Archive(ctx context.Context, boardID string) (model.Board, error) {
	return s.setArchived(ctx, boardID, true)
}

// Unarchive restores an archived board.
func (s *BoardService) Unarchive(ctx context.Context, boardID string) (model.Board, error) {
	return s.setArchived(ctx, boardID, false)
}

func (s *BoardService) setArchived(ctx context.Context, boardID string, archived bool) (model.Board, error) {
	name, call := "unarchiving board", s.api.UnarchiveBoard
	var at *model.Timestamp
	if archived {
		ts := s.timestamp()
		at = &ts
		name, call = "archiving board", s.api.ArchiveBoard
	}

	return run(ctx, s.base, mutation[model.Board]{
		name:     name,
		cancel:   []cache.Key{cache.BoardLists, cache.BoardDetail(boardID)},
		snapshot: []cache.Key{cache.BoardLists, cache.BoardDetail(boardID)},
		optimistic: func() {
			cache.Update(s.cache, cache.BoardLists, func(boards []model.Board) []model.Board {
				return reducer.SetArchived(boards, boardID, at)
			})
			cache.Update(s.cache, cache.BoardDetail(boardID), func(b model.FullBoard) model.FullBoard {
				b = reducer.CloneBoard(b)
				b.ArchivedAt = at
				return b
			})
		},
		call: func(ctx context.Context) (model.Board, error) {
			b, err := call(ctx, boardID)
			if err != nil {
				return model.Board{}, err
			}
			return *b, nil
		},
		success: s.reconcileBoard,
	})
}

func (s *BoardService) reconcileBoard(b model.Board) {
	cache.Update(s.cache, cache.BoardLists, func(boards []model.Board) []model.Board {
		return reducer.ReplaceBoard(boards, b.ID, b)
	})
	cache.Update(s.cache, cache.BoardDetail(b.ID), func(full model.FullBoard) model.FullBoard {
		return reducer.SetBoardMeta(full, b)
	})
}

// FilterBoards splits boards by archive state.
func FilterBoards(boards []model.Board, archived bool) []model.Board {
	out := make([]model.Board, 0, len(boards))
	for _, b := range boards {
		if b.IsArchived() == archived {
			out = append(out, b)
		}
	}
	return out
}

func sortBoard(b model.FullBoard) model.FullBoard {
	b = reducer.CloneBoard(b)
	b.Columns = reducer.SortColumns(b.Columns)
	for i := range b.Columns {
		if b.Columns[i].Cards == nil {
			b.Columns[i].Cards = []model.Card{}
			continue
		}
		b.Columns[i].Cards = reducer.SortCards(b.Columns[i].Cards)
	}
	if b.Columns == nil {
		b.Columns = []model.Column{}
	}
	return b
}
