package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/trakker/internal/api"
	"github.com/nhle/trakker/internal/cache"
	"github.com/nhle/trakker/internal/model"
	"github.com/nhle/trakker/internal/validation"
)

// stubAPI implements API with per-test function fields. Calling a method
// whose field is nil panics through the embedded nil interface.
type stubAPI struct {
	API

	getBoard       func(ctx context.Context, id string) (*model.FullBoard, error)
	createBoard    func(ctx context.Context, req model.CreateBoardRequest) (*model.Board, error)
	updateBoard    func(ctx context.Context, id string, req model.UpdateBoardRequest) (*model.Board, error)
	deleteBoard    func(ctx context.Context, id string) (*model.DeleteResult, error)
	archiveBoard   func(ctx context.Context, id string) (*model.Board, error)
	unarchiveBoard func(ctx context.Context, id string) (*model.Board, error)
	createColumn   func(ctx context.Context, boardID string, req model.CreateColumnRequest) (*model.Column, error)
	updateColumn   func(ctx context.Context, id string, req model.UpdateColumnRequest) (*model.Column, error)
	deleteColumn   func(ctx context.Context, id string) (*model.DeleteResult, error)
	reorderColumns func(ctx context.Context, boardID string, req model.ReorderColumnsRequest) ([]model.Column, error)
	createCard     func(ctx context.Context, columnID string, req model.CreateCardRequest) (*model.Card, error)
	updateCard     func(ctx context.Context, id string, req model.UpdateCardRequest) (*model.Card, error)
	deleteCard     func(ctx context.Context, id string) (*model.DeleteResult, error)
	updateUser     func(ctx context.Context, req model.UpdateUserRequest) (*model.User, error)
}

func (s *stubAPI) GetBoard(ctx context.Context, id string) (*model.FullBoard, error) {
	return s.getBoard(ctx, id)
}

func (s *stubAPI) CreateBoard(ctx context.Context, req model.CreateBoardRequest) (*model.Board, error) {
	return s.createBoard(ctx, req)
}

func (s *stubAPI) UpdateBoard(ctx context.Context, id string, req model.UpdateBoardRequest) (*model.Board, error) {
	return s.updateBoard(ctx, id, req)
}

func (s *stubAPI) DeleteBoard(ctx context.Context, id string) (*model.DeleteResult, error) {
	return s.deleteBoard(ctx, id)
}

func (s *stubAPI) ArchiveBoard(ctx context.Context, id string) (*model.Board, error) {
	return s.archiveBoard(ctx, id)
}

func (s *stubAPI) UnarchiveBoard(ctx context.Context, id string) (*model.Board, error) {
	return s.unarchiveBoard(ctx, id)
}

func (s *stubAPI) UpdateColumn(ctx context.Context, id string, req model.UpdateColumnRequest) (*model.Column, error) {
	return s.updateColumn(ctx, id, req)
}

func (s *stubAPI) DeleteColumn(ctx context.Context, id string) (*model.DeleteResult, error) {
	return s.deleteColumn(ctx, id)
}

func (s *stubAPI) CreateColumn(ctx context.Context, boardID string, req model.CreateColumnRequest) (*model.Column, error) {
	return s.createColumn(ctx, boardID, req)
}

func (s *stubAPI) ReorderColumns(ctx context.Context, boardID string, req model.ReorderColumnsRequest) ([]model.Column, error) {
	return s.reorderColumns(ctx, boardID, req)
}

func (s *stubAPI) CreateCard(ctx context.Context, columnID string, req model.CreateCardRequest) (*model.Card, error) {
	return s.createCard(ctx, columnID, req)
}

func (s *stubAPI) UpdateCard(ctx context.Context, id string, req model.UpdateCardRequest) (*model.Card, error) {
	return s.updateCard(ctx, id, req)
}

func (s *stubAPI) DeleteCard(ctx context.Context, id string) (*model.DeleteResult, error) {
	return s.deleteCard(ctx, id)
}

func (s *stubAPI) UpdateCurrentUser(ctx context.Context, req model.UpdateUserRequest) (*model.User, error) {
	return s.updateUser(ctx, req)
}

var errServer = &api.APIError{Status: 500, Message: "boom"}

func newServices(t *testing.T, stub *stubAPI) (*Services, *cache.Cache) {
	t.Helper()
	c := cache.New()
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return New(stub, c, WithClock(func() time.Time { return now })), c
}

func seedBoard() model.FullBoard {
	return model.FullBoard{
		Board: model.Board{ID: "b1", Name: "Roadmap"},
		Columns: []model.Column{
			{ID: "A", Name: "Todo", Position: 0, Cards: []model.Card{
				{ID: "k1", Title: "One", ColumnID: "A", Position: 0},
				{ID: "k2", Title: "Two", ColumnID: "A", Position: 1},
			}},
			{ID: "B", Name: "Doing", Position: 1, Cards: []model.Card{
				{ID: "k3", Title: "Three", ColumnID: "B", Position: 0},
			}},
			{ID: "C", Name: "Done", Position: 2, Cards: []model.Card{}},
		},
	}
}

func encode(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func cachedBoard(t *testing.T, c *cache.Cache, id string) model.FullBoard {
	t.Helper()
	b, ok := cache.Get[model.FullBoard](c, cache.BoardDetail(id))
	require.True(t, ok)
	return b
}

func TestCreateBoard_TempIDThenServerID(t *testing.T) {
	inFlight := make(chan []model.Board, 1)
	var svc *Services
	stub := &stubAPI{
		createBoard: func(ctx context.Context, req model.CreateBoardRequest) (*model.Board, error) {
			boards, _ := svc.Boards.CachedList()
			inFlight <- boards
			return &model.Board{ID: "b1", Name: req.Name}, nil
		},
	}
	svc, c := newServices(t, stub)
	c.Set(cache.BoardLists, []model.Board{})

	created, err := svc.Boards.Create(context.Background(), model.CreateBoardRequest{Name: "Sprint 1"})
	require.NoError(t, err)
	assert.Equal(t, "b1", created.ID)

	during := <-inFlight
	require.Len(t, during, 1)
	assert.True(t, model.IsTempID(during[0].ID))
	assert.Equal(t, "Sprint 1", during[0].Name)

	after, _ := svc.Boards.CachedList()
	require.Len(t, after, 1)
	assert.Equal(t, "b1", after[0].ID)
	assert.Equal(t, "Sprint 1", after[0].Name)

	assert.True(t, c.IsStale(cache.BoardLists, time.Hour), "creation invalidates the list")
	detail := cachedBoard(t, c, "b1")
	assert.Empty(t, detail.Columns)
}

func TestCreateBoard_FailureRestoresList(t *testing.T) {
	stub := &stubAPI{
		createBoard: func(context.Context, model.CreateBoardRequest) (*model.Board, error) {
			return nil, errServer
		},
	}
	svc, c := newServices(t, stub)
	before := []model.Board{{ID: "b0", Name: "Existing"}}
	c.Set(cache.BoardLists, before)

	_, err := svc.Boards.Create(context.Background(), model.CreateBoardRequest{Name: "Sprint 1"})
	require.Error(t, err)
	assert.Equal(t, "boom", api.Message(err))

	after, _ := svc.Boards.CachedList()
	assert.JSONEq(t, encode(t, before), encode(t, after))
}

func TestCreateBoard_InvalidNeverCallsAPI(t *testing.T) {
	svc, _ := newServices(t, &stubAPI{})

	_, err := svc.Boards.Create(context.Background(), model.CreateBoardRequest{Name: ""})
	assert.True(t, validation.IsValidationError(err))
}

func TestUpdateBoard_PatchesListAndDetail(t *testing.T) {
	stub := &stubAPI{
		updateBoard: func(_ context.Context, id string, req model.UpdateBoardRequest) (*model.Board, error) {
			return &model.Board{ID: id, Name: *req.Name, OwnerID: "u1"}, nil
		},
	}
	svc, c := newServices(t, stub)
	c.Set(cache.BoardLists, []model.Board{{ID: "b1", Name: "Roadmap"}})
	c.Set(cache.BoardDetail("b1"), seedBoard())

	name := "Plan"
	_, err := svc.Boards.Update(context.Background(), "b1", model.UpdateBoardRequest{Name: &name})
	require.NoError(t, err)

	list, _ := svc.Boards.CachedList()
	assert.Equal(t, "Plan", list[0].Name)
	detail := cachedBoard(t, c, "b1")
	assert.Equal(t, "Plan", detail.Name)
	assert.Equal(t, "u1", detail.OwnerID)
	assert.Len(t, detail.Columns, 3, "columns survive a metadata update")
}

func TestDeleteBoard_RemovesScopedEntries(t *testing.T) {
	stub := &stubAPI{
		deleteBoard: func(_ context.Context, id string) (*model.DeleteResult, error) {
			return &model.DeleteResult{ID: id, Deleted: true}, nil
		},
	}
	svc, c := newServices(t, stub)
	c.Set(cache.BoardLists, []model.Board{{ID: "b1"}, {ID: "b2"}})
	c.Set(cache.BoardDetail("b1"), seedBoard())
	c.Set(cache.ColumnList("b1"), seedBoard().Columns)

	require.NoError(t, svc.Boards.Delete(context.Background(), "b1"))

	list, _ := svc.Boards.CachedList()
	assert.Equal(t, []model.Board{{ID: "b2"}}, list)
	_, ok := c.Get(cache.BoardDetail("b1"))
	assert.False(t, ok)
	_, ok = c.Get(cache.ColumnList("b1"))
	assert.False(t, ok)
}

func TestArchiveBoard(t *testing.T) {
	archivedAt := model.NewTimestamp(time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC))
	stub := &stubAPI{
		archiveBoard: func(_ context.Context, id string) (*model.Board, error) {
			return &model.Board{ID: id, Name: "Roadmap", ArchivedAt: &archivedAt}, nil
		},
	}
	svc, c := newServices(t, stub)
	c.Set(cache.BoardLists, []model.Board{{ID: "b1", Name: "Roadmap"}})
	c.Set(cache.BoardDetail("b1"), seedBoard())

	_, err := svc.Boards.Archive(context.Background(), "b1")
	require.NoError(t, err)

	list, _ := svc.Boards.CachedList()
	assert.Empty(t, FilterBoards(list, false))
	assert.Len(t, FilterBoards(list, true), 1)
	assert.True(t, cachedBoard(t, c, "b1").IsArchived())
}

func TestGetBoard_SortsByPosition(t *testing.T) {
	stub := &stubAPI{
		getBoard: func(_ context.Context, id string) (*model.FullBoard, error) {
			return &model.FullBoard{
				Board: model.Board{ID: id},
				Columns: []model.Column{
					{ID: "late", Position: 2},
					{ID: "early", Position: 0, Cards: []model.Card{
						{ID: "y", Position: 1}, {ID: "x", Position: 0},
					}},
				},
			}, nil
		},
	}
	svc, _ := newServices(t, stub)

	b, err := svc.Boards.Get(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, "early", b.Columns[0].ID)
	assert.Equal(t, "x", b.Columns[0].Cards[0].ID)
	assert.NotNil(t, b.Columns[1].Cards)
}

func TestCreateColumn_DefaultsPositionAndReconciles(t *testing.T) {
	var sent model.CreateColumnRequest
	stub := &stubAPI{
		createColumn: func(_ context.Context, boardID string, req model.CreateColumnRequest) (*model.Column, error) {
			sent = req
			return &model.Column{ID: "D", Name: req.Name, Position: *req.Position, BoardID: boardID}, nil
		},
	}
	svc, c := newServices(t, stub)
	c.Set(cache.BoardDetail("b1"), seedBoard())

	col, err := svc.Columns.Create(context.Background(), "b1", model.CreateColumnRequest{Name: "Review"})
	require.NoError(t, err)
	require.NotNil(t, sent.Position)
	assert.Equal(t, 3, *sent.Position)
	assert.Equal(t, "D", col.ID)

	b := cachedBoard(t, c, "b1")
	require.Len(t, b.Columns, 4)
	assert.Equal(t, "D", b.Columns[3].ID)
	assert.NotNil(t, b.Columns[3].Cards)
	assert.True(t, c.IsStale(cache.BoardDetail("b1"), time.Hour))
}

func TestCreateColumn_ExplicitZeroPositionIsKept(t *testing.T) {
	var sent model.CreateColumnRequest
	stub := &stubAPI{
		createColumn: func(_ context.Context, boardID string, req model.CreateColumnRequest) (*model.Column, error) {
			sent = req
			return &model.Column{ID: "D", Name: req.Name, Position: *req.Position, BoardID: boardID}, nil
		},
	}
	svc, c := newServices(t, stub)
	c.Set(cache.BoardDetail("b1"), seedBoard())

	zero := 0
	_, err := svc.Columns.Create(context.Background(), "b1", model.CreateColumnRequest{Name: "Inbox", Position: &zero})
	require.NoError(t, err)
	require.NotNil(t, sent.Position)
	assert.Equal(t, 0, *sent.Position)
}

func TestCreateColumn_FailureRestoresBoard(t *testing.T) {
	stub := &stubAPI{
		createColumn: func(context.Context, string, model.CreateColumnRequest) (*model.Column, error) {
			return nil, errServer
		},
	}
	svc, c := newServices(t, stub)
	before := seedBoard()
	c.Set(cache.BoardDetail("b1"), before)

	_, err := svc.Columns.Create(context.Background(), "b1", model.CreateColumnRequest{Name: "Review"})
	require.Error(t, err)
	assert.JSONEq(t, encode(t, before), encode(t, cachedBoard(t, c, "b1")))
}

func TestReorderColumns(t *testing.T) {
	var sent model.ReorderColumnsRequest
	stub := &stubAPI{
		reorderColumns: func(_ context.Context, _ string, req model.ReorderColumnsRequest) ([]model.Column, error) {
			sent = req
			return []model.Column{
				{ID: "C", Name: "Done", Position: 0},
				{ID: "A", Name: "Todo", Position: 1},
				{ID: "B", Name: "Doing", Position: 2},
			}, nil
		},
	}
	svc, c := newServices(t, stub)
	c.Set(cache.BoardDetail("b1"), seedBoard())

	_, err := svc.Columns.Reorder(context.Background(), "b1", []string{"C", "A", "B"})
	require.NoError(t, err)

	assert.Equal(t, []model.ColumnOrder{
		{ID: "C", Position: 0}, {ID: "A", Position: 1}, {ID: "B", Position: 2},
	}, sent.ColumnOrders)

	b := cachedBoard(t, c, "b1")
	ids := []string{b.Columns[0].ID, b.Columns[1].ID, b.Columns[2].ID}
	assert.Equal(t, []string{"C", "A", "B"}, ids)
	for i, col := range b.Columns {
		assert.Equal(t, i, col.Position)
	}
	assert.Len(t, b.Columns[1].Cards, 2, "cards stay with their column")
}

func TestMoveCard_ServerColumnIsAuthoritative(t *testing.T) {
	var sent model.UpdateCardRequest
	stub := &stubAPI{
		updateCard: func(_ context.Context, id string, req model.UpdateCardRequest) (*model.Card, error) {
			sent = req
			return &model.Card{ID: id, Title: "One", ColumnID: *req.ColumnID, Position: *req.Position}, nil
		},
	}
	svc, c := newServices(t, stub)
	c.Set(cache.BoardDetail("b1"), seedBoard())

	moved, err := svc.Cards.Move(context.Background(), "b1", "k1", "B")
	require.NoError(t, err)
	assert.Equal(t, "B", moved.ColumnID)
	require.NotNil(t, sent.Position)
	assert.Equal(t, model.Position(1), *sent.Position, "appended after the target's one card")

	b := cachedBoard(t, c, "b1")
	assert.Len(t, b.Columns[0].Cards, 1)
	assert.Equal(t, "k2", b.Columns[0].Cards[0].ID)

	count := 0
	for _, col := range b.Columns {
		for _, card := range col.Cards {
			if card.ID == "k1" {
				count++
				assert.Equal(t, "B", col.ID)
			}
		}
	}
	assert.Equal(t, 1, count)
}

func TestMoveCard_ServerPicksDifferentColumn(t *testing.T) {
	stub := &stubAPI{
		updateCard: func(_ context.Context, id string, _ model.UpdateCardRequest) (*model.Card, error) {
			return &model.Card{ID: id, Title: "One", ColumnID: "C"}, nil
		},
	}
	svc, c := newServices(t, stub)
	c.Set(cache.BoardDetail("b1"), seedBoard())

	_, err := svc.Cards.Move(context.Background(), "b1", "k1", "B")
	require.NoError(t, err)

	b := cachedBoard(t, c, "b1")
	assert.Len(t, b.Columns[1].Cards, 1)
	require.Len(t, b.Columns[2].Cards, 1)
	assert.Equal(t, "k1", b.Columns[2].Cards[0].ID)
}

func TestMoveCard_FailureRestoresBoard(t *testing.T) {
	stub := &stubAPI{
		updateCard: func(context.Context, string, model.UpdateCardRequest) (*model.Card, error) {
			return nil, errors.New("connection reset")
		},
	}
	svc, c := newServices(t, stub)
	before := seedBoard()
	c.Set(cache.BoardDetail("b1"), before)
	c.Set(cache.CardDetail("k1"), before.Columns[0].Cards[0])

	_, err := svc.Cards.Move(context.Background(), "b1", "k1", "B")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "moving card")

	assert.JSONEq(t, encode(t, before), encode(t, cachedBoard(t, c, "b1")))
	card, _ := cache.Get[model.Card](c, cache.CardDetail("k1"))
	assert.Equal(t, "A", card.ColumnID)
}

func TestMoveCard_SameColumnIsNoop(t *testing.T) {
	svc, c := newServices(t, &stubAPI{})
	c.Set(cache.BoardDetail("b1"), seedBoard())

	card, err := svc.Cards.Move(context.Background(), "b1", "k1", "A")
	require.NoError(t, err)
	assert.Equal(t, "k1", card.ID)
}

func TestCreateCard_PositionAndTempReplacement(t *testing.T) {
	seen := make(chan model.FullBoard, 1)
	var svc *Services
	var c *cache.Cache
	stub := &stubAPI{
		createCard: func(_ context.Context, columnID string, req model.CreateCardRequest) (*model.Card, error) {
			b, _ := cache.Get[model.FullBoard](c, cache.BoardDetail("b1"))
			seen <- b
			return &model.Card{ID: "k9", Title: req.Title, ColumnID: columnID, Position: req.Position}, nil
		},
	}
	svc, c = newServices(t, stub)
	c.Set(cache.BoardDetail("b1"), seedBoard())

	card, err := svc.Cards.Create(context.Background(), "b1", "A", model.CreateCardRequest{Title: "Nine"})
	require.NoError(t, err)
	assert.Equal(t, model.Position(2), card.Position)

	during := <-seen
	require.Len(t, during.Columns[0].Cards, 3)
	assert.True(t, model.IsTempID(during.Columns[0].Cards[2].ID))

	b := cachedBoard(t, c, "b1")
	require.Len(t, b.Columns[0].Cards, 3)
	assert.Equal(t, "k9", b.Columns[0].Cards[2].ID)
	for _, col := range b.Columns {
		for _, k := range col.Cards {
			assert.False(t, model.IsTempID(k.ID))
		}
	}

	detail, ok := cache.Get[model.Card](c, cache.CardDetail("k9"))
	require.True(t, ok)
	assert.Equal(t, "Nine", detail.Title)
}

func TestDeleteCard(t *testing.T) {
	stub := &stubAPI{
		deleteCard: func(_ context.Context, id string) (*model.DeleteResult, error) {
			return &model.DeleteResult{ID: id, Deleted: true}, nil
		},
	}
	svc, c := newServices(t, stub)
	c.Set(cache.BoardDetail("b1"), seedBoard())
	c.Set(cache.CardDetail("k3"), model.Card{ID: "k3"})

	require.NoError(t, svc.Cards.Delete(context.Background(), "b1", "k3"))
	assert.Empty(t, cachedBoard(t, c, "b1").Columns[1].Cards)
	_, ok := c.Get(cache.CardDetail("k3"))
	assert.False(t, ok)
}

func TestUpdateProfile(t *testing.T) {
	stub := &stubAPI{
		updateUser: func(_ context.Context, req model.UpdateUserRequest) (*model.User, error) {
			return &model.User{ID: "u1", Email: "ada@example.com", Name: req.Name}, nil
		},
	}
	svc, c := newServices(t, stub)
	c.Set(cache.UserMe, model.User{ID: "u1", Email: "ada@example.com"})

	name := "Ada"
	u, err := svc.Users.UpdateProfile(context.Background(), model.UpdateUserRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.DisplayName())

	cached, _ := cache.Get[model.User](c, cache.UserMe)
	assert.Equal(t, "Ada", cached.DisplayName())
	assert.False(t, c.IsStale(cache.UserMe, time.Hour), "updates do not force a refetch")

	bad := "not a url"
	_, err = svc.Users.UpdateProfile(context.Background(), model.UpdateUserRequest{AvatarURL: &bad})
	assert.True(t, validation.IsValidationError(err))
}

// failingAPI rejects every mutation.
func failingAPI() *stubAPI {
	board := func(context.Context, string) (*model.Board, error) { return nil, errServer }
	deleted := func(context.Context, string) (*model.DeleteResult, error) { return nil, errServer }
	return &stubAPI{
		createBoard: func(context.Context, model.CreateBoardRequest) (*model.Board, error) { return nil, errServer },
		updateBoard: func(context.Context, string, model.UpdateBoardRequest) (*model.Board, error) {
			return nil, errServer
		},
		deleteBoard:    deleted,
		archiveBoard:   board,
		unarchiveBoard: board,
		createColumn: func(context.Context, string, model.CreateColumnRequest) (*model.Column, error) {
			return nil, errServer
		},
		updateColumn: func(context.Context, string, model.UpdateColumnRequest) (*model.Column, error) {
			return nil, errServer
		},
		deleteColumn: deleted,
		reorderColumns: func(context.Context, string, model.ReorderColumnsRequest) ([]model.Column, error) {
			return nil, errServer
		},
		createCard: func(context.Context, string, model.CreateCardRequest) (*model.Card, error) { return nil, errServer },
		updateCard: func(context.Context, string, model.UpdateCardRequest) (*model.Card, error) { return nil, errServer },
		deleteCard: deleted,
		updateUser: func(context.Context, model.UpdateUserRequest) (*model.User, error) { return nil, errServer },
	}
}

// seedAll fills every key a board mutation can touch.
func seedAll(c *cache.Cache) {
	archivedAt := model.NewTimestamp(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	b := seedBoard()
	c.Set(cache.BoardLists, []model.Board{b.Board, {ID: "b2", Name: "Old", ArchivedAt: &archivedAt}})
	c.Set(cache.BoardDetail("b1"), b)
	c.Set(cache.ColumnList("b1"), b.Columns)

	var cards []model.Card
	for _, col := range b.Columns {
		cards = append(cards, col.Cards...)
	}
	c.Set(cache.CardList("b1"), cards)
	c.Set(cache.CardDetail("k1"), cards[0])
	c.Set(cache.UserMe, model.User{ID: "u1", Email: "ada@example.com"})
}

// dump encodes every cached value by key.
func dump(t *testing.T, c *cache.Cache) map[string]string {
	t.Helper()
	out := make(map[string]string)
	for _, k := range c.Keys(nil) {
		v, ok := c.Get(k)
		require.True(t, ok)
		out[k.String()] = encode(t, v)
	}
	return out
}

func TestMutationFailureRestoresCache(t *testing.T) {
	name := "Renamed"
	tests := []struct {
		name string
		op   func(ctx context.Context, svc *Services) error
	}{
		{"create board", func(ctx context.Context, svc *Services) error {
			_, err := svc.Boards.Create(ctx, model.CreateBoardRequest{Name: "Sprint"})
			return err
		}},
		{"update board", func(ctx context.Context, svc *Services) error {
			_, err := svc.Boards.Update(ctx, "b1", model.UpdateBoardRequest{Name: &name})
			return err
		}},
		{"delete board", func(ctx context.Context, svc *Services) error {
			return svc.Boards.Delete(ctx, "b1")
		}},
		{"archive board", func(ctx context.Context, svc *Services) error {
			_, err := svc.Boards.Archive(ctx, "b1")
			return err
		}},
		{"unarchive board", func(ctx context.Context, svc *Services) error {
			_, err := svc.Boards.Unarchive(ctx, "b2")
			return err
		}},
		{"create column", func(ctx context.Context, svc *Services) error {
			_, err := svc.Columns.Create(ctx, "b1", model.CreateColumnRequest{Name: "Review"})
			return err
		}},
		{"update column", func(ctx context.Context, svc *Services) error {
			_, err := svc.Columns.Update(ctx, "b1", "A", model.UpdateColumnRequest{Name: &name})
			return err
		}},
		{"delete column", func(ctx context.Context, svc *Services) error {
			return svc.Columns.Delete(ctx, "b1", "A")
		}},
		{"reorder columns", func(ctx context.Context, svc *Services) error {
			_, err := svc.Columns.Reorder(ctx, "b1", []string{"C", "A", "B"})
			return err
		}},
		{"create card", func(ctx context.Context, svc *Services) error {
			_, err := svc.Cards.Create(ctx, "b1", "A", model.CreateCardRequest{Title: "New"})
			return err
		}},
		{"update card", func(ctx context.Context, svc *Services) error {
			_, err := svc.Cards.Update(ctx, "b1", "k1", model.UpdateCardRequest{Title: &name})
			return err
		}},
		{"move card", func(ctx context.Context, svc *Services) error {
			_, err := svc.Cards.Move(ctx, "b1", "k1", "C")
			return err
		}},
		{"delete card", func(ctx context.Context, svc *Services) error {
			return svc.Cards.Delete(ctx, "b1", "k1")
		}},
		{"update profile", func(ctx context.Context, svc *Services) error {
			_, err := svc.Users.UpdateProfile(ctx, model.UpdateUserRequest{Name: &name})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, c := newServices(t, failingAPI())
			seedAll(c)
			before := dump(t, c)

			err := tt.op(context.Background(), svc)
			require.Error(t, err)
			assert.Equal(t, "boom", api.Message(err))

			after := dump(t, c)
			require.Len(t, after, len(before))
			for k, v := range before {
				assert.JSONEq(t, v, after[k], k)
			}
		})
	}
}

func TestMutationFailureAfterClearLeavesCacheEmpty(t *testing.T) {
	var c *cache.Cache
	stub := &stubAPI{
		updateCard: func(context.Context, string, model.UpdateCardRequest) (*model.Card, error) {
			c.Clear()
			return nil, errServer
		},
	}
	svc, c := newServices(t, stub)
	seedAll(c)

	title := "Renamed"
	_, err := svc.Cards.Update(context.Background(), "b1", "k1", model.UpdateCardRequest{Title: &title})
	require.Error(t, err)
	assert.Empty(t, c.Keys(nil))
}

func TestMutationSuccessAfterClearLeavesCacheEmpty(t *testing.T) {
	var c *cache.Cache
	stub := &stubAPI{
		createBoard: func(_ context.Context, req model.CreateBoardRequest) (*model.Board, error) {
			c.Clear()
			return &model.Board{ID: "b9", Name: req.Name}, nil
		},
	}
	svc, c := newServices(t, stub)
	c.Set(cache.BoardLists, []model.Board{})

	created, err := svc.Boards.Create(context.Background(), model.CreateBoardRequest{Name: "Sprint"})
	require.NoError(t, err)
	assert.Equal(t, "b9", created.ID)
	assert.Empty(t, c.Keys(nil))
}
