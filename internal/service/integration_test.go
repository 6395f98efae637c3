package service_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/trakker/internal/api"
	"github.com/nhle/trakker/internal/cache"
	"github.com/nhle/trakker/internal/model"
	"github.com/nhle/trakker/internal/service"
	"github.com/nhle/trakker/tests/testutil"
)

func TestKanbanAgainstFakeAPI(t *testing.T) {
	f := testutil.NewSignedInFakeAPI(t, "ada@example.com")
	c := cache.New()
	svc := service.New(f.Client, c)
	ctx := context.Background()

	board, err := svc.Boards.Create(ctx, model.CreateBoardRequest{Name: "Sprint 1"})
	require.NoError(t, err)
	assert.False(t, model.IsTempID(board.ID))

	todo, err := svc.Columns.Create(ctx, board.ID, model.CreateColumnRequest{Name: "Todo"})
	require.NoError(t, err)
	done, err := svc.Columns.Create(ctx, board.ID, model.CreateColumnRequest{Name: "Done"})
	require.NoError(t, err)
	assert.Equal(t, 1, done.Position)

	// Column creation invalidated the board, so Get refetches it.
	_, err = svc.Boards.Get(ctx, board.ID)
	require.NoError(t, err)

	first, err := svc.Cards.Create(ctx, board.ID, todo.ID, model.CreateCardRequest{Title: "Design"})
	require.NoError(t, err)
	_, err = svc.Boards.Get(ctx, board.ID)
	require.NoError(t, err)
	second, err := svc.Cards.Create(ctx, board.ID, todo.ID, model.CreateCardRequest{Title: "Build"})
	require.NoError(t, err)
	assert.Equal(t, model.Position(1), second.Position)

	_, err = svc.Boards.Get(ctx, board.ID)
	require.NoError(t, err)
	moved, err := svc.Cards.Move(ctx, board.ID, first.ID, done.ID)
	require.NoError(t, err)
	assert.Equal(t, done.ID, moved.ColumnID)

	cached, ok := svc.Boards.Cached(board.ID)
	require.True(t, ok)
	require.Len(t, cached.Columns, 2)
	assert.Len(t, cached.Columns[0].Cards, 1)
	require.Len(t, cached.Columns[1].Cards, 1)
	assert.Equal(t, first.ID, cached.Columns[1].Cards[0].ID)

	// The cache agrees with a fresh read from the server.
	fresh, err := svc.Boards.Refresh(ctx, board.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, fresh.Columns[1].Cards[0].ID)
	assert.Equal(t, second.ID, fresh.Columns[0].Cards[0].ID)

	reordered, err := svc.Columns.Reorder(ctx, board.ID, []string{done.ID, todo.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{done.ID, todo.ID}, []string{reordered[0].ID, reordered[1].ID})
}

func TestServerFailureRollsBack(t *testing.T) {
	f := testutil.NewSignedInFakeAPI(t, "ada@example.com")
	c := cache.New()
	svc := service.New(f.Client, c)
	ctx := context.Background()

	_, err := svc.Boards.List(ctx)
	require.NoError(t, err)

	f.Server.FailNext(http.StatusInternalServerError, "boom")
	_, err = svc.Boards.Create(ctx, model.CreateBoardRequest{Name: "Doomed"})
	require.Error(t, err)
	assert.Equal(t, "boom", api.Message(err))

	boards, ok := svc.Boards.CachedList()
	require.True(t, ok)
	assert.Empty(t, boards)
}
