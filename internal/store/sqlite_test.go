package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/trakker/internal/cache"
	"github.com/nhle/trakker/internal/model"
	"github.com/nhle/trakker/internal/store"
	"github.com/nhle/trakker/tests/testutil"
)

func TestMigrations_ApplyAll(t *testing.T) {
	s := testutil.NewTestStore(t)

	v, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestMigrations_ReopenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trakker.db")

	s, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveCache(context.Background(), []cache.Record{
		{Key: "user/me", Value: []byte(`{"id":"u1"}`), UpdatedAt: time.Now()},
	}))
	require.NoError(t, s.Close())

	s, err = store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	records, err := s.LoadCache(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.JSONEq(t, `{"id":"u1"}`, string(records[0].Value))
}

func TestCache_SaveLoadClear(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	at := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveCache(ctx, []cache.Record{
		{Key: "board/list", Value: []byte(`[{"id":"b1"}]`), UpdatedAt: at},
		{Key: "board/detail/b1", Value: []byte(`{"id":"b1","columns":[]}`), UpdatedAt: at},
	}))

	// A second save replaces the whole snapshot.
	require.NoError(t, s.SaveCache(ctx, []cache.Record{
		{Key: "user/me", Value: []byte(`{"id":"u1"}`), UpdatedAt: at},
	}))

	records, err := s.LoadCache(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "user/me", records[0].Key)
	assert.True(t, at.Equal(records[0].UpdatedAt))

	require.NoError(t, s.ClearCache(ctx))
	records, err = s.LoadCache(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCache_RoundTripThroughQueryCache(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	src := cache.New()
	src.Set(cache.BoardLists, []model.Board{{ID: "b1", Name: "Roadmap"}})
	src.Set(cache.UserMe, model.User{ID: "u1", Email: "ada@example.com"})
	records, err := src.Export()
	require.NoError(t, err)
	require.NoError(t, s.SaveCache(ctx, records))

	loaded, err := s.LoadCache(ctx)
	require.NoError(t, err)
	dst := cache.New()
	require.NoError(t, dst.Import(loaded))

	boards, ok := cache.Get[[]model.Board](dst, cache.BoardLists)
	require.True(t, ok)
	assert.Equal(t, "Roadmap", boards[0].Name)
}

func TestCardMeta_UpsertGetDelete(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	due := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.UpsertCardMeta(ctx, model.CardMeta{
		CardID:  "k1",
		Tags:    []string{"infra", " ", "api"},
		DueDate: &due,
	}))

	meta, err := s.GetCardMeta(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, model.PriorityMedium, meta.Priority)
	assert.Equal(t, []string{"api", "infra"}, meta.Tags)
	require.NotNil(t, meta.DueDate)
	assert.True(t, due.Equal(*meta.DueDate))

	require.NoError(t, s.UpsertCardMeta(ctx, model.CardMeta{
		CardID:   "k1",
		Priority: model.PriorityHigh,
		Tags:     []string{"api"},
	}))
	meta, err = s.GetCardMeta(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, model.PriorityHigh, meta.Priority)
	assert.Equal(t, []string{"api"}, meta.Tags)
	assert.Nil(t, meta.DueDate)

	require.NoError(t, s.DeleteCardMeta(ctx, "k1"))
	_, err = s.GetCardMeta(ctx, "k1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteCardMeta(ctx, "k1"), store.ErrNotFound)
}

func TestCardMeta_Validation(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	assert.Error(t, s.UpsertCardMeta(ctx, model.CardMeta{CardID: ""}))
	assert.Error(t, s.UpsertCardMeta(ctx, model.CardMeta{CardID: "k1", Priority: "urgent"}))
}

func TestCardMeta_Batch(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertCardMeta(ctx, model.CardMeta{CardID: "k1", Priority: model.PriorityLow}))
	require.NoError(t, s.UpsertCardMeta(ctx, model.CardMeta{CardID: "k2", Priority: model.PriorityHigh, Tags: []string{"x"}}))

	metas, err := s.GetCardMetas(ctx, []string{"k1", "k2", "k3"})
	require.NoError(t, err)
	assert.Len(t, metas, 2)
	assert.Equal(t, model.PriorityLow, metas["k1"].Priority)
	assert.Equal(t, []string{"x"}, metas["k2"].Tags)

	empty, err := s.GetCardMetas(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
