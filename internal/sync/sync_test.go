package sync

import (
	"context"
	"errors"
	gosync "sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/trakker/internal/api"
	"github.com/nhle/trakker/internal/cache"
	"github.com/nhle/trakker/internal/model"
)

type fakeBoards struct {
	gets      atomic.Int32
	refreshes atomic.Int32
	err       error
}

func (f *fakeBoards) Get(_ context.Context, id string) (model.FullBoard, error) {
	f.gets.Add(1)
	return model.FullBoard{Board: model.Board{ID: id}}, f.err
}

func (f *fakeBoards) Refresh(_ context.Context, id string) (model.FullBoard, error) {
	f.refreshes.Add(1)
	return model.FullBoard{Board: model.Board{ID: id, Name: "fresh"}}, f.err
}

func TestPoller_RefreshForcesFetch(t *testing.T) {
	boards := &fakeBoards{}
	p := New(boards, time.Hour)
	p.Watch("b1")

	wait := p.Start()
	defer p.Stop()
	p.Refresh()

	msg, ok := wait().(BoardRefreshedMsg)
	require.True(t, ok)
	assert.Equal(t, "b1", msg.BoardID)
	assert.Equal(t, "fresh", msg.Board.Name)
	assert.NoError(t, msg.Error)
	assert.Equal(t, int32(1), boards.refreshes.Load())

	st := p.Status()
	assert.Equal(t, SyncIdle, st.State)
	assert.False(t, st.LastSync.IsZero())
}

func TestPoller_TickUsesStaleAwareGet(t *testing.T) {
	boards := &fakeBoards{}
	p := New(boards, 10*time.Millisecond)
	p.Watch("b1")

	wait := p.Start()
	defer p.Stop()

	msg, ok := wait().(BoardRefreshedMsg)
	require.True(t, ok)
	assert.Equal(t, "b1", msg.BoardID)
	assert.GreaterOrEqual(t, boards.gets.Load(), int32(1))
	assert.Zero(t, boards.refreshes.Load())
}

func TestPoller_UnauthorizedMarksExpired(t *testing.T) {
	boards := &fakeBoards{err: &api.APIError{Status: 401, Message: "expired"}}
	p := New(boards, time.Hour)
	p.Watch("b1")

	wait := p.Start()
	defer p.Stop()
	p.Refresh()

	msg := wait().(BoardRefreshedMsg)
	assert.True(t, msg.Expired)
	assert.Equal(t, SyncError, p.Status().State)
}

func TestPoller_CanceledFetchIsSilent(t *testing.T) {
	boards := &fakeBoards{err: cache.ErrCanceled}
	p := New(boards, time.Hour)
	p.Watch("b1")
	p.fetch(true)

	select {
	case msg := <-p.resultCh:
		t.Fatalf("unexpected result %+v", msg)
	default:
	}
	assert.Equal(t, SyncIdle, p.Status().State)
}

func TestPoller_NothingWatched(t *testing.T) {
	boards := &fakeBoards{}
	p := New(boards, time.Hour)
	p.fetch(true)
	assert.Zero(t, boards.refreshes.Load())
}

func TestPoller_StopReleasesWaiter(t *testing.T) {
	p := New(&fakeBoards{}, time.Hour)
	wait := p.Start()
	p.Stop()
	assert.Nil(t, wait())
}

type memoryCacheStore struct {
	mu      gosync.Mutex
	saves   int
	records []cache.Record
	loadErr error
}

func (m *memoryCacheStore) SaveCache(_ context.Context, records []cache.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.records = records
	return nil
}

func (m *memoryCacheStore) LoadCache(context.Context) ([]cache.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records, m.loadErr
}

func (m *memoryCacheStore) snapshot() (int, []cache.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves, m.records
}

func TestPersister_DebouncesAndFlushesOnStop(t *testing.T) {
	c := cache.New()
	store := &memoryCacheStore{}
	p := NewPersister(c, store, time.Hour, nil)
	p.Start()

	c.Set(cache.UserMe, model.User{ID: "u1"})
	c.Set(cache.BoardLists, []model.Board{{ID: "b1"}})

	saves, _ := store.snapshot()
	assert.Zero(t, saves, "nothing written before the debounce fires")

	p.Stop()
	saves, records := store.snapshot()
	assert.Equal(t, 1, saves)
	assert.Len(t, records, 2)
}

func TestPersister_WritesAfterDebounce(t *testing.T) {
	c := cache.New()
	store := &memoryCacheStore{}
	p := NewPersister(c, store, 10*time.Millisecond, nil)
	p.Start()
	defer p.Stop()

	c.Set(cache.UserMe, model.User{ID: "u1"})

	require.Eventually(t, func() bool {
		saves, _ := store.snapshot()
		return saves >= 1
	}, time.Second, 5*time.Millisecond)
}

func TestHydrate(t *testing.T) {
	src := cache.New()
	src.Set(cache.BoardDetail("b1"), model.FullBoard{Board: model.Board{ID: "b1", Name: "Roadmap"}})
	records, err := src.Export()
	require.NoError(t, err)

	dst := cache.New()
	n, err := Hydrate(context.Background(), dst, &memoryCacheStore{records: records})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	b, ok := cache.Get[model.FullBoard](dst, cache.BoardDetail("b1"))
	require.True(t, ok)
	assert.Equal(t, "Roadmap", b.Name)
	assert.True(t, dst.IsStale(cache.BoardDetail("b1"), time.Hour))

	_, err = Hydrate(context.Background(), cache.New(), &memoryCacheStore{loadErr: errors.New("disk")})
	assert.Error(t, err)
}
