// Package service runs queries and optimistic mutations against the query
// cache. Every mutation follows the same lifecycle: cancel fetches for the
// affected keys, snapshot them, apply the optimistic change, call the API,
// then reconcile on success or restore the snapshot on failure.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nhle/trakker/internal/cache"
	"github.com/nhle/trakker/internal/model"
	"github.com/nhle/trakker/internal/validation"
)

// DefaultStaleTime is how long a fetched entry is served without refetching.
const DefaultStaleTime = 5 * time.Minute

// API is the subset of the REST client the services call.
type API interface {
	GetBoards(ctx context.Context) ([]model.Board, error)
	GetBoard(ctx context.Context, id string) (*model.FullBoard, error)
	CreateBoard(ctx context.Context, req model.CreateBoardRequest) (*model.Board, error)
	UpdateBoard(ctx context.Context, id string, req model.UpdateBoardRequest) (*model.Board, error)
	DeleteBoard(ctx context.Context, id string) (*model.DeleteResult, error)
	ArchiveBoard(ctx context.Context, id string) (*model.Board, error)
	UnarchiveBoard(ctx context.Context, id string) (*model.Board, error)

	GetColumns(ctx context.Context, boardID string) ([]model.Column, error)
	CreateColumn(ctx context.Context, boardID string, req model.CreateColumnRequest) (*model.Column, error)
	UpdateColumn(ctx context.Context, id string, req model.UpdateColumnRequest) (*model.Column, error)
	DeleteColumn(ctx context.Context, id string) (*model.DeleteResult, error)
	ReorderColumns(ctx context.Context, boardID string, req model.ReorderColumnsRequest) ([]model.Column, error)

	GetCards(ctx context.Context, boardID string) ([]model.Card, error)
	GetCard(ctx context.Context, id string) (*model.Card, error)
	CreateCard(ctx context.Context, columnID string, req model.CreateCardRequest) (*model.Card, error)
	UpdateCard(ctx context.Context, id string, req model.UpdateCardRequest) (*model.Card, error)
	DeleteCard(ctx context.Context, id string) (*model.DeleteResult, error)

	GetCurrentUser(ctx context.Context) (*model.User, error)
	UpdateCurrentUser(ctx context.Context, req model.UpdateUserRequest) (*model.User, error)
}

// Option configures the services.
type Option func(*base)

// WithStaleTime overrides DefaultStaleTime.
func WithStaleTime(d time.Duration) Option {
	return func(b *base) { b.staleTime = d }
}

// WithLogger sets the logger. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(b *base) { b.log = l }
}

// WithClock overrides time.Now for optimistic timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *base) { b.now = now }
}

// Services groups the per-resource services over one cache.
type Services struct {
	Boards  *BoardService
	Columns *ColumnService
	Cards   *CardService
	Users   *UserService
}

// New wires the services to api and c.
func New(api API, c *cache.Cache, opts ...Option) *Services {
	b := &base{
		api:       api,
		cache:     c,
		validator: validation.New(),
		log:       slog.New(slog.DiscardHandler),
		staleTime: DefaultStaleTime,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.With("component", "service")

	return &Services{
		Boards:  &BoardService{base: b},
		Columns: &ColumnService{base: b},
		Cards:   &CardService{base: b},
		Users:   &UserService{base: b},
	}
}

type base struct {
	api       API
	cache     *cache.Cache
	validator *validation.Validator
	log       *slog.Logger
	staleTime time.Duration
	now       func() time.Time
}

func (b *base) timestamp() model.Timestamp {
	return model.NewTimestamp(b.now())
}

// mutation describes one optimistic change.
type mutation[T any] struct {
	name string
	// cancel lists key prefixes whose in-flight fetches are aborted.
	cancel []cache.Key
	// snapshot lists the exact keys restored on failure.
	snapshot   []cache.Key
	optimistic func()
	call       func(ctx context.Context) (T, error)
	success    func(T)
	// invalidate lists prefixes marked stale once the call settles.
	invalidate []cache.Key
}

func run[T any](ctx context.Context, b *base, m mutation[T]) (T, error) {
	for _, k := range m.cancel {
		b.cache.Cancel(k)
	}
	snap := b.cache.Snapshot(m.snapshot...)
	epoch := b.cache.Epoch()

	if m.optimistic != nil {
		m.optimistic()
	}

	res, err := m.call(ctx)

	// A Clear while the call was in flight means the session ended; the
	// result belongs to it and must not be written into the new one.
	settled := b.cache.Epoch() == epoch

	switch {
	case err != nil:
		if b.cache.Restore(snap) {
			b.log.Warn("mutation failed, rolled back", "op", m.name, "error", err)
		} else {
			b.log.Warn("mutation failed after cache was cleared", "op", m.name, "error", err)
		}
	case !settled:
		b.log.Debug("mutation settled after cache was cleared", "op", m.name)
	case m.success != nil:
		m.success(res)
	}

	if settled {
		for _, k := range m.invalidate {
			b.cache.Invalidate(k)
		}
	}

	if err != nil {
		var zero T
		return zero, fmt.Errorf("%s: %w", m.name, err)
	}
	b.log.Debug("mutation applied", "op", m.name)
	return res, nil
}

func (b *base) validate(req any) error {
	return b.validator.Validate(req)
}
