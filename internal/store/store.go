package store

import (
	"context"
	"errors"

	"github.com/nhle/trakker/internal/cache"
	"github.com/nhle/trakker/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store defines local persistence: the query cache snapshot kept across
// restarts and the legacy per-card metadata.
type Store interface {
	// === Query cache ===

	SaveCache(ctx context.Context, records []cache.Record) error
	LoadCache(ctx context.Context) ([]cache.Record, error)
	ClearCache(ctx context.Context) error

	// === Card metadata (legacy) ===

	UpsertCardMeta(ctx context.Context, meta model.CardMeta) error
	GetCardMeta(ctx context.Context, cardID string) (*model.CardMeta, error)
	GetCardMetas(ctx context.Context, cardIDs []string) (map[string]model.CardMeta, error)
	DeleteCardMeta(ctx context.Context, cardID string) error
}
