// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nhle/trakker/internal/model"
	"github.com/nhle/trakker/internal/store"
)

// NewTestStore opens an in-memory SQLite store with every migration
// applied. The store is closed when the test ends.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err, "opening test store")

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// SeedCardMeta writes metas into s, failing the test on error.
func SeedCardMeta(t *testing.T, s store.Store, metas ...model.CardMeta) {
	t.Helper()

	for _, m := range metas {
		require.NoError(t, s.UpsertCardMeta(context.Background(), m), "seeding card %s", m.CardID)
	}
}
