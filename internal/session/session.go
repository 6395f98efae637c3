// Package session persists the authentication tokens between runs.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/99designs/keyring"
	"github.com/golang-jwt/jwt/v5"

	"github.com/nhle/trakker/internal/model"
)

// StorageKey is the keyring item holding the persisted auth state.
const StorageKey = "trakker-auth-store"

// persisted is the on-disk envelope: {"state": {...}, "version": 0}.
type persisted struct {
	State   model.Session `json:"state"`
	Version int           `json:"version"`
}

// Store reads and writes the session blob in a keyring. It is safe for
// concurrent use; the HTTP client reads it on every request while the
// refresher and the auth store write it.
type Store struct {
	ring keyring.Keyring

	mu     sync.RWMutex
	cached *model.Session
}

// NewStore creates a session store backed by ring.
func NewStore(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// Load returns the persisted session. A missing or unreadable item yields
// an empty, unauthenticated session.
func (s *Store) Load() (model.Session, error) {
	s.mu.RLock()
	if s.cached != nil {
		sess := *s.cached
		s.mu.RUnlock()
		return sess, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.ring.Get(StorageKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		s.cached = &model.Session{}
		return model.Session{}, nil
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("reading session: %w", err)
	}

	var p persisted
	if err := json.Unmarshal(item.Data, &p); err != nil {
		// A corrupt blob is treated like no session at all.
		s.cached = &model.Session{}
		return model.Session{}, nil
	}

	s.cached = &p.State
	return p.State, nil
}

// Save persists sess, replacing whatever was stored.
func (s *Store) Save(sess model.Session) error {
	data, err := json.Marshal(persisted{State: sess})
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ring.Set(keyring.Item{
		Key:         StorageKey,
		Data:        data,
		Label:       "Trakker session",
		Description: "Trakker access and refresh tokens",
	}); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}

	saved := sess
	s.cached = &saved
	return nil
}

// Clear removes the persisted session.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cached = &model.Session{}
	err := s.ring.Remove(StorageKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("removing session: %w", err)
	}
	return nil
}

// AccessTokenExpiry reads the exp claim of a JWT access token without
// verifying its signature. It is used for display only; the server stays
// authoritative about validity.
func AccessTokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
