// Package auth tracks the email one-time-password sign-in flow and owns the
// session lifecycle. Signing out clears every cached resource.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nhle/trakker/internal/api"
	"github.com/nhle/trakker/internal/cache"
	"github.com/nhle/trakker/internal/model"
	"github.com/nhle/trakker/internal/validation"
)

// State is where the sign-in flow stands.
type State int

const (
	Anonymous State = iota
	OTPRequested
	Authenticated
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case OTPRequested:
		return "otp-requested"
	case Authenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// API is the part of the REST client the sign-in flow needs.
type API interface {
	StartLogin(ctx context.Context, email string) error
	VerifyLogin(ctx context.Context, email, otp string) (*model.TokenPair, error)
}

// Sessions persists the authenticated session.
type Sessions interface {
	Load() (model.Session, error)
	Save(model.Session) error
	Clear() error
}

// CacheStore is the on-disk copy of the query cache, wiped on sign-out.
type CacheStore interface {
	ClearCache(ctx context.Context) error
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithCacheStore wipes persisted cache entries on sign-out.
func WithCacheStore(cs CacheStore) Option {
	return func(s *Store) { s.persisted = cs }
}

// Store is safe for concurrent use. Loading and error state are kept in
// memory only; the session store holds just the tokens and the flag.
type Store struct {
	api       API
	sessions  Sessions
	cache     *cache.Cache
	persisted CacheStore
	validator *validation.Validator
	log       *slog.Logger

	mu      sync.RWMutex
	state   State
	email   string
	loading bool
	err     string
}

// NewStore restores the persisted session, if any.
func NewStore(a API, sessions Sessions, c *cache.Cache, opts ...Option) *Store {
	s := &Store{
		api:       a,
		sessions:  sessions,
		cache:     c,
		validator: validation.New(),
		log:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "auth")

	sess, err := sessions.Load()
	if err != nil {
		s.log.Warn("loading session", "error", err)
	}
	if sess.IsAuthenticated && sess.AccessToken != "" {
		s.state = Authenticated
	}
	return s
}

// StartLogin asks the server to email a code to email. A malformed address
// fails locally without a request. On failure the error is retained and
// the state is unchanged.
func (s *Store) StartLogin(ctx context.Context, email string) bool {
	if err := s.validator.Var("email", email, "required,email"); err != nil {
		s.fail("Please enter a valid email address")
		return false
	}

	s.begin()
	err := s.api.StartLogin(ctx, email)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = failureMessage(err, "Failed to send code")
		s.log.Warn("start login failed", "error", err)
		return false
	}
	if s.state != Authenticated {
		s.state = OTPRequested
	}
	s.email = email
	return true
}

// VerifyLogin exchanges the emailed code for tokens and persists them.
func (s *Store) VerifyLogin(ctx context.Context, email, otp string) bool {
	if err := s.validator.Validate(model.VerifyLoginRequest{Email: email, OTP: otp}); err != nil {
		s.fail("Please enter the code from your email")
		return false
	}

	s.begin()
	pair, err := s.api.VerifyLogin(ctx, email, otp)
	if err == nil {
		err = s.sessions.Save(model.Session{
			IsAuthenticated: true,
			AccessToken:     pair.AccessToken,
			RefreshToken:    pair.RefreshToken,
		})
		if err != nil {
			err = fmt.Errorf("saving session: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = failureMessage(err, "Invalid or expired code")
		s.log.Warn("verify login failed", "error", err)
		return false
	}
	// Anything cached before sign-in belongs to no one.
	s.cache.Clear()
	s.state = Authenticated
	s.email = email
	s.err = ""
	s.log.Info("signed in")
	return true
}

// CancelLogin abandons a pending code and returns to the email step.
func (s *Store) CancelLogin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == OTPRequested {
		s.state = Anonymous
	}
	s.err = ""
}

// Logout clears the session and every cached resource, in memory and on
// disk.
func (s *Store) Logout(ctx context.Context) error {
	var firstErr error
	if err := s.sessions.Clear(); err != nil {
		firstErr = fmt.Errorf("clearing session: %w", err)
	}
	s.reset()
	if s.persisted != nil {
		if err := s.persisted.ClearCache(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("clearing persisted cache: %w", err)
		}
	}
	s.log.Info("signed out")
	return firstErr
}

// ForceLogout handles a session the server rejected. The API client has
// already cleared the stored tokens.
func (s *Store) ForceLogout() {
	s.reset()
	if s.persisted != nil {
		if err := s.persisted.ClearCache(context.Background()); err != nil {
			s.log.Warn("clearing persisted cache", "error", err)
		}
	}

	s.mu.Lock()
	s.err = "Your session has expired. Please sign in again."
	s.mu.Unlock()
	s.log.Warn("session expired, signed out")
}

func (s *Store) reset() {
	s.cache.Clear()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Anonymous
	s.email = ""
	s.loading = false
	s.err = ""
}

// ClearError dismisses the retained error.
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = ""
}

// Error returns the retained error message, or "".
func (s *Store) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// IsLoading reports whether a sign-in request is in flight.
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// State returns the current sign-in state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsAuthenticated reports whether a session is active.
func (s *Store) IsAuthenticated() bool {
	return s.State() == Authenticated
}

// Email returns the address a code was last sent to.
func (s *Store) Email() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.email
}

func (s *Store) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = true
	s.err = ""
}

func (s *Store) fail(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = msg
}

func failureMessage(err error, fallback string) string {
	if apiErr, ok := api.AsAPIError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	if validation.IsValidationError(err) {
		return err.Error()
	}
	if msg := api.Message(err); msg != "" {
		return fallback + ": " + msg
	}
	return fallback
}
