// Package fakeapi is an in-memory implementation of the Trakker REST API.
// It backs the package tests and the trakker-fakeapi development server.
package fakeapi

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/nhle/trakker/internal/logger"
	"github.com/nhle/trakker/internal/model"
	"github.com/nhle/trakker/internal/validation"
)

// DefaultTokenTTL is the lifetime of issued access tokens.
const DefaultTokenTTL = 15 * time.Minute

// Server holds the fake API state. All state is guarded by mu.
type Server struct {
	log       *slog.Logger
	validator *validation.Validator
	secret    []byte
	tokenTTL  time.Duration
	fixedOTP  string
	now       func() time.Time
	router    chi.Router

	mu       sync.Mutex
	users    map[string]*model.User
	byEmail  map[string]string
	codes    map[string]string
	refresh  map[string]string
	epoch    int
	boards   map[string]*model.Board
	columns  map[string]*model.Column
	cards    map[string]*model.Card
	faults   []fault
	counters map[string]int
}

type fault struct {
	status  int
	code    string
	message string
}

// Option customizes a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithOTP makes every login code equal to code instead of a random one.
func WithOTP(code string) Option {
	return func(s *Server) { s.fixedOTP = code }
}

// WithTokenTTL sets the access token lifetime.
func WithTokenTTL(d time.Duration) Option {
	return func(s *Server) { s.tokenTTL = d }
}

// WithSecret sets the HMAC key used to sign access tokens.
func WithSecret(secret string) Option {
	return func(s *Server) { s.secret = []byte(secret) }
}

// WithClock overrides the time source used for timestamps and tokens.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a fake API. Mount Handler under any prefix; routes are
// served relative to "/api".
func New(opts ...Option) *Server {
	s := &Server{
		log:       logger.Discard(),
		validator: validation.New(),
		secret:    []byte(uuid.NewString()),
		tokenTTL:  DefaultTokenTTL,
		now:       time.Now,
		users:     make(map[string]*model.User),
		byEmail:   make(map[string]string),
		codes:     make(map[string]string),
		refresh:   make(map[string]string),
		boards:    make(map[string]*model.Board),
		columns:   make(map[string]*model.Column),
		cards:     make(map[string]*model.Card),
		counters:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "fakeapi")
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/email/start", s.handleStartLogin)
			r.Post("/email/verify", s.handleVerifyLogin)
			r.Post("/refresh", s.handleRefresh)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.injectFaults)
			r.Use(s.requireAuth)

			r.Route("/boards", func(r chi.Router) {
				r.Get("/", s.handleListBoards)
				r.Post("/", s.handleCreateBoard)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetBoard)
					r.Patch("/", s.handleUpdateBoard)
					r.Delete("/", s.handleDeleteBoard)
					r.Patch("/archive", s.handleArchiveBoard(true))
					r.Patch("/unarchive", s.handleArchiveBoard(false))
					r.Get("/columns", s.handleListColumns)
					r.Post("/columns", s.handleCreateColumn)
					r.Patch("/columns/reorder", s.handleReorderColumns)
					r.Get("/cards", s.handleListCards)
				})
			})

			r.Patch("/columns/{id}", s.handleUpdateColumn)
			r.Delete("/columns/{id}", s.handleDeleteColumn)
			r.Post("/columns/{id}/cards", s.handleCreateCard)

			r.Get("/cards/{id}", s.handleGetCard)
			r.Patch("/cards/{id}", s.handleUpdateCard)
			r.Delete("/cards/{id}", s.handleDeleteCard)

			r.Get("/users/me", s.handleGetMe)
			r.Patch("/users/me", s.handleUpdateMe)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		notFound(w, "Route not found", s.log)
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.count(r.Method + " " + r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"route", routePattern(r),
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return strings.TrimSuffix(p, "/")
		}
	}
	return r.URL.Path
}

func (s *Server) count(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[route]++
}

// Calls returns how many requests were received for route, written as
// "METHOD /path", e.g. "POST /api/auth/refresh".
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[route]
}

// FailNext makes the next authenticated request fail with status and
// message. Calls queue up.
func (s *Server) FailNext(status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = append(s.faults, fault{status: status, code: "injected", message: message})
}

// ExpireTokens invalidates every access token issued so far. Refresh
// tokens stay valid, so the next request exercises the refresh flow.
func (s *Server) ExpireTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
}

func (s *Server) injectFaults(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		var f *fault
		if len(s.faults) > 0 {
			f = &s.faults[0]
			s.faults = s.faults[1:]
		}
		s.mu.Unlock()

		if f != nil {
			failure(w, f.status, f.code, f.message, s.log)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) timestamp() model.Timestamp {
	return model.NewTimestamp(s.now())
}
