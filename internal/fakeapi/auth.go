package fakeapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/nhle/trakker/internal/model"
)

type contextKey string

const contextKeyUserID contextKey = "user_id"

// claims are carried by issued access tokens. Epoch lets ExpireTokens
// revoke everything issued before it.
type claims struct {
	Epoch int `json:"epoch"`
	jwt.RegisteredClaims
}

func userIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyUserID).(string)
	return id
}

func (s *Server) handleStartLogin(w http.ResponseWriter, r *http.Request) {
	var req model.StartLoginRequest
	if !decode(w, r, &req, s.log) {
		return
	}
	if err := s.validator.Validate(req); err != nil {
		badRequest(w, "Invalid email address", s.log)
		return
	}

	code := s.fixedOTP
	if code == "" {
		var err error
		code, err = gonanoid.Generate("0123456789", 6)
		if err != nil {
			failure(w, http.StatusInternalServerError, "internal", "Failed to send code", s.log)
			return
		}
	}

	email := strings.ToLower(req.Email)
	s.mu.Lock()
	s.codes[email] = code
	s.mu.Unlock()

	s.log.Info("login code issued", "email", email, "code", code)
	success(w, map[string]string{"message": "Code sent"}, s.log)
}

func (s *Server) handleVerifyLogin(w http.ResponseWriter, r *http.Request) {
	var req model.VerifyLoginRequest
	if !decode(w, r, &req, s.log) {
		return
	}
	email := strings.ToLower(req.Email)

	s.mu.Lock()
	code, ok := s.codes[email]
	if !ok || code != req.OTP {
		s.mu.Unlock()
		unauthorized(w, "Invalid or expired code", s.log)
		return
	}
	delete(s.codes, email)
	user := s.userByEmailLocked(email)
	pair, err := s.issueLocked(user.ID)
	s.mu.Unlock()

	if err != nil {
		failure(w, http.StatusInternalServerError, "internal", "Failed to issue tokens", s.log)
		return
	}
	success(w, pair, s.log)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req model.RefreshTokenRequest
	if !decode(w, r, &req, s.log) {
		return
	}

	s.mu.Lock()
	userID, ok := s.refresh[req.RefreshToken]
	if !ok {
		s.mu.Unlock()
		unauthorized(w, "Invalid refresh token", s.log)
		return
	}
	// Refresh tokens rotate on use.
	delete(s.refresh, req.RefreshToken)
	pair, err := s.issueLocked(userID)
	s.mu.Unlock()

	if err != nil {
		failure(w, http.StatusInternalServerError, "internal", "Failed to issue tokens", s.log)
		return
	}
	success(w, pair, s.log)
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			unauthorized(w, "Missing authorization header", s.log)
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			unauthorized(w, "Invalid authorization header format", s.log)
			return
		}

		userID, err := s.verifyAccessToken(parts[1])
		if err != nil {
			s.log.Debug("rejecting token", "error", err)
			unauthorized(w, "Invalid or expired token", s.log)
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyUserID, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userByEmailLocked returns the user for email, creating it on first login.
func (s *Server) userByEmailLocked(email string) *model.User {
	now := s.timestamp()
	if id, ok := s.byEmail[email]; ok {
		u := s.users[id]
		u.LastLoginAt = &now
		return u
	}

	u := &model.User{
		ID:          uuid.NewString(),
		Email:       email,
		IsVerified:  true,
		LastLoginAt: &now,
		InsertedAt:  now,
		UpdatedAt:   now,
	}
	s.users[u.ID] = u
	s.byEmail[email] = u.ID
	return u
}

func (s *Server) issueLocked(userID string) (model.TokenPair, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Epoch: s.epoch,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	})
	access, err := token.SignedString(s.secret)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("signing access token: %w", err)
	}

	refresh := uuid.NewString()
	s.refresh[refresh] = userID
	return model.TokenPair{AccessToken: access, RefreshToken: refresh, UserID: userID}, nil
}

func (s *Server) verifyAccessToken(raw string) (string, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("parsing access token: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c.Epoch != s.epoch {
		return "", errors.New("token revoked")
	}
	if _, ok := s.users[c.Subject]; !ok {
		return "", errors.New("unknown user")
	}
	return c.Subject, nil
}

// Code returns the pending login code for email.
func (s *Server) Code(email string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.codes[strings.ToLower(email)]
	return code, ok
}

// Login creates (or finds) the user for email and returns a fresh token
// pair without going through the OTP exchange.
func (s *Server) Login(email string) (model.TokenPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := s.userByEmailLocked(strings.ToLower(email))
	return s.issueLocked(user.ID)
}
