package fakeapi

import (
	"net/http"

	"github.com/nhle/trakker/internal/model"
)

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	u, ok := s.users[userIDFrom(r.Context())]
	if !ok {
		s.mu.Unlock()
		notFound(w, "User not found", s.log)
		return
	}
	out := *u
	s.mu.Unlock()

	success(w, out, s.log)
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateUserRequest
	if !decode(w, r, &req, s.log) {
		return
	}
	if err := s.validator.Validate(req); err != nil {
		badRequest(w, err.Error(), s.log)
		return
	}

	s.mu.Lock()
	u, ok := s.users[userIDFrom(r.Context())]
	if !ok {
		s.mu.Unlock()
		notFound(w, "User not found", s.log)
		return
	}
	if req.Name != nil {
		u.Name = req.Name
	}
	if req.AvatarURL != nil {
		u.AvatarURL = req.AvatarURL
	}
	u.UpdatedAt = s.timestamp()
	out := *u
	s.mu.Unlock()

	success(w, out, s.log)
}
