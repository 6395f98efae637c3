package fakeapi

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nhle/trakker/internal/model"
)

func (s *Server) handleListBoards(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	s.mu.Lock()
	boards := []model.Board{}
	for _, b := range s.boards {
		if b.OwnerID == userID {
			boards = append(boards, *b)
		}
	}
	s.mu.Unlock()

	slices.SortStableFunc(boards, func(a, b model.Board) int {
		return a.InsertedAt.Compare(b.InsertedAt.Time)
	})
	success(w, map[string]any{"boards": boards}, s.log)
}

func (s *Server) handleCreateBoard(w http.ResponseWriter, r *http.Request) {
	var req model.CreateBoardRequest
	if !decode(w, r, &req, s.log) {
		return
	}
	if err := s.validator.Validate(req); err != nil {
		badRequest(w, err.Error(), s.log)
		return
	}

	now := s.timestamp()
	b := &model.Board{
		ID:            uuid.NewString(),
		Name:          req.Name,
		Description:   req.Description,
		BackgroundURL: req.BackgroundURL,
		OwnerID:       userIDFrom(r.Context()),
		InsertedAt:    now,
		UpdatedAt:     now,
	}

	s.mu.Lock()
	s.boards[b.ID] = b
	out := *b
	s.mu.Unlock()

	created(w, out, s.log)
}

func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	b, ok := s.boardLocked(userIDFrom(r.Context()), chi.URLParam(r, "id"))
	if !ok {
		s.mu.Unlock()
		notFound(w, "Board not found", s.log)
		return
	}
	full := s.fullBoardLocked(b)
	s.mu.Unlock()

	success(w, full, s.log)
}

func (s *Server) handleUpdateBoard(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateBoardRequest
	if !decode(w, r, &req, s.log) {
		return
	}
	if err := s.validator.Validate(req); err != nil {
		badRequest(w, err.Error(), s.log)
		return
	}

	s.mu.Lock()
	b, ok := s.boardLocked(userIDFrom(r.Context()), chi.URLParam(r, "id"))
	if !ok {
		s.mu.Unlock()
		notFound(w, "Board not found", s.log)
		return
	}
	if req.Name != nil {
		b.Name = *req.Name
	}
	if req.Description != nil {
		b.Description = req.Description
	}
	if req.BackgroundURL != nil {
		b.BackgroundURL = req.BackgroundURL
	}
	b.UpdatedAt = s.timestamp()
	out := *b
	s.mu.Unlock()

	success(w, out, s.log)
}

func (s *Server) handleDeleteBoard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	if _, ok := s.boardLocked(userIDFrom(r.Context()), id); !ok {
		s.mu.Unlock()
		notFound(w, "Board not found", s.log)
		return
	}
	for colID, c := range s.columns {
		if c.BoardID == id {
			s.deleteColumnLocked(colID)
		}
	}
	delete(s.boards, id)
	s.mu.Unlock()

	success(w, model.DeleteResult{ID: id, Deleted: true}, s.log)
}

func (s *Server) handleArchiveBoard(archive bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		b, ok := s.boardLocked(userIDFrom(r.Context()), chi.URLParam(r, "id"))
		if !ok {
			s.mu.Unlock()
			notFound(w, "Board not found", s.log)
			return
		}
		now := s.timestamp()
		if archive {
			b.ArchivedAt = &now
		} else {
			b.ArchivedAt = nil
		}
		b.UpdatedAt = now
		out := *b
		s.mu.Unlock()

		success(w, out, s.log)
	}
}
