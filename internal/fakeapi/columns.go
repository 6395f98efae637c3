package fakeapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nhle/trakker/internal/model"
)

func (s *Server) handleListColumns(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	b, ok := s.boardLocked(userIDFrom(r.Context()), chi.URLParam(r, "id"))
	if !ok {
		s.mu.Unlock()
		notFound(w, "Board not found", s.log)
		return
	}
	columns := s.columnsOfLocked(b.ID)
	s.mu.Unlock()

	success(w, map[string]any{"columns": columns}, s.log)
}

func (s *Server) handleCreateColumn(w http.ResponseWriter, r *http.Request) {
	var req model.CreateColumnRequest
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
	position := len(s.columnsOfLocked(b.ID))
	if req.Position != nil {
		position = *req.Position
	}
	now := s.timestamp()
	c := &model.Column{
		ID:              uuid.NewString(),
		Name:            req.Name,
		Position:        position,
		BackgroundColor: req.BackgroundColor,
		BoardID:         b.ID,
		InsertedAt:      now,
		UpdatedAt:       now,
	}
	s.columns[c.ID] = c
	out := *c
	s.mu.Unlock()

	created(w, out, s.log)
}

func (s *Server) handleUpdateColumn(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateColumnRequest
	if !decode(w, r, &req, s.log) {
		return
	}
	if err := s.validator.Validate(req); err != nil {
		badRequest(w, err.Error(), s.log)
		return
	}

	s.mu.Lock()
	c, ok := s.columnLocked(userIDFrom(r.Context()), chi.URLParam(r, "id"))
	if !ok {
		s.mu.Unlock()
		notFound(w, "Column not found", s.log)
		return
	}
	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.Position != nil {
		c.Position = *req.Position
	}
	if req.BackgroundColor != nil {
		c.BackgroundColor = req.BackgroundColor
	}
	c.UpdatedAt = s.timestamp()
	out := *c
	out.Cards = s.cardsOfColumnLocked(c.ID)
	s.mu.Unlock()

	success(w, out, s.log)
}

func (s *Server) handleDeleteColumn(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	if _, ok := s.columnLocked(userIDFrom(r.Context()), id); !ok {
		s.mu.Unlock()
		notFound(w, "Column not found", s.log)
		return
	}
	s.deleteColumnLocked(id)
	s.mu.Unlock()

	success(w, model.DeleteResult{ID: id, Deleted: true}, s.log)
}

func (s *Server) handleReorderColumns(w http.ResponseWriter, r *http.Request) {
	var req model.ReorderColumnsRequest
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
	for _, o := range req.ColumnOrders {
		c, ok := s.columns[o.ID]
		if !ok || c.BoardID != b.ID {
			s.mu.Unlock()
			badRequest(w, "Column "+o.ID+" is not on this board", s.log)
			return
		}
	}
	now := s.timestamp()
	for _, o := range req.ColumnOrders {
		c := s.columns[o.ID]
		c.Position = o.Position
		c.UpdatedAt = now
	}
	columns := s.columnsOfLocked(b.ID)
	s.mu.Unlock()

	success(w, map[string]any{"columns": columns}, s.log)
}
