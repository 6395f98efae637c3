package fakeapi

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nhle/trakker/internal/model"
)

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	b, ok := s.boardLocked(userIDFrom(r.Context()), chi.URLParam(r, "id"))
	if !ok {
		s.mu.Unlock()
		notFound(w, "Board not found", s.log)
		return
	}
	cards := []model.Card{}
	for _, c := range s.columnsOfLocked(b.ID) {
		cards = append(cards, s.cardsOfColumnLocked(c.ID)...)
	}
	s.mu.Unlock()

	success(w, map[string]any{"cards": cards}, s.log)
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	k, ok := s.cardLocked(userIDFrom(r.Context()), chi.URLParam(r, "id"))
	if !ok {
		s.mu.Unlock()
		notFound(w, "Card not found", s.log)
		return
	}
	out := cloneCard(*k)
	s.mu.Unlock()

	success(w, out, s.log)
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var req model.CreateCardRequest
	if !decode(w, r, &req, s.log) {
		return
	}
	if err := s.validator.Validate(req); err != nil {
		badRequest(w, err.Error(), s.log)
		return
	}
	due, ok := parseDue(req.DueDate)
	if !ok {
		badRequest(w, "Invalid due date", s.log)
		return
	}

	s.mu.Lock()
	col, ok := s.columnLocked(userIDFrom(r.Context()), chi.URLParam(r, "id"))
	if !ok {
		s.mu.Unlock()
		notFound(w, "Column not found", s.log)
		return
	}
	now := s.timestamp()
	k := &model.Card{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Position:    req.Position,
		ColumnID:    col.ID,
		DueDate:     due,
		Labels:      slices.Clone(req.Labels),
		Checklist:   slices.Clone(req.Checklist),
		Attachments: slices.Clone(req.Attachments),
		InsertedAt:  now,
		UpdatedAt:   now,
	}
	s.cards[k.ID] = k
	out := cloneCard(*k)
	s.mu.Unlock()

	created(w, out, s.log)
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateCardRequest
	if !decode(w, r, &req, s.log) {
		return
	}
	if err := s.validator.Validate(req); err != nil {
		badRequest(w, err.Error(), s.log)
		return
	}
	var due *model.Timestamp
	if req.DueDate != nil {
		var ok bool
		if due, ok = parseDue(req.DueDate); !ok {
			badRequest(w, "Invalid due date", s.log)
			return
		}
	}

	userID := userIDFrom(r.Context())

	s.mu.Lock()
	defer s.mu.Unlock()

	k, ok := s.cardLocked(userID, chi.URLParam(r, "id"))
	if !ok {
		notFound(w, "Card not found", s.log)
		return
	}

	if req.ColumnID != nil && *req.ColumnID != k.ColumnID {
		target, ok := s.columnLocked(userID, *req.ColumnID)
		if !ok || target.BoardID != s.columns[k.ColumnID].BoardID {
			badRequest(w, "Target column not found on this board", s.log)
			return
		}
		k.ColumnID = target.ID
		if req.Position == nil {
			k.Position = model.Position(len(s.cardsOfColumnLocked(target.ID)) - 1)
		}
	}
	if req.Position != nil {
		k.Position = *req.Position
	}
	if req.Title != nil {
		k.Title = *req.Title
	}
	if req.Description != nil {
		k.Description = req.Description
	}
	if req.DueDate != nil {
		k.DueDate = due
	}
	if req.Labels != nil {
		k.Labels = slices.Clone(*req.Labels)
	}
	if req.Checklist != nil {
		k.Checklist = slices.Clone(*req.Checklist)
	}
	if req.Attachments != nil {
		k.Attachments = slices.Clone(*req.Attachments)
	}
	k.UpdatedAt = s.timestamp()

	success(w, cloneCard(*k), s.log)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	if _, ok := s.cardLocked(userIDFrom(r.Context()), id); !ok {
		s.mu.Unlock()
		notFound(w, "Card not found", s.log)
		return
	}
	delete(s.cards, id)
	s.mu.Unlock()

	success(w, model.DeleteResult{ID: id, Deleted: true}, s.log)
}

// parseDue reads an optional due date. An empty string clears it.
func parseDue(raw *string) (*model.Timestamp, bool) {
	if raw == nil || *raw == "" {
		return nil, true
	}
	ts, err := model.ParseTimestamp(*raw)
	if err != nil {
		return nil, false
	}
	return &ts, true
}
