// Package board renders one kanban board: its columns side by side with
// their cards, and the keyboard actions that edit them.
package board

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/nhle/trakker/internal/cache"
	"github.com/nhle/trakker/internal/keys"
	"github.com/nhle/trakker/internal/model"
	"github.com/nhle/trakker/internal/store"
	"github.com/nhle/trakker/internal/ui"
	"github.com/nhle/trakker/internal/ui/cardform"
)

// CloseMsg asks the parent to go back to the board list.
type CloseMsg struct{}

// OpenReorderMsg asks the parent to open the column reorder page.
type OpenReorderMsg struct {
	BoardID string
	Columns []model.Column
}

// Boards reads the board aggregate.
type Boards interface {
	Get(ctx context.Context, boardID string) (model.FullBoard, error)
	Cached(boardID string) (model.FullBoard, bool)
}

// Columns mutates a board's columns.
type Columns interface {
	Create(ctx context.Context, boardID string, req model.CreateColumnRequest) (model.Column, error)
	Update(ctx context.Context, boardID, columnID string, req model.UpdateColumnRequest) (model.Column, error)
	Delete(ctx context.Context, boardID, columnID string) error
}

// Cards mutates a board's cards.
type Cards interface {
	Create(ctx context.Context, boardID, columnID string, req model.CreateCardRequest) (model.Card, error)
	Update(ctx context.Context, boardID, cardID string, req model.UpdateCardRequest) (model.Card, error)
	Move(ctx context.Context, boardID, cardID, targetColumnID string) (model.Card, error)
	Delete(ctx context.Context, boardID, cardID string) error
}

// MetaStore keeps the local card priorities.
type MetaStore interface {
	UpsertCardMeta(ctx context.Context, meta model.CardMeta) error
	GetCardMetas(ctx context.Context, cardIDs []string) (map[string]model.CardMeta, error)
	DeleteCardMeta(ctx context.Context, cardID string) error
}

type mode int

const (
	modeBoard mode = iota
	modeCardForm
	modeColumnForm
	modeConfirmDelete
)

type boardLoadedMsg struct {
	board model.FullBoard
	err   error
}

type metasLoadedMsg struct {
	metas map[string]model.CardMeta
}

// cardCreatedMsg carries the priority chosen for a card that now has a
// server id.
type cardCreatedMsg struct {
	toast    ui.ToastMsg
	cardID   string
	priority string
}

// Model is the board page.
type Model struct {
	boardID string
	name    string

	boards  Boards
	columns Columns
	cards   Cards
	metas   MetaStore
	keys    *keys.KeyMap

	board    model.FullBoard
	loaded   bool
	loadErr  string
	priority map[string]string

	colIdx  int
	cardIdx int

	mode     mode
	cardForm cardform.Model
	colForm  *huh.Form
	confirm  *huh.Form
	fb       *formBindings

	width  int
	height int
}

// New creates the board page for boardID. metas may be nil, in which case
// priorities are not shown.
func New(boardID, name string, b Boards, cols Columns, cards Cards, metas MetaStore, k *keys.KeyMap, width, height int) Model {
	return Model{
		boardID:  boardID,
		name:     name,
		boards:   b,
		columns:  cols,
		cards:    cards,
		metas:    metas,
		keys:     k,
		priority: map[string]string{},
		cardForm: cardform.New(width, height),
		fb:       &formBindings{},
		width:    width,
		height:   height,
	}
}

// BoardID returns the id of the board on screen.
func (m Model) BoardID() string {
	return m.boardID
}

// Title returns the board name for the header.
func (m Model) Title() string {
	if m.loaded {
		return m.board.Name
	}
	return m.name
}

// Editing reports whether a form is open, so the parent leaves keys alone.
func (m Model) Editing() bool {
	return m.mode != modeBoard
}

// Init shows the cached board, if any, and fetches it.
func (m *Model) Init() tea.Cmd {
	m.Reload()
	return m.load()
}

// Reload re-reads the board from the query cache.
func (m *Model) Reload() {
	if b, ok := m.boards.Cached(m.boardID); ok {
		m.setBoard(b)
	}
}

func (m *Model) setBoard(b model.FullBoard) {
	m.board = b
	m.loaded = true
	m.loadErr = ""
	m.clampSelection()
}

func (m *Model) clampSelection() {
	n := len(m.board.Columns)
	if n == 0 {
		m.colIdx, m.cardIdx = 0, 0
		return
	}
	m.colIdx = min(max(m.colIdx, 0), n-1)
	cards := len(m.board.Columns[m.colIdx].Cards)
	m.cardIdx = min(max(m.cardIdx, 0), max(cards-1, 0))
}

func (m Model) focusedColumn() (model.Column, bool) {
	if m.colIdx < 0 || m.colIdx >= len(m.board.Columns) {
		return model.Column{}, false
	}
	return m.board.Columns[m.colIdx], true
}

func (m Model) focusedCard() (model.Card, bool) {
	col, ok := m.focusedColumn()
	if !ok || m.cardIdx < 0 || m.cardIdx >= len(col.Cards) {
		return model.Card{}, false
	}
	return col.Cards[m.cardIdx], true
}

// Update handles messages for the board page.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case boardLoadedMsg:
		if msg.err != nil {
			if !errors.Is(msg.err, cache.ErrCanceled) {
				m.loadErr = msg.err.Error()
			}
			return m, nil
		}
		m.setBoard(msg.board)
		return m, m.loadMetas()

	case metasLoadedMsg:
		m.priority = make(map[string]string, len(msg.metas))
		for id, meta := range msg.metas {
			m.priority[id] = meta.Priority
		}
		return m, nil

	case ui.CacheChangedMsg:
		m.Reload()
		return m, nil

	case cardCreatedMsg:
		if msg.cardID != "" && msg.priority != "" {
			m.priority[msg.cardID] = msg.priority
		}
		toast := msg.toast
		return m, func() tea.Msg { return toast }

	case cardform.SubmitMsg:
		m.mode = modeBoard
		return m, m.saveCard(msg)

	case cardform.CancelMsg:
		m.mode = modeBoard
		return m, nil
	}

	switch m.mode {
	case modeCardForm:
		var cmd tea.Cmd
		m.cardForm, cmd = m.cardForm.Update(msg)
		return m, cmd
	case modeColumnForm:
		return m.updateColumnForm(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(msg, m.keys.Left):
		if m.colIdx > 0 {
			m.colIdx--
			m.clampSelection()
		}
		return m, nil

	case key.Matches(msg, m.keys.Right):
		if m.colIdx < len(m.board.Columns)-1 {
			m.colIdx++
			m.clampSelection()
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if col, ok := m.focusedColumn(); ok && m.cardIdx < len(col.Cards)-1 {
			m.cardIdx++
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.cardIdx > 0 {
			m.cardIdx--
		}
		return m, nil

	case key.Matches(msg, m.keys.MoveLeft):
		return m.moveCard(-1)

	case key.Matches(msg, m.keys.MoveRight):
		return m.moveCard(1)

	case key.Matches(msg, m.keys.New):
		col, ok := m.focusedColumn()
		if !ok || model.IsTempID(col.ID) {
			return m, nil
		}
		m.mode = modeCardForm
		m.cardForm.SetSize(m.width, m.height)
		cmd := m.cardForm.StartCreate(col.ID)
		return m, cmd

	case key.Matches(msg, m.keys.Edit), key.Matches(msg, m.keys.Select):
		card, ok := m.focusedCard()
		if !ok || model.IsTempID(card.ID) {
			return m, nil
		}
		m.mode = modeCardForm
		m.cardForm.SetSize(m.width, m.height)
		cmd := m.cardForm.StartEdit(card, m.priority[card.ID])
		return m, cmd

	case key.Matches(msg, m.keys.Delete):
		card, ok := m.focusedCard()
		if !ok || model.IsTempID(card.ID) {
			return m, nil
		}
		return m.startConfirm(deleteCard, card.ID, card.Title)

	case key.Matches(msg, m.keys.Priority):
		card, ok := m.focusedCard()
		if !ok || model.IsTempID(card.ID) || m.metas == nil {
			return m, nil
		}
		next := nextPriority(m.priority[card.ID])
		if next == "" {
			delete(m.priority, card.ID)
		} else {
			m.priority[card.ID] = next
		}
		return m, m.setPriority(card.ID, next)

	case key.Matches(msg, m.keys.NewColumn):
		return m.startColumnForm(model.Column{})

	case key.Matches(msg, m.keys.EditColumn):
		col, ok := m.focusedColumn()
		if !ok || model.IsTempID(col.ID) {
			return m, nil
		}
		return m.startColumnForm(col)

	case key.Matches(msg, m.keys.DeleteColumn):
		col, ok := m.focusedColumn()
		if !ok || model.IsTempID(col.ID) {
			return m, nil
		}
		return m.startConfirm(deleteColumn, col.ID, col.Name)

	case key.Matches(msg, m.keys.Reorder):
		if len(m.board.Columns) < 2 {
			return m, nil
		}
		cols := m.board.Columns
		id := m.boardID
		return m, func() tea.Msg { return OpenReorderMsg{BoardID: id, Columns: cols} }
	}
	return m, nil
}

// moveCard sends the focused card to the neighbouring column and keeps
// it focused there.
func (m Model) moveCard(delta int) (Model, tea.Cmd) {
	card, ok := m.focusedCard()
	if !ok || model.IsTempID(card.ID) {
		return m, nil
	}
	target := m.colIdx + delta
	if target < 0 || target >= len(m.board.Columns) {
		return m, nil
	}
	targetCol := m.board.Columns[target]
	if model.IsTempID(targetCol.ID) {
		return m, nil
	}

	m.colIdx = target
	m.cardIdx = len(targetCol.Cards)

	c := m.cards
	boardID := m.boardID
	return m, func() tea.Msg {
		_, err := c.Move(context.Background(), boardID, card.ID, targetCol.ID)
		if err != nil {
			return ui.ResultToast(err, "")
		}
		return ui.ToastMsg{Text: "Moved to " + targetCol.Name}
	}
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.cardForm.SetSize(width, height)
}

func (m Model) load() tea.Cmd {
	b := m.boards
	id := m.boardID
	return func() tea.Msg {
		board, err := b.Get(context.Background(), id)
		return boardLoadedMsg{board: board, err: err}
	}
}

func (m Model) loadMetas() tea.Cmd {
	if m.metas == nil {
		return nil
	}
	var ids []string
	for _, col := range m.board.Columns {
		for _, card := range col.Cards {
			if !model.IsTempID(card.ID) {
				ids = append(ids, card.ID)
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}
	s := m.metas
	return func() tea.Msg {
		metas, err := s.GetCardMetas(context.Background(), ids)
		if err != nil {
			return ui.ResultToast(err, "")
		}
		return metasLoadedMsg{metas: metas}
	}
}

func (m Model) setPriority(cardID, priority string) tea.Cmd {
	s := m.metas
	return func() tea.Msg {
		var err error
		if priority == "" {
			err = clearPriority(context.Background(), s, cardID)
		} else {
			err = s.UpsertCardMeta(context.Background(), model.CardMeta{CardID: cardID, Priority: priority})
		}
		if err != nil {
			return ui.ResultToast(err, "")
		}
		return nil
	}
}

func (m Model) saveCard(sub cardform.SubmitMsg) tea.Cmd {
	c := m.cards
	s := m.metas
	boardID := m.boardID
	oldPriority := m.priority[sub.CardID]

	if sub.CardID != "" && s != nil {
		if sub.Priority == "" {
			delete(m.priority, sub.CardID)
		} else {
			m.priority[sub.CardID] = sub.Priority
		}
	}

	return func() tea.Msg {
		ctx := context.Background()
		if sub.CardID == "" {
			req := model.CreateCardRequest{
				Title:       sub.Title,
				Description: optional(sub.Description),
				DueDate:     optional(sub.DueDate),
				Labels:      sub.Labels,
			}
			card, err := c.Create(ctx, boardID, sub.ColumnID, req)
			if err != nil {
				return ui.ResultToast(err, "")
			}
			if s == nil || sub.Priority == "" {
				return ui.ToastMsg{Text: "Card created"}
			}
			err = s.UpsertCardMeta(ctx, model.CardMeta{CardID: card.ID, Priority: sub.Priority})
			return cardCreatedMsg{
				toast:    ui.ResultToast(err, "Card created"),
				cardID:   card.ID,
				priority: sub.Priority,
			}
		}

		labels := sub.Labels
		req := model.UpdateCardRequest{
			Title:       &sub.Title,
			Description: &sub.Description,
			DueDate:     &sub.DueDate,
			Labels:      &labels,
		}
		_, err := c.Update(ctx, boardID, sub.CardID, req)
		if err == nil && s != nil && sub.Priority != oldPriority {
			if sub.Priority == "" {
				err = clearPriority(ctx, s, sub.CardID)
			} else {
				err = s.UpsertCardMeta(ctx, model.CardMeta{CardID: sub.CardID, Priority: sub.Priority})
			}
		}
		return ui.ResultToast(err, "Card updated")
	}
}

func clearPriority(ctx context.Context, s MetaStore, cardID string) error {
	if err := s.DeleteCardMeta(ctx, cardID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}

// nextPriority cycles none, low, medium, high, none.
func nextPriority(p string) string {
	switch p {
	case "":
		return model.PriorityLow
	case model.PriorityLow:
		return model.PriorityMedium
	case model.PriorityMedium:
		return model.PriorityHigh
	default:
		return ""
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
