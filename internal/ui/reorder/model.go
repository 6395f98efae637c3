// Package reorder lets the user rearrange a board's columns before saving
// the new order in one request.
package reorder

import (
	"context"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/trakker/internal/keys"
	"github.com/nhle/trakker/internal/model"
	"github.com/nhle/trakker/internal/theme"
	"github.com/nhle/trakker/internal/ui"
)

// DoneMsg asks the parent to return to the board.
type DoneMsg struct {
	BoardID string
}

// Reorderer saves a column order.
type Reorderer interface {
	Reorder(ctx context.Context, boardID string, columnIDs []string) ([]model.Column, error)
}

type savedMsg struct {
	err error
}

// Model is the column reorder page.
type Model struct {
	boardID     string
	columns     []model.Column
	original    []string
	reorderer   Reorderer
	keys        *keys.KeyMap
	selectedIdx int
	saving      bool
	width       int
	height      int
}

// New creates the reorder page over a copy of columns.
func New(boardID string, columns []model.Column, r Reorderer, k *keys.KeyMap, width, height int) Model {
	cols := slices.Clone(columns)
	original := make([]string, len(cols))
	for i, c := range cols {
		original[i] = c.ID
	}
	return Model{
		boardID:   boardID,
		columns:   cols,
		original:  original,
		reorderer: r,
		keys:      k,
		width:     width,
		height:    height,
	}
}

// Order returns the column ids in their current order.
func (m Model) Order() []string {
	ids := make([]string, len(m.columns))
	for i, c := range m.columns {
		ids[i] = c.ID
	}
	return ids
}

// Changed reports whether the order differs from the board's.
func (m Model) Changed() bool {
	return !slices.Equal(m.Order(), m.original)
}

// Update handles messages for the reorder page.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case savedMsg:
		m.saving = false
		toast := ui.ResultToast(msg.err, "Columns reordered")
		boardID := m.boardID
		if msg.err != nil {
			return m, func() tea.Msg { return toast }
		}
		return m, tea.Batch(
			func() tea.Msg { return toast },
			func() tea.Msg { return DoneMsg{BoardID: boardID} },
		)

	case tea.KeyMsg:
		if m.saving {
			return m, nil
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		boardID := m.boardID
		return m, func() tea.Msg { return DoneMsg{BoardID: boardID} }

	case key.Matches(msg, m.keys.Save):
		if !m.Changed() {
			boardID := m.boardID
			return m, func() tea.Msg { return DoneMsg{BoardID: boardID} }
		}
		m.saving = true
		return m, m.save()

	case key.Matches(msg, m.keys.ShiftUp):
		m.shift(-1)
		return m, nil

	case key.Matches(msg, m.keys.ShiftDown):
		m.shift(1)
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.selectedIdx > 0 {
			m.selectedIdx--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.selectedIdx < len(m.columns)-1 {
			m.selectedIdx++
		}
		return m, nil
	}
	return m, nil
}

// shift swaps the selected column with its neighbour and keeps it selected.
func (m *Model) shift(delta int) {
	target := m.selectedIdx + delta
	if target < 0 || target >= len(m.columns) {
		return
	}
	m.columns = slices.Clone(m.columns)
	m.columns[m.selectedIdx], m.columns[target] = m.columns[target], m.columns[m.selectedIdx]
	m.selectedIdx = target
}

func (m Model) save() tea.Cmd {
	r := m.reorderer
	boardID := m.boardID
	order := m.Order()
	return func() tea.Msg {
		_, err := r.Reorder(context.Background(), boardID, order)
		return savedMsg{err: err}
	}
}

// View renders the reorder page.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(theme.TitleStyle.Render("Reorder columns"))
	b.WriteString("\n")

	for i, c := range m.columns {
		label := c.Name
		if c.BackgroundColor != nil && *c.BackgroundColor != "" {
			label = theme.LabelStyle(*c.BackgroundColor).Render("■") + " " + label
		}
		if i == m.selectedIdx {
			b.WriteString(theme.SelectedItemStyle.Render(label))
		} else {
			b.WriteString(theme.ListItemStyle.Render(label))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.saving {
		b.WriteString(theme.DimmedStyle.Render("Saving..."))
	} else {
		b.WriteString(theme.HelpStyle.Render("j/k select | K/J move | enter save | esc cancel"))
	}

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
