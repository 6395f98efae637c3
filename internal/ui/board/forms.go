package board

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/nhle/trakker/internal/model"
	"github.com/nhle/trakker/internal/ui"
)

type deleteKind int

const (
	deleteCard deleteKind = iota
	deleteColumn
)

// formBindings holds column form and confirm values on the heap so huh's
// Value() pointers survive model copies.
type formBindings struct {
	columnID string
	name     string
	color    string
	confirm  bool

	deleteKind deleteKind
	deleteID   string
}

func (m Model) startColumnForm(col model.Column) (Model, tea.Cmd) {
	*m.fb = formBindings{columnID: col.ID, name: col.Name}
	if col.BackgroundColor != nil {
		m.fb.color = *col.BackgroundColor
	}

	title := "New column"
	if col.ID != "" {
		title = "Edit column"
	}

	colorOpts := []huh.Option[string]{huh.NewOption("None", "")}
	for _, c := range model.ColumnColors {
		colorOpts = append(colorOpts, huh.NewOption(c, c))
	}

	m.colForm = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Placeholder("Column name").
				CharLimit(255).
				Value(&m.fb.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Color").
				Options(colorOpts...).
				Value(&m.fb.color),
		),
	).WithWidth(m.formWidth()).WithShowHelp(false)

	m.mode = modeColumnForm
	return m, m.colForm.Init()
}

func (m Model) updateColumnForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.colForm == nil {
		m.mode = modeBoard
		return m, nil
	}
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		m.mode = modeBoard
		return m, nil
	}

	mdl, cmd := m.colForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.colForm = f
	}
	switch m.colForm.State {
	case huh.StateCompleted:
		m.mode = modeBoard
		return m, m.saveColumn()
	case huh.StateAborted:
		m.mode = modeBoard
		return m, nil
	}
	return m, cmd
}

func (m Model) saveColumn() tea.Cmd {
	cols := m.columns
	boardID := m.boardID
	fb := *m.fb
	return func() tea.Msg {
		name := strings.TrimSpace(fb.name)
		ctx := context.Background()

		if fb.columnID == "" {
			req := model.CreateColumnRequest{Name: name}
			if fb.color != "" {
				req.BackgroundColor = &fb.color
			}
			_, err := cols.Create(ctx, boardID, req)
			return ui.ResultToast(err, "Column created")
		}

		req := model.UpdateColumnRequest{Name: &name, BackgroundColor: &fb.color}
		_, err := cols.Update(ctx, boardID, fb.columnID, req)
		return ui.ResultToast(err, "Column updated")
	}
}

func (m Model) startConfirm(kind deleteKind, id, name string) (Model, tea.Cmd) {
	m.fb.confirm = false
	m.fb.deleteKind = kind
	m.fb.deleteID = id

	title := fmt.Sprintf("Delete card %q?", name)
	desc := "This cannot be undone."
	if kind == deleteColumn {
		title = fmt.Sprintf("Delete column %q?", name)
		desc = "Its cards are deleted too."
	}

	m.confirm = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(desc).
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth())

	m.mode = modeConfirmDelete
	return m, m.confirm.Init()
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirm == nil {
		m.mode = modeBoard
		return m, nil
	}
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		m.mode = modeBoard
		return m, nil
	}

	mdl, cmd := m.confirm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirm = f
	}
	switch m.confirm.State {
	case huh.StateCompleted:
		m.mode = modeBoard
		if !m.fb.confirm {
			return m, nil
		}
		return m, m.deleteSelected()
	case huh.StateAborted:
		m.mode = modeBoard
		return m, nil
	}
	return m, cmd
}

func (m Model) deleteSelected() tea.Cmd {
	boardID := m.boardID
	id := m.fb.deleteID

	if m.fb.deleteKind == deleteColumn {
		cols := m.columns
		return func() tea.Msg {
			err := cols.Delete(context.Background(), boardID, id)
			return ui.ResultToast(err, "Column deleted")
		}
	}

	cards := m.cards
	metas := m.metas
	return func() tea.Msg {
		err := cards.Delete(context.Background(), boardID, id)
		if err == nil && metas != nil {
			// A failure here only leaves an orphan priority row behind.
			_ = clearPriority(context.Background(), metas, id)
		}
		return ui.ResultToast(err, "Card deleted")
	}
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 80)
}
