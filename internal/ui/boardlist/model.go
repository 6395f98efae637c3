// Package boardlist renders the board picker with create, edit, archive
// and delete actions.
package boardlist

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/trakker/internal/keys"
	"github.com/nhle/trakker/internal/model"
	"github.com/nhle/trakker/internal/service"
	"github.com/nhle/trakker/internal/theme"
	"github.com/nhle/trakker/internal/ui"
)

// OpenBoardMsg asks the parent to show a board.
type OpenBoardMsg struct {
	BoardID string
	Name    string
}

// Boards is the subset of the board service the list needs.
type Boards interface {
	List(ctx context.Context) ([]model.Board, error)
	CachedList() ([]model.Board, bool)
	Create(ctx context.Context, req model.CreateBoardRequest) (model.Board, error)
	Update(ctx context.Context, boardID string, req model.UpdateBoardRequest) (model.Board, error)
	Delete(ctx context.Context, boardID string) error
	Archive(ctx context.Context, boardID string) (model.Board, error)
	Unarchive(ctx context.Context, boardID string) (model.Board, error)
}

type mode int

const (
	modeList mode = iota
	modeForm
	modeConfirmDelete
)

type formBindings struct {
	name          string
	description   string
	backgroundURL string
	confirm       bool
}

type boardsLoadedMsg struct {
	boards []model.Board
	err    error
}

// Model is the board list page.
type Model struct {
	mode         mode
	boards       Boards
	keys         *keys.KeyMap
	all          []model.Board
	visible      []model.Board
	showArchived bool
	selectedIdx  int
	loading      bool
	loadErr      string
	editingID    string
	form         *huh.Form
	confirmForm  *huh.Form
	fb           *formBindings
	width        int
	height       int
}

// New creates the board list page.
func New(b Boards, k *keys.KeyMap, width, height int) Model {
	return Model{
		boards:  b,
		keys:    k,
		fb:      &formBindings{},
		loading: true,
		width:   width,
		height:  height,
	}
}

// Init shows whatever is cached and fetches the list.
func (m *Model) Init() tea.Cmd {
	m.Reload()
	m.loading = len(m.all) == 0
	return m.load()
}

// Reload re-reads the cached board list.
func (m *Model) Reload() {
	if boards, ok := m.boards.CachedList(); ok {
		m.setBoards(boards)
	}
}

// ShowingArchived reports whether archived boards are listed.
func (m Model) ShowingArchived() bool {
	return m.showArchived
}

// ToggleArchived flips between active and archived boards.
func (m *Model) ToggleArchived() {
	m.showArchived = !m.showArchived
	m.selectedIdx = 0
	m.setBoards(m.all)
}

// Editing reports whether a form is open, so the parent leaves keys alone.
func (m Model) Editing() bool {
	return m.mode != modeList
}

func (m *Model) setBoards(boards []model.Board) {
	m.all = boards
	m.visible = service.FilterBoards(boards, m.showArchived)
	if m.selectedIdx >= len(m.visible) {
		m.selectedIdx = max(len(m.visible)-1, 0)
	}
}

func (m Model) selected() (model.Board, bool) {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.visible) {
		return model.Board{}, false
	}
	return m.visible[m.selectedIdx], true
}

// Update handles messages for the board list.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case boardsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.loadErr = msg.err.Error()
			return m, nil
		}
		m.loadErr = ""
		m.setBoards(msg.boards)
		return m, nil

	case ui.CacheChangedMsg:
		m.Reload()
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeForm:
			if msg.String() == "esc" {
				m.mode = modeList
				return m, nil
			}
			return m.updateForm(msg)
		case modeConfirmDelete:
			if msg.String() == "esc" {
				m.mode = modeList
				return m, nil
			}
			return m.updateConfirm(msg)
		}
		return m.handleListKey(msg)
	}

	switch m.mode {
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		if len(m.visible) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.visible)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.visible) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.visible) - 1
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		b, ok := m.selected()
		if !ok || model.IsTempID(b.ID) {
			return m, nil
		}
		return m, func() tea.Msg { return OpenBoardMsg{BoardID: b.ID, Name: b.Name} }

	case key.Matches(msg, m.keys.ShowArchived):
		m.ToggleArchived()
		return m, nil

	case key.Matches(msg, m.keys.New):
		m.editingID = ""
		*m.fb = formBindings{}
		m.form = m.buildForm("New board")
		m.mode = modeForm
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Edit):
		b, ok := m.selected()
		if !ok || model.IsTempID(b.ID) {
			return m, nil
		}
		m.editingID = b.ID
		*m.fb = formBindings{
			name:          b.Name,
			description:   deref(b.Description),
			backgroundURL: deref(b.BackgroundURL),
		}
		m.form = m.buildForm("Edit board")
		m.mode = modeForm
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Archive):
		b, ok := m.selected()
		if !ok || model.IsTempID(b.ID) {
			return m, nil
		}
		return m, m.toggleArchive(b)

	case key.Matches(msg, m.keys.Delete):
		if _, ok := m.selected(); !ok {
			return m, nil
		}
		m.fb.confirm = false
		m.confirmForm = m.buildConfirmForm()
		m.mode = modeConfirmDelete
		return m, m.confirmForm.Init()
	}
	return m, nil
}

func (m Model) buildForm(title string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Description(title).
				Placeholder("Board name").
				CharLimit(255).
				Value(&m.fb.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewText().
				Title("Description").
				Placeholder("Optional description").
				CharLimit(1000).
				Value(&m.fb.description),
			huh.NewInput().
				Title("Background image URL").
				Placeholder("https://").
				Value(&m.fb.backgroundURL),
		),
	).WithWidth(m.formWidth()).WithShowHelp(true)
}

func (m Model) buildConfirmForm() *huh.Form {
	name := ""
	if b, ok := m.selected(); ok {
		name = b.Name
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete board %q?", name)).
				Description("All of its columns and cards are deleted too.").
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateCompleted:
		m.mode = modeList
		return m, m.save()
	case huh.StateAborted:
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmForm == nil {
		return m, nil
	}
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}
	switch m.confirmForm.State {
	case huh.StateCompleted:
		m.mode = modeList
		b, ok := m.selected()
		if m.fb.confirm && ok {
			return m, m.delete(b)
		}
		return m, nil
	case huh.StateAborted:
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

// View renders the board list.
func (m Model) View() string {
	switch m.mode {
	case modeForm:
		return m.viewForm(m.form)
	case modeConfirmDelete:
		return m.viewForm(m.confirmForm)
	default:
		return m.viewList()
	}
}

func (m Model) viewList() string {
	var b strings.Builder

	title := "Boards"
	if m.showArchived {
		title = "Archived boards"
	}
	b.WriteString(theme.TitleStyle.Render(title))
	b.WriteString("\n")

	switch {
	case m.loading:
		b.WriteString(theme.DimmedStyle.Render("Loading boards..."))
	case m.loadErr != "" && len(m.all) == 0:
		b.WriteString(theme.ErrorStyle.Render("Failed to load boards: " + m.loadErr))
	case len(m.visible) == 0 && m.showArchived:
		b.WriteString(theme.DimmedStyle.Render("No archived boards."))
	case len(m.visible) == 0:
		b.WriteString(theme.DimmedStyle.Render("No boards yet. Press 'n' to create one."))
	default:
		for i, board := range m.visible {
			b.WriteString(m.renderBoard(board, i == m.selectedIdx))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render(
		"enter open | n new | e edit | a archive/restore | A archived | d delete",
	))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func (m Model) renderBoard(board model.Board, selected bool) string {
	label := board.Name
	if desc := deref(board.Description); desc != "" {
		label += "  " + theme.DimmedStyle.Render(truncate(desc, max(m.width-len(board.Name)-12, 10)))
	}
	if model.IsTempID(board.ID) {
		label += theme.DimmedStyle.Render("  (saving)")
	}
	if board.IsArchived() {
		label += theme.DimmedStyle.Render("  archived " + board.ArchivedAt.Format("2006-01-02"))
	}
	if selected {
		return theme.SelectedItemStyle.Render(label)
	}
	return theme.ListItemStyle.Render(label)
}

func (m Model) viewForm(f *huh.Form) string {
	if f == nil {
		return ""
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(f.View())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

func (m Model) load() tea.Cmd {
	b := m.boards
	return func() tea.Msg {
		boards, err := b.List(context.Background())
		return boardsLoadedMsg{boards: boards, err: err}
	}
}

func (m Model) save() tea.Cmd {
	b := m.boards
	fb := *m.fb
	editID := m.editingID
	return func() tea.Msg {
		name := strings.TrimSpace(fb.name)
		desc := strings.TrimSpace(fb.description)
		bg := strings.TrimSpace(fb.backgroundURL)

		if editID == "" {
			_, err := b.Create(context.Background(), model.CreateBoardRequest{
				Name:          name,
				Description:   optional(desc),
				BackgroundURL: optional(bg),
			})
			return ui.ResultToast(err, "Board created")
		}
		_, err := b.Update(context.Background(), editID, model.UpdateBoardRequest{
			Name:          &name,
			Description:   &desc,
			BackgroundURL: &bg,
		})
		return ui.ResultToast(err, "Board updated")
	}
}

func (m Model) delete(board model.Board) tea.Cmd {
	b := m.boards
	return func() tea.Msg {
		err := b.Delete(context.Background(), board.ID)
		return ui.ResultToast(err, "Board deleted")
	}
}

func (m Model) toggleArchive(board model.Board) tea.Cmd {
	b := m.boards
	return func() tea.Msg {
		if board.IsArchived() {
			_, err := b.Unarchive(context.Background(), board.ID)
			return ui.ResultToast(err, "Board restored")
		}
		_, err := b.Archive(context.Background(), board.ID)
		return ui.ResultToast(err, "Board archived")
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
