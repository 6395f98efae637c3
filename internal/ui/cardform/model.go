package cardform

import (
	"fmt"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/trakker/internal/model"
	"github.com/nhle/trakker/internal/theme"
)

const dateLayout = "2006-01-02"

// SubmitMsg is dispatched when the form is completed. CardID is empty for
// a new card.
type SubmitMsg struct {
	CardID      string
	ColumnID    string
	Title       string
	Description string
	// DueDate is YYYY-MM-DD, or empty to clear it.
	DueDate  string
	Labels   model.Labels
	Priority string
}

// CancelMsg is dispatched when the user leaves the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title       string
	description string
	dueDate     string
	labels      []string
	priority    string
}

// Model is the card create/edit form.
type Model struct {
	form     *huh.Form
	fb       *formBindings
	editID   string
	columnID string
	extra    []string
	width    int
	height   int
}

// New creates a card form.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// StartCreate opens the form for a new card in columnID.
func (m *Model) StartCreate(columnID string) tea.Cmd {
	m.editID = ""
	m.columnID = columnID
	m.extra = nil
	*m.fb = formBindings{}
	m.form = m.build()
	return m.form.Init()
}

// StartEdit opens the form on an existing card. priority is the card's
// locally stored priority, if any.
func (m *Model) StartEdit(card model.Card, priority string) tea.Cmd {
	m.editID = card.ID
	m.columnID = card.ColumnID
	*m.fb = formBindings{
		title:       card.Title,
		description: deref(card.Description),
		labels:      slices.Clone([]string(card.Labels)),
		priority:    priority,
	}
	if card.DueDate != nil && !card.DueDate.IsZero() {
		m.fb.dueDate = card.DueDate.Format(dateLayout)
	}

	// Labels outside the catalog are offered as options too so they
	// survive the edit.
	m.extra = nil
	for _, l := range card.Labels {
		if !inCatalog(l) {
			m.extra = append(m.extra, l)
		}
	}

	m.form = m.build()
	return m.form.Init()
}

// Update handles messages for the card form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		return m, m.submit()
	case huh.StateAborted:
		return m, func() tea.Msg { return CancelMsg{} }
	}
	return m, cmd
}

// View renders the card form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	title := "New card"
	if m.editID != "" {
		title = "Edit card"
	}

	content := theme.TitleStyle.Render(title) + "\n" + m.form.View() +
		"\n" + theme.HelpStyle.Render("tab next field | enter submit | esc cancel")
	return lipgloss.NewStyle().Padding(1, 2).Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) build() *huh.Form {
	labelOpts := make([]huh.Option[string], 0, len(model.CardLabels)+len(m.extra))
	for _, l := range model.CardLabels {
		labelOpts = append(labelOpts, huh.NewOption(l.Name, l.Value))
	}
	for _, l := range m.extra {
		labelOpts = append(labelOpts, huh.NewOption(l, l))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Placeholder("What needs to be done?").
				CharLimit(255).
				Value(&m.fb.title).
				Validate(validateRequired("Title")),
			huh.NewText().
				Title("Description").
				Placeholder("Optional details...").
				CharLimit(5000).
				Value(&m.fb.description),
			huh.NewInput().
				Title("Due Date").
				Placeholder("YYYY-MM-DD (optional)").
				Value(&m.fb.dueDate).
				Validate(validateOptionalDate),
			huh.NewSelect[string]().
				Title("Priority").
				Description("Stored on this machine only").
				Options(
					huh.NewOption("None", ""),
					huh.NewOption("High", model.PriorityHigh),
					huh.NewOption("Medium", model.PriorityMedium),
					huh.NewOption("Low", model.PriorityLow),
				).
				Value(&m.fb.priority),
		),
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Labels").
				Options(labelOpts...).
				Height(min(len(labelOpts)+2, max(m.height-6, 5))).
				Value(&m.fb.labels),
		),
	).WithWidth(m.formWidth()).WithShowHelp(false)
}

func (m Model) submit() tea.Cmd {
	msg := SubmitMsg{
		CardID:      m.editID,
		ColumnID:    m.columnID,
		Title:       strings.TrimSpace(m.fb.title),
		Description: strings.TrimSpace(m.fb.description),
		DueDate:     strings.TrimSpace(m.fb.dueDate),
		Labels:      model.Labels(slices.Clone(m.fb.labels)),
		Priority:    m.fb.priority,
	}
	return func() tea.Msg { return msg }
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

func inCatalog(value string) bool {
	return slices.ContainsFunc(model.CardLabels, func(l model.LabelDef) bool {
		return l.Value == value
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateOptionalDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := time.Parse(dateLayout, s); err != nil {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD")
	}
	return nil
}
