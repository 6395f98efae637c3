// Package login renders the email and one-time code pages.
package login

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/trakker/internal/auth"
	"github.com/nhle/trakker/internal/theme"
)

// LoggedInMsg tells the parent the session is authenticated.
type LoggedInMsg struct{}

type codeSentMsg struct{ ok bool }
type verifiedMsg struct{ ok bool }

// Auth is the sign-in flow the page drives.
type Auth interface {
	StartLogin(ctx context.Context, email string) bool
	VerifyLogin(ctx context.Context, email, otp string) bool
	CancelLogin()
	ClearError()
	Error() string
	State() auth.State
	Email() string
}

type formBindings struct {
	email string
	code  string
}

// Model is the sign-in page. It shows the email form until a code has
// been requested, then the code form.
type Model struct {
	auth    Auth
	form    *huh.Form
	fb      *formBindings
	spinner spinner.Model
	busy    bool
	width   int
	height  int
}

// New creates the sign-in page.
func New(a Auth, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	m := Model{
		auth:    a,
		fb:      &formBindings{},
		spinner: sp,
		width:   width,
		height:  height,
	}
	m.reset()
	return m
}

// Init focuses the current form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// reset builds the form matching the current auth state.
func (m *Model) reset() tea.Cmd {
	m.busy = false
	if m.auth.State() == auth.OTPRequested {
		m.fb.email = m.auth.Email()
		m.fb.code = ""
		m.form = m.codeForm()
	} else {
		m.fb.code = ""
		m.form = m.emailForm()
	}
	return m.form.Init()
}

// Update handles messages for the sign-in page.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case codeSentMsg:
		m.busy = false
		if !msg.ok {
			m.form = m.emailForm()
			return m, m.form.Init()
		}
		cmd := m.reset()
		return m, cmd

	case verifiedMsg:
		m.busy = false
		if msg.ok {
			return m, func() tea.Msg { return LoggedInMsg{} }
		}
		m.fb.code = ""
		m.form = m.codeForm()
		return m, m.form.Init()

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		if msg.String() == "esc" && m.auth.State() == auth.OTPRequested {
			m.auth.CancelLogin()
			cmd := m.reset()
			return m, cmd
		}
	}

	if m.form == nil || m.busy {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State == huh.StateCompleted {
		m.busy = true
		return m, tea.Batch(m.submit(), m.spinner.Tick)
	}
	return m, cmd
}

func (m Model) submit() tea.Cmd {
	a := m.auth
	email := strings.TrimSpace(m.fb.email)
	code := strings.TrimSpace(m.fb.code)

	if a.State() == auth.OTPRequested {
		return func() tea.Msg {
			return verifiedMsg{ok: a.VerifyLogin(context.Background(), email, code)}
		}
	}
	return func() tea.Msg {
		return codeSentMsg{ok: a.StartLogin(context.Background(), email)}
	}
}

func (m Model) emailForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Description("We'll send you a one-time sign-in code.").
				Placeholder("you@example.com").
				Value(&m.fb.email).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("email is required")
					}
					return nil
				}),
		),
	).WithWidth(m.formWidth()).WithShowHelp(false)
}

func (m Model) codeForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Code").
				Description(fmt.Sprintf("Enter the code sent to %s.", m.fb.email)).
				Placeholder("123456").
				CharLimit(12).
				Value(&m.fb.code).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("code is required")
					}
					return nil
				}),
		),
	).WithWidth(m.formWidth()).WithShowHelp(false)
}

// View renders the sign-in page centered in the content area.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(theme.TitleStyle.Render("Sign in to Trakker"))
	b.WriteString("\n")

	switch {
	case m.busy:
		label := "Sending code..."
		if m.auth.State() == auth.OTPRequested {
			label = "Verifying..."
		}
		b.WriteString(m.spinner.View() + " " + label)
	case m.form != nil:
		b.WriteString(m.form.View())
	}

	if msg := m.auth.Error(); msg != "" {
		b.WriteString("\n")
		b.WriteString(theme.ErrorStyle.Render(msg))
	}

	b.WriteString("\n\n")
	hint := "enter continue | ctrl+c quit"
	if m.auth.State() == auth.OTPRequested {
		hint = "enter verify | esc use another email | ctrl+c quit"
	}
	b.WriteString(theme.HelpStyle.Render(hint))

	box := theme.PanelStyle.Width(m.formWidth() + 4).Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// SetSize updates the page dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	return min(max(m.width-10, 30), 60)
}
