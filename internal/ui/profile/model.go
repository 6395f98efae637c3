// Package profile shows the signed-in account and edits its name and
// avatar.
package profile

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/trakker/internal/model"
	"github.com/nhle/trakker/internal/session"
	"github.com/nhle/trakker/internal/theme"
	"github.com/nhle/trakker/internal/ui"
)

// CloseMsg asks the parent to leave the profile page.
type CloseMsg struct{}

// Users reads and updates the signed-in user.
type Users interface {
	Me(ctx context.Context) (model.User, error)
	Cached() (model.User, bool)
	UpdateProfile(ctx context.Context, req model.UpdateUserRequest) (model.User, error)
}

// Sessions exposes the stored session for the token expiry line.
type Sessions interface {
	Load() (model.Session, error)
}

type userLoadedMsg struct {
	user model.User
	err  error
}

type formBindings struct {
	name      string
	avatarURL string
}

// Model is the profile page.
type Model struct {
	users    Users
	sessions Sessions
	user     model.User
	loaded   bool
	loadErr  string
	form     *huh.Form
	fb       *formBindings
	width    int
	height   int
}

// New creates the profile page. sessions may be nil.
func New(u Users, sessions Sessions, width, height int) Model {
	return Model{
		users:    u,
		sessions: sessions,
		fb:       &formBindings{},
		width:    width,
		height:   height,
	}
}

// Init shows the cached user and fetches it.
func (m *Model) Init() tea.Cmd {
	u := m.users
	load := func() tea.Msg {
		user, err := u.Me(context.Background())
		return userLoadedMsg{user: user, err: err}
	}
	if cached, ok := u.Cached(); ok {
		m.setUser(cached)
		return tea.Batch(m.form.Init(), load)
	}
	return load
}

func (m *Model) setUser(u model.User) {
	m.user = u
	m.loaded = true
	m.fb.name = deref(u.Name)
	m.fb.avatarURL = deref(u.AvatarURL)
	m.form = m.buildForm()
}

// Update handles messages for the profile page.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case userLoadedMsg:
		if msg.err != nil {
			m.loadErr = msg.err.Error()
			return m, nil
		}
		if m.loaded {
			// Keep whatever is being typed into the form.
			m.user = msg.user
			return m, nil
		}
		m.setUser(msg.user)
		return m, m.form.Init()

	case tea.KeyMsg:
		if msg.String() == "esc" {
			return m, func() tea.Msg { return CloseMsg{} }
		}
	}

	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateCompleted:
		return m, tea.Sequence(m.save(), func() tea.Msg { return CloseMsg{} })
	case huh.StateAborted:
		return m, func() tea.Msg { return CloseMsg{} }
	}
	return m, cmd
}

func (m Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Placeholder("Your name").
				CharLimit(255).
				Value(&m.fb.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Avatar URL").
				Placeholder("https://").
				Value(&m.fb.avatarURL).
				Validate(validateOptionalURL),
		),
	).WithWidth(min(max(m.width-4, 40), 80)).WithShowHelp(false)
}

func (m Model) save() tea.Cmd {
	u := m.users
	name := strings.TrimSpace(m.fb.name)
	avatar := strings.TrimSpace(m.fb.avatarURL)
	return func() tea.Msg {
		req := model.UpdateUserRequest{Name: &name}
		if avatar != "" {
			req.AvatarURL = &avatar
		}
		_, err := u.UpdateProfile(context.Background(), req)
		return ui.ResultToast(err, "Profile updated")
	}
}

// View renders the profile page.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Profile"))
	b.WriteString("\n")

	switch {
	case !m.loaded && m.loadErr != "":
		b.WriteString(theme.ErrorStyle.Render("Failed to load profile: " + m.loadErr))
	case !m.loaded:
		b.WriteString(theme.DimmedStyle.Render("Loading profile..."))
	default:
		b.WriteString(m.user.Email)
		if m.user.IsVerified {
			b.WriteString(theme.DimmedStyle.Render("  verified"))
		}
		b.WriteString("\n")
		if m.user.LastLoginAt != nil && !m.user.LastLoginAt.IsZero() {
			b.WriteString(theme.DimmedStyle.Render(
				"Last sign-in " + m.user.LastLoginAt.Local().Format("2006-01-02 15:04")))
			b.WriteString("\n")
		}
		if line := m.expiryLine(time.Now()); line != "" {
			b.WriteString(theme.DimmedStyle.Render(line))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(m.form.View())
	}

	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render("enter save | esc back"))
	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func (m Model) expiryLine(now time.Time) string {
	if m.sessions == nil {
		return ""
	}
	sess, err := m.sessions.Load()
	if err != nil {
		return ""
	}
	exp, ok := session.AccessTokenExpiry(sess.AccessToken)
	if !ok {
		return ""
	}
	if exp.Before(now) {
		return "Access token expired; it renews on the next request"
	}
	return "Access token valid for " + exp.Sub(now).Round(time.Minute).String()
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func validateOptionalURL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("enter a full URL such as https://example.com/me.png")
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
