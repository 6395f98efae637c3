package app

import (
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/trakker/internal/auth"
	"github.com/nhle/trakker/internal/cache"
	"github.com/nhle/trakker/internal/keys"
	"github.com/nhle/trakker/internal/model"
	"github.com/nhle/trakker/internal/service"
	"github.com/nhle/trakker/internal/session"
	"github.com/nhle/trakker/internal/store"
	appsync "github.com/nhle/trakker/internal/sync"
	"github.com/nhle/trakker/internal/ui"
	boardview "github.com/nhle/trakker/internal/ui/board"
	"github.com/nhle/trakker/internal/ui/boardlist"
	"github.com/nhle/trakker/internal/ui/command"
	helpview "github.com/nhle/trakker/internal/ui/help"
	"github.com/nhle/trakker/internal/ui/login"
	"github.com/nhle/trakker/internal/ui/profile"
	"github.com/nhle/trakker/internal/ui/reorder"
)

// SessionExpiredMsg is sent from outside the program when the API client
// gave up refreshing the session.
type SessionExpiredMsg struct{}

// ConfigChangedMsg carries a configuration reloaded from disk.
type ConfigChangedMsg struct {
	Config *model.AppConfig
}

// Page is the routed page under any overlay.
type Page int

const (
	PageLogin Page = iota
	PageBoards
	PageBoard
	PageReorder
	PageProfile
)

// Overlay is drawn instead of the page until dismissed.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayHelp
	OverlayCommand
)

// Deps are the collaborators the root model drives.
type Deps struct {
	Auth     *auth.Store
	Services *service.Services
	Cache    *cache.Cache
	Sessions *session.Store
	Poller   *appsync.Poller

	// Store holds local card priorities. It may be nil.
	Store store.Store

	Config     *model.AppConfig
	ConfigPath string
	Log        *slog.Logger
}

// Model is the root Bubble Tea model: it routes between pages, gates
// them on authentication and owns the header and status bar.
type Model struct {
	deps Deps
	log  *slog.Logger
	keys *keys.KeyMap

	page     Page
	overlay  Overlay
	layout   ui.Layout
	ready    bool
	hasBoard bool

	loginView   login.Model
	boardList   boardlist.Model
	boardView   boardview.Model
	reorderView reorder.Model
	profileView profile.Model
	helpView    helpview.Model
	commandView command.Model

	toast    string
	toastErr bool
	toastID  int

	cacheEvents <-chan cache.Event
	unsubscribe func()
}

// New creates the root model. Call Close after the program exits.
func New(d Deps) Model {
	if d.Log == nil {
		d.Log = slog.New(slog.DiscardHandler)
	}
	if d.Config == nil {
		d.Config = model.DefaultAppConfig()
	}
	k := keys.DefaultKeyMap()
	events, unsubscribe := d.Cache.Subscribe(64)

	return Model{
		deps:        d,
		log:         d.Log.With("component", "app"),
		keys:        k,
		loginView:   login.New(d.Auth, 80, 24),
		boardList:   boardlist.New(d.Services.Boards, k, 80, 24),
		helpView:    helpview.New(k, 80, 24),
		commandView: command.New(80, 24),
		cacheEvents: events,
		unsubscribe: unsubscribe,
	}
}

// Close ends the cache subscription and stops polling.
func (m Model) Close() {
	m.unsubscribe()
	m.deps.Poller.Stop()
}

// CurrentPage returns the routed page.
func (m Model) CurrentPage() Page {
	return m.page
}

// Init routes to the board list when a session exists and to sign-in
// otherwise, and starts the background loops.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		waitForCacheChange(m.cacheEvents),
		m.deps.Poller.Start(),
	}
	if m.deps.Auth.IsAuthenticated() {
		cmds = append(cmds, m.boardList.Init(), m.loadUser())
	} else {
		cmds = append(cmds, m.loginView.Init())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and dispatches to the active page.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.loginView.SetSize(w, h)
		m.boardList.SetSize(w, h)
		m.boardView.SetSize(w, h)
		m.reorderView.SetSize(w, h)
		m.profileView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		// Forward to the page so huh forms can lay themselves out.
		return m.updatePage(msg)

	case ui.CacheChangedMsg:
		m.boardList.Reload()
		if m.hasBoard {
			m.boardView.Reload()
		}
		refetch := m.refetchInvalidated(msg.Invalidated)
		return m, tea.Batch(refetch, waitForCacheChange(m.cacheEvents))

	case ui.ToastMsg:
		return m.showToast(msg)

	case toastExpiredMsg:
		if msg.id == m.toastID {
			m.toast = ""
			m.toastErr = false
		}
		return m, nil

	case appsync.BoardRefreshedMsg:
		next := m.deps.Poller.WaitForNextResult()
		if msg.Expired {
			return m.sessionExpired(next)
		}
		if msg.Error != nil {
			m.log.Warn("background refresh failed", "board", msg.BoardID, "error", msg.Error)
		}
		return m, next

	case SessionExpiredMsg:
		return m.sessionExpired(nil)

	case ConfigChangedMsg:
		return m.applyConfig(msg.Config)

	case loggedOutMsg:
		m.toLogin()
		if msg.err != nil {
			m.log.Warn("sign out incomplete", "error", msg.err)
		}
		return m, m.loginView.Init()

	case login.LoggedInMsg:
		m.page = PageBoards
		m.overlay = OverlayNone
		m.boardList = boardlist.New(m.deps.Services.Boards, m.keys,
			m.layout.ContentWidth(), m.layout.ContentHeight())
		cmd := tea.Batch(m.boardList.Init(), m.loadUser(), ui.Toast("Signed in"))
		return m, cmd

	case boardlist.OpenBoardMsg:
		return m.openBoard(msg.BoardID, msg.Name)

	case boardview.CloseMsg:
		m.page = PageBoards
		m.hasBoard = false
		m.deps.Poller.Watch("")
		cmd := m.boardList.Init()
		return m, cmd

	case boardview.OpenReorderMsg:
		m.page = PageReorder
		m.reorderView = reorder.New(msg.BoardID, msg.Columns, m.deps.Services.Columns,
			m.keys, m.layout.ContentWidth(), m.layout.ContentHeight())
		return m, nil

	case reorder.DoneMsg:
		m.page = PageBoard
		return m, nil

	case profile.CloseMsg:
		if m.hasBoard {
			m.page = PageBoard
		} else {
			m.page = PageBoards
		}
		return m, nil

	case command.CommandMsg:
		m.overlay = OverlayNone
		return m.executeCommand(string(msg))

	case tea.KeyMsg:
		if next, cmd, handled := m.handleGlobalKey(msg); handled {
			return next, cmd
		}
		if m.overlay == OverlayCommand {
			var cmd tea.Cmd
			m.commandView, cmd = m.commandView.Update(msg)
			return m, cmd
		}
		if m.overlay == OverlayHelp {
			var cmd tea.Cmd
			m.helpView, cmd = m.helpView.Update(msg)
			return m, cmd
		}
	}

	return m.updatePage(msg)
}

// handleGlobalKey applies keys that work on every page. Pages with an open
// form keep every key except ctrl+c.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit, true
	}

	if m.overlay != OverlayNone {
		if msg.String() == "esc" ||
			(m.overlay == OverlayHelp && msg.String() == "?") {
			m.overlay = OverlayNone
			return m, nil, true
		}
		return m, nil, false
	}

	if m.page == PageLogin || m.pageEditing() {
		return m, nil, false
	}

	switch msg.String() {
	case "?":
		m.overlay = OverlayHelp
		return m, nil, true

	case ":":
		m.overlay = OverlayCommand
		cmd := m.commandView.Focus()
		return m, cmd, true

	case "q":
		if m.page == PageBoards {
			return m, tea.Quit, true
		}

	case "r":
		if m.page == PageBoards || m.page == PageBoard {
			next, cmd := m.refresh()
			return next, cmd, true
		}

	case "u":
		if m.page == PageBoards || m.page == PageBoard {
			next, cmd := m.openProfile()
			return next, cmd, true
		}

	case "ctrl+l":
		return m, m.logout(), true
	}
	return m, nil, false
}

// pageEditing reports whether the page has a form with keyboard focus.
func (m Model) pageEditing() bool {
	switch m.page {
	case PageBoards:
		return m.boardList.Editing()
	case PageBoard:
		return m.boardView.Editing()
	case PageProfile, PageReorder:
		return true
	}
	return false
}

// updatePage dispatches the message to the routed page.
func (m Model) updatePage(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.page {
	case PageLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case PageBoards:
		m.boardList, cmd = m.boardList.Update(msg)
	case PageBoard:
		m.boardView, cmd = m.boardView.Update(msg)
	case PageReorder:
		m.reorderView, cmd = m.reorderView.Update(msg)
	case PageProfile:
		m.profileView, cmd = m.profileView.Update(msg)
	}

	return m, cmd
}

func (m Model) openBoard(boardID, name string) (tea.Model, tea.Cmd) {
	svc := m.deps.Services
	var metas boardview.MetaStore
	if m.deps.Store != nil {
		metas = m.deps.Store
	}
	m.boardView = boardview.New(boardID, name, svc.Boards, svc.Columns, svc.Cards, metas,
		m.keys, m.layout.ContentWidth(), m.layout.ContentHeight())
	m.hasBoard = true
	m.page = PageBoard
	m.deps.Poller.Watch(boardID)
	cmd := m.boardView.Init()
	return m, cmd
}

func (m Model) openProfile() (tea.Model, tea.Cmd) {
	var sessions profile.Sessions
	if m.deps.Sessions != nil {
		sessions = m.deps.Sessions
	}
	m.profileView = profile.New(m.deps.Services.Users, sessions,
		m.layout.ContentWidth(), m.layout.ContentHeight())
	m.page = PageProfile
	cmd := m.profileView.Init()
	return m, cmd
}

// sessionExpired drops back to sign-in after the server rejected the
// session. The auth store keeps the explanation for the login page.
func (m Model) sessionExpired(next tea.Cmd) (tea.Model, tea.Cmd) {
	if m.deps.Auth.IsAuthenticated() {
		m.deps.Auth.ForceLogout()
	}
	if m.page == PageLogin {
		return m, next
	}
	m.toLogin()
	return m, tea.Batch(next, m.loginView.Init())
}

func (m *Model) toLogin() {
	m.page = PageLogin
	m.overlay = OverlayNone
	m.hasBoard = false
	m.deps.Poller.Watch("")
	m.loginView = login.New(m.deps.Auth, m.layout.ContentWidth(), m.layout.ContentHeight())
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(m.headerTitle(), m.headerStatus())
	statusBar := m.layout.RenderStatusBar(m.keyHints(), m.toast, m.toastErr)
	return m.layout.RenderWithFrame(header, m.renderContent(), statusBar)
}

// renderContent returns the overlay, or the routed page.
func (m Model) renderContent() string {
	switch m.overlay {
	case OverlayHelp:
		return m.helpView.View()
	case OverlayCommand:
		return m.commandView.View()
	}

	switch m.page {
	case PageLogin:
		return m.loginView.View()
	case PageBoards:
		return m.boardList.View()
	case PageBoard:
		return m.boardView.View()
	case PageReorder:
		return m.reorderView.View()
	case PageProfile:
		return m.profileView.View()
	default:
		return ""
	}
}
