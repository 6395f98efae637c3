package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/trakker/internal/cache"
	"github.com/nhle/trakker/internal/model"
	"github.com/nhle/trakker/internal/theme"
	"github.com/nhle/trakker/internal/ui"
)

// toastTTL is how long a toast stays in the status bar.
const toastTTL = 4 * time.Second

type toastExpiredMsg struct{ id int }

type loggedOutMsg struct{ err error }

func (m Model) showToast(t ui.ToastMsg) (tea.Model, tea.Cmd) {
	if t.Text == "" {
		return m, nil
	}
	if t.Error {
		m.log.Warn("action failed", "message", t.Text)
	}
	m.toastID++
	m.toast = t.Text
	m.toastErr = t.Error
	id := m.toastID
	return m, tea.Tick(toastTTL, func(time.Time) tea.Msg { return toastExpiredMsg{id: id} })
}

// waitForCacheChange blocks until the cache changes, then folds any burst
// of queued events into one message.
func waitForCacheChange(events <-chan cache.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		var msg ui.CacheChangedMsg
		for {
			if ev.Kind == cache.EventInvalidated {
				msg.Invalidated = append(msg.Invalidated, ev.Key)
			}
			select {
			case ev, ok = <-events:
				if !ok {
					return msg
				}
			default:
				return msg
			}
		}
	}
}

// refetchInvalidated fetches the current page's data again when a settled
// mutation marked it stale, instead of waiting for the next poll.
func (m *Model) refetchInvalidated(invalidated []cache.Key) tea.Cmd {
	var want cache.Key
	switch m.page {
	case PageBoards:
		want = cache.BoardLists
	case PageBoard:
		want = cache.BoardDetail(m.deps.Poller.Watched())
	default:
		return nil
	}

	for _, k := range invalidated {
		if k.String() != want.String() {
			continue
		}
		// A fetch later in the same burst may have replaced it already.
		staleTime := time.Duration(m.deps.Config.Cache.StaleTimeSec) * time.Second
		if !m.deps.Cache.IsStale(want, staleTime) {
			return nil
		}
		if m.page == PageBoard {
			m.deps.Poller.Refresh()
			return nil
		}
		return m.boardList.Init()
	}
	return nil
}

func (m Model) loadUser() tea.Cmd {
	users := m.deps.Services.Users
	log := m.log
	return func() tea.Msg {
		if _, err := users.Me(context.Background()); err != nil {
			log.Warn("loading profile", "error", err)
		}
		return nil
	}
}

// refresh refetches what the current page shows.
func (m Model) refresh() (tea.Model, tea.Cmd) {
	switch m.page {
	case PageBoard:
		m.deps.Poller.Refresh()
		return m, ui.Toast("Refreshing board")
	case PageBoards:
		m.deps.Cache.Invalidate(cache.BoardLists)
		cmd := m.boardList.Init()
		return m, cmd
	}
	return m, nil
}

func (m Model) logout() tea.Cmd {
	a := m.deps.Auth
	return func() tea.Msg {
		return loggedOutMsg{err: a.Logout(context.Background())}
	}
}

// executeCommand handles a command string from the command palette.
func (m Model) executeCommand(cmd string) (tea.Model, tea.Cmd) {
	cmd = strings.ToLower(strings.TrimSpace(cmd))

	switch cmd {
	case "quit", "q":
		return m, tea.Quit
	case "logout", "sign out":
		return m, m.logout()
	case "refresh", "sync":
		return m.refresh()
	case "boards":
		return m.showBoards(false)
	case "archived":
		return m.showBoards(true)
	case "profile":
		return m.openProfile()
	}

	if pref, ok := strings.CutPrefix(cmd, "theme "); ok {
		return m.setTheme(strings.TrimSpace(pref))
	}
	return m, func() tea.Msg {
		return ui.ToastMsg{Text: fmt.Sprintf("Unknown command %q", cmd), Error: true}
	}
}

func (m Model) showBoards(archived bool) (tea.Model, tea.Cmd) {
	if m.page == PageLogin {
		return m, nil
	}
	if m.boardList.ShowingArchived() != archived {
		m.boardList.ToggleArchived()
	}
	m.page = PageBoards
	m.hasBoard = false
	m.deps.Poller.Watch("")
	cmd := m.boardList.Init()
	return m, cmd
}

// setTheme applies a theme preference and saves it to the config file.
func (m Model) setTheme(pref string) (tea.Model, tea.Cmd) {
	switch pref {
	case model.ThemeDark, model.ThemeLight, model.ThemeSystem:
	default:
		return m, func() tea.Msg {
			return ui.ToastMsg{Text: "Theme must be dark, light or system", Error: true}
		}
	}

	cfg := *m.deps.Config
	cfg.Display.Theme = pref
	m.deps.Config = &cfg
	theme.Apply(pref)

	path := m.deps.ConfigPath
	if path == "" {
		return m, ui.Toast("Theme set to " + pref)
	}
	return m, func() tea.Msg {
		err := model.SaveConfig(path, &cfg)
		return ui.ResultToast(err, "Theme set to "+pref)
	}
}

// applyConfig takes a configuration reloaded from disk.
func (m Model) applyConfig(cfg *model.AppConfig) (tea.Model, tea.Cmd) {
	if cfg == nil {
		return m, nil
	}
	if cfg.Display.Theme != m.deps.Config.Display.Theme {
		m.log.Info("theme changed on disk", "theme", cfg.Display.Theme)
	}
	m.deps.Config = cfg
	theme.Apply(cfg.Display.Theme)
	return m, nil
}
