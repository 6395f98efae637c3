package app

import (
	"time"

	appsync "github.com/nhle/trakker/internal/sync"
)

func (m Model) headerTitle() string {
	switch m.page {
	case PageLogin:
		return "Trakker"
	case PageBoards:
		if m.boardList.ShowingArchived() {
			return "Trakker · Archived boards"
		}
		return "Trakker · Boards"
	case PageBoard, PageReorder:
		return "Trakker · " + m.boardView.Title()
	case PageProfile:
		return "Trakker · Profile"
	}
	return "Trakker"
}

// headerStatus shows who is signed in and, on a board, how fresh it is.
func (m Model) headerStatus() string {
	if m.page == PageLogin {
		return ""
	}

	status := ""
	if u, ok := m.deps.Services.Users.Cached(); ok {
		status = u.DisplayName()
	}
	if !m.hasBoard {
		return status
	}

	sync := syncStatus(m.deps.Poller.Status(), time.Now())
	if status == "" {
		return sync
	}
	return status + " | " + sync
}

func syncStatus(s appsync.SyncStatus, now time.Time) string {
	switch s.State {
	case appsync.SyncRunning:
		return "syncing"
	case appsync.SyncError:
		return "⚠ offline"
	}
	if s.LastSync.IsZero() {
		return "idle"
	}
	if now.Sub(s.LastSync) < time.Minute {
		return "synced just now"
	}
	return "synced " + s.LastSync.Format("15:04")
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.overlay {
	case OverlayHelp:
		return "? close help | esc back"
	case OverlayCommand:
		return "enter execute | tab complete | esc back"
	}

	switch m.page {
	case PageLogin:
		return "enter continue | ctrl+c quit"
	case PageBoards:
		if m.boardList.Editing() {
			return "tab next field | enter submit | esc cancel"
		}
		return "q quit | ? help | : command | r refresh | u profile | ctrl+l sign out"
	case PageBoard:
		if m.boardView.Editing() {
			return "tab next field | enter submit | esc cancel"
		}
		return "h/l column | j/k card | H/L move | n new | e edit | d delete | p priority | c/C/X column | o reorder | esc back"
	case PageReorder:
		return "j/k select | K/J move | enter save | esc cancel"
	case PageProfile:
		return "enter save | esc back"
	}
	return ""
}
