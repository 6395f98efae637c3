package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/trakker/internal/api"
	"github.com/nhle/trakker/internal/cache"
)

// ToastMsg asks the application to flash a message in the status bar.
type ToastMsg struct {
	Text  string
	Error bool
}

// Toast returns a command that shows text as a success toast.
func Toast(text string) tea.Cmd {
	return func() tea.Msg { return ToastMsg{Text: text} }
}

// ResultToast builds the toast for a finished mutation: the server's
// message on failure, ok otherwise.
func ResultToast(err error, ok string) ToastMsg {
	if err != nil {
		return ToastMsg{Text: api.Message(err), Error: true}
	}
	return ToastMsg{Text: ok}
}

// CacheChangedMsg is delivered whenever the query cache changes so pages
// can re-read their data. Invalidated lists the keys marked stale.
type CacheChangedMsg struct {
	Invalidated []cache.Key
}
