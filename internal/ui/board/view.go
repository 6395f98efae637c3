package board

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/trakker/internal/model"
	"github.com/nhle/trakker/internal/theme"
)

const (
	columnWidth = 30
	columnGap   = 1
)

// View renders the board page.
func (m Model) View() string {
	switch m.mode {
	case modeCardForm:
		return m.cardForm.View()
	case modeColumnForm:
		return m.viewForm(m.colForm.View())
	case modeConfirmDelete:
		return m.viewForm(m.confirm.View())
	}
	return m.viewBoard()
}

func (m Model) viewForm(s string) string {
	return lipgloss.NewStyle().Padding(1, 2).Render(s)
}

func (m Model) viewBoard() string {
	if !m.loaded {
		if m.loadErr != "" {
			return m.pad(theme.ErrorStyle.Render("Failed to load board: " + m.loadErr))
		}
		return m.pad(theme.DimmedStyle.Render("Loading board..."))
	}

	var b strings.Builder
	if desc := deref(m.board.Description); desc != "" {
		b.WriteString(theme.DimmedStyle.Render(desc))
		b.WriteString("\n")
	}

	if len(m.board.Columns) == 0 {
		b.WriteString(theme.DimmedStyle.Render("This board has no columns. Press 'c' to add one."))
		return m.pad(b.String())
	}

	first, last := m.visibleColumns()
	rendered := make([]string, 0, last-first)
	for i := first; i < last; i++ {
		rendered = append(rendered, m.renderColumn(m.board.Columns[i], i == m.colIdx))
	}

	row := lipgloss.JoinHorizontal(lipgloss.Top, joinGap(rendered)...)
	b.WriteString(row)

	if first > 0 || last < len(m.board.Columns) {
		b.WriteString("\n")
		b.WriteString(theme.DimmedStyle.Render(
			fmt.Sprintf("columns %d-%d of %d", first+1, last, len(m.board.Columns))))
	}

	return m.pad(b.String())
}

// visibleColumns returns the window of columns that fits the width and
// contains the focused one.
func (m Model) visibleColumns() (int, int) {
	n := len(m.board.Columns)
	fit := max((m.width-2)/(columnWidth+2+columnGap), 1)
	if fit >= n {
		return 0, n
	}
	first := min(max(m.colIdx-fit/2, 0), n-fit)
	return first, first + fit
}

func (m Model) renderColumn(col model.Column, focused bool) string {
	var b strings.Builder

	header := theme.TitleStyle.UnsetMarginBottom().Render(truncate(col.Name, columnWidth-6))
	header += theme.DimmedStyle.Render(fmt.Sprintf(" %d", len(col.Cards)))
	if model.IsTempID(col.ID) {
		header += theme.DimmedStyle.Render(" (saving)")
	}
	b.WriteString(header)
	b.WriteString("\n")

	if len(col.Cards) == 0 {
		b.WriteString(theme.DimmedStyle.Render("No cards"))
	}

	// Leave room for the header, the border and the page padding.
	budget := max(m.height-8, 3)
	used := 0
	for i, card := range col.Cards {
		block := m.renderCard(card, focused && i == m.cardIdx)
		h := lipgloss.Height(block)
		if used+h > budget && i > 0 {
			b.WriteString(theme.DimmedStyle.Render(fmt.Sprintf("+%d more", len(col.Cards)-i)))
			break
		}
		b.WriteString(block)
		b.WriteString("\n")
		used += h
	}

	color := ""
	if col.BackgroundColor != nil {
		color = *col.BackgroundColor
	}
	return theme.ColumnStyle(color, focused, columnWidth).Render(b.String())
}

func (m Model) renderCard(card model.Card, selected bool) string {
	width := columnWidth - 4
	var lines []string

	title := truncate(card.Title, width)
	if p, ok := m.priority[card.ID]; ok && p != "" {
		marker := priorityMarker(p)
		title = theme.PriorityStyle(p).Render(marker) + " " + truncate(card.Title, width-len(marker)-1)
	}
	if model.IsTempID(card.ID) {
		title = theme.DimmedStyle.Render(truncate(card.Title, width))
	}
	lines = append(lines, title)

	var meta []string
	for _, l := range card.Labels {
		def := model.LookupLabel(l)
		meta = append(meta, theme.LabelStyle(def.Color).Render(def.Name))
	}
	if card.DueDate != nil && !card.DueDate.IsZero() {
		due := "due " + card.DueDate.Format("Jan 2")
		if isOverdue(card.DueDate.Time, time.Now()) {
			meta = append(meta, theme.OverdueStyle.Render(due))
		} else {
			meta = append(meta, theme.DimmedStyle.Render(due))
		}
	}
	if len(meta) > 0 {
		lines = append(lines, lipgloss.NewStyle().Width(width).Render(strings.Join(meta, " ")))
	}

	return theme.CardStyle(selected).Render(strings.Join(lines, "\n"))
}

func (m Model) pad(s string) string {
	return lipgloss.NewStyle().Padding(0, 1).Width(m.width).Height(m.height).Render(s)
}

// isOverdue reports whether the due day is before today. Due dates are
// calendar days stored at UTC midnight.
func isOverdue(due, now time.Time) bool {
	dy, dm, dd := due.UTC().Date()
	ny, nm, nd := now.Date()
	return time.Date(dy, dm, dd, 0, 0, 0, 0, time.UTC).
		Before(time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC))
}

func priorityMarker(p string) string {
	switch p {
	case model.PriorityHigh:
		return "!!!"
	case model.PriorityMedium:
		return "!!"
	default:
		return "!"
	}
}

func joinGap(blocks []string) []string {
	if len(blocks) < 2 {
		return blocks
	}
	gap := strings.Repeat(" ", columnGap)
	out := make([]string, 0, len(blocks)*2-1)
	for i, b := range blocks {
		if i > 0 {
			out = append(out, gap)
		}
		out = append(out, b)
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if n <= 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
