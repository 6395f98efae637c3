package theme

import (
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/trakker/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// namedColors maps column and label color names to terminal colors.
var namedColors = map[string]lipgloss.AdaptiveColor{
	"gray":   ColorGray,
	"red":    ColorRed,
	"orange": ColorOrange,
	"amber":  {Dark: "#FFC078", Light: "#B45309"},
	"yellow": ColorYellow,
	"lime":   {Dark: "#A9E34B", Light: "#4D7C0F"},
	"green":  ColorGreen,
	"teal":   {Dark: "#38D9A9", Light: "#0F766E"},
	"blue":   ColorBlue,
	"indigo": {Dark: "#748FFC", Light: "#4338CA"},
	"purple": ColorMagenta,
	"pink":   {Dark: "#F783AC", Light: "#BE185D"},
}

var (
	detectOnce sync.Once
	systemDark bool
)

// Apply switches the palette for a theme preference. "system" uses the
// background lipgloss detected before any override.
func Apply(pref string) {
	detectOnce.Do(func() { systemDark = lipgloss.HasDarkBackground() })

	switch pref {
	case model.ThemeDark:
		lipgloss.SetHasDarkBackground(true)
	case model.ThemeLight:
		lipgloss.SetHasDarkBackground(false)
	case model.ThemeSystem:
		lipgloss.SetHasDarkBackground(systemDark)
	}
}

// Named returns the color for a column or label color name.
func Named(name string) lipgloss.TerminalColor {
	if c, ok := namedColors[name]; ok {
		return c
	}
	return ColorGray
}

// HeaderStyle is used for the application title bar.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// PanelStyle wraps full-page content such as help and the card editor.
var PanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// TitleStyle is the bold page heading.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	MarginBottom(1)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// HelpStyle is used for keyboard hints.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// DimmedStyle renders archived or pending entries.
var DimmedStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// ErrorStyle renders inline errors.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(ColorRed).
	Bold(true)

// OverdueStyle marks due dates in the past.
var OverdueStyle = lipgloss.NewStyle().
	Foreground(ColorRed)

// ToastStyle renders a transient status bar message; ToastErrorStyle is
// the failure variant.
var (
	ToastStyle = lipgloss.NewStyle().
			Foreground(ColorGreen).
			Background(ColorSubtle).
			Bold(true).
			Padding(0, 1)
	ToastErrorStyle = ToastStyle.Foreground(ColorRed)
)

// ColumnStyle frames one kanban column. The border takes the column's
// background color; the focused column gets a thick border.
func ColumnStyle(color string, focused bool, width int) lipgloss.Style {
	border := lipgloss.RoundedBorder()
	if focused {
		border = lipgloss.ThickBorder()
	}
	fg := lipgloss.TerminalColor(ColorBorder)
	if color != "" {
		fg = Named(color)
	} else if focused {
		fg = ColorBlue
	}
	return lipgloss.NewStyle().
		Border(border).
		BorderForeground(fg).
		Padding(0, 1).
		Width(width)
}

// CardStyle renders a card inside a column.
func CardStyle(selected bool) lipgloss.Style {
	if selected {
		return SelectedItemStyle
	}
	return ListItemStyle
}

// LabelStyle renders a card label chip.
func LabelStyle(color string) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(Named(color)).
		Bold(true)
}

// PriorityStyle returns a color-coded style for a local card priority.
func PriorityStyle(priority string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch priority {
	case model.PriorityHigh:
		return base.Foreground(ColorRed)
	case model.PriorityMedium:
		return base.Foreground(ColorYellow)
	case model.PriorityLow:
		return base.Foreground(ColorBlue)
	default:
		return base.Foreground(ColorGray)
	}
}
