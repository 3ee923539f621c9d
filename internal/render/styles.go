// Package render draws freestyles in the terminal: styled bar cards,
// glamour markdown, an interactive bar picker and clipboard copy.
package render

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#7aa2f7")
	colorAccent  = lipgloss.Color("#bb9af7")
	colorSuccess = lipgloss.Color("#9ece6a")
	colorError   = lipgloss.Color("#f7768e")
	colorTextDim = lipgloss.Color("#565f89")
	colorBorder  = lipgloss.Color("#3b4261")
)

var (
	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			MarginBottom(1)

	barStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	selectedBarStyle = barStyle.
				BorderForeground(colorAccent).
				Foreground(colorAccent)

	indexStyle = lipgloss.NewStyle().Foreground(colorTextDim)

	hintStyle = lipgloss.NewStyle().Foreground(colorTextDim).Italic(true)

	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)

	errorStyle = lipgloss.NewStyle().Foreground(colorError)
)
