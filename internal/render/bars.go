package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// Bars renders a heading followed by one numbered card per bar.
func Bars(heading string, lines []string) string {
	var sections []string
	if heading != "" {
		sections = append(sections, headingStyle.Render(heading))
	}
	if len(lines) == 0 {
		sections = append(sections, hintStyle.Render("No bars survived the filter."))
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}
	for i, line := range lines {
		sections = append(sections, renderBar(i, line, false))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderBar(i int, line string, selected bool) string {
	style := barStyle
	if selected {
		style = selectedBarStyle
	}
	label := indexStyle.Render(fmt.Sprintf("%d", i+1))
	return lipgloss.JoinHorizontal(lipgloss.Center, label, " ", style.Render(line))
}

// Success formats a confirmation line.
func Success(msg string) string { return successStyle.Render("✓ " + msg) }

// Warning formats a non-fatal failure line.
func Warning(msg string) string { return errorStyle.Render("⚠ " + msg) }

// Markdown renders md for the terminal with glamour. A width of zero
// disables wrapping.
func Markdown(md string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
		glamour.WithPreservedNewLines(),
	)
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return strings.TrimRight(out, "\n") + "\n", nil
}
