package render

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// PickerModel lets the user choose one bar with the arrow keys.
type PickerModel struct {
	heading string
	lines   []string

	cursor    int
	confirmed bool
}

// NewPickerModel creates a picker over lines.
func NewPickerModel(heading string, lines []string) PickerModel {
	return PickerModel{heading: heading, lines: lines}
}

// Init implements tea.Model.
func (m PickerModel) Init() tea.Cmd { return nil }

// Update handles key presses.
func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "esc", "q":
		return m, tea.Quit

	case "up", "k":
		m.cursor--
		if m.cursor < 0 {
			m.cursor = len(m.lines) - 1
		}

	case "down", "j":
		m.cursor++
		if m.cursor >= len(m.lines) {
			m.cursor = 0
		}

	case "enter":
		if len(m.lines) > 0 {
			m.confirmed = true
		}
		return m, tea.Quit
	}

	return m, nil
}

// View renders the bar list with the cursor highlighted.
func (m PickerModel) View() string {
	var sections []string
	if m.heading != "" {
		sections = append(sections, headingStyle.Render(m.heading))
	}
	for i, line := range m.lines {
		sections = append(sections, renderBar(i, line, i == m.cursor))
	}
	sections = append(sections, hintStyle.Render(strings.Join([]string{
		"↑/↓ move", "enter copy", "q quit",
	}, " • ")))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// Selected returns the chosen bar, if the user confirmed one.
func (m PickerModel) Selected() (string, int, bool) {
	if !m.confirmed {
		return "", 0, false
	}
	return m.lines[m.cursor], m.cursor + 1, true
}

// Pick runs the picker and returns the chosen bar's 1-based index, or 0
// when the user quit without choosing.
func Pick(heading string, lines []string, opts ...tea.ProgramOption) (int, error) {
	final, err := tea.NewProgram(NewPickerModel(heading, lines), opts...).Run()
	if err != nil {
		return 0, err
	}
	_, n, ok := final.(PickerModel).Selected()
	if !ok {
		return 0, nil
	}
	return n, nil
}
