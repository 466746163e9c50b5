package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// SelectModel is an arrow-key menu over a short fixed list of choices.
type SelectModel struct {
	title     string
	choices   []string
	cursor    int
	selected  int
	cancelled bool
	done      bool
}

// NewSelectModel creates a menu with the given title and choices.
func NewSelectModel(title string, choices []string) SelectModel {
	return SelectModel{
		title:    title,
		choices:  choices,
		selected: -1,
	}
}

func (m SelectModel) Init() tea.Cmd {
	return nil
}

// Update handles key presses. Required by tea.Model.
func (m SelectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.choices)-1 {
			m.cursor++
		}
	case "enter":
		m.selected = m.cursor
		m.done = true
		return m, tea.Quit
	case "q", "esc", "ctrl+c":
		m.cancelled = true
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

// View renders the menu; nothing once finished.
func (m SelectModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(RenderTitle(m.title) + "\n\n")
	for i, choice := range m.choices {
		if m.cursor == i {
			b.WriteString(SelectedStyle.Render(fmt.Sprintf("%s %s", ListCursor, choice)) + "\n")
		} else {
			fmt.Fprintf(&b, "  %s\n", choice)
		}
	}
	b.WriteString(RenderMuted("\n(up/down to move, enter to select, esc to cancel)") + "\n")
	return b.String()
}

// Selected returns the chosen index, or -1 if nothing was chosen.
func (m SelectModel) Selected() int {
	return m.selected
}

// Cancelled reports whether the user aborted the menu.
func (m SelectModel) Cancelled() bool {
	return m.cancelled
}

// RunSelectWithTitle shows the menu and returns the chosen index.
// Aborting returns ErrCancelled.
func RunSelectWithTitle(title string, choices []string) (int, error) {
	if len(choices) == 0 {
		return -1, fmt.Errorf("no choices provided")
	}

	final, err := tea.NewProgram(NewSelectModel(title, choices)).Run()
	if err != nil {
		return -1, fmt.Errorf("failed to run select menu: %w", err)
	}

	m, ok := final.(SelectModel)
	if !ok {
		return -1, fmt.Errorf("unexpected model type")
	}
	if m.Cancelled() {
		return -1, ErrCancelled
	}
	return m.Selected(), nil
}
