package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// ConfirmModel is a yes/no question answered with y, n or enter.
type ConfirmModel struct {
	message   string
	value     bool
	answered  bool
	cancelled bool
}

// NewConfirmModel creates a question whose answer on a bare enter is defaultYes.
func NewConfirmModel(message string, defaultYes bool) ConfirmModel {
	return ConfirmModel{message: message, value: defaultYes}
}

func (m ConfirmModel) Init() tea.Cmd {
	return nil
}

func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "y", "Y":
		m.value = true
	case "n", "N":
		m.value = false
	case "enter":
	case "esc", "ctrl+c":
		m.cancelled = true
		return m, tea.Quit
	default:
		return m, nil
	}
	m.answered = true
	return m, tea.Quit
}

// View renders the question; once answered it shows the answer.
func (m ConfirmModel) View() string {
	if m.cancelled {
		return ""
	}
	if m.answered {
		answer := "No"
		if m.value {
			answer = "Yes"
		}
		return fmt.Sprintf("%s %s\n", RenderTitle(m.message), answer)
	}

	hint := "(y/N)"
	if m.value {
		hint = "(Y/n)"
	}
	return fmt.Sprintf("%s %s ", RenderTitle(m.message), RenderMuted(hint))
}

// Value returns the answer.
func (m ConfirmModel) Value() bool {
	return m.value
}

func (m ConfirmModel) Cancelled() bool {
	return m.cancelled
}

// RunConfirm asks message and returns the answer. Aborting returns ErrCancelled.
func RunConfirm(message string, defaultYes bool) (bool, error) {
	final, err := tea.NewProgram(NewConfirmModel(message, defaultYes)).Run()
	if err != nil {
		return false, fmt.Errorf("failed to run confirm prompt: %w", err)
	}

	m, ok := final.(ConfirmModel)
	if !ok {
		return false, fmt.Errorf("unexpected model type")
	}
	if m.Cancelled() {
		return false, ErrCancelled
	}
	return m.Value(), nil
}
