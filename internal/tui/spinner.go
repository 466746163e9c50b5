package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DoneMsg signals that the work behind a spinner has finished.
type DoneMsg struct {
	Success bool
	Message string
}

// SpinnerModel shows a message next to an animated spinner until a DoneMsg
// arrives or the user cancels.
type SpinnerModel struct {
	spinner      spinner.Model
	message      string
	done         bool
	cancelled    bool
	success      bool
	finalMessage string
	style        lipgloss.Style
}

// SpinnerOption configures a SpinnerModel.
type SpinnerOption func(*SpinnerModel)

// WithMessageStyle sets the style for the spinner message.
func WithMessageStyle(style lipgloss.Style) SpinnerOption {
	return func(m *SpinnerModel) {
		m.style = style
	}
}

// NewSpinnerModel creates a spinner model with the given message and options.
func NewSpinnerModel(message string, opts ...SpinnerOption) SpinnerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	m := SpinnerModel{
		spinner: s,
		message: message,
		style:   lipgloss.NewStyle(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func (m SpinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m SpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.done = true
			m.cancelled = true
			m.finalMessage = "Cancelled"
			return m, tea.Quit
		}
	case DoneMsg:
		m.done = true
		m.success = msg.Success
		m.finalMessage = msg.Message
		return m, tea.Quit
	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m SpinnerModel) View() string {
	if !m.done {
		return m.spinner.View() + " " + m.style.Render(m.message)
	}
	if m.finalMessage == "" {
		return ""
	}
	if m.success {
		return SuccessStyle.Render("✓") + " " + m.finalMessage + "\n"
	}
	return ErrorStyle.Render("✗") + " " + m.finalMessage + "\n"
}

// IsDone returns whether the spinner has finished.
func (m SpinnerModel) IsDone() bool {
	return m.done
}

// Cancelled reports whether the user pressed ctrl+c.
func (m SpinnerModel) Cancelled() bool {
	return m.cancelled
}

// RunSpinnerWithTask runs task while showing a spinner and returns its error.
// successMessage is printed when the task succeeds. If the user cancels, the
// task is left to finish in the background and ErrCancelled is returned.
func RunSpinnerWithTask(message, successMessage string, task func() error, opts ...SpinnerOption) error {
	p := tea.NewProgram(NewSpinnerModel(message, opts...))

	errCh := make(chan error, 1)
	go func() {
		err := task()
		errCh <- err
		if err != nil {
			p.Send(DoneMsg{Success: false, Message: fmt.Sprintf("Failed: %v", err)})
		} else {
			p.Send(DoneMsg{Success: true, Message: successMessage})
		}
	}()

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("spinner error: %w", err)
	}
	if m, ok := final.(SpinnerModel); ok && m.Cancelled() {
		return ErrCancelled
	}
	return <-errCh
}
