package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	// initialResults caps the list shown before anything is typed
	initialResults = 20

	// pageSize is how many rows are visible at once
	pageSize = 10
)

// Option is one searchable choice. Label is displayed, Value is returned.
type Option struct {
	Label string
	Value string
}

// SearchSelectModel is a type-to-filter list. Matching is a case-insensitive
// substring test against both label and value.
type SearchSelectModel struct {
	title    string
	options  []Option
	def      string
	input    textinput.Model
	filtered []Option
	cursor   int
	offset   int

	chosen    *Option
	cancelled bool
}

// NewSearchSelectModel creates a search list. When defaultValue names one of
// the options it is preselected.
func NewSearchSelectModel(title string, options []Option, defaultValue string) SearchSelectModel {
	input := textinput.New()
	input.Placeholder = "type to search"
	input.Prompt = "> "
	input.Focus()

	m := SearchSelectModel{
		title:   title,
		options: options,
		def:     defaultValue,
		input:   input,
	}
	m.refilter()
	return m
}

func (m SearchSelectModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles navigation keys itself and forwards the rest to the input.
func (m SearchSelectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc", "ctrl+c":
			m.cancelled = true
			return m, tea.Quit
		case "enter":
			if len(m.filtered) == 0 {
				return m, nil
			}
			chosen := m.filtered[m.cursor]
			m.chosen = &chosen
			return m, tea.Quit
		case "up", "ctrl+p":
			m.move(-1)
			return m, nil
		case "down", "ctrl+n":
			m.move(1)
			return m, nil
		}
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.refilter()
	}
	return m, cmd
}

func (m *SearchSelectModel) move(delta int) {
	if len(m.filtered) == 0 {
		return
	}
	m.cursor = max(0, min(len(m.filtered)-1, m.cursor+delta))
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+pageSize {
		m.offset = m.cursor - pageSize + 1
	}
}

// refilter recomputes the visible options for the current query and resets
// the cursor, preferring the default option when it is visible.
func (m *SearchSelectModel) refilter() {
	m.filtered = FilterOptions(m.options, m.input.Value())
	if m.input.Value() == "" && m.def != "" && indexOf(m.filtered, m.def) < 0 {
		if i := indexOf(m.options, m.def); i >= 0 {
			m.filtered = append([]Option{m.options[i]}, m.filtered...)
		}
	}

	m.cursor, m.offset = 0, 0
	if i := indexOf(m.filtered, m.def); i >= 0 {
		m.move(i)
	}
}

// FilterOptions returns the options shown for query: the first 20 when query
// is empty, otherwise every option whose label or value contains it.
func FilterOptions(options []Option, query string) []Option {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return append([]Option(nil), options[:min(len(options), initialResults)]...)
	}

	var out []Option
	for _, o := range options {
		if strings.Contains(strings.ToLower(o.Label), query) ||
			strings.Contains(strings.ToLower(o.Value), query) {
			out = append(out, o)
		}
	}
	return out
}

func indexOf(options []Option, value string) int {
	if value == "" {
		return -1
	}
	for i, o := range options {
		if o.Value == value {
			return i
		}
	}
	return -1
}

// View renders the query line and the visible page of matches.
func (m SearchSelectModel) View() string {
	if m.chosen != nil || m.cancelled {
		return ""
	}

	var b strings.Builder
	b.WriteString(RenderTitle(m.title) + "\n")
	b.WriteString(m.input.View() + "\n\n")

	if len(m.filtered) == 0 {
		b.WriteString(RenderMuted("  no matches") + "\n")
	}
	end := min(len(m.filtered), m.offset+pageSize)
	for i := m.offset; i < end; i++ {
		o := m.filtered[i]
		if i == m.cursor {
			b.WriteString(SelectedStyle.Render(fmt.Sprintf("%s %s", ListCursor, o.Label)) + "\n")
		} else {
			fmt.Fprintf(&b, "  %s\n", o.Label)
		}
	}
	if len(m.filtered) > 0 {
		b.WriteString(RenderMuted(fmt.Sprintf("\n%s  (%d/%d, enter to select, esc to cancel)",
			m.filtered[m.cursor].Value, m.cursor+1, len(m.filtered))) + "\n")
	}
	return b.String()
}

// Chosen returns the picked option value and whether one was picked.
func (m SearchSelectModel) Chosen() (string, bool) {
	if m.chosen == nil {
		return "", false
	}
	return m.chosen.Value, true
}

// Cancelled reports whether the user aborted the search.
func (m SearchSelectModel) Cancelled() bool {
	return m.cancelled
}

// RunSearchSelect shows a searchable list and returns the chosen value.
// Aborting returns ErrCancelled.
func RunSearchSelect(title string, options []Option, defaultValue string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("no choices provided")
	}

	final, err := tea.NewProgram(NewSearchSelectModel(title, options, defaultValue)).Run()
	if err != nil {
		return "", fmt.Errorf("failed to run search: %w", err)
	}

	m, ok := final.(SearchSelectModel)
	if !ok {
		return "", fmt.Errorf("unexpected model type")
	}
	value, picked := m.Chosen()
	if m.Cancelled() || !picked {
		return "", ErrCancelled
	}
	return value, nil
}
