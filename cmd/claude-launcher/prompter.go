package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/thecloudstation/claude-launcher/internal/tui"
	"github.com/thecloudstation/claude-launcher/pkg/config"
	"github.com/thecloudstation/claude-launcher/pkg/models"
)

var errNotInteractive = errors.New("an interactive terminal is required")

var backendChoices = []struct {
	label   string
	backend config.Backend
}{
	{"Anthropic (standard)", config.BackendAnthropic},
	{"OpenRouter (multiple models)", config.BackendOpenRouter},
}

// tuiPrompter asks questions with the Bubble Tea prompts. Prompts fail when
// stdin or stdout is not a terminal; progress falls back to plain output.
type tuiPrompter struct {
	out io.Writer
}

func (p *tuiPrompter) SelectBackend() (config.Backend, error) {
	if !tui.IsInteractive() {
		return "", fmt.Errorf("%w to choose a backend; pass -a or -o", errNotInteractive)
	}

	labels := make([]string, len(backendChoices))
	for i, c := range backendChoices {
		labels[i] = c.label
	}
	idx, err := tui.RunSelectWithTitle("Select backend:", labels)
	if err != nil {
		return "", err
	}
	return backendChoices[idx].backend, nil
}

func (p *tuiPrompter) SelectModel(title string, options []models.Model, current string) (string, error) {
	if !tui.IsInteractive() {
		return "", fmt.Errorf("%w to choose a model", errNotInteractive)
	}
	return tui.RunSearchSelect(title, modelOptions(options), current)
}

func (p *tuiPrompter) Confirm(message string, defaultYes bool) (bool, error) {
	if !tui.IsInteractive() {
		return defaultYes, nil
	}
	return tui.RunConfirm(message, defaultYes)
}

func (p *tuiPrompter) Progress(message, doneMessage string, task func() error) error {
	if !tui.IsInteractive() {
		fmt.Fprintln(p.out, message)
		return task()
	}
	return tui.RunSpinnerWithTask(message, doneMessage, task, tui.WithMessageStyle(tui.MutedStyle))
}

func modelOptions(list []models.Model) []tui.Option {
	opts := make([]tui.Option, len(list))
	for i, m := range list {
		opts[i] = tui.Option{Label: models.Label(m), Value: m.ID}
	}
	return opts
}
