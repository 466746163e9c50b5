// Package models fetches the OpenRouter model catalog and narrows it to the
// models claude can drive.
package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const exactoSuffix = ":exacto"

var (
	perMillion = decimal.NewFromInt(1_000_000)
	thousand   = decimal.NewFromInt(1_000)
)

// Pricing is the per-token price in USD, as decimal strings.
type Pricing struct {
	Prompt     string `json:"prompt"`
	Completion string `json:"completion"`
}

// Model is one catalog entry.
type Model struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	ContextLength       int64    `json:"context_length"`
	Pricing             Pricing  `json:"pricing"`
	SupportedParameters []string `json:"supported_parameters,omitempty"`

	// HasExacto is set by FilterAgentic when an <id>:exacto variant exists.
	HasExacto bool `json:"-"`
}

// SupportsTools reports whether the model accepts tool calls.
func (m Model) SupportsTools() bool {
	for _, p := range m.SupportedParameters {
		if p == "tools" || p == "tool_choice" {
			return true
		}
	}
	return false
}

// FilterAgentic keeps models that support tool use, dropping the :exacto
// variants and flagging their base models instead. Order is preserved.
func FilterAgentic(models []Model) []Model {
	exacto := make(map[string]bool)
	for _, m := range models {
		if base, ok := strings.CutSuffix(m.ID, exactoSuffix); ok {
			exacto[base] = true
		}
	}

	var out []Model
	for _, m := range models {
		if strings.HasSuffix(m.ID, exactoSuffix) || !m.SupportsTools() {
			continue
		}
		m.HasExacto = exacto[m.ID]
		out = append(out, m)
	}
	return out
}

// NewModels returns the models whose id is not in seen.
func NewModels(models []Model, seen []string) []Model {
	known := make(map[string]struct{}, len(seen))
	for _, id := range seen {
		known[id] = struct{}{}
	}

	var out []Model
	for _, m := range models {
		if _, ok := known[m.ID]; !ok {
			out = append(out, m)
		}
	}
	return out
}

// IDs returns the ids of models in order.
func IDs(models []Model) []string {
	ids := make([]string, 0, len(models))
	for _, m := range models {
		ids = append(ids, m.ID)
	}
	return ids
}

// FormatPrice renders prompt/completion prices per million tokens, or "free".
func FormatPrice(m Model) string {
	prompt := parsePrice(m.Pricing.Prompt).Mul(perMillion)
	completion := parsePrice(m.Pricing.Completion).Mul(perMillion)
	if prompt.IsZero() && completion.IsZero() {
		return "free"
	}
	return fmt.Sprintf("$%s/$%s per 1M", prompt.StringFixed(2), completion.StringFixed(2))
}

func parsePrice(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatContext renders a context window size, e.g. 1.0M, 200k or 512.
func FormatContext(n int64) string {
	d := decimal.NewFromInt(n)
	switch {
	case n >= 1_000_000:
		return d.Div(perMillion).StringFixed(1) + "M"
	case n >= 1_000:
		return d.Div(thousand).Round(0).String() + "k"
	default:
		return strconv.FormatInt(n, 10)
	}
}

// Label is the one-line description shown in pickers.
func Label(m Model) string {
	name := m.Name
	if name == "" {
		name = m.ID
	}
	return fmt.Sprintf("%s [%s] %s", name, FormatContext(m.ContextLength), FormatPrice(m))
}
