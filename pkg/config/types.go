package config

import "fmt"

// Backend selects which API the downstream claude CLI talks to.
type Backend string

const (
	BackendAnthropic  Backend = "anthropic"
	BackendOpenRouter Backend = "openrouter"
)

// ParseBackend validates a stored or user-supplied backend name.
func ParseBackend(s string) (Backend, error) {
	switch Backend(s) {
	case BackendAnthropic, BackendOpenRouter:
		return Backend(s), nil
	default:
		return "", fmt.Errorf("unknown backend %q", s)
	}
}

// Role is a model tier claude can be pointed at separately.
type Role string

const (
	RoleSonnet Role = "sonnet"
	RoleOpus   Role = "opus"
	RoleHaiku  Role = "haiku"
)

// Roles lists the configurable tiers in prompt order.
var Roles = []Role{RoleSonnet, RoleOpus, RoleHaiku}

// Config holds the persisted launcher preferences. Every field is optional.
type Config struct {
	// Backend is the last used backend
	Backend Backend `json:"backend,omitempty"`

	// SelectedModel is the primary OpenRouter model id
	SelectedModel string `json:"selectedModel,omitempty"`

	// Per-role overrides; empty means SelectedModel
	SonnetModel string `json:"sonnetModel,omitempty"`
	OpusModel   string `json:"opusModel,omitempty"`
	HaikuModel  string `json:"haikuModel,omitempty"`

	// LastModelFetch is an RFC 3339 timestamp of the last catalog fetch
	LastModelFetch string `json:"lastModelFetch,omitempty"`

	// SeenModels are the model ids present at the last fetch
	SeenModels []string `json:"seenModels,omitempty"`

	// OpenRouterAPIKey is the key issued by the login flow
	OpenRouterAPIKey string `json:"openrouterApiKey,omitempty"`
}

// HasAPIKey reports whether an OpenRouter key is stored.
func (c *Config) HasAPIKey() bool {
	return c.OpenRouterAPIKey != ""
}

// ClearAPIKey forgets the stored OpenRouter key.
func (c *Config) ClearAPIKey() {
	c.OpenRouterAPIKey = ""
}

// RoleModel returns the model configured for role, falling back to SelectedModel.
func (c *Config) RoleModel(role Role) string {
	var model string
	switch role {
	case RoleSonnet:
		model = c.SonnetModel
	case RoleOpus:
		model = c.OpusModel
	case RoleHaiku:
		model = c.HaikuModel
	}
	if model == "" {
		return c.SelectedModel
	}
	return model
}

// SetRoleModel stores the model for role.
func (c *Config) SetRoleModel(role Role, model string) {
	switch role {
	case RoleSonnet:
		c.SonnetModel = model
	case RoleOpus:
		c.OpusModel = model
	case RoleHaiku:
		c.HaikuModel = model
	}
}

// RawRoleModel returns the stored override for role without fallback.
func (c *Config) RawRoleModel(role Role) string {
	switch role {
	case RoleSonnet:
		return c.SonnetModel
	case RoleOpus:
		return c.OpusModel
	case RoleHaiku:
		return c.HaikuModel
	}
	return ""
}
