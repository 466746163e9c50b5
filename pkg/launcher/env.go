// Package launcher prepares the environment for and runs the claude CLI.
package launcher

import (
	"maps"
	"slices"
	"strings"

	"github.com/thecloudstation/claude-launcher/pkg/config"
)

// OpenRouterAnthropicURL is the Anthropic-compatible endpoint claude is pointed at.
const OpenRouterAnthropicURL = "https://openrouter.ai/api"

const (
	envBaseURL    = "ANTHROPIC_BASE_URL"
	envAPIKey     = "ANTHROPIC_API_KEY"
	envAuthToken  = "ANTHROPIC_AUTH_TOKEN"
	envModel      = "ANTHROPIC_MODEL"
	envSonnetTier = "ANTHROPIC_DEFAULT_SONNET_MODEL"
	envOpusTier   = "ANTHROPIC_DEFAULT_OPUS_MODEL"
	envHaikuTier  = "ANTHROPIC_DEFAULT_HAIKU_MODEL"
)

var roleEnv = map[config.Role]string{
	config.RoleSonnet: envSonnetTier,
	config.RoleOpus:   envOpusTier,
	config.RoleHaiku:  envHaikuTier,
}

// OpenRouterVars returns the variables that route claude through OpenRouter.
// ANTHROPIC_API_KEY is present but empty so a key from the parent shell
// cannot take precedence over the auth token.
func OpenRouterVars(apiKey string, cfg *config.Config) map[string]string {
	vars := map[string]string{
		envBaseURL:   OpenRouterAnthropicURL,
		envAPIKey:    "",
		envAuthToken: apiKey,
		envModel:     cfg.SelectedModel,
	}
	for _, role := range config.Roles {
		vars[roleEnv[role]] = cfg.RoleModel(role)
	}
	return vars
}

// BuildEnv returns base with the OpenRouter variables applied. Entries in
// base with the same names are replaced; everything else is kept in order.
func BuildEnv(base []string, apiKey string, cfg *config.Config) []string {
	return mergeEnv(base, OpenRouterVars(apiKey, cfg))
}

func mergeEnv(base []string, vars map[string]string) []string {
	out := make([]string, 0, len(base)+len(vars))
	for _, kv := range base {
		name, _, _ := strings.Cut(kv, "=")
		if _, replaced := vars[name]; replaced {
			continue
		}
		out = append(out, kv)
	}
	for _, name := range slices.Sorted(maps.Keys(vars)) {
		out = append(out, name+"="+vars[name])
	}
	return out
}
