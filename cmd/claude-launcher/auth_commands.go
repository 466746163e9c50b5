package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/thecloudstation/claude-launcher/internal/tui"
	"github.com/thecloudstation/claude-launcher/pkg/config"
)

func (a *app) loginCmd(ctx context.Context) error {
	cfg, err := a.store.Load()
	if err != nil {
		return err
	}

	key, err := a.login(ctx)
	if err != nil {
		return err
	}

	cfg.OpenRouterAPIKey = key
	cfg.Backend = config.BackendOpenRouter
	if err := a.store.Save(cfg); err != nil {
		return fmt.Errorf("failed to save API key: %w", err)
	}

	a.printf("%s\n", tui.RenderSuccess("Logged in successfully!"))
	return nil
}

func (a *app) logoutCmd() error {
	cfg, err := a.store.Load()
	if err != nil {
		return err
	}

	cfg.ClearAPIKey()
	if err := a.store.Save(cfg); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}

	a.printf("Logged out.\n")
	return nil
}

func (a *app) statusCmd() error {
	cfg, err := a.store.Load()
	if err != nil {
		return err
	}

	backend := string(cfg.Backend)
	if backend == "" {
		backend = "not set"
	}
	a.printf("%s\n", tui.RenderStatusLine("Backend", backend, ""))

	if cfg.HasAPIKey() {
		a.printf("%s\n", tui.RenderStatusLine("OpenRouter", "logged in ("+maskKey(cfg.OpenRouterAPIKey)+")", "success"))
	} else {
		a.printf("%s\n", tui.RenderStatusLine("OpenRouter", "not logged in", "warning"))
	}

	if cfg.SelectedModel != "" {
		a.printf("%s\n", tui.RenderStatusLine("Model", cfg.SelectedModel, ""))
		for _, role := range config.Roles {
			if m := cfg.RawRoleModel(role); m != "" {
				a.printf("%s\n", tui.RenderStatusLine(roleLabel(role), m, ""))
			}
		}
	}
	if cfg.LastModelFetch != "" {
		a.printf("%s\n", tui.RenderStatusLine("Models fetched", cfg.LastModelFetch, ""))
	}
	a.printf("%s\n", tui.RenderStatusLine("Config", a.store.Path(), ""))
	return nil
}

// maskKey keeps enough of a key to recognize it.
func maskKey(key string) string {
	if len(key) <= 12 {
		return strings.Repeat("*", len(key))
	}
	return key[:8] + "..." + key[len(key)-4:]
}

func roleLabel(role config.Role) string {
	s := string(role)
	return strings.ToUpper(s[:1]) + s[1:]
}
