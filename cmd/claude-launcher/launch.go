package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/thecloudstation/claude-launcher/pkg/config"
	"github.com/thecloudstation/claude-launcher/pkg/launcher"
	"github.com/thecloudstation/claude-launcher/pkg/models"
)

// maxAnnounced bounds the new-model list printed on startup.
const maxAnnounced = 5

const apiKeyEnvVar = "OPENROUTER_API_KEY"

var roleTitles = map[config.Role]string{
	config.RoleSonnet: "Sonnet (lighter tasks)",
	config.RoleOpus:   "Opus (complex tasks)",
	config.RoleHaiku:  "Haiku (quick/cheap)",
}

type launchOptions struct {
	anthropic   bool
	openrouter  bool
	pickModel   bool
	passthrough []string
}

// launch resolves the backend, prepares OpenRouter when selected and runs
// claude. A non-zero child status is returned as a cli.ExitCoder.
func (a *app) launch(ctx context.Context, opts launchOptions) error {
	cfg, err := a.store.Load()
	if err != nil {
		return err
	}

	backend, err := a.resolveBackend(cfg, opts)
	if err != nil {
		return err
	}

	var env []string
	if backend == config.BackendOpenRouter {
		env, err = a.prepareOpenRouter(ctx, cfg, opts.pickModel)
		if err != nil {
			return err
		}
		a.printf("\nLaunching claude with %s...\n\n", cfg.SelectedModel)
	} else {
		a.printf("Launching claude...\n\n")
	}

	code, err := a.launcher.Run(ctx, opts.passthrough, env)
	if err != nil {
		return err
	}
	if code != 0 {
		return cli.Exit("", code)
	}
	return nil
}

func (a *app) resolveBackend(cfg *config.Config, opts launchOptions) (config.Backend, error) {
	switch {
	case opts.anthropic:
		return config.BackendAnthropic, nil
	case opts.openrouter || opts.pickModel:
		return config.BackendOpenRouter, nil
	case cfg.Backend != "":
		return config.ParseBackend(string(cfg.Backend))
	}

	backend, err := a.prompt.SelectBackend()
	if err != nil {
		return "", err
	}
	cfg.Backend = backend
	if err := a.store.Save(cfg); err != nil {
		return "", fmt.Errorf("failed to save backend: %w", err)
	}
	return backend, nil
}

// prepareOpenRouter makes sure a key and model are available and returns the
// environment claude should run with. cfg is saved before returning.
func (a *app) prepareOpenRouter(ctx context.Context, cfg *config.Config, pickModel bool) ([]string, error) {
	if err := a.ensureAPIKey(ctx, cfg); err != nil {
		return nil, err
	}

	agentic, err := a.refreshCatalog(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if pickModel || cfg.SelectedModel == "" {
		if err := a.chooseModels(cfg, agentic); err != nil {
			return nil, err
		}
	}

	if err := a.store.Save(cfg); err != nil {
		return nil, fmt.Errorf("failed to save config: %w", err)
	}
	return launcher.BuildEnv(a.environ(), cfg.OpenRouterAPIKey, cfg), nil
}

func (a *app) ensureAPIKey(ctx context.Context, cfg *config.Config) error {
	if cfg.HasAPIKey() {
		return nil
	}

	if envKey := a.getenv(apiKeyEnvVar); envKey != "" {
		useEnv, err := a.prompt.Confirm("Use existing "+apiKeyEnvVar+" from environment?", true)
		if err != nil {
			return err
		}
		if useEnv {
			cfg.OpenRouterAPIKey = envKey
			return a.store.Save(cfg)
		}
	}

	a.printf("No API key found. Starting login...\n\n")
	key, err := a.login(ctx)
	if err != nil {
		return err
	}
	cfg.OpenRouterAPIKey = key
	return a.store.Save(cfg)
}

// refreshCatalog fetches the tool-capable models, announces any that appeared
// since the last run and records what was seen.
func (a *app) refreshCatalog(ctx context.Context, cfg *config.Config) ([]models.Model, error) {
	var all []models.Model
	err := a.prompt.Progress("Fetching models...", "Models fetched", func() error {
		var err error
		all, err = a.catalog.List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	agentic := models.FilterAgentic(all)
	a.logger.Debug("model catalog filtered", "total", len(all), "agentic", len(agentic))

	fresh := models.NewModels(agentic, cfg.SeenModels)
	if len(fresh) > 0 && len(cfg.SeenModels) > 0 {
		a.announce(fresh)
	}

	cfg.SeenModels = models.IDs(agentic)
	cfg.LastModelFetch = a.now().UTC().Format(time.RFC3339)
	return agentic, nil
}

func (a *app) announce(fresh []models.Model) {
	a.printf("\n%d new model(s) available:\n", len(fresh))
	for _, m := range fresh[:min(len(fresh), maxAnnounced)] {
		a.printf("  - %s\n", m.Name)
	}
	if len(fresh) > maxAnnounced {
		a.printf("  ... and %d more\n", len(fresh)-maxAnnounced)
	}
	a.printf("\n")
}

func (a *app) chooseModels(cfg *config.Config, agentic []models.Model) error {
	if len(agentic) == 0 {
		return fmt.Errorf("no tool-capable models available from OpenRouter")
	}

	selected, err := a.prompt.SelectModel("Select model:", agentic, cfg.SelectedModel)
	if err != nil {
		return err
	}
	cfg.SelectedModel = selected

	configureRoles, err := a.prompt.Confirm("Configure role models?", false)
	if err != nil {
		return err
	}
	if !configureRoles {
		return nil
	}

	for _, role := range config.Roles {
		m, err := a.prompt.SelectModel(roleTitles[role], agentic, cfg.RawRoleModel(role))
		if err != nil {
			return err
		}
		cfg.SetRoleModel(role, m)
	}
	a.logger.Debug("role models configured",
		"sonnet", cfg.RoleModel(config.RoleSonnet),
		"opus", cfg.RoleModel(config.RoleOpus),
		"haiku", cfg.RoleModel(config.RoleHaiku))
	return nil
}
