package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/thecloudstation/claude-launcher/internal/browser"
	"github.com/thecloudstation/claude-launcher/pkg/config"
	"github.com/thecloudstation/claude-launcher/pkg/launcher"
	"github.com/thecloudstation/claude-launcher/pkg/models"
	"github.com/thecloudstation/claude-launcher/pkg/oauth"
)

type configStore interface {
	Load() (*config.Config, error)
	Save(cfg *config.Config) error
	Path() string
}

type modelLister interface {
	List(ctx context.Context) ([]models.Model, error)
}

type processLauncher interface {
	Run(ctx context.Context, args []string, env []string) (int, error)
}

// prompter asks the user to make choices.
type prompter interface {
	SelectBackend() (config.Backend, error)
	SelectModel(title string, options []models.Model, current string) (string, error)
	Confirm(message string, defaultYes bool) (bool, error)
	Progress(message, doneMessage string, task func() error) error
}

// app holds the collaborators shared by every command.
type app struct {
	out      io.Writer
	logger   hclog.Logger
	store    configStore
	catalog  modelLister
	prompt   prompter
	launcher processLauncher
	login    func(ctx context.Context) (string, error)
	getenv   func(string) string
	environ  func() []string
	now      func() time.Time
}

type appOptions struct {
	openRouterURL string
	callbackPort  int
	noBrowser     bool
	out           io.Writer
	logger        hclog.Logger
}

func newApp(opts appOptions) (*app, error) {
	store, err := config.DefaultStore(opts.logger.Named("config"))
	if err != nil {
		return nil, err
	}

	auth := oauth.NewOpenRouter(opts.openRouterURL,
		oauth.WithCallbackPort(opts.callbackPort),
		oauth.WithNoBrowser(opts.noBrowser),
		oauth.WithOutput(opts.out),
		oauth.WithLogger(opts.logger.Named("oauth")),
		oauth.WithBrowserOpener(browser.OpenURL),
	)

	return &app{
		out:      opts.out,
		logger:   opts.logger,
		store:    store,
		catalog:  models.NewClient(opts.openRouterURL, opts.logger.Named("models")),
		prompt:   &tuiPrompter{out: opts.out},
		launcher: launcher.New(opts.logger.Named("launcher")),
		login:    interruptible(auth.Login),
		getenv:   os.Getenv,
		environ:  os.Environ,
		now:      time.Now,
	}, nil
}

// interruptible cancels fn's context on ctrl+c so the callback port is
// released before the process exits.
func interruptible(fn func(context.Context) (string, error)) func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
		defer stop()
		return fn(ctx)
	}
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
