package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/thecloudstation/claude-launcher/internal/tui"
	"github.com/thecloudstation/claude-launcher/pkg/config"
	"github.com/thecloudstation/claude-launcher/pkg/oauth"
)

// Version is set at build time via -ldflags "-X main.Version=..."
var Version = "v0.1.0"

// exitCancelled is the conventional status for an interrupted prompt.
const exitCancelled = 130

// Known launcher commands. Any other bare word belongs to claude.
var commands = map[string]bool{
	"login": true, "logout": true, "status": true,
	"help": true, "h": true,
}

// Known launcher flags, and whether each takes a value.
var knownFlags = map[string]bool{
	"-o": false, "--openrouter": false,
	"-a": false, "--anthropic": false,
	"-m": false, "--model": false,
	"-h": false, "--help": false,
	"-v": false, "--version": false,
	"--no-browser":     false,
	"--log-level":      true,
	"--openrouter-url": true,
	"--callback-port":  true,
}

// splitArgs separates the launcher's own arguments from the ones forwarded to
// claude. Everything after "--" is forwarded, as is every token that is not a
// launcher flag or a leading launcher command. Launcher flags are moved ahead of the command so
// "claude-launcher login --no-browser" parses like "claude-launcher --no-browser login".
func splitArgs(args []string) (launcherArgs, passthrough []string) {
	if len(args) == 0 {
		return args, nil
	}

	var flags []string
	command := ""
	passthrough = []string{}

	for i := 1; i < len(args); i++ {
		arg := args[i]

		if arg == "--" {
			passthrough = append(passthrough, args[i+1:]...)
			break
		}

		name, _, hasValue := strings.Cut(arg, "=")
		if takesValue, ok := knownFlags[name]; ok && strings.HasPrefix(arg, "-") {
			if hasValue && !takesValue {
				passthrough = append(passthrough, arg)
				continue
			}
			flags = append(flags, arg)
			if takesValue && !hasValue && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
			continue
		}

		// A command word only counts before anything is forwarded, so
		// "claude-launcher -p help" sends "help" to claude as the prompt.
		if command == "" && len(passthrough) == 0 && commands[arg] {
			command = arg
			continue
		}

		passthrough = append(passthrough, arg)
	}

	launcherArgs = append([]string{args[0]}, flags...)
	if command != "" {
		launcherArgs = append(launcherArgs, command)
	}
	return launcherArgs, passthrough
}

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	loadDotEnv(stderr)

	launcherArgs, passthrough := splitArgs(args)
	app := newCLI(passthrough, stdout, stderr)
	return exitCode(app.Run(launcherArgs), stderr)
}

// loadDotEnv reads <config dir>/.env if present. Variables already set in
// the environment win.
func loadDotEnv(stderr io.Writer) {
	dir, err := config.Dir()
	if err != nil {
		return
	}
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		fmt.Fprintf(stderr, "Warning: failed to load %s: %v\n", path, err)
	}
}

// exitCode maps the result of a run to the process status.
func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}

	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		if msg := exitErr.Error(); msg != "" {
			fmt.Fprintln(stderr, msg)
		}
		return exitErr.ExitCode()
	}
	if errors.Is(err, tui.ErrCancelled) || errors.Is(err, context.Canceled) {
		return exitCancelled
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}

func newCLI(passthrough []string, stdout, stderr io.Writer) *cli.App {
	var a *app

	return &cli.App{
		Name:      "claude-launcher",
		Usage:     "Launch claude against Anthropic or OpenRouter",
		UsageText: "claude-launcher [command] [options] [-- claude-args...]",
		Description: "Examples:\n" +
			"   claude-launcher login              authenticate with OpenRouter\n" +
			"   claude-launcher                    use the last backend and model\n" +
			"   claude-launcher -m                 pick a model\n" +
			"   claude-launcher -- --resume        pass arguments to claude",
		Version:        Version,
		Writer:         stdout,
		ErrWriter:      stderr,
		ExitErrHandler: func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "openrouter",
				Aliases: []string{"o"},
				Usage:   "Use the OpenRouter backend",
			},
			&cli.BoolFlag{
				Name:    "anthropic",
				Aliases: []string{"a"},
				Usage:   "Use the Anthropic backend",
			},
			&cli.BoolFlag{
				Name:    "model",
				Aliases: []string{"m"},
				Usage:   "Show the model picker (implies --openrouter)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "Log level (trace, debug, info, warn, error)",
				EnvVars: []string{"CLAUDE_LAUNCHER_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "openrouter-url",
				Value:   oauth.DefaultBaseURL,
				Usage:   "OpenRouter base URL",
				EnvVars: []string{"OPENROUTER_URL"},
			},
			&cli.IntFlag{
				Name:    "callback-port",
				Value:   oauth.DefaultCallbackPort,
				Usage:   "Local port for the login callback",
				EnvVars: []string{"CLAUDE_LAUNCHER_CALLBACK_PORT"},
			},
			&cli.BoolFlag{
				Name:  "no-browser",
				Usage: "Print the login URL instead of opening a browser",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authenticate with OpenRouter",
				Action: func(c *cli.Context) error {
					return a.loginCmd(c.Context)
				},
			},
			{
				Name:  "logout",
				Usage: "Clear the stored OpenRouter API key",
				Action: func(c *cli.Context) error {
					return a.logoutCmd()
				},
			},
			{
				Name:  "status",
				Usage: "Show the stored backend, models and login state",
				Action: func(c *cli.Context) error {
					return a.statusCmd()
				},
			},
		},
		Before: func(c *cli.Context) error {
			logger := hclog.New(&hclog.LoggerOptions{
				Name:   "claude-launcher",
				Level:  hclog.LevelFromString(c.String("log-level")),
				Color:  hclog.AutoColor,
				Output: stderr,
			})
			hclog.SetDefault(logger)

			var err error
			a, err = newApp(appOptions{
				openRouterURL: c.String("openrouter-url"),
				callbackPort:  c.Int("callback-port"),
				noBrowser:     c.Bool("no-browser"),
				out:           stdout,
				logger:        logger,
			})
			return err
		},
		Action: func(c *cli.Context) error {
			return a.launch(c.Context, launchOptions{
				anthropic:   c.Bool("anthropic"),
				openrouter:  c.Bool("openrouter"),
				pickModel:   c.Bool("model"),
				passthrough: passthrough,
			})
		},
	}
}
