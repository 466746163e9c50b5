package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/thecloudstation/claude-launcher/internal/tui"
)

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		launcher    []string
		passthrough []string
	}{
		{
			name:        "no arguments",
			args:        []string{"cl"},
			launcher:    []string{"cl"},
			passthrough: []string{},
		},
		{
			name:        "double dash forwards everything after it",
			args:        []string{"cl", "-m", "--", "--resume", "-o"},
			launcher:    []string{"cl", "-m"},
			passthrough: []string{"--resume", "-o"},
		},
		{
			name:        "unknown flags are forwarded",
			args:        []string{"cl", "-o", "--resume", "-p", "hello"},
			launcher:    []string{"cl", "-o"},
			passthrough: []string{"--resume", "-p", "hello"},
		},
		{
			name:        "command with trailing flag is reordered",
			args:        []string{"cl", "login", "--no-browser"},
			launcher:    []string{"cl", "--no-browser", "login"},
			passthrough: []string{},
		},
		{
			name:        "valued flag consumes its value",
			args:        []string{"cl", "--log-level", "debug", "status"},
			launcher:    []string{"cl", "--log-level", "debug", "status"},
			passthrough: []string{},
		},
		{
			name:        "valued flag with equals",
			args:        []string{"cl", "--callback-port=9000", "login"},
			launcher:    []string{"cl", "--callback-port=9000", "login"},
			passthrough: []string{},
		},
		{
			name:        "only the first command word is a command",
			args:        []string{"cl", "status", "login"},
			launcher:    []string{"cl", "status"},
			passthrough: []string{"login"},
		},
		{
			name:        "command word after a forwarded flag is forwarded",
			args:        []string{"cl", "-p", "help"},
			launcher:    []string{"cl"},
			passthrough: []string{"-p", "help"},
		},
		{
			name:        "command word after prompt text is forwarded",
			args:        []string{"cl", "-o", "explain", "status"},
			launcher:    []string{"cl", "-o"},
			passthrough: []string{"explain", "status"},
		},
		{
			name:        "launcher flags before a command keep it a command",
			args:        []string{"cl", "-o", "--no-browser", "login"},
			launcher:    []string{"cl", "-o", "--no-browser", "login"},
			passthrough: []string{},
		},
		{
			name:        "prompt text is forwarded",
			args:        []string{"cl", "-a", "fix the tests"},
			launcher:    []string{"cl", "-a"},
			passthrough: []string{"fix the tests"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			launcher, passthrough := splitArgs(tt.args)
			if !reflect.DeepEqual(launcher, tt.launcher) {
				t.Errorf("launcher args = %v, want %v", launcher, tt.launcher)
			}
			if !reflect.DeepEqual(passthrough, tt.passthrough) {
				t.Errorf("passthrough = %v, want %v", passthrough, tt.passthrough)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		want   int
		stderr string
	}{
		{name: "success", err: nil, want: 0},
		{name: "child status", err: cli.Exit("", 42), want: 42},
		{name: "cancelled prompt", err: fmt.Errorf("choose: %w", tui.ErrCancelled), want: 130},
		{name: "interrupted login", err: fmt.Errorf("login failed: %w", context.Canceled), want: 130},
		{name: "other error", err: errors.New("boom"), want: 1, stderr: "Error: boom\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			if got := exitCode(tt.err, &stderr); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
			if stderr.String() != tt.stderr {
				t.Errorf("stderr = %q, want %q", stderr.String(), tt.stderr)
			}
		})
	}
}

func TestRun_Help(t *testing.T) {
	t.Setenv("CLAUDE_LAUNCHER_CONFIG_DIR", t.TempDir())

	var stdout, stderr bytes.Buffer
	if code := run([]string{"claude-launcher", "--help"}, &stdout, &stderr); code != 0 {
		t.Fatalf("run() = %d, stderr: %s", code, stderr.String())
	}
	for _, want := range []string{"login", "logout", "--openrouter", "--anthropic", "--model"} {
		if !bytes.Contains(stdout.Bytes(), []byte(want)) {
			t.Errorf("help output missing %q", want)
		}
	}
}

func TestRun_LogoutAndStatus(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CLAUDE_LAUNCHER_CONFIG_DIR", dir)

	var stdout, stderr bytes.Buffer
	if code := run([]string{"claude-launcher", "logout"}, &stdout, &stderr); code != 0 {
		t.Fatalf("logout = %d, stderr: %s", code, stderr.String())
	}
	if !bytes.Contains(stdout.Bytes(), []byte("Logged out.")) {
		t.Errorf("stdout = %q", stdout.String())
	}

	stdout.Reset()
	if code := run([]string{"claude-launcher", "status"}, &stdout, &stderr); code != 0 {
		t.Fatalf("status = %d, stderr: %s", code, stderr.String())
	}
	if !bytes.Contains(stdout.Bytes(), []byte("not logged in")) {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CLAUDE_LAUNCHER_CONFIG_DIR", dir)
	t.Setenv("CLAUDE_LAUNCHER_DOTENV_SET", "from-env")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("CLAUDE_LAUNCHER_DOTENV_NEW=from-file\nCLAUDE_LAUNCHER_DOTENV_SET=from-file\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("CLAUDE_LAUNCHER_DOTENV_NEW") })

	var stderr bytes.Buffer
	loadDotEnv(&stderr)

	if got := os.Getenv("CLAUDE_LAUNCHER_DOTENV_NEW"); got != "from-file" {
		t.Errorf("new var = %q, want from-file", got)
	}
	if got := os.Getenv("CLAUDE_LAUNCHER_DOTENV_SET"); got != "from-env" {
		t.Errorf("existing var = %q, want from-env", got)
	}
	if stderr.Len() != 0 {
		t.Errorf("unexpected warning: %s", stderr.String())
	}
}
