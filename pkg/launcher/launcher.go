package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
)

// DefaultBinary is the CLI that gets launched.
const DefaultBinary = "claude"

// Launcher runs the claude CLI in the foreground.
type Launcher struct {
	Binary string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger hclog.Logger
}

// New returns a launcher for DefaultBinary wired to the process's stdio.
func New(logger hclog.Logger) *Launcher {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Launcher{
		Binary: DefaultBinary,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Logger: logger,
	}
}

// Run starts the binary with args and waits for it. env nil inherits the
// current environment. The returned code is the child's exit code (128+n when
// it died from signal n); err is only set when the child could not be run.
//
// Interrupts sent to the terminal reach the child through the process group,
// so while it runs the launcher swallows them instead of exiting underneath it.
func (l *Launcher) Run(ctx context.Context, args []string, env []string) (int, error) {
	binary := l.Binary
	if binary == "" {
		binary = DefaultBinary
	}
	logger := l.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdin = l.Stdin
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr
	cmd.Env = env

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	logger.Debug("starting process", "binary", binary, "args", args)
	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return 1, fmt.Errorf("%s not found in PATH: install it first", binary)
		}
		return 1, fmt.Errorf("failed to start %s: %w", binary, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	for {
		select {
		case sig := <-sigCh:
			logger.Debug("signal received while child is running", "signal", sig)
		case err := <-done:
			return exitCode(err)
		}
	}
}

func exitCode(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return 1, err
	}
	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return 128 + int(status.Signal()), nil
	}
	return exitErr.ExitCode(), nil
}
