package tui

import (
	"errors"
	"os"

	"github.com/mattn/go-isatty"
)

// ErrCancelled is returned when the user aborts a prompt (esc or ctrl+c).
var ErrCancelled = errors.New("prompt cancelled")

// IsInteractive reports whether stdin and stdout are both terminals, which
// every prompt in this package requires.
func IsInteractive() bool {
	return isTerminal(os.Stdin.Fd()) && isTerminal(os.Stdout.Fd())
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
