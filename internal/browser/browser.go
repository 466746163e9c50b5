// Package browser opens URLs in the user's default web browser.
package browser

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/hashicorp/go-hclog"
	"github.com/skratchdot/open-golang/open"
)

// linuxOpeners are tried in order when open-golang fails on Linux.
var linuxOpeners = []string{"xdg-open", "x-www-browser", "www-browser", "sensible-browser"}

// OpenURL opens url in the default browser. It tries open-golang first and
// falls back to platform commands. Callers treat failure as non-fatal and show
// the URL instead.
func OpenURL(url string) error {
	logger := hclog.Default().Named("browser")

	err := open.Start(url)
	if err == nil {
		logger.Debug("opened url with open-golang")
		return nil
	}
	logger.Debug("open-golang failed, trying platform command", "error", err)

	cmd, err := platformCommand(url)
	if err != nil {
		return err
	}

	logger.Debug("running browser command", "path", cmd.Path, "args", cmd.Args[1:])
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start browser command: %w", err)
	}
	// Reap the child so it does not linger as a zombie.
	go func() { _ = cmd.Wait() }()
	return nil
}

func platformCommand(url string) (*exec.Cmd, error) {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url), nil
	case "linux", "freebsd", "openbsd", "netbsd":
		for _, name := range linuxOpeners {
			if _, err := exec.LookPath(name); err == nil {
				return exec.Command(name, url), nil
			}
		}
		return nil, fmt.Errorf("no browser opener found (tried %v)", linuxOpeners)
	default:
		return nil, fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
}
