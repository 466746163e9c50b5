// Package config persists the launcher's preferences as JSON under the user's
// config directory.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/hashicorp/go-hclog"
)

const (
	appDirName = "claude-launcher"
	configFile = "config.json"
	lockSuffix = ".lock"
	dirEnvVar  = "CLAUDE_LAUNCHER_CONFIG_DIR"
	dirPerm    = 0700
	filePerm   = 0600
)

// Dir returns the configuration directory. CLAUDE_LAUNCHER_CONFIG_DIR takes
// precedence over ~/.config/claude-launcher.
func Dir() (string, error) {
	if dir := os.Getenv(dirEnvVar); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", appDirName), nil
}

// Path returns the location of config.json.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Store reads and writes a single config file.
type Store struct {
	dir    string
	logger hclog.Logger
}

// NewStore creates a store rooted at dir.
func NewStore(dir string, logger hclog.Logger) *Store {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Store{dir: dir, logger: logger}
}

// DefaultStore creates a store at Dir().
func DefaultStore(logger hclog.Logger) (*Store, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return NewStore(dir, logger), nil
}

// Dir returns the directory holding the config file.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the config file location.
func (s *Store) Path() string {
	return filepath.Join(s.dir, configFile)
}

// Load reads the config. A missing or unparseable file yields an empty
// config; only unexpected read errors are returned.
func (s *Store) Load() (*Config, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		s.logger.Warn("ignoring malformed config file", "path", s.Path(), "error", err)
		return &Config{}, nil
	}
	return &cfg, nil
}

// Save writes cfg with owner-only permissions. Concurrent launchers serialize
// on a sibling lock file and the file is replaced atomically.
func (s *Store) Save(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := os.MkdirAll(s.dir, dirPerm); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	data = append(data, '\n')

	lock := flock.New(s.Path() + lockSuffix)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock config: %w", err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			s.logger.Warn("failed to release config lock", "error", err)
		}
	}()

	tmp, err := os.CreateTemp(s.dir, configFile+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp config: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := tmp.Chmod(filePerm); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set config permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if err := os.Rename(tmpPath, s.Path()); err != nil {
		return fmt.Errorf("failed to replace config: %w", err)
	}
	s.logger.Debug("config saved", "path", s.Path())
	return nil
}
