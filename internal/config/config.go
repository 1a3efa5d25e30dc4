// Package config loads and saves the TOML settings file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type Backend string

const (
	BackendCLI    Backend = "cli"
	BackendNative Backend = "native"
)

type Theme string

const (
	ThemeAuto  Theme = "auto"
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

type Config struct {
	User UserConfig `toml:"user"`
	App  AppConfig  `toml:"app"`
}

type UserConfig struct {
	Name         string `toml:"name"`
	Email        string `toml:"email"`
	SavePassword bool   `toml:"save_password"`
}

type AppConfig struct {
	// Active is the directory of the repository shown on startup.
	Active   string  `toml:"active"`
	LastPath string  `toml:"last_path"`
	GitBin   string  `toml:"git_bin"`
	Backend  Backend `toml:"backend"`
	Theme    Theme   `toml:"theme"`
	// Durations are stored as strings such as "5m".
	PollInterval   string `toml:"poll_interval"`
	NetworkTimeout string `toml:"network_timeout"`
	Watch          bool   `toml:"watch"`
}

func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			LastPath:       "~",
			GitBin:         "git",
			Backend:        BackendCLI,
			Theme:          ThemeAuto,
			PollInterval:   "5m",
			NetworkTimeout: "10m",
			Watch:          true,
		},
	}
}

// DefaultPath is the settings file under the user config directory.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "gitsync", "config.toml"), nil
}

// Load reads path on top of the defaults. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) Validate() error {
	switch c.App.Backend {
	case BackendCLI, BackendNative:
	default:
		return fmt.Errorf("invalid app.backend %q", c.App.Backend)
	}
	switch c.App.Theme {
	case ThemeAuto, ThemeLight, ThemeDark:
	default:
		return fmt.Errorf("invalid app.theme %q", c.App.Theme)
	}
	interval, err := c.PollInterval()
	if err != nil {
		return err
	}
	if interval <= 0 {
		return fmt.Errorf("invalid app.poll_interval %q: must be positive", c.App.PollInterval)
	}
	if _, err := c.NetworkTimeout(); err != nil {
		return err
	}
	return nil
}

func (c *Config) PollInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.App.PollInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid app.poll_interval %q: %w", c.App.PollInterval, err)
	}
	return d, nil
}

// NetworkTimeout returns the limit for network commands; zero disables it.
func (c *Config) NetworkTimeout() (time.Duration, error) {
	if c.App.NetworkTimeout == "" || c.App.NetworkTimeout == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.App.NetworkTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid app.network_timeout %q: %w", c.App.NetworkTimeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid app.network_timeout %q: must not be negative", c.App.NetworkTimeout)
	}
	return d, nil
}

// ClonePath is LastPath with a leading "~" expanded.
func (c *Config) ClonePath() string {
	return expandTilde(c.App.LastPath)
}

func expandTilde(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}

// Set assigns one setting by its dotted key, e.g. "app.theme", and validates
// the result.
func (c *Config) Set(key, value string) error {
	switch key {
	case "user.name":
		c.User.Name = value
	case "user.email":
		c.User.Email = value
	case "user.save_password":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, value, err)
		}
		c.User.SavePassword = b
	case "app.active":
		c.App.Active = value
	case "app.last_path":
		c.App.LastPath = value
	case "app.git_bin":
		c.App.GitBin = value
	case "app.backend":
		c.App.Backend = Backend(value)
	case "app.theme":
		c.App.Theme = Theme(value)
	case "app.poll_interval":
		c.App.PollInterval = value
	case "app.network_timeout":
		c.App.NetworkTimeout = value
	case "app.watch":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, value, err)
		}
		c.App.Watch = b
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return c.Validate()
}
