package store

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "gitsync"

// DataDir is where the repository database lives. Windows has no separate
// data root, so it shares the per-user config dir.
func DataDir() (string, error) {
	base, err := dataRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, appName), nil
}

func dataRoot() (string, error) {
	if runtime.GOOS == "windows" {
		return os.UserConfigDir()
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" && runtime.GOOS != "darwin" {
		return xdg, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home directory: %w", err)
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support"), nil
	}
	return filepath.Join(home, ".local", "share"), nil
}

// DefaultPath is the database location inside DataDir.
func DefaultPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "repositories.db"), nil
}
