// Package xdg resolves the XDG base directories dentalctl keeps its files in.
package xdg

import (
	"fmt"
	"os"
	"path/filepath"
)

const appName = "dentaldesk"

// ConfigDir holds config.yaml. XDG_CONFIG_HOME, else ~/.config.
func ConfigDir() string {
	return dir("XDG_CONFIG_HOME", ".config")
}

// StateDir holds the session store. XDG_STATE_HOME, else ~/.local/state.
func StateDir() string {
	return dir("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

func dir(env, fallback string) string {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = os.Getenv("HOME")
		}
		base = filepath.Join(home, fallback)
	}
	return filepath.Join(base, appName)
}

// ConfigFile is the default config file path.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// EnsureDir creates path with 0700 permissions if it does not exist.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}
