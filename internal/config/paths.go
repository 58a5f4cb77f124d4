package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const (
	AppDirName      = "schedprefs"
	DefaultFileName = "timeline.toml"
)

// LocalDataDir returns the per-user, machine-local data directory:
// %LOCALAPPDATA% on Windows, $XDG_DATA_HOME or ~/.local/share elsewhere.
func LocalDataDir() (string, error) {
	if runtime.GOOS == "windows" {
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return dir, nil
		}
		return os.UserConfigDir()
	}

	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".local", "share"), nil
}

// DefaultPath returns the path to the config file used when none is given
func DefaultPath() (string, error) {
	dir, err := LocalDataDir()
	if err != nil {
		return "", fmt.Errorf("%w: no local data directory: %w", ErrLoadConfig, err)
	}
	return filepath.Join(dir, AppDirName, DefaultFileName), nil
}
