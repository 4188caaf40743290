// Package dirs resolves per-user directories for configuration and logs.
package dirs

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "vidbatch"

// ConfigDir returns the app's configuration directory.
// - Linux: $XDG_CONFIG_HOME/vidbatch or ~/.config/vidbatch
// - macOS: ~/Library/Application Support/vidbatch
// - Windows: %AppData%/vidbatch
func ConfigDir() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", appName), nil
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", appName), nil
	default:
		cfg, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(cfg, appName), nil
	}
}

// StateDir holds run logs written while the TUI owns the terminal.
// - Linux: $XDG_STATE_HOME/vidbatch or ~/.local/state/vidbatch
// - elsewhere: <cache dir>/vidbatch
func StateDir() (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "state", appName), nil
	}
	c, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(c, appName), nil
}

// LogFile returns the path of the log file for a run.
func LogFile(runID string) (string, error) {
	d, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "logs", runID+".log"), nil
}

// Ensure creates the directory if it doesn't exist.
func Ensure(path string) error {
	if path == "" {
		return errors.New("empty path")
	}
	return os.MkdirAll(path, 0o755)
}
