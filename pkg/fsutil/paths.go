package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

// AppName is the directory name used below the platform data directory.
const AppName = "wingetmirror"

// GetDataDir returns the platform-specific data directory for the mirror.
// On Linux: $XDG_DATA_HOME/wingetmirror or ~/.local/share/wingetmirror
// On macOS: ~/Library/Application Support/wingetmirror
// On Windows: %LOCALAPPDATA%\wingetmirror
func GetDataDir() (string, error) {
	base, err := appDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, AppName), nil
}

func appDataDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			return "", errors.New("LOCALAPPDATA environment variable not set")
		}
		return localAppData, nil
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support"), nil
	default:
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			return xdgDataHome, nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share"), nil
	}
}
