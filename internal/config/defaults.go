package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "glyphkey"

// Core defaults.
const (
	DefaultBufferSize = 32
	DefaultPageSize   = 10
)

// PlatformDataDir returns the platform-specific data directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/glyphkey/
//   - Linux:   $XDG_DATA_HOME/glyphkey/ or ~/.local/share/glyphkey/
//   - Windows: %APPDATA%\glyphkey\
func PlatformDataDir() string {
	switch runtime.GOOS {
	case "darwin":
		return macOSDir()
	case "windows":
		return windowsDir()
	default:
		return xdgDir("XDG_DATA_HOME", ".local", "share")
	}
}

// PlatformConfigDir returns the platform-specific config directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/glyphkey/
//   - Linux:   $XDG_CONFIG_HOME/glyphkey/ or ~/.config/glyphkey/
//   - Windows: %APPDATA%\glyphkey\
func PlatformConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		return macOSDir()
	case "windows":
		return windowsDir()
	default:
		return xdgDir("XDG_CONFIG_HOME", ".config")
	}
}

// DefaultPath returns the config file looked up when none is given.
func DefaultPath() string {
	return filepath.Join(PlatformConfigDir(), "config.toml")
}

// DefaultJournalPath returns the journal database location.
func DefaultJournalPath() string {
	return filepath.Join(PlatformDataDir(), "journal.db")
}

func macOSDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "Library", "Application Support", appName)
}

func windowsDir() string {
	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "AppData", "Roaming", appName)
}

func xdgDir(env string, fallback ...string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(append(append([]string{home}, fallback...), appName)...)
}
