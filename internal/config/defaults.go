package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

// PlatformDataDir returns the platform-specific data directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/snipd/
//   - Linux:   ~/.local/share/snipd/
//   - Windows: %APPDATA%\snipd\
func PlatformDataDir() string {
	switch runtime.GOOS {
	case "darwin":
		return macOSDir("Application Support")
	case "linux":
		return xdgDir("XDG_DATA_HOME", ".local", "share")
	case "windows":
		return windowsDir("APPDATA", "Roaming")
	default:
		return fallbackDir()
	}
}

// PlatformConfigDir returns the platform-specific config directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/snipd/
//   - Linux:   ~/.config/snipd/
//   - Windows: %APPDATA%\snipd\
func PlatformConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		return macOSDir("Application Support")
	case "linux":
		return xdgDir("XDG_CONFIG_HOME", ".config")
	case "windows":
		return windowsDir("APPDATA", "Roaming")
	default:
		return fallbackDir()
	}
}

// PlatformLogDir returns the platform-specific log directory.
func PlatformLogDir() string {
	switch runtime.GOOS {
	case "darwin":
		return macOSDir("Logs")
	case "linux":
		return xdgDir("XDG_STATE_HOME", ".local", "state")
	case "windows":
		return filepath.Join(windowsDir("LOCALAPPDATA", "Local"), "logs")
	default:
		return filepath.Join(fallbackDir(), "logs")
	}
}

// PlatformRuntimeDir returns the directory for the instance lock.
//
// Platform paths:
//   - Linux:   $XDG_RUNTIME_DIR/snipd/ or /tmp/snipd-$UID/
//   - Windows: %LOCALAPPDATA%\snipd\
//   - others:  /tmp/snipd-$UID/
func PlatformRuntimeDir() string {
	switch runtime.GOOS {
	case "linux":
		if xdgRuntime := os.Getenv("XDG_RUNTIME_DIR"); xdgRuntime != "" {
			return filepath.Join(xdgRuntime, "snipd")
		}
	case "windows":
		return windowsDir("LOCALAPPDATA", "Local")
	}
	return filepath.Join(os.TempDir(), "snipd-"+strconv.Itoa(os.Getuid()))
}

func macOSDir(kind string) string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, "Library", kind, "snipd")
}

// xdgDir follows the XDG Base Directory Specification.
func xdgDir(env string, fallback ...string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, "snipd")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(append(append([]string{home}, fallback...), "snipd")...)
}

func windowsDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, "snipd")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "AppData", fallback, "snipd")
}

func fallbackDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".snipd")
}

// SupportedConfigFormats lists the accepted configuration file extensions.
func SupportedConfigFormats() []string {
	return []string{"toml", "json", "yaml", "yml"}
}

// FindConfigFile searches for a config file in standard locations.
// Returns the path to the first found config file, or empty string if none found.
func FindConfigFile() string {
	for _, dir := range []string{".", SnipdDir()} {
		for _, ext := range SupportedConfigFormats() {
			path := filepath.Join(dir, "config."+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}
