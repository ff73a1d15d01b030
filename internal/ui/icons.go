package ui

import (
	"fmt"
	"strings"
)

// TrayIcon is the state shown by the tray indicator.
type TrayIcon int

const (
	Normal TrayIcon = iota
	Disabled
	SystemDisabled
)

var iconNames = []string{"normal", "disabled", "system_disabled"}

func (i TrayIcon) String() string {
	if int(i) >= 0 && int(i) < len(iconNames) {
		return iconNames[i]
	}
	return fmt.Sprintf("icon(%d)", int(i))
}

// ParseTrayIcon returns the icon named in configuration.
func ParseTrayIcon(name string) (TrayIcon, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	lower = strings.ReplaceAll(lower, "-", "_")
	for i, n := range iconNames {
		if n == lower {
			return TrayIcon(i), nil
		}
	}
	return Normal, fmt.Errorf("unknown tray icon %q", name)
}

// AllIcons lists every known icon state.
func AllIcons() []TrayIcon {
	return []TrayIcon{Normal, Disabled, SystemDisabled}
}
