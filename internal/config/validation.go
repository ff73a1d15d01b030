package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"snipd/internal/detect"
	"snipd/internal/ui"
)

// ErrInvalidConfig is returned when validation fails.
var ErrInvalidConfig = errors.New("invalid configuration")

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

func (e ValidationErrors) Is(target error) bool { return target == ErrInvalidConfig }

// ValidateConfig performs comprehensive validation of the configuration.
func ValidateConfig(c *Config) error {
	var errs ValidationErrors

	if c.Version < 1 || c.Version > Version {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version),
		})
	}

	errs = append(errs, validateTray(&c.Tray)...)
	errs = append(errs, validateInput(&c.Input)...)
	errs = append(errs, validateRender(&c.Render)...)
	errs = append(errs, validateLogging(&c.Logging)...)
	errs = append(errs, validateMetrics(&c.Metrics)...)
	errs = append(errs, validateHistory(&c.History)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateTray(t *TrayConfig) ValidationErrors {
	var errs ValidationErrors

	for name, path := range t.Icons {
		if _, err := ui.ParseTrayIcon(name); err != nil {
			errs = append(errs, ValidationError{
				Field:   "tray.icons." + name,
				Message: "unknown icon state (valid: normal, disabled, system_disabled)",
			})
			continue
		}
		if path == "" {
			errs = append(errs, *RequiredFieldError("tray.icons." + name))
		}
	}
	if t.ShowIcon && len(t.Icons) > 0 {
		if _, ok := t.Icons["normal"]; !ok {
			errs = append(errs, ValidationError{
				Field:   "tray.icons.normal",
				Message: "required when other icons are configured",
			})
		}
	}

	if t.QueueSize < 1 || t.QueueSize > 4096 {
		errs = append(errs, *RangeError("tray.queue_size", 1, 4096))
	}
	if t.HeartbeatMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "tray.heartbeat_ms",
			Message: "heartbeat cannot be negative",
		})
	}
	return errs
}

func validateInput(in *InputConfig) ValidationErrors {
	var errs ValidationErrors

	if in.ToggleKey != "" {
		if _, err := detect.ParseKey(in.ToggleKey); err != nil {
			errs = append(errs, ValidationError{
				Field:   "input.toggle_key",
				Message: err.Error(),
			})
		}
	}
	if in.ToggleWindowMs < 50 || in.ToggleWindowMs > 2000 {
		errs = append(errs, *RangeError("input.toggle_window_ms", 50, 2000))
	}
	if in.LockPath == "" {
		errs = append(errs, *RequiredFieldError("input.lock_path"))
	}
	for i, dev := range in.Devices {
		if dev == "" {
			errs = append(errs, *RequiredFieldError(fmt.Sprintf("input.devices[%d]", i)))
		}
	}
	return errs
}

func validateRender(r *RenderConfig) ValidationErrors {
	var errs ValidationErrors

	if r.MatchDir == "" {
		errs = append(errs, *RequiredFieldError("render.match_dir"))
	} else if info, err := os.Stat(ExpandPath(r.MatchDir)); err == nil && !info.IsDir() {
		errs = append(errs, ValidationError{
			Field:   "render.match_dir",
			Message: "not a directory: " + r.MatchDir,
		})
	}
	if r.ShellTimeoutMs < 100 || r.ShellTimeoutMs > 60000 {
		errs = append(errs, *RangeError("render.shell_timeout_ms", 100, 60000))
	}
	return errs
}

func validateLogging(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid log level: %s (valid: debug, info, warn, error)", l.Level),
		})
	}

	switch l.Format {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid log format: %s (valid: text, json)", l.Format),
		})
	}

	switch l.Output {
	case "stdout", "stderr":
	case "file", "both":
		if l.FilePath == "" {
			errs = append(errs, ValidationError{
				Field:   "logging.file_path",
				Message: "file path is required when output is 'file' or 'both'",
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.output",
			Message: fmt.Sprintf("invalid log output: %s (valid: stdout, stderr, file, both)", l.Output),
		})
	}

	if l.MaxSizeMB < 1 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_size_mb",
			Message: "max size must be at least 1 MB",
		})
	}
	if l.MaxBackups < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_backups",
			Message: "max backups cannot be negative",
		})
	}
	return errs
}

func validateMetrics(m *MetricsConfig) ValidationErrors {
	if !m.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(m.Listen); err != nil {
		return ValidationErrors{{
			Field:   "metrics.listen",
			Message: fmt.Sprintf("invalid listen address %q: %v", m.Listen, err),
		}}
	}
	return nil
}

func validateHistory(h *HistoryConfig) ValidationErrors {
	var errs ValidationErrors
	if h.Enabled && h.Path == "" {
		errs = append(errs, *RequiredFieldError("history.path"))
	}
	if h.RetainDays < 0 {
		errs = append(errs, ValidationError{
			Field:   "history.retain_days",
			Message: "retention cannot be negative",
		})
	}
	return errs
}

// ExpandPath replaces a leading ~/ with the home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// RequiredFieldError creates a validation error for a required field.
func RequiredFieldError(field string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: "required field is missing",
	}
}

// RangeError creates a validation error for an out-of-range value.
func RangeError(field string, min, max any) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("value must be between %v and %v", min, max),
	}
}
