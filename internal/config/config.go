// Package config handles configuration loading, validation, and management for snipd.
package config

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"snipd/internal/logging"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete daemon configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	Tray    TrayConfig    `toml:"tray" json:"tray" yaml:"tray"`
	Input   InputConfig   `toml:"input" json:"input" yaml:"input"`
	Render  RenderConfig  `toml:"render" json:"render" yaml:"render"`
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`
	Metrics MetricsConfig `toml:"metrics" json:"metrics" yaml:"metrics"`
	History HistoryConfig `toml:"history" json:"history" yaml:"history"`
	Notify  NotifyConfig  `toml:"notify" json:"notify" yaml:"notify"`
}

// TrayConfig holds the tray indicator configuration.
type TrayConfig struct {
	// ShowIcon hides the indicator when false.
	ShowIcon bool `toml:"show_icon" json:"show_icon" yaml:"show_icon"`

	// Icons maps a state name (normal, disabled, system_disabled) to an
	// image file.
	Icons map[string]string `toml:"icons" json:"icons" yaml:"icons"`

	// QueueSize bounds the pending icon updates.
	QueueSize int `toml:"queue_size" json:"queue_size" yaml:"queue_size"`

	// HeartbeatMs paces housekeeping on the UI thread; 0 disables it.
	HeartbeatMs int `toml:"heartbeat_ms" json:"heartbeat_ms" yaml:"heartbeat_ms"`
}

// InputConfig holds input capture configuration.
type InputConfig struct {
	// Devices overrides device discovery (Linux evdev paths).
	Devices []string `toml:"devices" json:"devices" yaml:"devices"`

	// ToggleKey enables or disables expansion when pressed twice quickly.
	// Empty disables the shortcut.
	ToggleKey string `toml:"toggle_key" json:"toggle_key" yaml:"toggle_key"`

	// ToggleWindowMs is the maximum gap between the two presses.
	ToggleWindowMs int `toml:"toggle_window_ms" json:"toggle_window_ms" yaml:"toggle_window_ms"`

	// LockPath is the single-instance lock file.
	LockPath string `toml:"lock_path" json:"lock_path" yaml:"lock_path"`
}

// RenderConfig holds the render engine configuration.
type RenderConfig struct {
	// MatchDir holds the *.yml match files.
	MatchDir string `toml:"match_dir" json:"match_dir" yaml:"match_dir"`

	// ShellTimeoutMs bounds shell variables.
	ShellTimeoutMs int `toml:"shell_timeout_ms" json:"shell_timeout_ms" yaml:"shell_timeout_ms"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `toml:"level" json:"level" yaml:"level"`
	Format     string `toml:"format" json:"format" yaml:"format"`
	Output     string `toml:"output" json:"output" yaml:"output"`
	FilePath   string `toml:"file_path" json:"file_path" yaml:"file_path"`
	MaxSizeMB  int    `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" json:"max_backups" yaml:"max_backups"`
	Compress   bool   `toml:"compress" json:"compress" yaml:"compress"`
}

// MetricsConfig holds the Prometheus endpoint configuration.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled" yaml:"enabled"`
	Listen  string `toml:"listen" json:"listen" yaml:"listen"`
}

// HistoryConfig holds the expansion history store configuration.
type HistoryConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled" yaml:"enabled"`
	Path    string `toml:"path" json:"path" yaml:"path"`

	// RetainDays prunes older entries at startup; 0 keeps everything.
	RetainDays int `toml:"retain_days" json:"retain_days" yaml:"retain_days"`
}

// NotifyConfig holds desktop notification configuration.
type NotifyConfig struct {
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	configDir := SnipdDir()
	dataDir := PlatformDataDir()

	return &Config{
		Version: Version,
		Tray: TrayConfig{
			ShowIcon:    true,
			Icons:       map[string]string{},
			QueueSize:   64,
			HeartbeatMs: 1000,
		},
		Input: InputConfig{
			ToggleKey:      "alt",
			ToggleWindowMs: 300,
			LockPath:       filepath.Join(PlatformRuntimeDir(), "snipd.lock"),
		},
		Render: RenderConfig{
			MatchDir:       filepath.Join(configDir, "match"),
			ShellTimeoutMs: 5000,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stderr",
			FilePath:   filepath.Join(PlatformLogDir(), "snipd.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
			Compress:   true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  "127.0.0.1:9464",
		},
		History: HistoryConfig{
			Enabled:    true,
			Path:       filepath.Join(dataDir, "history.db"),
			RetainDays: 30,
		},
		Notify: NotifyConfig{
			Enabled: true,
		},
	}
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(SnipdDir(), "config.toml")
}

// SnipdDir returns the configuration directory, honouring SNIPD_CONFIG_DIR.
func SnipdDir() string {
	if envDir := os.Getenv("SNIPD_CONFIG_DIR"); envDir != "" {
		return envDir
	}
	return PlatformConfigDir()
}

// Load reads configuration from the specified path.
// If the file doesn't exist, returns default configuration.
// Supports TOML, JSON, and YAML formats based on file extension.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}
	cfg, err := loadConfigFromFile(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	cfg.expandPaths()
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// EnsureDirectories creates the directories the daemon writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Render.MatchDir,
		filepath.Dir(c.Input.LockPath),
	}
	if c.History.Enabled {
		dirs = append(dirs, filepath.Dir(c.History.Path))
	}
	if c.Logging.Output == "file" || c.Logging.Output == "both" {
		dirs = append(dirs, filepath.Dir(c.Logging.FilePath))
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables are prefixed with SNIPD_.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("SNIPD_SHOW_ICON"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Tray.ShowIcon = b
		}
	}
	if v := os.Getenv("SNIPD_INPUT_DEVICES"); v != "" {
		c.Input.Devices = strings.Split(v, string(os.PathListSeparator))
	}
	if v, ok := os.LookupEnv("SNIPD_TOGGLE_KEY"); ok {
		c.Input.ToggleKey = v
	}
	if v := os.Getenv("SNIPD_LOCK_PATH"); v != "" {
		c.Input.LockPath = v
	}
	if v := os.Getenv("SNIPD_MATCH_DIR"); v != "" {
		c.Render.MatchDir = v
	}

	if v := os.Getenv("SNIPD_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SNIPD_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("SNIPD_LOG_PATH"); v != "" {
		c.Logging.FilePath = v
	}

	if v := os.Getenv("SNIPD_METRICS_LISTEN"); v != "" {
		c.Metrics.Enabled = true
		c.Metrics.Listen = v
	}
	if v := os.Getenv("SNIPD_HISTORY_PATH"); v != "" {
		c.History.Path = v
	}
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Tray.Icons = maps.Clone(c.Tray.Icons)
	clone.Input.Devices = append([]string(nil), c.Input.Devices...)
	return &clone
}

// ShellTimeout returns the shell variable timeout.
func (c *Config) ShellTimeout() time.Duration {
	return time.Duration(c.Render.ShellTimeoutMs) * time.Millisecond
}

// ToggleWindow returns the double-press window of the toggle key.
func (c *Config) ToggleWindow() time.Duration {
	return time.Duration(c.Input.ToggleWindowMs) * time.Millisecond
}

// HeartbeatInterval returns the tray heartbeat period.
func (c *Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.Tray.HeartbeatMs) * time.Millisecond
}

// Encode writes cfg as TOML.
func (c *Config) Encode() ([]byte, error) {
	var sb strings.Builder
	sb.WriteString("# snipd configuration\n\n")
	if err := toml.NewEncoder(&sb).Encode(c); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}

// LoggerConfig converts the [logging] section for logging.New.
func (c *Config) LoggerConfig() (*logging.Config, error) {
	level, err := logging.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(c.Logging.Format)
	if err != nil {
		return nil, err
	}
	return &logging.Config{
		Level:      level,
		Format:     format,
		Output:     c.Logging.Output,
		FilePath:   c.Logging.FilePath,
		MaxSizeMB:  int64(c.Logging.MaxSizeMB),
		MaxBackups: c.Logging.MaxBackups,
		Compress:   c.Logging.Compress,
	}, nil
}
