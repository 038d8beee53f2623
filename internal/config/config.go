// Package config handles configuration loading from YAML files and environment variables.
// Configuration precedence: CLI flags > environment variables > config file > defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vakulenko-g-o/taskbar-control/internal/tray/view"
)

// Duration is a wrapper around time.Duration that supports YAML unmarshaling
// from human-readable strings like "5s", "1m".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		parsed, err := time.ParseDuration(value.Value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value.Value, err)
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("unsupported duration format: %v", value.Kind)
	}
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config holds all application configuration.
type Config struct {
	Hotkey   string         `yaml:"hotkey"`
	Watchdog WatchdogConfig `yaml:"watchdog"`
	Shutdown ShutdownConfig `yaml:"shutdown"`
	UI       UIConfig       `yaml:"ui"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// WatchdogConfig controls hotkey liveness supervision.
type WatchdogConfig struct {
	Interval   Duration `yaml:"interval"`
	Heartbeat  Duration `yaml:"heartbeat"`
	StaleAfter Duration `yaml:"stale_after"`
}

// ShutdownConfig bounds the cleanup sequence.
type ShutdownConfig struct {
	JoinTimeout    Duration `yaml:"join_timeout"`
	ForceExitAfter Duration `yaml:"force_exit_after"`
}

// UIConfig holds tray presentation settings.
type UIConfig struct {
	Locale string `yaml:"locale"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Hotkey: "ctrl+alt+t",
		Watchdog: WatchdogConfig{
			Interval:   Duration{5 * time.Second},
			Heartbeat:  Duration{1 * time.Second},
			StaleAfter: Duration{3 * time.Second},
		},
		Shutdown: ShutdownConfig{
			JoinTimeout:    Duration{1 * time.Second},
			ForceExitAfter: Duration{5 * time.Second},
		},
		UI: UIConfig{
			Locale: "auto",
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       filepath.Join(DataDir(), "logs", "taskbar_control.log"),
			MaxSizeMB:  1,
			MaxBackups: 5,
		},
	}
}

// LoadFromBytes parses YAML configuration from a byte slice and merges with defaults.
// Environment variables take precedence over values from the byte slice.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config data: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// CLIOverrides holds values from command-line flags.
// Empty strings are treated as "not set" and skipped.
type CLIOverrides struct {
	Hotkey   string
	LogLevel string
	Locale   string
}

// Locate searches standard config file paths and returns the first one found.
// Returns empty string if no config file exists.
func Locate() string {
	for _, p := range configSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadLayered loads configuration with the full precedence chain:
// CLI flags > env vars > YAML file > defaults.
//
// An optional configPath argument controls file discovery:
//   - omitted        → auto-discover via Locate()
//   - explicit value  → use that path ("" means no file)
func LoadLayered(cli CLIOverrides, configPath ...string) (*Config, error) {
	var filePath string
	if len(configPath) > 0 {
		filePath = configPath[0]
	} else {
		filePath = Locate()
	}

	var data []byte
	if filePath != "" {
		b, err := os.ReadFile(filePath)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file %s: %w", filePath, err)
		}
		data = b
	}

	cfg, err := LoadFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", filePath, err)
	}

	if cli.Hotkey != "" {
		cfg.Hotkey = cli.Hotkey
	}
	if cli.LogLevel != "" {
		cfg.Logging.Level = cli.LogLevel
	}
	if cli.Locale != "" {
		cfg.UI.Locale = cli.Locale
	}
	return cfg, nil
}

// WriteConfig serializes the config to a YAML file at the given path.
// Creates parent directories if needed.
func WriteConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0640)
}

func applyEnvOverrides(cfg *Config) {
	if hk := os.Getenv("TBC_HOTKEY"); hk != "" {
		cfg.Hotkey = hk
	}
	if level := os.Getenv("TBC_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if locale := os.Getenv("TBC_LOCALE"); locale != "" {
		cfg.UI.Locale = locale
	}
}

// Validate checks that the configuration can drive the application.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Hotkey) == "" {
		return fmt.Errorf("hotkey is required")
	}

	durations := map[string]time.Duration{
		"watchdog.interval":         c.Watchdog.Interval.Duration,
		"watchdog.heartbeat":        c.Watchdog.Heartbeat.Duration,
		"watchdog.stale_after":      c.Watchdog.StaleAfter.Duration,
		"shutdown.join_timeout":     c.Shutdown.JoinTimeout.Duration,
		"shutdown.force_exit_after": c.Shutdown.ForceExitAfter.Duration,
	}
	for name, d := range durations {
		if d <= 0 {
			return fmt.Errorf("%s must be positive (got %s)", name, d)
		}
	}
	if c.Watchdog.StaleAfter.Duration <= c.Watchdog.Heartbeat.Duration {
		return fmt.Errorf("watchdog.stale_after (%s) must exceed watchdog.heartbeat (%s)",
			c.Watchdog.StaleAfter.Duration, c.Watchdog.Heartbeat.Duration)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}

	if err := view.CheckLocale(c.UI.Locale); err != nil {
		return fmt.Errorf("ui.locale: %w", err)
	}
	return nil
}
