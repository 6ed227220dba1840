// Package config handles retrochat configuration loading and validation.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config is the root configuration structure for retrochat.
type Config struct {
	// Gateway describes how to reach the chat gateway.
	Gateway GatewayConfig `yaml:"gateway" mapstructure:"gateway"`

	// Sync tunes the synchronization engine.
	Sync SyncConfig `yaml:"sync" mapstructure:"sync"`

	// State locates the client-local state database.
	State StateConfig `yaml:"state" mapstructure:"state"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// TUI settings
	TUI TUIConfig `yaml:"tui" mapstructure:"tui"`
}

// GatewayConfig contains gateway connection settings.
type GatewayConfig struct {
	// URL is the base HTTP(S) URL of the gateway.
	URL string `yaml:"url" mapstructure:"url"`

	// Token is the bearer token identifying the local participant.
	Token string `yaml:"token" mapstructure:"token"`

	// HTTPTimeout bounds each REST request.
	HTTPTimeout time.Duration `yaml:"http_timeout" mapstructure:"http_timeout"`

	// ReconnectInterval is the delay between websocket reconnect attempts.
	ReconnectInterval time.Duration `yaml:"reconnect_interval" mapstructure:"reconnect_interval"`
}

// SyncConfig contains synchronization engine settings.
type SyncConfig struct {
	// PollInterval is the cadence of the poll safety net.
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`

	// PresenceInterval is how often presence is re-announced.
	PresenceInterval time.Duration `yaml:"presence_interval" mapstructure:"presence_interval"`
}

// StateConfig contains local state settings.
type StateConfig struct {
	// Dir holds retrochat.db (default: ~/.local/share/retrochat).
	// Empty means in-memory state only.
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (console or json).
	Format string `yaml:"format" mapstructure:"format"`

	// File is an optional log file path. Empty logs to stderr.
	File string `yaml:"file" mapstructure:"file"`
}

// TUIConfig contains terminal UI settings.
type TUIConfig struct {
	// Theme selects the color theme.
	Theme string `yaml:"theme" mapstructure:"theme"`

	// ShowTimestamps toggles per-message timestamps.
	ShowTimestamps bool `yaml:"show_timestamps" mapstructure:"show_timestamps"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	stateDir := ""
	if home, err := os.UserHomeDir(); err == nil {
		stateDir = filepath.Join(home, ".local", "share", "retrochat")
	}

	return &Config{
		Gateway: GatewayConfig{
			URL:               "http://localhost:8080",
			HTTPTimeout:       10 * time.Second,
			ReconnectInterval: 2 * time.Second,
		},
		Sync: SyncConfig{
			PollInterval:     2 * time.Second,
			PresenceInterval: 30 * time.Second,
		},
		State: StateConfig{
			Dir: stateDir,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		TUI: TUIConfig{
			Theme:          "xp",
			ShowTimestamps: true,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Gateway.URL) == "" {
		return fmt.Errorf("gateway.url is required")
	}
	u, err := url.Parse(c.Gateway.URL)
	if err != nil {
		return fmt.Errorf("gateway.url is invalid: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("gateway.url must be http or https, got %q", u.Scheme)
	}

	if c.Sync.PollInterval < 500*time.Millisecond {
		return fmt.Errorf("sync.poll_interval must be at least 500ms")
	}
	if c.Sync.PresenceInterval < time.Second {
		return fmt.Errorf("sync.presence_interval must be at least 1s")
	}

	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error", "":
	default:
		return fmt.Errorf("logging.level %q is not recognized", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json", "":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}

	return nil
}

// StatePath returns the sqlite database path, or "" for in-memory.
func (c *Config) StatePath() string {
	if c.State.Dir == "" {
		return ""
	}
	return filepath.Join(c.State.Dir, "retrochat.db")
}
