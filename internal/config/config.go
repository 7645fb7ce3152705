// Package config handles fchat configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the root configuration structure for fchat.
type Config struct {
	// Global settings
	Global GlobalConfig `yaml:"global" mapstructure:"global"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// Transcript settings
	Transcript TranscriptConfig `yaml:"transcript" mapstructure:"transcript"`

	// Session settings
	Session SessionConfig `yaml:"session" mapstructure:"session"`

	// TUI settings
	TUI TUIConfig `yaml:"tui" mapstructure:"tui"`
}

// GlobalConfig contains global fchat settings.
type GlobalConfig struct {
	// DataDir is where fchat stores its data (default: ~/.local/share/fchat).
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	// ConfigDir is where config files are stored (default: ~/.config/fchat).
	ConfigDir string `yaml:"config_dir" mapstructure:"config_dir"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// File is an optional log file path. The TUI discards logs without one.
	File string `yaml:"file" mapstructure:"file"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// TranscriptConfig contains settings for the delivered-message log.
type TranscriptConfig struct {
	// Path is the SQLite file (default: DataDir/transcript.db).
	Path string `yaml:"path" mapstructure:"path"`

	// HistoryLimit is how many entries are loaded into the TUI on start.
	HistoryLimit int `yaml:"history_limit" mapstructure:"history_limit"`
}

// SessionConfig configures the agent session.
type SessionConfig struct {
	// AgentName labels agent replies.
	AgentName string `yaml:"agent_name" mapstructure:"agent_name"`

	// ReplyDelay is how long the built-in echo agent takes to answer.
	ReplyDelay time.Duration `yaml:"reply_delay" mapstructure:"reply_delay"`
}

// TUIConfig contains TUI settings.
type TUIConfig struct {
	// Theme is the color theme (default, high-contrast).
	Theme string `yaml:"theme" mapstructure:"theme"`

	// MaxImages caps images per message.
	MaxImages int `yaml:"max_images" mapstructure:"max_images"`

	// ShowTimestamps shows times next to transcript entries.
	ShowTimestamps bool `yaml:"show_timestamps" mapstructure:"show_timestamps"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Global: GlobalConfig{
			DataDir:   filepath.Join(homeDir, ".local", "share", "fchat"),
			ConfigDir: filepath.Join(homeDir, ".config", "fchat"),
		},
		Logging: LoggingConfig{
			Level:        "info",
			Format:       "console",
			EnableCaller: false,
		},
		Transcript: TranscriptConfig{
			Path:         "", // Will be set to DataDir/transcript.db
			HistoryLimit: 50,
		},
		Session: SessionConfig{
			AgentName:  "agent",
			ReplyDelay: 1500 * time.Millisecond,
		},
		TUI: TUIConfig{
			Theme:          "default",
			MaxImages:      20,
			ShowTimestamps: true,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json")
	}

	if c.Transcript.HistoryLimit < 0 {
		return fmt.Errorf("transcript.history_limit must not be negative")
	}

	if c.Session.ReplyDelay < 0 {
		return fmt.Errorf("session.reply_delay must not be negative")
	}

	if c.TUI.MaxImages < 1 {
		return fmt.Errorf("tui.max_images must be at least 1")
	}

	switch c.TUI.Theme {
	case "default", "high-contrast":
	default:
		return fmt.Errorf("tui.theme must be default or high-contrast")
	}

	return nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Global.DataDir,
		c.Global.ConfigDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// TranscriptPath returns the full transcript database path.
func (c *Config) TranscriptPath() string {
	if c.Transcript.Path != "" {
		return c.Transcript.Path
	}
	return filepath.Join(c.Global.DataDir, "transcript.db")
}

// ContextPath returns where the last-session context is stored.
func (c *Config) ContextPath() string {
	return filepath.Join(c.Global.ConfigDir, "context.yaml")
}
