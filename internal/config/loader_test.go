package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/fchat/internal/testutil"
)

func TestLoadDefaults(t *testing.T) {
	home := testutil.IsolateHome(t)

	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, 50, cfg.Transcript.HistoryLimit)
	require.Equal(t, 1500*time.Millisecond, cfg.Session.ReplyDelay)
	require.Equal(t, 20, cfg.TUI.MaxImages)
	require.Equal(t, filepath.Join(home, ".local", "share", "fchat", "transcript.db"), cfg.TranscriptPath())
	require.Equal(t, filepath.Join(home, ".config", "fchat", "context.yaml"), cfg.ContextPath())
}

func TestLoadFromFileAndEnv(t *testing.T) {
	home := testutil.IsolateHome(t)
	path := testutil.WriteFile(t, t.TempDir(), "config.yaml", `
logging:
  level: debug
  file: ~/logs/fchat.log
session:
  agent_name: bot
  reply_delay: 250ms
tui:
  max_images: 5
`)
	t.Setenv("FCHAT_TUI_THEME", "high-contrast")

	loader := NewLoader()
	loader.SetConfigFile(path)
	cfg, err := loader.Load()
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, filepath.Join(home, "logs", "fchat.log"), cfg.Logging.File)
	require.Equal(t, "bot", cfg.Session.AgentName)
	require.Equal(t, 250*time.Millisecond, cfg.Session.ReplyDelay)
	require.Equal(t, 5, cfg.TUI.MaxImages)
	require.Equal(t, "high-contrast", cfg.TUI.Theme)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	testutil.IsolateHome(t)
	loader := NewLoader()
	loader.SetConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := loader.Load()
	require.Error(t, err)
}

func TestLoaderSetOverrides(t *testing.T) {
	testutil.IsolateHome(t)
	loader := NewLoader()
	loader.Set("logging.level", "warn")

	cfg, err := loader.Load()
	require.NoError(t, err)
	require.Equal(t, "warn", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "bad format", mutate: func(c *Config) { c.Logging.Format = "xml" }},
		{name: "negative history", mutate: func(c *Config) { c.Transcript.HistoryLimit = -1 }},
		{name: "negative delay", mutate: func(c *Config) { c.Session.ReplyDelay = -time.Second }},
		{name: "zero images", mutate: func(c *Config) { c.TUI.MaxImages = 0 }},
		{name: "unknown theme", mutate: func(c *Config) { c.TUI.Theme = "neon" }},
	}

	require.NoError(t, DefaultConfig().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
