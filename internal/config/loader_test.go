package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 2*time.Second, cfg.Sync.PollInterval)
	require.Equal(t, 30*time.Second, cfg.Sync.PresenceInterval)
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
gateway:
  url: https://chat.example.com
  token: abc
sync:
  poll_interval: 5s
logging:
  level: debug
tui:
  theme: phosphor
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, "https://chat.example.com", cfg.Gateway.URL)
	require.Equal(t, "abc", cfg.Gateway.Token)
	require.Equal(t, 5*time.Second, cfg.Sync.PollInterval)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, "phosphor", cfg.TUI.Theme)

	// Untouched keys keep their defaults.
	require.Equal(t, 30*time.Second, cfg.Sync.PresenceInterval)
	require.Equal(t, "console", cfg.Logging.Format)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gateway:\n  url: http://from-file\n"), 0o644))

	t.Setenv("RETROCHAT_GATEWAY_URL", "http://from-env")
	t.Setenv("RETROCHAT_LOGGING_LEVEL", "warn")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, "http://from-env", cfg.Gateway.URL)
	require.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadRejectsExplicitMissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidateCatchesBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gateway.URL = "ftp://chat"
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Gateway.URL = ""
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Sync.PollInterval = 10 * time.Millisecond
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Logging.Level = "loud"
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Logging.Format = "xml"
	require.Error(t, cfg.Validate())
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	require.Equal(t, filepath.Join(home, "x"), expandTilde("~/x"))
	require.Equal(t, home, expandTilde("~"))
	require.Equal(t, "/abs/path", expandTilde("/abs/path"))
	require.Equal(t, "", expandTilde(""))
}

func TestStatePath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.State.Dir = "/tmp/rc"
	require.Equal(t, filepath.Join("/tmp/rc", "retrochat.db"), cfg.StatePath())

	cfg.State.Dir = ""
	require.Equal(t, "", cfg.StatePath())
}
