// Package testutil holds helpers shared by fchat tests.
package testutil

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/fchat/internal/logging"
)

// IsolateHome points HOME and XDG_CONFIG_HOME at a fresh temp dir and moves
// the working directory so no real config file is picked up. It returns the
// new home directory.
func IsolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "xdg"))
	t.Chdir(t.TempDir())
	return home
}

// WriteFile writes content to name under dir, creating parent directories,
// and returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// QuietLogs sends the global logger to io.Discard. Call it from TestMain.
func QuietLogs() {
	logging.Init(logging.Config{Level: "debug", Format: "json", Output: io.Discard})
}
