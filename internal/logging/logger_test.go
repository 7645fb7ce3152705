package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestInitJSONComponent(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	t.Cleanup(func() { Init(DefaultConfig()) })

	log := Component("dispatch")
	log.Info().Int("queue_len", 2).Msg("message queued")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "dispatch", entry["component"])
	require.Equal(t, "message queued", entry["message"])
	require.EqualValues(t, 2, entry["queue_len"])
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, zerolog.WarnLevel, parseLevel("warning"))
	require.Equal(t, zerolog.Disabled, parseLevel("off"))
	require.Equal(t, zerolog.InfoLevel, parseLevel("bogus"))
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).With().Str("session_id", "s1").Logger()
	ctx := WithContext(context.Background(), logger)

	got := FromContext(ctx)
	got.Info().Msg("hi")
	require.Contains(t, buf.String(), `"session_id":"s1"`)
}

func TestOpenFileCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "fchat.log")
	f, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.FileExists(t, path)
}
