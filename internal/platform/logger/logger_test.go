package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestNewWithWriter(t *testing.T) {
	t.Run("production emits json", func(t *testing.T) {
		var buf bytes.Buffer
		NewWithWriter(&buf, "production", "info").Info("group_created", "group_id", "g-1")

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "group_created", line["msg"])
		assert.Equal(t, "g-1", line["group_id"])
	})

	t.Run("level filters lower records", func(t *testing.T) {
		var buf bytes.Buffer
		NewWithWriter(&buf, "production", "warn").Info("dropped")
		assert.Empty(t, buf.String())
	})

	t.Run("development emits text", func(t *testing.T) {
		var buf bytes.Buffer
		NewWithWriter(&buf, "development", "debug").Debug("hello")
		assert.Contains(t, buf.String(), "msg=hello")
	})
}
