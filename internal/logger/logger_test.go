package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestCronLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewCronLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))

	l.Info("wake", "now", "2024-01-01T00:00:00Z")
	l.Error(errors.New("boom"), "panic", "entry", 1)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var info map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &info))
	require.Equal(t, "debug", info["level"])
	require.Equal(t, "wake", info["message"])
	require.Equal(t, "cron", info["component"])
	require.Equal(t, "2024-01-01T00:00:00Z", info["now"])

	var errLine map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &errLine))
	require.Equal(t, "error", errLine["level"])
	require.Equal(t, "boom", errLine["error"])
	require.Equal(t, float64(1), errLine["entry"])
}

func TestCronLogger_InfoSuppressedAtInfoLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewCronLogger(zerolog.New(&buf).Level(zerolog.InfoLevel))

	l.Info("wake")
	require.Zero(t, buf.Len())
}
