package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", DebugLevel},
		{"info", InfoLevel},
		{"warn", WarnLevel},
		{"error", ErrorLevel},
		{"", InfoLevel},
		{"trace", InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}

func TestInitJSON(t *testing.T) {
	prev := Logger
	t.Cleanup(func() {
		Logger = prev
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	})

	var buf bytes.Buffer
	Init(Config{Level: WarnLevel, JSONOutput: true, Output: &buf})

	logger := WithComponent("bridge")
	logger.Info().Msg("filtered")
	logger.Warn().Str("tag", "inc").Msg("pruned")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1, "info must be filtered at warn level")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "bridge", entry["component"])
	assert.Equal(t, "inc", entry["tag"])
	assert.Equal(t, "pruned", entry["message"])
	assert.Equal(t, "warn", entry["level"])
	assert.Contains(t, entry, "time")
}

func TestInitConsole(t *testing.T) {
	prev := Logger
	t.Cleanup(func() {
		Logger = prev
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	})

	var buf bytes.Buffer
	Init(Config{Level: DebugLevel, Output: &buf})

	logger := WithComponent("looper")
	logger.Debug().Msg("designated loop started")
	assert.Contains(t, buf.String(), "designated loop started")
	assert.Contains(t, buf.String(), "looper")
}
