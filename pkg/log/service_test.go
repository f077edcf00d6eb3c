package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	config "github.com/mwantia/gosort/internal/config/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"debug", Debug},
		{"TRACE", Debug},
		{" info ", Info},
		{"", Info},
		{"warning", Warn},
		{"ERROR", Error},
		{"fatal", Fatal},
		{"verbose", Info},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Parse(tt.input))
		})
	}
}

func TestWriterLoggerFiltersLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger("agent", config.LogServerConfig{Level: "WARN", TimeFormat: "15:04"}, &buf)

	logger.Info("hidden %d", 1)
	logger.Warn("visible %d", 2)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "[agent]")
	assert.Contains(t, out, "visible 2")
	assert.NotContains(t, out, "\033[")
}

func TestNamedLoggerSharesWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger("agent", config.LogServerConfig{Level: "DEBUG"}, &buf)

	logger.Named("watcher").Debug("scanning")

	assert.Contains(t, buf.String(), "[agent/watcher]")
}

func TestJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger("agent", config.LogServerConfig{Level: "INFO", JSON: true}, &buf)

	logger.Error("failed to move '%s'", "/in/a.txt")

	var entry map[string]string
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "agent", entry["service"])
	assert.Equal(t, "failed to move '/in/a.txt'", entry["message"])
}
