package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
)

func TestSetupJSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn, err := Setup(Config{Level: "warn", Format: "json"}, &buf)
	assert.NilError(t, err)
	defer closeFn()

	logger.Info("hidden")
	logger.Warn("pivot failed", "job", "by-manager")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, len(lines), 1)

	var entry map[string]any
	assert.NilError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, entry["msg"], "pivot failed")
	assert.Equal(t, entry["job"], "by-manager")
	assert.Equal(t, entry["level"], "WARN")
}

func TestSetupTextDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := Setup(Config{}, &buf)
	assert.NilError(t, err)

	logger.Debug("hidden")
	logger.Info("loaded", "rows", 15)
	assert.Assert(t, strings.Contains(buf.String(), "msg=loaded rows=15"), buf.String())
	assert.Assert(t, !strings.Contains(buf.String(), "hidden"))
}

func TestSetupRejectsBadConfig(t *testing.T) {
	_, _, err := Setup(Config{Level: "loud"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, `invalid log level "loud"`)

	_, _, err = Setup(Config{Format: "xml"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, `invalid log format "xml"`)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"Warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		assert.NilError(t, err, tt.input)
		assert.Equal(t, got, tt.expected, tt.input)
	}
}

func TestMultiHandlerFansOut(t *testing.T) {
	var debug, warn bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&warn, &slog.HandlerOptions{Level: slog.LevelWarn}),
	}}
	logger := slog.New(h).With("run_id", "r1").WithGroup("pivot")

	logger.Debug("partitioned", "buckets", 4)
	logger.Warn("slow")

	assert.Assert(t, strings.Contains(debug.String(), "partitioned"))
	assert.Assert(t, strings.Contains(debug.String(), "run_id=r1"))
	assert.Assert(t, strings.Contains(debug.String(), "pivot.buckets=4"))
	assert.Assert(t, !strings.Contains(warn.String(), "partitioned"))
	assert.Assert(t, strings.Contains(warn.String(), "msg=slow"))
}
