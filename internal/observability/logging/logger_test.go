package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
	}{
		{
			name:     "default log level (info)",
			logLevel: "",
		},
		{
			name:     "debug log level",
			logLevel: "debug",
		},
		{
			name:     "invalid log level defaults to info",
			logLevel: "invalid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.logLevel != "" {
				t.Setenv("LOG_LEVEL", tt.logLevel)
			}

			logger := NewLogger()

			assert.NotNil(t, logger, "logger should not be nil")
		})
	}
}

func TestNewTextLogger(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")

	logger := NewTextLogger()

	assert.NotNil(t, logger, "logger should not be nil")
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
}

func TestWithRunID(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	t.Run("adds run_id field", func(t *testing.T) {
		buf.Reset()
		logger := WithRunID(base, "550e8400-e29b-41d4-a716-446655440000")
		logger.Info("test message")

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", entry["run_id"])
	})

	t.Run("empty run id returns original logger", func(t *testing.T) {
		logger := WithRunID(base, "")
		assert.Same(t, base, logger)
	})
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	logger := WithFields(base, map[string]interface{}{
		"stage": "download",
		"crd":   "12345",
	})
	logger.Info("test message")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "download", entry["stage"])
	assert.Equal(t, "12345", entry["crd"])
}

func TestLoggerContext(t *testing.T) {
	t.Run("round trip through context", func(t *testing.T) {
		logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
		ctx := WithLogger(context.Background(), logger)

		got := FromContext(ctx)

		assert.Same(t, logger, got)
	})

	t.Run("missing logger falls back to default", func(t *testing.T) {
		got := FromContext(context.Background())

		assert.Same(t, slog.Default(), got)
	})
}
