package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/phrazzld/scry-srs/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input    string
		expected slog.Level
		wantErr  bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{" warn ", slog.LevelWarn, false},
		{"Error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()
			level, err := ParseLevel(tc.input)
			assert.Equal(t, tc.expected, level)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// Setup replaces the process-wide default logger, so these tests do not run in parallel.
func TestSetupWritesJSONAtConfiguredLevel(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	buf := &TestLogBuffer{}
	logger, err := setup(config.ServerConfig{LogLevel: "warn"}, buf)
	require.NoError(t, err)
	require.NotNil(t, logger)

	logger.Info("hidden")
	logger.Warn("shown", slog.String("component", "test"))
	slog.Error("via default")

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "shown", entries[0]["msg"])
	assert.Equal(t, "WARN", entries[0]["level"])
	assert.Equal(t, "test", entries[0]["component"])
	assert.Equal(t, "via default", entries[1]["msg"])
}

func TestSetupInvalidLevelFallsBackToInfo(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	buf := &TestLogBuffer{}
	logger, err := setup(config.ServerConfig{LogLevel: "chatty"}, buf)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("shown")

	AssertLogContains(t, buf, "invalid log level configured")
	AssertLogField(t, buf, "configured_level", "chatty")
	AssertLogContains(t, buf, "shown")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestSetupRejectsNilOutput(t *testing.T) {
	_, err := setup(config.ServerConfig{LogLevel: "info"}, nil)
	assert.Error(t, err)
}

func TestContextHelpers(t *testing.T) {
	t.Parallel()

	logger, buf := NewTestLogger(t)
	fallback := slog.New(slog.NewJSONHandler(&TestLogBuffer{}, nil))

	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
	assert.Same(t, logger, FromContextOrDefault(ctx, fallback))

	assert.Same(t, fallback, FromContextOrDefault(context.Background(), fallback))
	assert.Same(t, fallback, FromContextOrDefault(nil, fallback)) //nolint:staticcheck // nil context is tolerated
	assert.NotNil(t, FromContext(context.Background()))

	assert.Equal(t, context.Background(), WithLogger(context.Background(), nil))

	FromContext(ctx).Info("through context")
	AssertLogContains(t, buf, "through context")
}
