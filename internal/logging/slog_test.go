package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlogLogger(t *testing.T) {
	t.Run("writes structured fields through the underlying handler", func(t *testing.T) {
		var buf bytes.Buffer
		handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
		logger := NewSlog(slog.New(handler))

		logger.Debug("debug message", "key", "value")
		logger.Info("info message", "count", 3)
		logger.Warn("warn message")
		logger.Error("error message", "err", "boom")

		out := buf.String()
		require.Contains(t, out, "debug message")
		require.Contains(t, out, "key=value")
		require.Contains(t, out, "info message")
		require.Contains(t, out, "count=3")
		require.Contains(t, out, "warn message")
		require.Contains(t, out, "err=boom")
	})

	t.Run("default logger is usable", func(t *testing.T) {
		logger := NewSlogDefault()
		require.NotNil(t, logger)
	})
}

func TestNopLogger(t *testing.T) {
	t.Run("discards all messages including fatal", func(t *testing.T) {
		logger := NewNop()

		// Must not panic or exit.
		logger.Debug("msg")
		logger.Info("msg", "k", "v")
		logger.Warn("msg")
		logger.Error("msg")
		logger.Fatal("msg")
	})
}
