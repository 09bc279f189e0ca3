package types

// Logger is the structured logging interface the library logs through.
//
// Methods take a message and alternating key-value pairs, the same shape as
// log/slog's sugared calls and zap.SugaredLogger, so most structured loggers
// adapt with a thin wrapper. See the logging package for the built-in slog
// adapter and no-op implementation.
type Logger interface {
	// Debug logs a message at debug level.
	Debug(msg string, keysAndValues ...any)

	// Info logs a message at info level.
	Info(msg string, keysAndValues ...any)

	// Warn logs a message at warn level.
	Warn(msg string, keysAndValues ...any)

	// Error logs a message at error level.
	Error(msg string, keysAndValues ...any)

	// Fatal logs a message at the highest severity and then terminates the
	// process with os.Exit(1). Test loggers may fail the test instead.
	Fatal(msg string, keysAndValues ...any)
}
