package runtime

import (
	"log/slog"
	"os"
)

// LogLevel reads the log level from LOG_LEVEL (DEBUG, INFO, WARN, ERROR).
func LogLevel() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogger builds the process logger. LOG_FORMAT=json switches to JSON
// output; the default is text, which suits interactive runs.
func SetupLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: LogLevel(),
	}

	var handler slog.Handler
	if os.Getenv("LOG_FORMAT") == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
