package config

import (
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
	slogmulti "github.com/samber/slog-multi"
)

// SetupLogger creates a dual-output logger: colored text to stderr, JSON to file.
// Returns the logger and a cleanup function to close the file.
func SetupLogger(logFile string, level slog.Level) (*slog.Logger, func() error) {
	stderrHandler := newConsoleHandler(os.Stderr, level)

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		// Fall back to stderr-only if file fails
		logger := slog.New(stderrHandler)
		logger.Error("failed to open log file, using stderr only", "error", err, "file", logFile)
		return logger, func() error { return nil }
	}

	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{
		Level: level,
	})

	logger := slog.New(slogmulti.Fanout(stderrHandler, fileHandler))

	cleanup := func() error {
		return file.Close()
	}

	return logger, cleanup
}

// SetupLoggerWithWriters creates a logger with custom writers (for testing).
func SetupLoggerWithWriters(stderr, file io.Writer, level slog.Level) *slog.Logger {
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	return slog.New(slogmulti.Fanout(newConsoleHandler(stderr, level), fileHandler))
}

// newConsoleHandler returns a charmbracelet/log logger, which is itself a slog.Handler.
func newConsoleHandler(w io.Writer, level slog.Level) slog.Handler {
	return charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		Level:           charmlog.Level(level),
	})
}
