package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var logger *slog.Logger

func init() {
	logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

// Init replaces the package logger with one writing to stdout at the given level and format.
// Level is one of debug, info, warn or error; format is json or text. Unknown values fall back to info and json.
func Init(level, format string) {
	InitWithWriter(os.Stdout, level, format)
}

// InitWithWriter is like Init but writes to w.
func InitWithWriter(w io.Writer, level, format string) {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var h slog.Handler
	switch strings.ToLower(format) {
	case "text":
		h = slog.NewTextHandler(w, opts)
	default:
		h = slog.NewJSONHandler(w, opts)
	}

	logger = slog.New(h)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Info logs the provided message at [InfoLevel].
func Info(msg string, args ...any) {
	logger.Info(msg, args...)
}

// Debug logs the provided message at [DebugLevel].
func Debug(msg string, args ...any) {
	logger.Debug(msg, args...)
}

// Warn logs the provided message at [WarnLevel].
func Warn(msg string, args ...any) {
	logger.Warn(msg, args...)
}

// Error logs the provided message at [ErrorLevel].
func Error(msg string, args ...any) {
	logger.Error(msg, args...)
}
