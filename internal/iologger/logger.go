// Package iologger provides slog-based logging initialization.
package iologger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/scholdb/scholdb/pkg/config"
)

// Init initializes the global slog logger with the given configuration.
// A "file" destination appends to scholdb.log in logDir.
func Init(logDir string, cfg config.LogConfig) error {
	var writer io.Writer

	switch cfg.Destination {
	case "stdout":
		writer = os.Stdout
	case "file":
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return CreateLogFileError(logDir, err)
		}
		logPath := filepath.Join(logDir, "scholdb.log")
		file, err := os.OpenFile(
			logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return CreateLogFileError(logPath, err)
		}
		writer = file
	default:
		writer = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(writer, opts)
	default:
		handler = slog.NewJSONHandler(writer, opts)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
