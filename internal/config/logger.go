package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// NewLogger builds the process-wide structured logger: JSON-encoded,
// written to a log file under cli.LogDir (named name.log) and mirrored to
// stderr so a supervisor captures fatal startup errors even before the log
// file is readable. Debug level is enabled by cli.Debug.
func NewLogger(cli *CLI, name string) (*slog.Logger, error) {
	if err := os.MkdirAll(cli.LogDir, 0o755); err != nil {
		return nil, ConfigError{Detail: fmt.Sprintf("create log dir %s: %v", cli.LogDir, err)}
	}

	logPath := filepath.Join(cli.LogDir, name+".log")
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, ConfigError{Detail: fmt.Sprintf("open log file %s: %v", logPath, err)}
	}

	level := slog.LevelInfo
	if cli.Debug {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(io.MultiWriter(file, os.Stderr), &slog.HandlerOptions{Level: level})
	return slog.New(handler), nil
}
