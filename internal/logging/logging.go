// Package logging configures structured logging for routedialog.
// A TUI owns the terminal, so logs go to a JSON file or nowhere.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-faster/errors"
)

// Log levels supported by Setup
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// ParseLevel converts a level name to slog.Level. Unknown names map to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a JSON logger writing to w
func New(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	}))
}

// Setup builds the process logger and installs it as slog's default.
// If filename is empty, logs are discarded. Otherwise both slog output and
// Bubble Tea's own debug log are appended to filename.
func Setup(filename, level string) (logger *slog.Logger, cleanup func(), err error) {
	if filename == "" {
		logger = New(io.Discard, level)
		slog.SetDefault(logger)
		return logger, func() {}, nil
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, errors.Wrap(err, "create log directory")
		}
	}

	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open log file")
	}

	tf, err := tea.LogToFile(filename, "tea")
	if err != nil {
		f.Close()
		return nil, nil, errors.Wrap(err, "open bubbletea log")
	}

	logger = New(f, level)
	slog.SetDefault(logger)

	cleanup = func() {
		tf.Close()
		f.Close()
	}
	return logger, cleanup, nil
}
