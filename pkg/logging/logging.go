// Package logging configures structured logging.
//
// Development uses colored output from tint; production writes JSON so log
// collectors can parse it.
//
// Usage:
//
//	logging.Setup("development", "debug")
//	logging.Setup("production", "info")
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Setup installs the default logger for the environment at the given level
// (debug, info, warn, error; anything else means info).
func Setup(environment, level string) {
	slog.SetDefault(slog.New(NewHandler(os.Stderr, environment, ParseLevel(level))))
}

// NewHandler returns the handler Setup would install, writing to w.
func NewHandler(w io.Writer, environment string, level slog.Level) slog.Handler {
	if environment == "production" {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		AddSource:  true,
	})
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
