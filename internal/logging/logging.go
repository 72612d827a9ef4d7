// Package logging provides structured logging setup for adboard.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup initializes the default slog logger for the given level
// ("debug", "info", "warn", "error"). Debug uses human-readable text;
// everything else logs JSON.
func Setup(level string) {
	lvl := parseLevel(level)

	var handler slog.Handler
	if lvl == slog.LevelDebug {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
}

// parseLevel maps a config string to a slog level, defaulting to info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
