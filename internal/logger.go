package internal

import (
	"io"
	"log/slog"
)

// NewLogger builds the application logger. Development gets a readable
// text handler; every other environment emits JSON for log ingestion.
// The level name is parsed case-insensitively and falls back to info.
func NewLogger(w io.Writer, env, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}

	if env == "development" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
