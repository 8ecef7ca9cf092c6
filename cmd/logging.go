package cmd

import (
	"io"
	"log/slog"

	"github.com/bnema/rewards-cli/internal/domain"
)

func newLogger(settings domain.LogSettings, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: logLevel(settings.Level)}

	if settings.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func logLevel(level string) slog.Level {
	switch level {
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
