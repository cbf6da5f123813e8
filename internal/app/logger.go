package app

import (
	"log/slog"
	"os"
)

// NewLogger returns the process logger. Production always logs JSON so the
// sync and push run records stay machine-parseable; development defaults to
// the text handler unless LOG_FORMAT overrides it.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	var handler slog.Handler
	if cfg != nil && (cfg.LogFormat == "json" || cfg.IsProduction()) {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler).With(slog.String("service", "soundbridge"))
}
