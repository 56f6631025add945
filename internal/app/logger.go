package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide slog.Logger. Production deployments set
// LOG_FORMAT=json; everything else gets the readable text handler.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	if cfg != nil && cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
