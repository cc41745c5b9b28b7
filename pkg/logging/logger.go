// Package logging provides structured logging for stripesync using zerolog.
// Console output is used on terminals, JSON everywhere else.
//
// Example usage:
//
//	ctx = logging.WithRunID(ctx, runID)
//	ctx = logging.WithFamily(ctx, "users")
//	logging.FromContext(ctx).Info().Int("count", n).Msg("Records loaded")
package logging

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var defaultLogger = NewLoggerFromConfig(DefaultConfig())

// Default returns the default global logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault sets the default global logger.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}

// New creates a new logger with the given writer.
func New(w io.Writer) zerolog.Logger {
	return zerolog.New(w).
		Level(zerolog.GlobalLevel()).
		With().
		Timestamp().
		Logger()
}
