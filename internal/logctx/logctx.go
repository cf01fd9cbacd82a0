// Package logctx carries a zerolog logger through context.Context so
// each run gets its own logger lifecycle instead of process-wide
// mutable logging state.
//
// The CLI builds a logger for the invocation and attaches it:
//
//	ctx := logctx.WithLogger(ctx, logger)
//
// Components extract it, optionally enriching with fields such as the
// database or shard id under inspection:
//
//	log := logctx.FromContext(ctx).With().Str("database", db).Logger()
package logctx

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// loggerKey is the private key type for storing loggers in context.
// Using a private type prevents collisions with other packages.
type loggerKey struct{}

var (
	defaultLogger     zerolog.Logger
	defaultLoggerOnce sync.Once
)

// DefaultLogger returns the fallback logger used when no context logger
// is present: JSON to stderr with timestamps.
func DefaultLogger() zerolog.Logger {
	defaultLoggerOnce.Do(func() {
		defaultLogger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	})
	return defaultLogger
}

// WithLogger returns a new context with the given logger attached.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext extracts the logger from the context. If the context is
// nil or carries no logger, the default logger is returned; callers
// never receive a zero-value logger.
func FromContext(ctx context.Context) zerolog.Logger {
	if ctx == nil {
		return DefaultLogger()
	}
	if logger, ok := ctx.Value(loggerKey{}).(zerolog.Logger); ok {
		return logger
	}
	return DefaultLogger()
}

// WithStr returns a new context whose logger has the given string field
// added.
func WithStr(ctx context.Context, key, value string) context.Context {
	logger := FromContext(ctx).With().Str(key, value).Logger()
	return WithLogger(ctx, logger)
}

// NewRunLogger builds the logger for one CLI invocation. Output goes to
// stderr through a console writer so report lines on stdout stay clean.
// The base level is Error; verbose raises it to Info and debug to
// Debug, debug winning when both are set.
func NewRunLogger(verbose, debug bool) zerolog.Logger {
	level := zerolog.ErrorLevel
	if verbose {
		level = zerolog.InfoLevel
	}
	if debug {
		level = zerolog.DebugLevel
	}

	out := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
