// Package logging provides the structured JSON logger used across the
// pipeline: one zerolog.Logger per component, level controlled by the
// TICKSTREAM_LOG_LEVEL environment variable.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
}

// Logger is the minimal interface the rest of the pipeline depends on,
// so components can be tested against a no-op or capturing logger
// without pulling in zerolog itself.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// zlog adapts zerolog.Logger to the Logger interface.
type zlog struct {
	l zerolog.Logger
}

// New creates a component-scoped structured logger. Level is read from
// TICKSTREAM_LOG_LEVEL (debug, info, warn, error; default info).
func New(component string) Logger {
	level := parseLevel(os.Getenv("TICKSTREAM_LOG_LEVEL"))
	l := zerolog.New(os.Stderr).
		Level(level).
		With().
		Timestamp().
		Str("component", component).
		Logger()
	return zlog{l: l}
}

func (z zlog) Debugf(format string, args ...interface{}) { z.l.Debug().Msgf(format, args...) }
func (z zlog) Infof(format string, args ...interface{})  { z.l.Info().Msgf(format, args...) }
func (z zlog) Errorf(format string, args ...interface{}) { z.l.Error().Msgf(format, args...) }

func parseLevel(s string) zerolog.Level {
	switch s {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "info", "":
		return zerolog.InfoLevel
	default:
		return zerolog.InfoLevel
	}
}

// Noop is a Logger that discards everything, useful in tests.
type Noop struct{}

func (Noop) Debugf(string, ...interface{}) {}
func (Noop) Infof(string, ...interface{})  {}
func (Noop) Errorf(string, ...interface{}) {}
