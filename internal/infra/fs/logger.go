package fs

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger interface for fs layer
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// defaultLogger writes warnings and above to stderr until the CLI installs its logger
type defaultLogger struct {
	zl zerolog.Logger
}

func (l *defaultLogger) Debug(format string, args ...interface{}) { l.zl.Debug().Msgf(format, args...) }
func (l *defaultLogger) Info(format string, args ...interface{}) { l.zl.Info().Msgf(format, args...) }
func (l *defaultLogger) Warn(format string, args ...interface{}) { l.zl.Warn().Msgf(format, args...) }
func (l *defaultLogger) Error(format string, args ...interface{}) { l.zl.Error().Msgf(format, args...) }

// globalLogger is the logger instance
var globalLogger Logger = &defaultLogger{
	zl: zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.WarnLevel).With().Str("layer", "fs").Logger(),
}

// SetLogger sets the global logger
func SetLogger(logger Logger) {
	if logger != nil {
		globalLogger = logger
	}
}

// GetLogger returns the current logger
func GetLogger() Logger {
	return globalLogger
}
