// Package logger holds the process-wide zerolog logger.
package logger

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

const timeFormat = "2006-01-02T15:04:05.000Z07:00"

var (
	once sync.Once
	log  zerolog.Logger
)

// configure points the console writer at out
func configure(out io.Writer) {
	zerolog.TimeFieldFormat = timeFormat
	log = zerolog.New(zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: timeFormat,
	}).With().Timestamp().Logger()
}

// Configure sets up the logger with the given level. Only the first call
// (or the first Get) takes effect. Output goes to stderr, which keeps stdout
// free for the stdio MCP transport.
func Configure(level zerolog.Level) *zerolog.Logger {
	once.Do(func() {
		configure(os.Stderr)
		zerolog.SetGlobalLevel(level)
	})
	return &log
}

// Get returns the shared logger, configuring it at info level if needed
func Get() *zerolog.Logger {
	return Configure(zerolog.InfoLevel)
}

// Nop returns a logger that discards everything, for tests and library callers
func Nop() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
