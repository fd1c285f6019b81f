package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New creates the root logger of a binary and installs it as the global
// logger. Verbose lowers the level from info to debug.
func New(app string, verbose bool) zerolog.Logger {
	return newLogger(os.Stderr, app, verbose)
}

func newLogger(out io.Writer, app string, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    true,
	}).
		Level(level).
		With().
		Timestamp().
		Str("app", app).
		Logger()

	log.Logger = logger

	return logger
}
