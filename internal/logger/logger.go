package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Setup initializes the global zerolog logger based on environment configuration.
//   - level: log level string (trace, debug, info, warn, error, fatal, panic)
//   - format: "json" for production, "pretty" for human-readable dev output
//   - service: binary name stamped on every line (kidquest-server, kidquest-migrate)
//
// Returns the configured logger instance.
func Setup(level, format, service string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339
	// Dwell, countdown and flush timings are all sub-second.
	zerolog.DurationFieldUnit = time.Millisecond

	return New(os.Stdout, lvl, format, service)
}

// New builds a logger on w without touching global state.
func New(w io.Writer, lvl zerolog.Level, format, service string) zerolog.Logger {
	if format == "pretty" {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
	}

	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Str("service", service).
		Caller().
		Logger()
}
