// Package hlog wires the process-wide logr.Logger used by every package in
// this module onto zerolog, picking a human-readable console writer when
// attached to a terminal and structured JSON otherwise (for journald and log
// aggregation), mirroring hlog/hlog.go from the home-automation daemon this
// is adapted from.
package hlog

import (
	"io"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zerologr"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Logger is the process-wide logger. It is the zero value (a no-op logger)
// until Init is called.
var Logger logr.Logger

// Init sets up Logger at level and returns it. level is one of zerolog's
// level names ("debug", "info", "warn", "error"); an unrecognized name falls
// back to "info".
func Init(level string) logr.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	zerologr.NameFieldName = "logger"
	zerologr.NameSeparator = "/"

	var w io.Writer = os.Stderr
	if isTerminal() {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	zl := zerolog.New(w).With().Timestamp().Logger().Level(parseLevel(level))

	Logger = zerologr.New(&zl)
	return Logger
}

func isTerminal() bool {
	return isatty.IsTerminal(os.Stderr.Fd())
}

func parseLevel(level string) zerolog.Level {
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return l
}
