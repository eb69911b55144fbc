// Package log provides the structured logger used throughout this module.
// It wraps zerolog with a small level/output API that mirrors how CLI tools
// in this ecosystem initialize logging: a level string, an output target
// ("stdout", "stderr", or a file path), and an optional writer override for
// tests and benchmarks.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

var logger zerolog.Logger

// panicOnInvalidChars controls whether a log call containing invalid UTF-8
// bytes panics (useful in tests/CI to catch encoding bugs early) or is
// passed through unchanged. Off by default.
var panicOnInvalidChars = false

// logTestWriter and logTestWriterName let tests/benchmarks redirect log
// output without touching the filesystem.
var (
	logTestWriter     io.Writer = os.Stderr
	logTestWriterName           = "test"
)

// Config carries optional overrides for Init. A nil Config uses defaults.
type Config struct {
	// TimeFormat overrides zerolog's default RFC3339 timestamp format.
	TimeFormat string
}

func init() {
	Init("info", "stderr", nil)
}

// Init configures the global logger. level is one of "debug", "info",
// "warn", "error"; output is "stdout", "stderr", or the sentinel
// logTestWriterName used by tests.
func Init(level, output string, config *Config) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	var w io.Writer
	switch output {
	case "stdout":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	case logTestWriterName:
		w = logTestWriter
	default:
		f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			w = os.Stderr
		} else {
			w = f
		}
	}

	timeFormat := "2006-01-02T15:04:05Z07:00"
	if config != nil && config.TimeFormat != "" {
		timeFormat = config.TimeFormat
	}

	console := zerolog.ConsoleWriter{Out: w, TimeFormat: timeFormat, NoColor: true}
	logger = zerolog.New(console).Level(lvl).With().Timestamp().Logger()
}

// Level returns the currently configured minimum log level.
func Level() zerolog.Level {
	return logger.GetLevel()
}

func checkChars(s string) string {
	if !panicOnInvalidChars {
		return s
	}
	if !utf8.ValidString(s) {
		panic(fmt.Sprintf("log: invalid utf-8 in message: %q", s))
	}
	return s
}

// Infof logs a formatted message at info level.
func Infof(format string, args ...any) {
	logger.Info().Msg(checkChars(fmt.Sprintf(format, args...)))
}

// Debugf logs a formatted message at debug level.
func Debugf(format string, args ...any) {
	logger.Debug().Msg(checkChars(fmt.Sprintf(format, args...)))
}

// Warnf logs a formatted message at warn level.
func Warnf(format string, args ...any) {
	logger.Warn().Msg(checkChars(fmt.Sprintf(format, args...)))
}

// Errorf logs a formatted message at error level.
func Errorf(format string, args ...any) {
	logger.Error().Msg(checkChars(fmt.Sprintf(format, args...)))
}

func withPairs(e *zerolog.Event, keyvals ...any) *zerolog.Event {
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", keyvals[i])
		}
		e = e.Interface(key, keyvals[i+1])
	}
	return e
}

// Infow logs msg at info level with alternating key/value pairs.
func Infow(msg string, keyvals ...any) {
	withPairs(logger.Info(), keyvals...).Msg(checkChars(msg))
}

// Debugw logs msg at debug level with alternating key/value pairs.
func Debugw(msg string, keyvals ...any) {
	withPairs(logger.Debug(), keyvals...).Msg(checkChars(msg))
}

// Warnw logs msg at warn level with alternating key/value pairs.
func Warnw(msg string, keyvals ...any) {
	withPairs(logger.Warn(), keyvals...).Msg(checkChars(msg))
}

// Errorw logs msg at error level with alternating key/value pairs.
func Errorw(msg string, keyvals ...any) {
	withPairs(logger.Error(), keyvals...).Msg(checkChars(msg))
}

// Error logs err at error level.
func Error(err error) {
	if err == nil {
		return
	}
	logger.Error().Msg(checkChars(err.Error()))
}

// Warn logs args at warn level, formatted like fmt.Sprint (spaces are
// added only between operands when neither is a string).
func Warn(args ...any) {
	logger.Warn().Msg(checkChars(fmt.Sprint(args...)))
}

// Fatal logs args at fatal level and terminates the process.
func Fatal(args ...any) {
	logger.Fatal().Msg(checkChars(fmt.Sprint(args...)))
}
