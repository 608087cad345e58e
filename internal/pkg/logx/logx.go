/*
Package logx wraps zerolog for the relay.

It initialises the global logger (console output in development, JSON otherwise) and offers
key/value helpers for the Debug, Info, Warn, Error and Fatal levels plus child loggers scoped
to a component.
*/
package logx

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitGlobalLogger initializes the global zerolog instance.
// Development: Debug level, ConsoleWriter on stderr.
// Production: Info level, JSON on stdout.
func InitGlobalLogger(isDevelopment bool) {
	if isDevelopment {
		initWith(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}, zerolog.DebugLevel)
		return
	}
	initWith(os.Stdout, zerolog.InfoLevel)
}

func initWith(out io.Writer, level zerolog.Level) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	log.Logger = zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Caller().
		Logger()
}

// Logger returns a pointer to the global zerolog.Logger instance.
func Logger() *zerolog.Logger {
	return &log.Logger
}

// Component returns a child of the global logger tagged with the given component name.
func Component(name string) zerolog.Logger {
	return Logger().With().Str("component", name).Logger()
}

// emit writes msg with fields on event. Odd field lists are dropped with a warning,
// since zerolog would otherwise misalign keys and values.
func emit(event *zerolog.Event, level string, msg string, fields []any) {
	if len(fields)%2 != 0 {
		Logger().Warn().
			Int("fields_count", len(fields)).
			Str("log_level", level).
			Msgf("Logx call (%s) received odd number of fields: %v. Fields ignored.", level, fields)
		fields = nil
	}

	event.Fields(fields).CallerSkipFrame(2).Msg(msg)
}

// Debug records a message at the Debug level.
func Debug(msg string, fields ...any) {
	emit(Logger().Debug(), "Debug", msg, fields)
}

// Info records a message at the Info level with optional key/value fields.
func Info(msg string, fields ...any) {
	emit(Logger().Info(), "Info", msg, fields)
}

// Warn records a message at the Warn level with optional key/value fields.
func Warn(msg string, fields ...any) {
	emit(Logger().Warn(), "Warn", msg, fields)
}

// Error records err and a message at the Error level.
func Error(err error, msg string, fields ...any) {
	emit(Logger().Error().Err(err), "Error", msg, fields)
}

// Fatal records err at the Fatal level and then exits the process with status 1.
func Fatal(err error, msg string, fields ...any) {
	emit(Logger().Fatal().Err(err), "Fatal", msg, fields)
}
