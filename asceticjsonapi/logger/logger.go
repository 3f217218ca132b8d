// Package logger builds the service logger and the SQL query tracer that
// writes through it.
package logger

import (
	"io"
	"os"
	"time"

	pgxzero "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const LocalEnv = "local"

// New returns a console logger in the local environment and a JSON logger
// everywhere else.
func New(level, env string) (zerolog.Logger, error) {
	var out io.Writer = os.Stdout
	if env == LocalEnv {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return NewWithWriter(out, level)
}

func NewWithWriter(out io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), errors.Wrapf(err, "invalid log level %q", level)
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Str("service", "jsonapi").Logger(), nil
}

// NewQueryTracer logs every SQL statement at the logger's level.
func NewQueryTracer(logger zerolog.Logger) *tracelog.TraceLog {
	return &tracelog.TraceLog{
		Logger:   pgxzero.NewLogger(logger.With().Str("component", "pgx").Logger()),
		LogLevel: TraceLogLevel(logger.GetLevel()),
	}
}

// TraceLogLevel maps a zerolog level onto the pgx tracelog scale.
func TraceLogLevel(level zerolog.Level) tracelog.LogLevel {
	switch level {
	case zerolog.TraceLevel:
		return tracelog.LogLevelTrace
	case zerolog.DebugLevel:
		return tracelog.LogLevelDebug
	case zerolog.InfoLevel:
		return tracelog.LogLevelInfo
	case zerolog.WarnLevel:
		return tracelog.LogLevelWarn
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
		return tracelog.LogLevelError
	default:
		return tracelog.LogLevelNone
	}
}
