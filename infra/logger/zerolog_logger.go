package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ZerologLogger implements Logger using rs/zerolog.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger creates a ZerologLogger using the APP_ENV environment variable
// to determine the output format. All logs include the provided component field.
func NewZerologLogger(component string) Logger {
	var w io.Writer = os.Stdout
	if strings.ToLower(os.Getenv("APP_ENV")) == "dev" {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return NewWithWriter(w, component, os.Getenv("LOG_LEVEL"))
}

// NewWithWriter writes JSON lines to w. An empty or unknown level means info.
func NewWithWriter(w io.Writer, component, level string) *ZerologLogger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	z := zerolog.New(w).Level(lvl).With().Timestamp().Str("component", component).Logger()
	return &ZerologLogger{log: z}
}

// With returns a child logger carrying an extra field.
func (l *ZerologLogger) With(key string, value any) *ZerologLogger {
	return &ZerologLogger{log: l.log.With().Interface(key, value).Logger()}
}

func (l *ZerologLogger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *ZerologLogger) Debugw(msg string, fields map[string]any) {
	ev := l.log.Debug()
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

func (l *ZerologLogger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *ZerologLogger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *ZerologLogger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}
