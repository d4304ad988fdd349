package logger

import corelogger "github.com/kilianp07/omnidispatch/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger discards everything.
type NopLogger = corelogger.NopLogger

// New returns a Logger for the given component. The environment is detected via
// the APP_ENV variable and the level via LOG_LEVEL.
func New(component string) Logger {
	return NewZerologLogger(component)
}
