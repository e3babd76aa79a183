package common

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler discards every record. Enabled reports false so callers skip formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger configures the logger shared by every package in this module.
// By default nothing is logged. Passing nil restores the silent default.
//
// Log levels in use:
//   - [slog.LevelDebug]: bind group realization, layout creation, pass flushes
//   - [slog.LevelInfo]: periodic binding statistics
//   - [slog.LevelWarn]: consistency repairs such as re-registering a texture that lost its GPU record
//   - [slog.LevelError]: configuration errors such as an unsupported binding kind
//
// Parameters:
//   - l: the logger to install, or nil to disable logging
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the currently installed logger.
//
// Returns:
//   - *slog.Logger: the shared logger, never nil
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
