// Package logging provides small helpers for dependency-injected slog loggers.
//
// Loggers are never global: main() builds the base handler, every component
// receives its logger at construction time and scopes it once with
// slog.With. Components given a nil logger get a discard logger instead of
// panicking or falling back to slog.Default.
package logging

import (
	"context"
	"log/slog"
)

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// Discard returns a logger that drops all records.
func Discard() *slog.Logger {
	return slog.New(discardHandler{})
}

// Default returns logger if non-nil, otherwise a discard logger. This is the
// standard pattern for optional logger parameters:
//
//	func NewRecorder(logger *slog.Logger) *Recorder {
//	    logger = logging.Default(logger)
//	    return &Recorder{logger: logger.With("component", "recorder")}
//	}
func Default(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return Discard()
}
