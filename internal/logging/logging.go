// internal/logging/logging.go

// Package logging provides the structured logger used across magnetctl.
// The interface is deliberately small so tests can swap in a nop logger.
package logging

import (
	"io"
	"log/slog"
	"os"

	console "github.com/phsym/console-slog"
)

// Logger is the common logging contract.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
	With(keysAndValues ...any) Logger
}

type slogLogger struct {
	l *slog.Logger
}

// New creates a slog-backed logger. Console output gets a human handler,
// everything else structured JSON.
func New(w io.Writer, level slog.Level, toConsole bool) Logger {
	var handler slog.Handler
	if toConsole {
		handler = console.NewHandler(w, &console.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	return &slogLogger{l: slog.New(handler)}
}

// Default is the logger for interactive use: console handler on stderr.
func Default(level slog.Level) Logger {
	return New(os.Stderr, level, true)
}

func (s *slogLogger) Debug(msg string, kv ...any) { s.l.Debug(msg, kv...) }
func (s *slogLogger) Info(msg string, kv ...any)  { s.l.Info(msg, kv...) }
func (s *slogLogger) Warn(msg string, kv ...any)  { s.l.Warn(msg, kv...) }
func (s *slogLogger) Error(msg string, kv ...any) { s.l.Error(msg, kv...) }

func (s *slogLogger) With(kv ...any) Logger {
	return &slogLogger{l: s.l.With(kv...)}
}

type nopLogger struct{}

// Nop returns a logger that discards everything.
func Nop() Logger { return nopLogger{} }

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func (n nopLogger) With(...any) Logger { return n }
