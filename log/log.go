// Package log provides a small structured logging facade used across the
// corpus engine. It keeps call sites free of a concrete logging backend so
// callers of the corpus API can plug in their own sink.
package log

import (
	"log/slog"
	"os"
)

// Logger is the logging interface used throughout the corpus package. The
// variadic arguments are slog attributes (slog.String, slog.Int, ...).
type Logger interface {
	Debug(string, ...any)
	Info(string, ...any)
	Warn(string, ...any)
	Error(string, ...any)
	With(...any) Logger
}

// Root is a ready-made logger writing text to stderr. The corpus package
// does not use it: a corpus given no logger falls back to Nop.
var Root Logger = New(slog.New(slog.NewTextHandler(os.Stderr, nil)))

// Slog adapts a *slog.Logger to the Logger interface.
type Slog struct {
	l *slog.Logger
}

// New wraps an existing *slog.Logger.
func New(l *slog.Logger) *Slog { return &Slog{l: l} }

// NewJSON returns a logger writing structured JSON to w, matching the
// handler configuration production services in this stack use.
func NewJSON(w *os.File, level slog.Level) *Slog {
	return New(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})))
}

func (s *Slog) Debug(m string, a ...any) { s.l.Debug(m, a...) }
func (s *Slog) Info(m string, a ...any)  { s.l.Info(m, a...) }
func (s *Slog) Warn(m string, a ...any)  { s.l.Warn(m, a...) }
func (s *Slog) Error(m string, a ...any) { s.l.Error(m, a...) }
func (s *Slog) With(a ...any) Logger     { return &Slog{l: s.l.With(a...)} }

// Nop discards everything; useful in tests that don't care about log output.
type Nop struct{}

func (Nop) Debug(string, ...any) {}
func (Nop) Info(string, ...any)  {}
func (Nop) Warn(string, ...any)  {}
func (Nop) Error(string, ...any) {}
func (Nop) With(...any) Logger   { return Nop{} }
