// Released under an MIT license. See LICENSE.

// Package logger records the shell's internal events using log/slog.
package logger

import (
	"io"
	"log/slog"

	"go.trai.ch/zerr"
)

// ErrLevel is returned for an unrecognized level name.
var ErrLevel = zerr.New("unknown log level")

// Logger is a leveled structured logger.
type Logger struct {
	level  slog.LevelVar
	logger *slog.Logger
}

// New returns a Logger that writes text records at or above level to w.
func New(w io.Writer, level string) (*Logger, error) {
	l := &Logger{}

	err := l.SetLevel(level)
	if err != nil {
		return nil, err
	}

	l.logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: &l.level}))

	return l, nil
}

// Discard returns a Logger that drops every record.
func Discard() *Logger {
	l := &Logger{}
	l.level.Set(slog.LevelError + 1)
	l.logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: &l.level}))

	return l
}

// SetLevel changes the minimum level. An empty name selects "warn".
func (l *Logger) SetLevel(name string) error {
	if name == "" {
		name = "warn"
	}

	var level slog.Level

	err := level.UnmarshalText([]byte(name))
	if err != nil {
		return zerr.With(zerr.Wrap(ErrLevel, name), "level", name)
	}

	l.level.Set(level)

	return nil
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}

// Info logs an informational message.
func (l *Logger) Info(msg string, args ...any) {
	l.logger.Info(msg, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, args...)
}

// Error logs err with any metadata it carries.
func (l *Logger) Error(err error) {
	if err == nil {
		return
	}

	l.logger.Error("operation failed", "error", err)
}
