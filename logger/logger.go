// Package logger is the minimal leveled logging contract used across
// the config pipeline. Applications with a real logging stack adapt it
// to this interface; the default writes through the standard library.
package logger

import (
	"io"
	"log"
	"os"
)

// Logger is the printf-style leveled contract the pipeline logs to.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// DefaultLogger writes prefixed lines through a *log.Logger.
type DefaultLogger struct {
	name string
	out  *log.Logger
}

// NewDefaultLogger returns a logger that writes to stderr with the
// given component name.
func NewDefaultLogger(name string) *DefaultLogger {
	return NewDefaultLoggerWithWriter(name, os.Stderr)
}

// NewDefaultLoggerWithWriter writes to w instead of stderr.
func NewDefaultLoggerWithWriter(name string, w io.Writer) *DefaultLogger {
	return &DefaultLogger{
		name: name,
		out:  log.New(w, "", log.LstdFlags),
	}
}

func (d *DefaultLogger) Debug(format string, args ...any) { d.printf("DEBUG", format, args...) }
func (d *DefaultLogger) Info(format string, args ...any)  { d.printf("INFO", format, args...) }
func (d *DefaultLogger) Error(format string, args ...any) { d.printf("ERROR", format, args...) }

func (d *DefaultLogger) printf(level, format string, args ...any) {
	d.out.Printf("["+level+"] "+d.name+" | "+format, args...)
}

// Noop discards everything. Useful in tests and in libraries that do
// not want pipeline chatter.
type Noop struct{}

func (Noop) Debug(string, ...any) {}
func (Noop) Info(string, ...any)  {}
func (Noop) Error(string, ...any) {}
