// Package logging provides structured, per-component loggers backed by logrus.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Fields is a set of structured key/value pairs attached to a log entry.
type Fields = logrus.Fields

var base = newBase(os.Stdout)

func newBase(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// Configure sets the level and output format shared by every component logger.
// Unknown levels fall back to info.
func Configure(level, format string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	base.SetLevel(lvl)

	if strings.EqualFold(format, "text") {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		base.SetFormatter(&logrus.JSONFormatter{})
	}
}

// Logger is a component-scoped structured logger.
type Logger struct {
	entry *logrus.Entry
}

// New creates a logger tagged with the given component name.
func New(component string) *Logger {
	return &Logger{entry: base.WithField("component", component)}
}

// NewWithOutput creates a standalone logger writing JSON to out.
func NewWithOutput(component string, out io.Writer, level logrus.Level) *Logger {
	l := newBase(out)
	l.SetLevel(level)
	return &Logger{entry: l.WithField("component", component)}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return NewWithOutput("nop", io.Discard, logrus.PanicLevel)
}

// With returns a child logger carrying the given fields on every entry.
func (l *Logger) With(fields Fields) *Logger {
	return &Logger{entry: l.entry.WithFields(fields)}
}

func (l *Logger) Debug(msg string, fields ...Fields) {
	l.withFields(fields).Debug(msg)
}

func (l *Logger) Info(msg string, fields ...Fields) {
	l.withFields(fields).Info(msg)
}

func (l *Logger) Warn(msg string, fields ...Fields) {
	l.withFields(fields).Warn(msg)
}

func (l *Logger) Error(msg string, fields ...Fields) {
	l.withFields(fields).Error(msg)
}

// Fatal logs and exits the process.
func (l *Logger) Fatal(msg string, fields ...Fields) {
	l.withFields(fields).Fatal(msg)
}

func (l *Logger) withFields(fields []Fields) *logrus.Entry {
	e := l.entry
	for _, f := range fields {
		e = e.WithFields(f)
	}
	return e
}

// Infof logs a formatted message on the shared base logger.
func Infof(format string, args ...interface{}) {
	base.Infof(format, args...)
}
