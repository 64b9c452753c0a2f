package middleware

import (
	"github.com/charmbracelet/log"
)

// CharmLogger adapts a charmbracelet logger to the Logger interface.
type CharmLogger struct {
	l *log.Logger
}

// NewCharmLogger wraps the given logger. Passing nil uses the default
// charmbracelet logger.
func NewCharmLogger(l *log.Logger) *CharmLogger {
	if l == nil {
		l = log.Default()
	}
	return &CharmLogger{l: l}
}

func (c *CharmLogger) Info(msg string, fields ...Field) {
	c.l.Info(msg, keyvals(fields)...)
}

func (c *CharmLogger) Error(msg string, fields ...Field) {
	c.l.Error(msg, keyvals(fields)...)
}

func (c *CharmLogger) Debug(msg string, fields ...Field) {
	c.l.Debug(msg, keyvals(fields)...)
}

func (c *CharmLogger) Warn(msg string, fields ...Field) {
	c.l.Warn(msg, keyvals(fields)...)
}

// keyvals flattens fields into the alternating key/value form the
// charmbracelet logger expects.
func keyvals(fields []Field) []any {
	kv := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		kv = append(kv, f.Key, f.Value)
	}
	return kv
}
