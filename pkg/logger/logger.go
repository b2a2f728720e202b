// Package logger builds the *slog.Logger instances used across lovable.
// Loggers are always injected; nothing in the module logs through a global.
package logger

import (
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
)

type config struct {
	level   slog.Level
	pretty  bool
	json    bool
	source  bool
	writers []io.Writer
}

// New creates a *slog.Logger. With no options it writes Info-level text
// records to os.Stdout.
func New(opts ...Option) *slog.Logger {
	c := &config{
		level:   slog.LevelInfo,
		writers: []io.Writer{os.Stdout},
	}
	for _, opt := range opts {
		opt(c)
	}

	var w io.Writer
	switch len(c.writers) {
	case 0:
		w = os.Stdout
	case 1:
		w = c.writers[0]
	default:
		w = io.MultiWriter(c.writers...)
	}

	return slog.New(newHandler(w, c))
}

func newHandler(w io.Writer, c *config) slog.Handler {
	switch {
	case c.pretty:
		return charmlog.NewWithOptions(w, charmlog.Options{
			Level:           charmlog.Level(c.level),
			ReportTimestamp: true,
			ReportCaller:    c.source,
		})
	case c.json:
		return slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     c.level,
			AddSource: c.source,
		})
	default:
		return slog.NewTextHandler(w, &slog.HandlerOptions{
			Level:     c.level,
			AddSource: c.source,
		})
	}
}

// Nop returns a logger that discards every record.
func Nop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
