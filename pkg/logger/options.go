package logger

import (
	"io"
	"log/slog"
)

// Option configures a logger built by New.
type Option func(*config)

// WithDebug lowers the level to Debug. False restores Info.
func WithDebug(debug bool) Option {
	return func(c *config) {
		c.level = slog.LevelInfo
		if debug {
			c.level = slog.LevelDebug
		}
	}
}

// WithPretty selects the colorized charmbracelet/log handler meant for a
// terminal. It takes precedence over WithJSON.
func WithPretty(pretty bool) Option {
	return func(c *config) { c.pretty = pretty }
}

// WithJSON selects slog's JSON handler, used for log files.
func WithJSON(json bool) Option {
	return func(c *config) { c.json = json }
}

// WithWriter replaces the destination, os.Stdout by default.
func WithWriter(w io.Writer) Option {
	return WithWriters(w)
}

// WithWriters writes every record to all of w.
func WithWriters(w ...io.Writer) Option {
	return func(c *config) { c.writers = w }
}

// WithSource adds the calling file and line to each record.
func WithSource(source bool) Option {
	return func(c *config) { c.source = source }
}
