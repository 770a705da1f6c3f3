package logger

import (
	"context"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

// Config selects the log level and output format.
type Config struct {
	// Level is a zerolog level name: trace, debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is "text" for human-readable console output or "json".
	Format string `yaml:"format"`
}

// New creates a logger writing to stderr. Stdout is reserved for command
// output and the MCP protocol stream.
func New(cfg Config) zerolog.Logger {
	return NewWithWriter(os.Stderr, cfg)
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(w io.Writer, cfg Config) zerolog.Logger {
	if !strings.EqualFold(cfg.Format, "json") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Caller().Logger()
}

// WithContext returns a copy of ctx carrying log.
func WithContext(ctx context.Context, log zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// FromContext returns the logger attached by WithContext, or fallback.
func FromContext(ctx context.Context, fallback zerolog.Logger) zerolog.Logger {
	if log, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return log
	}
	return fallback
}

// WithFields returns a child of log carrying fields. Keys are added in
// sorted order so output is stable.
func WithFields(log zerolog.Logger, fields map[string]any) zerolog.Logger {
	c := log.With()
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		c = c.Interface(k, fields[k])
	}
	return c.Logger()
}
