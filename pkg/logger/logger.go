package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config controls logger construction, loadable via pkg/config.
type Config struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`   // debug, info, warn, error
	Format string `env:"LOG_FORMAT" envDefault:"json"`  // json or text
	Source bool   `env:"LOG_ADD_SOURCE" envDefault:"false"`
}

// Option configures logger creation.
type Option func(*settings)

type settings struct {
	level  slog.Level
	format string
	source bool
	output io.Writer
	attrs  []slog.Attr
}

// WithLevel sets the minimum level.
func WithLevel(l slog.Level) Option {
	return func(s *settings) { s.level = l }
}

// WithTextFormat switches to human-readable output.
func WithTextFormat() Option {
	return func(s *settings) { s.format = "text" }
}

// WithOutput sets a custom destination; nil writers are ignored.
func WithOutput(w io.Writer) Option {
	return func(s *settings) {
		if w != nil {
			s.output = w
		}
	}
}

// WithAttrs adds static attributes to every record.
func WithAttrs(attrs ...slog.Attr) Option {
	return func(s *settings) { s.attrs = append(s.attrs, attrs...) }
}

// New creates a structured logger. JSON to stdout by default.
func New(opts ...Option) *slog.Logger {
	s := settings{level: slog.LevelInfo, format: "json", output: os.Stdout}
	for _, opt := range opts {
		opt(&s)
	}

	handlerOpts := &slog.HandlerOptions{Level: s.level, AddSource: s.source}
	var handler slog.Handler
	if s.format == "text" {
		handler = slog.NewTextHandler(s.output, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(s.output, handlerOpts)
	}
	if len(s.attrs) > 0 {
		handler = handler.WithAttrs(s.attrs)
	}
	return slog.New(handler)
}

// NewFromConfig creates a logger from environment-driven configuration.
func NewFromConfig(cfg Config, opts ...Option) *slog.Logger {
	base := []Option{WithLevel(parseLevel(cfg.Level))}
	if strings.EqualFold(cfg.Format, "text") {
		base = append(base, WithTextFormat())
	}
	if cfg.Source {
		base = append(base, func(s *settings) { s.source = true })
	}
	return New(append(base, opts...)...)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
