package npjson

import (
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with the fields npjson attaches to its records
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new logger writing to stderr with the specified configuration
func NewLogger(cfg LoggingConfig) *Logger {
	return NewLoggerTo(os.Stderr, cfg)
}

// NewLoggerTo creates a new logger writing to w
func NewLoggerTo(w io.Writer, cfg LoggingConfig) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Level),
	}

	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// NopLogger returns a logger that discards every record
func NopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

// WithCodec returns a logger with the codec name attached
func (l *Logger) WithCodec(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("codec", name),
	}
}

// WithSource returns a logger with the input or output path attached
func (l *Logger) WithSource(path string) *Logger {
	return &Logger{
		Logger: l.Logger.With("source", path),
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
