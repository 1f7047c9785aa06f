// Package logging builds the process-wide slog logger.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"mealcart/internal/config"
	"mealcart/internal/logsink"
)

// Setup builds a logger writing to stderr, or to cfg.Logging.File when set,
// and to any extra handlers such as the blob sink or an OTLP bridge. The
// returned closer releases the log file and flushes the blob sink.
func Setup(ctx context.Context, cfg *config.Config, extra ...slog.Handler) (*slog.Logger, io.Closer, error) {
	level := ParseLevel(cfg.Logging.Level)
	closers := closeAll{}

	out := io.Writer(os.Stderr)
	if cfg.Logging.File != "" {
		f, err := openLogFile(cfg.Logging.File)
		if err != nil {
			return nil, nil, err
		}
		out = f
		closers = append(closers, f)
	}

	opts := &slog.HandlerOptions{Level: level}
	var base slog.Handler
	if cfg.Logging.Format == "json" {
		base = slog.NewJSONHandler(out, opts)
	} else {
		base = slog.NewTextHandler(out, opts)
	}
	handlers := []slog.Handler{base}

	if cfg.LogSink.Enabled() {
		sink, err := logsink.New(ctx, cfg.LogSink, level)
		if err != nil {
			_ = closers.Close()
			return nil, nil, fmt.Errorf("failed to set up log sink: %w", err)
		}
		handlers = append(handlers, sink)
		closers = append(closers, sink)
	}
	for _, h := range extra {
		if h != nil {
			handlers = append(handlers, h)
		}
	}

	if len(handlers) == 1 {
		return slog.New(base), closers, nil
	}
	return slog.New(slog.NewMultiHandler(handlers...)), closers, nil
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openLogFile(path string) (*os.File, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

type closeAll []io.Closer

func (c closeAll) Close() error {
	var errs []error
	// sinks were added last and may still write to the file
	for i := len(c) - 1; i >= 0; i-- {
		errs = append(errs, c[i].Close())
	}
	return errors.Join(errs...)
}
