// Package logger configures the process-wide slog logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config selects the level and an optional rotating log file.
type Config struct {
	Level string // debug, info, warn, error
	File  string // empty means stdout only
}

// ParseLevel maps a level name to slog.Level, defaulting to Info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// New builds a JSON logger writing to stdout, teed to a rotating file when cfg.File is set.
// The returned closer flushes and closes the file; it is a no-op without one.
func New(cfg Config) (*slog.Logger, io.Closer) {
	var (
		w      io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)
	if cfg.File != "" {
		rotation := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    100, // megabytes
			MaxAge:     7,   // days
			MaxBackups: 5,
			Compress:   true,
			LocalTime:  true,
		}
		w = io.MultiWriter(os.Stdout, rotation)
		closer = rotation
	}
	return newWithWriter(w, ParseLevel(cfg.Level)), closer
}

func newWithWriter(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Init builds the logger and installs it as slog's default.
func Init(cfg Config) io.Closer {
	l, closer := New(cfg)
	slog.SetDefault(l)
	return closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
