// Package logging wraps log/slog with the daemon's rotation and level
// conventions, adapted from the teacher's daemonLogger (cmd/bd).
package logging

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is a thin slog wrapper giving callers level-specific methods
// without importing log/slog directly throughout the codebase.
type Logger struct {
	*slog.Logger
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewDaemon builds a logger that rotates to logPath via lumberjack and,
// in foreground mode, also writes to stderr. Returns the lumberjack
// writer too so the caller can close it on shutdown.
func NewDaemon(logPath string, jsonFormat bool, level slog.Level, alsoStderr bool) (*lumberjack.Logger, *Logger) {
	rotated := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    getEnvInt("TX_DAEMON_LOG_MAX_SIZE_MB", 50),
		MaxBackups: getEnvInt("TX_DAEMON_LOG_MAX_BACKUPS", 7),
		MaxAge:     getEnvInt("TX_DAEMON_LOG_MAX_AGE_DAYS", 30),
		Compress:   getEnvBool("TX_DAEMON_LOG_COMPRESS", true),
	}

	var w io.Writer = rotated
	if alsoStderr {
		w = io.MultiWriter(rotated, os.Stderr)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if jsonFormat {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return rotated, &Logger{Logger: slog.New(handler)}
}

// NewStderr builds a logger with no file rotation, for cmd/tx one-shot
// invocations.
func NewStderr(jsonFormat bool, level slog.Level) *Logger {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if jsonFormat {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return &Logger{Logger: slog.New(handler)}
}

// Discard builds a logger that drops everything, for tests that need a
// Logger but don't care about output.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
