package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Config captures logging configuration options.
type Config struct {
	Level    string
	Dir      string
	Filename string
}

// Logger wraps slog with tag-prefixed convenience helpers and an
// optional log file alongside the colored console output.
type Logger struct {
	slogger *slog.Logger
	file    *os.File
}

// New creates a Logger writing colored output to stdout and, when a
// directory is configured, plain output to a log file.
func New(cfg Config) (*Logger, error) {
	var file *os.File
	writers := []io.Writer{}

	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		name := cfg.Filename
		if name == "" {
			name = "server.log"
		}
		f, err := os.OpenFile(filepath.Join(cfg.Dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		file = f
		writers = append(writers, f)
	}

	handler := &tagTextHandler{
		console: os.Stdout,
		extra:   writers,
		level:   parseLevel(cfg.Level),
	}

	return &Logger{
		slogger: slog.New(handler),
		file:    file,
	}, nil
}

// Slog exposes the structured logger for direct use.
func (l *Logger) Slog() *slog.Logger {
	return l.slogger
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *Logger) Debug(format string, args ...any) { l.slogger.Debug(fmt.Sprintf(format, args...)) }
func (l *Logger) Info(format string, args ...any)  { l.slogger.Info(fmt.Sprintf(format, args...)) }
func (l *Logger) Warn(format string, args ...any)  { l.slogger.Warn(fmt.Sprintf(format, args...)) }
func (l *Logger) Error(format string, args ...any) { l.slogger.Error(fmt.Sprintf(format, args...)) }

// InfoTag logs a message prefixed with a module tag, e.g. [HTTP].
func (l *Logger) InfoTag(tag, format string, args ...any) {
	l.slogger.Info(fmt.Sprintf("[%s] %s", tag, fmt.Sprintf(format, args...)))
}

// WarnTag logs a warning prefixed with a module tag.
func (l *Logger) WarnTag(tag, format string, args ...any) {
	l.slogger.Warn(fmt.Sprintf("[%s] %s", tag, fmt.Sprintf(format, args...)))
}

// ErrorTag logs an error prefixed with a module tag.
func (l *Logger) ErrorTag(tag, format string, args ...any) {
	l.slogger.Error(fmt.Sprintf("[%s] %s", tag, fmt.Sprintf(format, args...)))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var (
	colorReset = "\x1b[0m"
	colorTime  = "\x1b[90m"
	colorDebug = "\x1b[36m"
	colorInfo  = "\x1b[32m"
	colorWarn  = "\x1b[33m"
	colorError = "\x1b[31m"
)

// Module tag colors in console output.
var tagColors = map[string]string{
	"[BOOT]":  "\x1b[96m",
	"[HTTP]":  "\x1b[95m",
	"[PROXY]": "\x1b[94m",
	"[STATS]": "\x1b[92m",
	"[AUTH]":  "\x1b[94m",
	"[STORE]": "\x1b[36m",
}

// tagTextHandler renders colored tagged lines on the console and plain
// lines to any extra writers.
type tagTextHandler struct {
	console io.Writer
	extra   []io.Writer
	level   slog.Level
	mu      sync.Mutex
}

func (h *tagTextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *tagTextHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	timeStr := r.Time.Format("2006-01-02 15:04:05.000")

	var levelStr, levelColor string
	switch r.Level {
	case slog.LevelDebug:
		levelStr, levelColor = "DEBUG", colorDebug
	case slog.LevelWarn:
		levelStr, levelColor = "WARN", colorWarn
	case slog.LevelError:
		levelStr, levelColor = "ERROR", colorError
	default:
		levelStr, levelColor = "INFO", colorInfo
	}

	msg := r.Message
	var moduleColor string
	for tag, color := range tagColors {
		if strings.HasPrefix(msg, tag) {
			moduleColor = color
			break
		}
	}

	var console string
	if moduleColor != "" {
		console = fmt.Sprintf("%s[%s]%s %s%s%s\n",
			colorTime, timeStr, colorReset,
			moduleColor, msg, colorReset)
	} else {
		console = fmt.Sprintf("%s[%s]%s %s[%s]%s %s\n",
			colorTime, timeStr, colorReset,
			levelColor, levelStr, colorReset, msg)
	}
	if _, err := io.WriteString(h.console, console); err != nil {
		return err
	}

	plain := fmt.Sprintf("[%s] [%s] %s\n", timeStr, levelStr, msg)
	for _, w := range h.extra {
		if _, err := io.WriteString(w, plain); err != nil {
			return err
		}
	}
	return nil
}

func (h *tagTextHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }
func (h *tagTextHandler) WithGroup(_ string) slog.Handler      { return h }
