// Package logger is the process-wide structured logger.
//
// It wraps log/slog with a colored text handler for terminals, a JSON
// handler for machine consumption and runtime-adjustable level, format and
// output. The package-level functions are safe for concurrent use.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Level represents log levels
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Format names accepted by SetFormat.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds logger configuration
type Config struct {
	Level  string // DEBUG, INFO, WARN, ERROR
	Format string // text, json
	Output string // stdout, stderr, or file path
}

var (
	currentLevel  atomic.Int32
	currentFormat atomic.Value // stores FormatText or FormatJSON

	mu       sync.RWMutex
	handler  slog.Handler
	slogger  *slog.Logger
	output   io.Writer = os.Stdout
	logFile  *os.File
	useColor bool = true
)

func init() {
	currentLevel.Store(int32(LevelInfo))
	currentFormat.Store(FormatText)
	useColor = isTerminal(os.Stdout.Fd())
	reconfigure()
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name (case-insensitive) to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// slogLevel converts internal level to slog.Level
func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// reconfigure rebuilds the slog handler based on current settings
func reconfigure() {
	mu.Lock()
	defer mu.Unlock()

	opts := &slog.HandlerOptions{
		Level: Level(currentLevel.Load()).slogLevel(),
	}

	if format, _ := currentFormat.Load().(string); format == FormatJSON {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = NewColorTextHandler(output, opts, useColor)
	}

	slogger = slog.New(handler)
}

// Init initializes the logger with the given configuration.
// Output can be "stdout", "stderr", or a file path. A previously opened log
// file is closed when the output changes.
func Init(cfg Config) error {
	if cfg.Output != "" {
		var (
			newOutput io.Writer
			newFile   *os.File
			newColor  bool
		)

		switch strings.ToLower(cfg.Output) {
		case "stdout":
			newOutput = os.Stdout
			newColor = isTerminal(os.Stdout.Fd())
		case "stderr":
			newOutput = os.Stderr
			newColor = isTerminal(os.Stderr.Fd())
		default:
			f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				return fmt.Errorf("failed to open log file %q: %w", cfg.Output, err)
			}
			newOutput = f
			newFile = f
		}

		mu.Lock()
		previous := logFile
		output = newOutput
		logFile = newFile
		useColor = newColor
		mu.Unlock()

		if previous != nil {
			_ = previous.Close()
		}
	}

	if cfg.Level != "" {
		if _, err := ParseLevel(cfg.Level); err != nil {
			return err
		}
		SetLevel(cfg.Level)
	}

	if cfg.Format != "" {
		SetFormat(cfg.Format)
	}

	reconfigure()
	return nil
}

// InitWithWriter initializes the logger with a custom io.Writer.
// This is primarily useful for testing.
func InitWithWriter(w io.Writer, level, format string, enableColor bool) {
	mu.Lock()
	output = w
	useColor = enableColor
	mu.Unlock()

	if level != "" {
		SetLevel(level)
	}
	if format != "" {
		SetFormat(format)
	}
	reconfigure()
}

// Close releases the log file opened by Init, if any, and falls back to stdout.
func Close() error {
	mu.Lock()
	f := logFile
	logFile = nil
	if f != nil {
		output = os.Stdout
	}
	mu.Unlock()

	if f == nil {
		return nil
	}
	reconfigure()
	return f.Close()
}

// SetLevel sets the minimum log level. Unknown names are ignored.
func SetLevel(level string) {
	l, err := ParseLevel(level)
	if err != nil {
		return
	}
	currentLevel.Store(int32(l))
	reconfigure()
}

// GetLevel returns the current minimum level.
func GetLevel() Level {
	return Level(currentLevel.Load())
}

// SetFormat sets the output format (text or json)
func SetFormat(format string) {
	format = strings.ToLower(format)
	if format != FormatText && format != FormatJSON {
		return
	}
	currentFormat.Store(format)
	reconfigure()
}

func getLogger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return slogger
}

// log emits one record at l, with the LogContext fields of ctx ahead of args.
func log(ctx context.Context, l Level, msg string, args []any) {
	if l < Level(currentLevel.Load()) {
		return
	}
	getLogger().Log(ctx, l.slogLevel(), msg, FromContext(ctx).fields(args)...)
}

// Debug logs msg with key/value pairs or slog.Attr fields, e.g.
// Debug("opened", Filename(name), Handle(h)).
func Debug(msg string, args ...any) { log(context.Background(), LevelDebug, msg, args) }

// Info logs at info level.
func Info(msg string, args ...any) { log(context.Background(), LevelInfo, msg, args) }

// Warn logs at warn level.
func Warn(msg string, args ...any) { log(context.Background(), LevelWarn, msg, args) }

// Error logs at error level.
func Error(msg string, args ...any) { log(context.Background(), LevelError, msg, args) }

// DebugCtx logs at debug level, prefixing the fields of the request's LogContext.
func DebugCtx(ctx context.Context, msg string, args ...any) { log(ctx, LevelDebug, msg, args) }

// InfoCtx is the context-aware Info.
func InfoCtx(ctx context.Context, msg string, args ...any) { log(ctx, LevelInfo, msg, args) }

// WarnCtx is the context-aware Warn.
func WarnCtx(ctx context.Context, msg string, args ...any) { log(ctx, LevelWarn, msg, args) }

// ErrorCtx is the context-aware Error.
func ErrorCtx(ctx context.Context, msg string, args ...any) { log(ctx, LevelError, msg, args) }

// With returns a slog.Logger that adds args to every record.
func With(args ...any) *slog.Logger {
	return getLogger().With(args...)
}

// Duration returns the milliseconds elapsed since start.
func Duration(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
