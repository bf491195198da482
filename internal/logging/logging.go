// Package logging provides a leveled, structured logger.
//
// Lines are logfmt key/value pairs written through go-kit/log:
//
//	ts=2024-04-08T18:00:00.123Z level=info component=tick msg="driver started" interval=50ms
package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Level represents log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	levelNone
)

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

// ParseLevel parses a log level string. Unknown values map to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) allow() level.Option {
	switch l {
	case LevelDebug:
		return level.AllowDebug()
	case LevelInfo:
		return level.AllowInfo()
	case LevelWarn:
		return level.AllowWarn()
	case LevelError:
		return level.AllowError()
	default:
		return level.AllowNone()
	}
}

// sink is the output shared by a logger and everything derived from it.
type sink struct {
	mu     sync.Mutex
	level  Level
	output io.Writer
}

// Logger is a leveled key/value logger. Loggers derived with With share the
// parent's output and level.
type Logger struct {
	sink    *sink
	keyvals []interface{}
}

// New creates a logger writing to stderr.
func New(lvl Level) *Logger {
	return &Logger{sink: &sink{level: lvl, output: os.Stderr}}
}

// Discard returns a logger that discards all output.
func Discard() *Logger {
	return &Logger{sink: &sink{level: levelNone, output: io.Discard}}
}

// SetOutput sets the log output destination.
func (l *Logger) SetOutput(w io.Writer) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.output = w
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(lvl Level) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.level = lvl
}

// With returns a logger that adds keyvals to every line.
func (l *Logger) With(keyvals ...interface{}) *Logger {
	kv := make([]interface{}, 0, len(l.keyvals)+len(keyvals))
	kv = append(kv, l.keyvals...)
	kv = append(kv, keyvals...)
	return &Logger{sink: l.sink, keyvals: kv}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, keyvals ...interface{}) {
	l.log(level.Debug, msg, keyvals)
}

// Info logs an info message.
func (l *Logger) Info(msg string, keyvals ...interface{}) {
	l.log(level.Info, msg, keyvals)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, keyvals ...interface{}) {
	l.log(level.Warn, msg, keyvals)
}

// Error logs an error message.
func (l *Logger) Error(msg string, keyvals ...interface{}) {
	l.log(level.Error, msg, keyvals)
}

func (l *Logger) log(at func(kitlog.Logger) kitlog.Logger, msg string, keyvals []interface{}) {
	s := l.sink
	s.mu.Lock()
	defer s.mu.Unlock()

	base := kitlog.NewLogfmtLogger(s.output)
	base = level.NewFilter(base, s.level.allow())
	base = kitlog.With(base, "ts", kitlog.DefaultTimestampUTC)
	if len(l.keyvals) > 0 {
		base = kitlog.With(base, l.keyvals...)
	}

	kv := make([]interface{}, 0, len(keyvals)+2)
	kv = append(kv, "msg", msg)
	kv = append(kv, keyvals...)
	_ = at(base).Log(kv...)
}
