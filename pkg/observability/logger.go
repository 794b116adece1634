package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
)

// LogLevel is the minimum severity a Logger writes
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

var (
	levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}
	slogLevels = [...]slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError}
)

func (l LogLevel) valid() bool {
	return l >= DebugLevel && l <= ErrorLevel
}

func (l LogLevel) String() string {
	if !l.valid() {
		return fmt.Sprintf("LogLevel(%d)", int(l))
	}
	return levelNames[l]
}

func (l LogLevel) slogLevel() slog.Level {
	if !l.valid() {
		return slog.LevelInfo
	}
	return slogLevels[l]
}

// ParseLogLevel maps a configured level name to a LogLevel. Unknown names
// fall back to InfoLevel.
func ParseLogLevel(s string) LogLevel {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "WARNING" {
		return WarnLevel
	}
	for i, n := range levelNames {
		if n == name {
			return LogLevel(i)
		}
	}
	return InfoLevel
}

// UnmarshalText lets configuration files name a level
func (l *LogLevel) UnmarshalText(text []byte) error {
	*l = ParseLogLevel(string(text))
	return nil
}

// Logger writes one JSON object per entry. Loggers derived with WithField
// and friends share the parent's handler.
type Logger struct {
	base  *slog.Logger
	level LogLevel
}

// NewLogger creates a logger writing to output, or stdout when output is nil
func NewLogger(level LogLevel, output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}
	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{Level: level.slogLevel()})
	return &Logger{base: slog.New(handler), level: level}
}

// Level returns the minimum level the logger writes
func (l *Logger) Level() LogLevel {
	return l.level
}

func (l *Logger) derive(args ...interface{}) *Logger {
	return &Logger{base: l.base.With(args...), level: l.level}
}

// WithField returns a logger that adds key to every entry
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.derive(key, value)
}

// WithFields is WithField for several keys, attached in sorted key order
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]interface{}, 0, len(fields)*2)
	for _, k := range keys {
		args = append(args, k, fields[k])
	}
	return l.derive(args...)
}

// WithError records err under "error". A nil err returns l unchanged.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.derive("error", err.Error())
}

func (l *Logger) Debug(message string) { l.base.Debug(message) }
func (l *Logger) Info(message string)  { l.base.Info(message) }
func (l *Logger) Warn(message string)  { l.base.Warn(message) }
func (l *Logger) Error(message string) { l.base.Error(message) }

type ctxKey int

const (
	requestIDKey ctxKey = iota
	loggerKey
)

// WithRequestID stores the id of the request being served
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the id stored by WithRequestID, or ""
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithLogger stores the logger FromContext starts from
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the stored logger, or an info-level stdout logger,
// tagged with the request id and, when a span is recording, its trace and
// span ids
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(loggerKey).(*Logger)
	if !ok {
		logger = NewLogger(InfoLevel, nil)
	}
	if id := RequestIDFromContext(ctx); id != "" {
		logger = logger.WithField("request_id", id)
	}
	return UpdateLoggerWithTraceContext(ctx, logger)
}
