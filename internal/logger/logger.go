// Package logger provides a structured, module-aware logging system built on log/slog.
//
// Loggers are scoped by module ("tagging", "datastore", "catalog") and carry
// type-safe fields:
//
//	log := centralLogger.Module("tagging")
//	log.Info("tags replaced",
//	    logger.String("entity_type", ref.Type),
//	    logger.Uint64("entity_id", uint64(ref.ID)),
//	    logger.Int("added", len(added)))
//
// Console output is human-readable text. File output is JSON and rotated by
// lumberjack. Trace IDs stored with WithTraceID are attached by WithContext.
package logger

import (
	"context"
	"time"
	"unique"
)

// LogLevel represents log severity levels
type LogLevel string

const (
	LogLevelTrace LogLevel = "trace"
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Field represents a structured log field.
// Keys are interned with unique.Make so repeated keys share one allocation.
type Field struct {
	Key   string
	Value any
}

func internKey(key string) string {
	return unique.Make(key).Value()
}

var (
	errorKey   = internKey("error")
	moduleKey  = internKey("module")
	traceIDKey = internKey("trace_id")
)

// Logger is the centralized logging interface for dependency injection
type Logger interface {
	// Module returns a logger scoped to a specific module
	Module(name string) Logger

	Trace(msg string, fields ...Field)
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	With(fields ...Field) Logger
	WithContext(ctx context.Context) Logger

	// Log with explicit level
	Log(level LogLevel, msg string, fields ...Field)

	// Flush ensures all buffered logs are written
	Flush() error
}

// String creates a string field.
func String(key, value string) Field {
	return Field{Key: internKey(key), Value: value}
}

// Int creates an integer field.
func Int(key string, value int) Field {
	return Field{Key: internKey(key), Value: value}
}

// Int64 creates a 64-bit integer field.
func Int64(key string, value int64) Field {
	return Field{Key: internKey(key), Value: value}
}

// Uint64 creates an unsigned 64-bit integer field, used for entity and tag IDs.
func Uint64(key string, value uint64) Field {
	return Field{Key: internKey(key), Value: value}
}

// Float64 creates a float field.
func Float64(key string, value float64) Field {
	return Field{Key: internKey(key), Value: value}
}

// Bool creates a boolean field.
func Bool(key string, value bool) Field {
	return Field{Key: internKey(key), Value: value}
}

// Error creates an error field. The key is always "error".
func Error(err error) Field {
	if err == nil {
		return Field{Key: errorKey, Value: nil}
	}
	return Field{Key: errorKey, Value: err.Error()}
}

// Duration creates a duration field rendered as a string such as "1.5s".
func Duration(key string, value time.Duration) Field {
	return Field{Key: internKey(key), Value: value}
}

// Time creates a time field.
func Time(key string, value time.Time) Field {
	return Field{Key: internKey(key), Value: value}
}

// Any creates a field with an arbitrary value. Prefer the typed constructors.
func Any(key string, value any) Field {
	return Field{Key: internKey(key), Value: value}
}
