package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	_ "time/tzdata"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/canonicaltags/ctags/internal/errors"
)

const (
	// defaultAttrCapacity covers module plus a typical handful of fields
	defaultAttrCapacity = 8

	// traceLevelValue is slog.Level for TRACE level (below Debug which is -4)
	traceLevelValue = slog.Level(-8)

	// floatPrecisionRatio rounds floats to 3 decimal places in log output
	floatPrecisionRatio = 1000.0
)

var (
	globalLogger   *CentralLogger
	globalLoggerMu sync.Mutex
)

// SetGlobal sets the global CentralLogger instance.
func SetGlobal(cl *CentralLogger) {
	globalLoggerMu.Lock()
	defer globalLoggerMu.Unlock()
	globalLogger = cl
}

// Global returns the global CentralLogger instance, creating a console-only
// fallback when SetGlobal has not been called.
func Global() *CentralLogger {
	globalLoggerMu.Lock()
	defer globalLoggerMu.Unlock()

	if globalLogger != nil {
		return globalLogger
	}

	globalLogger = &CentralLogger{
		config: &LoggingConfig{
			DefaultLevel: DefaultLogLevel,
			Console:      &ConsoleOutput{Enabled: true, Level: DefaultLogLevel},
		},
		timezone:      time.Local,
		moduleWriters: make(map[string]*lumberjack.Logger),
		moduleLevels:  make(map[string]slog.Level),
		baseHandler:   newTextHandler(os.Stderr, slog.LevelInfo, time.Local),
	}
	return globalLogger
}

type loggerContextKey struct{ name string }

// TraceIDKey is the context key for trace IDs. Use WithTraceID() to set values.
var TraceIDKey = loggerContextKey{"trace_id"}

// WithTraceID returns a new context with the trace ID set
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

var attrPool = sync.Pool{
	New: func() any {
		s := make([]slog.Attr, 0, defaultAttrCapacity)
		return &s
	},
}

func getAttrs() *[]slog.Attr {
	ptr, ok := attrPool.Get().(*[]slog.Attr)
	if !ok {
		s := make([]slog.Attr, 0, defaultAttrCapacity)
		return &s
	}
	return ptr
}

func putAttrs(attrs *[]slog.Attr) {
	*attrs = (*attrs)[:0]
	attrPool.Put(attrs)
}

// CentralLogger manages module-aware logging with flexible routing
type CentralLogger struct {
	config        *LoggingConfig
	timezone      *time.Location
	console       io.Writer
	baseHandler   slog.Handler
	mainWriter    *lumberjack.Logger
	moduleWriters map[string]*lumberjack.Logger
	moduleLevels  map[string]slog.Level
	mu            sync.RWMutex
}

// NewCentralLogger creates a centralized logger with module routing
func NewCentralLogger(cfg *LoggingConfig) (*CentralLogger, error) {
	return newCentralLogger(cfg, os.Stderr)
}

func newCentralLogger(cfg *LoggingConfig, console io.Writer) (*CentralLogger, error) {
	if cfg == nil {
		return nil, fmt.Errorf("logging config cannot be nil")
	}

	applyConfigDefaults(cfg)

	var tz *time.Location
	switch cfg.Timezone {
	case "", "Local":
		tz = time.Local
	default:
		var err error
		tz, err = time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %s: %w", cfg.Timezone, err)
		}
	}

	cl := &CentralLogger{
		config:        cfg,
		timezone:      tz,
		console:       console,
		moduleWriters: make(map[string]*lumberjack.Logger),
		moduleLevels:  make(map[string]slog.Level),
	}

	for module, levelStr := range cfg.ModuleLevels {
		cl.moduleLevels[module] = parseLogLevel(levelStr)
	}

	if err := cl.createBaseHandler(); err != nil {
		return nil, fmt.Errorf("failed to create base handler: %w", err)
	}

	for module, moduleConfig := range cfg.ModuleOutputs {
		if !moduleConfig.Enabled {
			continue
		}
		if err := ensureFileDirectory(moduleConfig.FilePath); err != nil {
			cl.closeAllWriters()
			return nil, fmt.Errorf("failed to create directory for module %s: %w", module, err)
		}
		cl.moduleWriters[module] = newRotatingWriter(moduleConfig.FilePath, cfg.FileOutput)
	}

	return cl, nil
}

// newRotatingWriter wraps a log path in lumberjack, inheriting rotation limits
// from the main file output when present.
func newRotatingWriter(path string, defaults *FileOutput) *lumberjack.Logger {
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    DefaultMaxSize,
		MaxAge:     DefaultMaxAge,
		MaxBackups: DefaultMaxRotatedFiles,
	}
	if defaults != nil {
		if defaults.MaxSize > 0 {
			w.MaxSize = defaults.MaxSize
		}
		w.MaxAge = defaults.MaxAge
		w.MaxBackups = defaults.MaxRotatedFiles
		w.Compress = defaults.Compress
	}
	return w
}

func (cl *CentralLogger) createBaseHandler() error {
	var handlers []slog.Handler

	if cl.config.Console != nil && cl.config.Console.Enabled {
		handlers = append(handlers, newTextHandler(cl.console, parseLogLevel(cl.config.Console.Level), cl.timezone))
	}

	if cl.config.FileOutput != nil && cl.config.FileOutput.Enabled {
		if err := ensureFileDirectory(cl.config.FileOutput.Path); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		cl.mainWriter = newRotatingWriter(cl.config.FileOutput.Path, cl.config.FileOutput)
		handlers = append(handlers, newJSONHandler(cl.mainWriter, parseLogLevel(cl.config.FileOutput.Level), cl.timezone))
	}

	switch len(handlers) {
	case 0:
		cl.baseHandler = newTextHandler(cl.console, parseLogLevel(cl.config.DefaultLevel), cl.timezone)
	case 1:
		cl.baseHandler = handlers[0]
	default:
		cl.baseHandler = newMultiWriterHandler(handlers...)
	}

	return nil
}

// Module returns a logger scoped to a specific module
func (cl *CentralLogger) Module(name string) Logger {
	if cl == nil {
		return nil
	}

	cl.mu.RLock()
	defer cl.mu.RUnlock()

	moduleConfig, hasModuleConfig := cl.config.ModuleOutputs[name]
	moduleLevel := cl.getModuleLevelLocked(name)
	if hasModuleConfig && moduleConfig.Level != "" {
		moduleLevel = parseLogLevel(moduleConfig.Level)
	}

	var handlers []slog.Handler
	if writer, ok := cl.moduleWriters[name]; ok && hasModuleConfig && moduleConfig.Enabled {
		handlers = append(handlers, newJSONHandler(writer, moduleLevel, cl.timezone))
		if moduleConfig.ConsoleAlso && cl.config.Console != nil && cl.config.Console.Enabled {
			handlers = append(handlers, newTextHandler(cl.console, moduleLevel, cl.timezone))
		}
	} else {
		handlers = append(handlers, cl.baseHandler)
	}

	handler := handlers[0]
	if len(handlers) > 1 {
		handler = newMultiWriterHandler(handlers...)
	}

	return &moduleLogger{
		module: name,
		logger: slog.New(handler),
		level:  moduleLevel,
	}
}

func (cl *CentralLogger) getModuleLevelLocked(module string) slog.Level {
	if level, ok := cl.moduleLevels[module]; ok {
		return level
	}
	return parseLogLevel(cl.config.DefaultLevel)
}

// Close closes all file writers
func (cl *CentralLogger) Close() error {
	if cl == nil {
		return nil
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()

	return cl.closeAllWritersLocked()
}

func (cl *CentralLogger) closeAllWriters() {
	_ = cl.closeAllWritersLocked()
}

func (cl *CentralLogger) closeAllWritersLocked() error {
	var errs []error

	if cl.mainWriter != nil {
		if err := cl.mainWriter.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close main log writer: %w", err))
		}
		cl.mainWriter = nil
	}

	for module, writer := range cl.moduleWriters {
		if err := writer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close log writer for module %s: %w", module, err))
		}
	}
	cl.moduleWriters = nil

	return errors.Join(errs...)
}

// Rotate forces rotation of every open log file, for use from a SIGHUP handler.
func (cl *CentralLogger) Rotate() error {
	if cl == nil {
		return nil
	}

	cl.mu.RLock()
	defer cl.mu.RUnlock()

	var errs []error
	if cl.mainWriter != nil {
		errs = append(errs, cl.mainWriter.Rotate())
	}
	for _, writer := range cl.moduleWriters {
		errs = append(errs, writer.Rotate())
	}
	return errors.Join(errs...)
}

// Flush is a no-op: lumberjack writes through to the file on every record.
func (cl *CentralLogger) Flush() error {
	return nil
}

func ensureFileDirectory(filePath string) error {
	if filePath == "" {
		return nil
	}

	dir := filepath.Dir(filePath)
	if dir == "." || dir == filePath {
		return nil
	}

	const dirPermissions = 0o700
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	return nil
}

// parseLogLevel converts string level to slog.Level
func parseLogLevel(level string) slog.Level {
	switch level {
	case "trace":
		return traceLevelValue
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

// moduleLogger implements Logger interface for a specific module
type moduleLogger struct {
	module string
	logger *slog.Logger
	level  slog.Level
	fields []Field
}

// NewSlogLogger returns a module-less Logger writing text to w. A nil writer
// discards output. Useful in tests and as a fallback.
func NewSlogLogger(w io.Writer, level LogLevel, tz *time.Location) Logger {
	if w == nil {
		w = io.Discard
	}
	lvl := parseLogLevel(string(level))
	return &moduleLogger{
		logger: slog.New(newTextHandler(w, lvl, tz)),
		level:  lvl,
	}
}

// Module creates a sub-module logger with its own copy of fields.
func (m *moduleLogger) Module(name string) Logger {
	if m == nil {
		return nil
	}

	module := name
	if m.module != "" {
		module = m.module + "." + name
	}

	return &moduleLogger{
		module: module,
		logger: m.logger,
		level:  m.level,
		fields: slices.Clone(m.fields),
	}
}

func (m *moduleLogger) Trace(msg string, fields ...Field) {
	if m == nil || m.level > traceLevelValue {
		return
	}
	m.log(traceLevelValue, msg, fields...)
}

func (m *moduleLogger) Debug(msg string, fields ...Field) {
	if m == nil || m.level > slog.LevelDebug {
		return
	}
	m.log(slog.LevelDebug, msg, fields...)
}

func (m *moduleLogger) Info(msg string, fields ...Field) {
	if m == nil || m.level > slog.LevelInfo {
		return
	}
	m.log(slog.LevelInfo, msg, fields...)
}

func (m *moduleLogger) Warn(msg string, fields ...Field) {
	if m == nil || m.level > slog.LevelWarn {
		return
	}
	m.log(slog.LevelWarn, msg, fields...)
}

func (m *moduleLogger) Error(msg string, fields ...Field) {
	if m == nil {
		return
	}
	m.log(slog.LevelError, msg, fields...)
}

// Log logs a message with explicit level
func (m *moduleLogger) Log(level LogLevel, msg string, fields ...Field) {
	if m == nil {
		return
	}
	lvl := parseLogLevel(string(level))
	if m.level > lvl {
		return
	}
	m.log(lvl, msg, fields...)
}

// With returns a new logger with accumulated fields
func (m *moduleLogger) With(fields ...Field) Logger {
	if m == nil {
		return nil
	}

	return &moduleLogger{
		module: m.module,
		logger: m.logger,
		level:  m.level,
		fields: slices.Concat(m.fields, fields),
	}
}

// WithContext returns a logger carrying the context's trace ID, if any.
func (m *moduleLogger) WithContext(ctx context.Context) Logger {
	if m == nil {
		return nil
	}

	traceID := getTraceIDFromContext(ctx)
	if traceID == "" {
		return m
	}

	return m.With(String(traceIDKey, traceID))
}

func (m *moduleLogger) Flush() error {
	return nil
}

func (m *moduleLogger) log(level slog.Level, msg string, fields ...Field) {
	attrsPtr := getAttrs()
	attrs := *attrsPtr

	if m.module != "" {
		attrs = append(attrs, slog.String(moduleKey, m.module))
	}
	for i := range m.fields {
		attrs = append(attrs, fieldToAttr(m.fields[i]))
	}
	for i := range fields {
		attrs = append(attrs, fieldToAttr(fields[i]))
	}

	m.logger.LogAttrs(context.Background(), level, msg, attrs...)

	*attrsPtr = attrs
	putAttrs(attrsPtr)
}

func roundFloat(val float64) float64 {
	return math.Round(val*floatPrecisionRatio) / floatPrecisionRatio
}

func fieldToAttr(f Field) slog.Attr {
	switch v := f.Value.(type) {
	case string:
		return slog.String(f.Key, v)
	case int:
		return slog.Int(f.Key, v)
	case int64:
		return slog.Int64(f.Key, v)
	case uint64:
		return slog.Uint64(f.Key, v)
	case float64:
		return slog.Float64(f.Key, roundFloat(v))
	case bool:
		return slog.Bool(f.Key, v)
	case time.Time:
		return slog.Time(f.Key, v)
	case time.Duration:
		return slog.String(f.Key, v.Round(time.Millisecond).String())
	default:
		return slog.Any(f.Key, v)
	}
}

func getTraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}
