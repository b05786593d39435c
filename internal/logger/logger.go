package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog with the five levels the engine reports at.
// A Logger is safe for concurrent use.
type Logger struct {
	zlog zerolog.Logger
}

// Config holds logger configuration
type Config struct {
	Level      string    `yaml:"level"`       // trace, debug, info, warn, error
	Format     string    `yaml:"format"`      // json, console
	TimeFormat string    `yaml:"time_format"` // rfc3339, unix, unixms, unixmicro
	Output     io.Writer `yaml:"-"`
}

// DefaultConfig returns production-ready defaults
func DefaultConfig() *Config {
	return &Config{
		Level:      "info",
		Format:     "json",
		TimeFormat: "rfc3339",
		Output:     os.Stdout,
	}
}

// New creates a new logger from cfg. A nil cfg means DefaultConfig.
func New(cfg *Config) *Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = getTimeFormat(cfg.TimeFormat)

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	zlog := zerolog.New(out).Level(level).With().Timestamp().Caller().Logger()
	return &Logger{zlog: zlog}
}

// Nop returns a logger that discards everything. The engine falls back to it
// whenever no logger is supplied.
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *Logger) *Logger {
	if l == nil {
		return Nop()
	}
	return l
}

// WithContext adds logger to context
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return l.zlog.WithContext(ctx)
}

// FromContext retrieves logger from context
func FromContext(ctx context.Context) *Logger {
	zlog := zerolog.Ctx(ctx)
	if zlog.GetLevel() == zerolog.Disabled {
		return New(nil)
	}
	return &Logger{zlog: *zlog}
}

// With creates a child logger with additional fields
func (l *Logger) With() *Context {
	return &Context{ctx: l.zlog.With()}
}

// Component is shorthand for l.With().Str("component", name).Logger().
func (l *Logger) Component(name string) *Logger {
	return l.With().Str("component", name).Logger()
}

// Context wraps zerolog.Context for field chaining
type Context struct {
	ctx zerolog.Context
}

func (c *Context) Str(key, val string) *Context {
	c.ctx = c.ctx.Str(key, val)
	return c
}

func (c *Context) Int(key string, val int) *Context {
	c.ctx = c.ctx.Int(key, val)
	return c
}

func (c *Context) Err(err error) *Context {
	c.ctx = c.ctx.Err(err)
	return c
}

func (c *Context) Any(key string, val any) *Context {
	c.ctx = c.ctx.Interface(key, val)
	return c
}

func (c *Context) Logger() *Logger {
	return &Logger{zlog: c.ctx.Logger()}
}

// event skips the wrapper frames so the caller field points at the call site.
func (l *Logger) event(level zerolog.Level, skip int) *zerolog.Event {
	return l.zlog.WithLevel(level).CallerSkipFrame(skip)
}

// Logging methods
func (l *Logger) Trace(msg string) {
	l.event(zerolog.TraceLevel, 1).Msg(msg)
}

func (l *Logger) Tracef(format string, args ...any) {
	l.event(zerolog.TraceLevel, 1).Msgf(format, args...)
}

func (l *Logger) Debug(msg string) {
	l.event(zerolog.DebugLevel, 1).Msg(msg)
}

func (l *Logger) Debugf(format string, args ...any) {
	l.event(zerolog.DebugLevel, 1).Msgf(format, args...)
}

func (l *Logger) Info(msg string) {
	l.event(zerolog.InfoLevel, 1).Msg(msg)
}

func (l *Logger) Infof(format string, args ...any) {
	l.event(zerolog.InfoLevel, 1).Msgf(format, args...)
}

func (l *Logger) Warn(msg string) {
	l.event(zerolog.WarnLevel, 1).Msg(msg)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.event(zerolog.WarnLevel, 1).Msgf(format, args...)
}

func (l *Logger) Error(msg string) {
	l.event(zerolog.ErrorLevel, 1).Msg(msg)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.event(zerolog.ErrorLevel, 1).Msgf(format, args...)
}

func (l *Logger) Fatal(msg string) {
	l.zlog.Fatal().CallerSkipFrame(1).Msg(msg)
}

// Structured logging with fields
func (l *Logger) InfoWith(msg string, fields map[string]any) {
	event := l.event(zerolog.InfoLevel, 1)
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

func (l *Logger) ErrorWith(msg string, err error, fields map[string]any) {
	event := l.event(zerolog.ErrorLevel, 1).Err(err)
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

// Helper functions
func parseLevel(level string) zerolog.Level {
	switch level {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// ValidLevel reports whether level is one of the names New understands.
func ValidLevel(level string) bool {
	switch level {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	}
	return false
}

func getTimeFormat(format string) string {
	switch format {
	case "unix":
		return zerolog.TimeFormatUnix
	case "unixms":
		return zerolog.TimeFormatUnixMs
	case "unixmicro":
		return zerolog.TimeFormatUnixMicro
	default:
		return time.RFC3339
	}
}

// Global logger instance (for convenience)
var global = Nop()

// Global convenience functions
func Info(msg string) {
	global.event(zerolog.InfoLevel, 2).Msg(msg)
}

func Warn(msg string) {
	global.event(zerolog.WarnLevel, 2).Msg(msg)
}

func Error(msg string) {
	global.event(zerolog.ErrorLevel, 2).Msg(msg)
}

func Fatal(msg string) {
	global.zlog.Fatal().CallerSkipFrame(1).Msg(msg)
}

func SetGlobal(l *Logger) {
	global = OrNop(l)
}

// Global returns the logger installed with SetGlobal.
func Global() *Logger {
	return global
}
