package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

const (
	FormatJSON    = "json"
	FormatPretty  = "pretty"
	FormatConsole = "console"
)

// Logger is a zerolog.Logger plus the service name it was built for.
// Derived loggers share the service name.
type Logger struct {
	logger  zerolog.Logger
	service string
}

// Init replaces the global logger and drops cached component loggers.
func Init(cfg Config) {
	cfg.ApplyDefaults()
	globalLogger = New(&cfg, "spikes")
	Reset()
}

// New builds a logger from cfg. An unknown level falls back to info.
func New(cfg *Config, serviceName string) *Logger {
	out := io.Writer(os.Stderr)
	if strings.EqualFold(cfg.Output, "stdout") {
		out = os.Stdout
	}

	var zl zerolog.Logger
	switch strings.ToLower(cfg.Format) {
	case FormatConsole, FormatPretty:
		zl = zerolog.New(consoleWriter(out, cfg.NoColor))
	default:
		zl = zerolog.New(out)
	}

	zc := zl.Level(parseLevel(cfg.Level)).With()
	if cfg.Timestamp {
		zc = zc.Timestamp()
	}
	if cfg.Caller {
		zc = zc.Caller()
	}
	return &Logger{logger: zc.Logger(), service: serviceName}
}

// NewWithWriter builds a JSON logger on w without timestamps, so tests can
// assert on exact lines.
func NewWithWriter(w io.Writer, level string) *Logger {
	return &Logger{logger: zerolog.New(w).Level(parseLevel(level)), service: "test"}
}

// NewDefault is New with ApplyDefaults values.
func NewDefault(serviceName string) *Logger {
	var cfg Config
	cfg.ApplyDefaults()
	return New(&cfg, serviceName)
}

func Nop() *Logger {
	return &Logger{logger: zerolog.Nop()}
}

func parseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil || s == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l *Logger) derive(fn func(zerolog.Context) zerolog.Context) *Logger {
	return &Logger{logger: fn(l.logger.With()).Logger(), service: l.service}
}

// WithContext adds the run ID and the active OpenTelemetry span found in ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	return l.derive(func(zc zerolog.Context) zerolog.Context {
		if id := RunIDFromContext(ctx); id != "" {
			zc = zc.Str(FieldRunID, id)
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			zc = zc.Str(FieldTraceID, sc.TraceID().String()).Str(FieldSpanID, sc.SpanID().String())
		}
		return zc
	})
}

type contextKey struct{}

// ContextWithRunID stores a run ID on ctx for WithContext to pick up.
func ContextWithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// RunIDFromContext returns the run ID stored by ContextWithRunID, or "".
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

func (l *Logger) WithComponent(name string) *Logger {
	return l.derive(func(zc zerolog.Context) zerolog.Context { return zc.Str(FieldComponent, name) })
}

func (l *Logger) WithRun(runID string) *Logger {
	return l.derive(func(zc zerolog.Context) zerolog.Context { return zc.Str(FieldRunID, runID) })
}

func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return l.derive(func(zc zerolog.Context) zerolog.Context { return zc.Fields(fields) })
}

func (l *Logger) WithError(err error) *Logger {
	return l.derive(func(zc zerolog.Context) zerolog.Context { return zc.Err(err) })
}

// GetLogger exposes the underlying zerolog.Logger.
func (l *Logger) GetLogger() zerolog.Logger {
	return l.logger
}

func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	emit(l.logger.Debug(), msg, fields)
}

func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	emit(l.logger.Info(), msg, fields)
}

func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	emit(l.logger.Warn(), msg, fields)
}

func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	emit(l.logger.Error(), msg, fields)
}

// Fatal logs at fatal level and exits the process.
func (l *Logger) Fatal(msg string, fields ...map[string]interface{}) {
	emit(l.logger.Fatal(), msg, fields)
}

// emit is a no-op for events below the logger's level, which zerolog
// reports as a nil event.
func emit(ev *zerolog.Event, msg string, fields []map[string]interface{}) {
	if ev == nil {
		return
	}
	for _, f := range fields {
		ev.Fields(f)
	}
	ev.Msg(msg)
}

var globalLogger *Logger

func SetGlobalLogger(l *Logger) { globalLogger = l }

// GetGlobalLogger returns the logger installed by Init or SetGlobalLogger,
// creating a default one on first use.
func GetGlobalLogger() *Logger {
	if globalLogger == nil {
		globalLogger = NewDefault("spikes")
	}
	return globalLogger
}

func Debug(msg string, fields ...map[string]interface{}) { GetGlobalLogger().Debug(msg, fields...) }
func Info(msg string, fields ...map[string]interface{})  { GetGlobalLogger().Info(msg, fields...) }
func Warn(msg string, fields ...map[string]interface{})  { GetGlobalLogger().Warn(msg, fields...) }
func Error(msg string, fields ...map[string]interface{}) { GetGlobalLogger().Error(msg, fields...) }
func Fatal(msg string, fields ...map[string]interface{}) { GetGlobalLogger().Fatal(msg, fields...) }

// consoleWriter prints three-letter bracketed levels and short times.
func consoleWriter(out io.Writer, noColor bool) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05",
		NoColor:    noColor,
		FormatLevel: func(i interface{}) string {
			lvl := strings.ToUpper(fmt.Sprint(i))
			if len(lvl) > 3 {
				lvl = lvl[:3]
			}
			return "[" + lvl + "]"
		},
		FormatFieldName: func(i interface{}) string {
			return fmt.Sprint(i) + ":"
		},
	}
}
