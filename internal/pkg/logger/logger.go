// Package logger provides a global structured logger built on zap.
//
// Every log call takes a context: loggers derived with Derive travel inside
// the context, and trace/span identifiers of an active OpenTelemetry span are
// attached automatically. Output is JSON on stdout, teed to the OpenTelemetry
// log pipeline through the otelzap bridge when telemetry is initialized.
package logger

import (
	"context"
	"os"
	"sync"

	"github.com/gabapcia/transferwatch/internal/pkg/telemetry"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const instrumentationName = "github.com/gabapcia/transferwatch"

type ctxKeyType struct{}

// ctxKey stores a derived *zap.SugaredLogger inside a context.
var ctxKey = ctxKeyType{}

var (
	baseLogger         *zap.SugaredLogger
	initBaseLoggerOnce sync.Once
)

type config struct {
	loggerProvider otellog.LoggerProvider
}

// Option configures Init.
type Option func(*config)

// WithLoggerProvider overrides the provider entries are bridged to. Nil
// disables the bridge. Default: telemetry.LoggerProvider().
func WithLoggerProvider(lp otellog.LoggerProvider) Option {
	return func(c *config) {
		c.loggerProvider = lp
	}
}

// Init configures the global logger at the given level ("debug", "info",
// "warn", "error", "panic", "fatal"). Only the first successful call has an
// effect. An unparsable level returns an error and leaves the logger unset.
func Init(level string, opts ...Option) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return err
	}

	cfg := config{loggerProvider: telemetry.LoggerProvider()}
	for _, opt := range opts {
		opt(&cfg)
	}

	initBaseLoggerOnce.Do(func() {
		cores := []zapcore.Core{
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				lvl,
			),
		}

		if cfg.loggerProvider != nil {
			cores = append(cores, otelzap.NewCore(instrumentationName, otelzap.WithLoggerProvider(cfg.loggerProvider)))
		}

		baseLogger = zap.New(zapcore.NewTee(cores...)).Sugar()
	})

	return nil
}

// Sync flushes buffered entries. Call it on shutdown.
func Sync() error {
	return baseLogger.Sync()
}

// deriveFromCtx returns the logger stored in ctx (or the base logger) with the
// active span identifiers and the given key/value pairs attached.
func deriveFromCtx(ctx context.Context, keysAndValues ...any) *zap.SugaredLogger {
	l, ok := ctx.Value(ctxKey).(*zap.SugaredLogger)
	if !ok || l == nil {
		l = baseLogger
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		l = l.With("trace_id", sc.TraceID().String(), "span_id", sc.SpanID().String())
	}

	if len(keysAndValues) > 0 {
		l = l.With(keysAndValues...)
	}

	return l
}

// Derive returns a child context whose logger carries the given key/value
// pairs on every subsequent entry.
func Derive(ctx context.Context, keysAndValues ...any) context.Context {
	return context.WithValue(ctx, ctxKey, deriveFromCtx(ctx, keysAndValues...))
}

func log(ctx context.Context, level zapcore.Level, msg string, keysAndValues ...any) {
	deriveFromCtx(ctx).Logw(level, msg, keysAndValues...)
}

// Debug logs at debug level.
func Debug(ctx context.Context, msg string, keysAndValues ...any) {
	log(ctx, zapcore.DebugLevel, msg, keysAndValues...)
}

// Info logs at info level.
func Info(ctx context.Context, msg string, keysAndValues ...any) {
	log(ctx, zapcore.InfoLevel, msg, keysAndValues...)
}

// Warn logs at warn level.
func Warn(ctx context.Context, msg string, keysAndValues ...any) {
	log(ctx, zapcore.WarnLevel, msg, keysAndValues...)
}

// Error logs at error level.
func Error(ctx context.Context, msg string, keysAndValues ...any) {
	log(ctx, zapcore.ErrorLevel, msg, keysAndValues...)
}

// Panic logs at panic level and then panics.
func Panic(ctx context.Context, msg string, keysAndValues ...any) {
	deriveFromCtx(ctx).Panicw(msg, keysAndValues...)
}

// Fatal logs at fatal level and then exits the process.
func Fatal(ctx context.Context, msg string, keysAndValues ...any) {
	deriveFromCtx(ctx).Fatalw(msg, keysAndValues...)
}
