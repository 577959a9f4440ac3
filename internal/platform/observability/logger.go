package observability

import (
	"context"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"varanasihub.com/site/internal/platform/requestctx"
)

const defaultLogLevel = "info"

// LoggerOption customises NewLogger.
type LoggerOption func(*loggerOptions)

type loggerOptions struct {
	level  string
	output zapcore.WriteSyncer
}

// WithLevel overrides LOG_LEVEL.
func WithLevel(level string) LoggerOption {
	return func(o *loggerOptions) {
		o.level = level
	}
}

// WithOutput redirects log output, mainly for tests.
func WithOutput(w io.Writer) LoggerOption {
	return func(o *loggerOptions) {
		if w != nil {
			o.output = zapcore.AddSync(w)
		}
	}
}

// NewLogger constructs a zap logger emitting structured JSON with Cloud
// Logging field names.
func NewLogger(opts ...LoggerOption) (*zap.Logger, error) {
	options := loggerOptions{
		level:  os.Getenv("LOG_LEVEL"),
		output: zapcore.Lock(os.Stdout),
	}
	for _, opt := range opts {
		opt(&options)
	}

	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(options.level)))); err != nil || strings.TrimSpace(options.level) == "" {
		_ = level.UnmarshalText([]byte(defaultLogLevel))
	}

	encoderCfg := zapcore.EncoderConfig{
		MessageKey: "message",
		TimeKey:    "timestamp",
		LevelKey:   "severity",
		EncodeTime: zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel: func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(strings.ToUpper(level.String()))
		},
		EncodeDuration: zapcore.MillisDurationEncoder,
		CallerKey:      "caller",
		EncodeCaller:   zapcore.ShortCallerEncoder,
		StacktraceKey:  "stacktrace",
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), options.output, level)
	return zap.New(core, zap.AddCaller(), zap.ErrorOutput(zapcore.Lock(os.Stderr))), nil
}

// WithLogger injects the logger into the provided context.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return requestctx.WithLogger(ctx, logger)
}

// FromContext retrieves the logger from context, defaulting to a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	return requestctx.Logger(ctx)
}

// WithRequestFields augments the logger with standard request-scoped fields.
func WithRequestFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger.With(fields...)
}
