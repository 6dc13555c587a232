package observability

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pitabwire/worklist/internal/config"
)

// Context key for the logger.
type loggerKey struct{}

// NewLogger creates a zap.Logger configured for JSON output to stderr.
// Stdout is reserved for derived views.
//
// Log level usage conventions:
//   - error: fixture load failures, unexpected derivation failures
//   - warn:  unknown patient or snapshot lookups, fixture validation errors
//   - info:  fixture load summary, CLI start/end
//   - debug: cache operations, per-derivation timings, redacted record summaries
func NewLogger(cfg config.ObservabilityConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.Config{
		Level:       zap.NewAtomicLevelAt(level),
		Development: false,
		Encoding:    "json",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "timestamp",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.MillisDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return zapCfg.Build()
}

// WithLogger stores a logger in the context.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// LoggerFrom returns the logger stored in the context, or the provided
// fallback if none is found.
func LoggerFrom(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok && l != nil {
		return l
	}
	return fallback
}

// DerivationLogger returns a logger enriched with the patient and snapshot
// being derived, plus the trace id when a span is active.
func DerivationLogger(ctx context.Context, fallback *zap.Logger, patientID, stateID string) *zap.Logger {
	logger := LoggerFrom(ctx, fallback)
	if logger == nil {
		logger = zap.NewNop()
	}

	fields := []zap.Field{zap.String("patient_id", patientID)}
	if stateID != "" {
		fields = append(fields, zap.String("state_id", stateID))
	}
	if traceID := TraceIDFromContext(ctx); traceID != "" {
		fields = append(fields, zap.String("trace_id", traceID))
	}
	return logger.With(fields...)
}

// defaultSensitiveFields names patient identifiers that never reach the log
// in clear text.
var defaultSensitiveFields = map[string]bool{
	"name":      true,
	"mrn":       true,
	"dob":       true,
	"ssn":       true,
	"phone":     true,
	"address":   true,
	"attending": true,
}

// RedactFields returns a copy of fields with sensitive entries replaced by
// "[REDACTED]". The sensitiveFields list is merged with the default patient
// identifiers. Nested maps are redacted recursively.
func RedactFields(fields map[string]any, sensitiveFields []string) map[string]any {
	if fields == nil {
		return nil
	}

	redactSet := make(map[string]bool, len(defaultSensitiveFields)+len(sensitiveFields))
	for k, v := range defaultSensitiveFields {
		redactSet[k] = v
	}
	for _, f := range sensitiveFields {
		redactSet[f] = true
	}

	result := make(map[string]any, len(fields))
	for k, v := range fields {
		if redactSet[k] {
			result[k] = "[REDACTED]"
		} else if nested, ok := v.(map[string]any); ok {
			result[k] = RedactFields(nested, sensitiveFields)
		} else {
			result[k] = v
		}
	}
	return result
}
