// Package logger wraps zap behind the small structured logging surface used
// across the harvester.
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger emits structured log lines. Every entry carries an event name so
// log queries can filter on what happened rather than on message text.
type Logger interface {
	DebugObj(msg, event string, fields map[string]any)
	InfoObj(msg, event string, fields map[string]any)
	WarnObj(msg, event string, fields map[string]any)
	ErrorObj(msg, event string, fields map[string]any)
	Sync() error
}

// Config controls logger construction.
type Config struct {
	Level       string
	Development bool
	OutputPaths []string
}

type zapLogger struct {
	z *zap.Logger
}

// New builds a JSON zap logger at the configured level.
func New(cfg Config) (Logger, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	zapCfg.Level = zap.NewAtomicLevelAt(ParseLevel(cfg.Level))
	if len(cfg.OutputPaths) > 0 {
		zapCfg.OutputPaths = cfg.OutputPaths
	}
	if cfg.Development {
		zapCfg.Sampling = nil
	}

	z, err := zapCfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}
	return &zapLogger{z: z}, nil
}

// FromZap adapts an existing zap logger.
func FromZap(z *zap.Logger) Logger {
	if z == nil {
		return NopLogger{}
	}
	return &zapLogger{z: z}
}

// ParseLevel maps a textual level onto zap levels, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *zapLogger) DebugObj(msg, event string, fields map[string]any) {
	l.z.Debug(msg, toFields(event, fields)...)
}

func (l *zapLogger) InfoObj(msg, event string, fields map[string]any) {
	l.z.Info(msg, toFields(event, fields)...)
}

func (l *zapLogger) WarnObj(msg, event string, fields map[string]any) {
	l.z.Warn(msg, toFields(event, fields)...)
}

func (l *zapLogger) ErrorObj(msg, event string, fields map[string]any) {
	l.z.Error(msg, toFields(event, fields)...)
}

func (l *zapLogger) Sync() error {
	return l.z.Sync()
}

// toFields converts the loosely typed field map into zap fields.
func toFields(event string, fields map[string]any) []zap.Field {
	out := make([]zap.Field, 0, len(fields)+1)
	if event != "" {
		out = append(out, zap.String("event", event))
	}
	for k, v := range fields {
		out = append(out, zap.Any(k, v))
	}
	return out
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) DebugObj(string, string, map[string]any) {}
func (NopLogger) InfoObj(string, string, map[string]any)  {}
func (NopLogger) WarnObj(string, string, map[string]any)  {}
func (NopLogger) ErrorObj(string, string, map[string]any) {}
func (NopLogger) Sync() error                             { return nil }

// Ensure returns log, or a NopLogger when log is nil.
func Ensure(log Logger) Logger {
	if log == nil {
		return NopLogger{}
	}
	return log
}
