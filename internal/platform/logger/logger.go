package logger

import (
	"go.uber.org/zap"
)

// Logger wraps zap.Logger
type Logger struct {
	*zap.Logger
}

// New creates a new logger instance
func New(level, format string) (*Logger, error) {
	var cfg zap.Config

	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	// Set log level
	switch level {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	zapLogger, err := cfg.Build(
		zap.AddCallerSkip(1),
	)
	if err != nil {
		return nil, err
	}

	return &Logger{Logger: zapLogger}, nil
}

// WithTenant adds tenant_id to the logger context
func (l *Logger) WithTenant(tenantID string) *Logger {
	return &Logger{
		Logger: l.Logger.With(zap.String("tenant_id", tenantID)),
	}
}

// WithComponent adds component to the logger context
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger: l.Logger.With(zap.String("component", component)),
	}
}

// WithPosition adds position_id to the logger context
func (l *Logger) WithPosition(positionID string) *Logger {
	return &Logger{
		Logger: l.Logger.With(zap.String("position_id", positionID)),
	}
}

// WithErrorKind adds error_kind to the logger context
func (l *Logger) WithErrorKind(kind string) *Logger {
	return &Logger{
		Logger: l.Logger.With(zap.String("error_kind", kind)),
	}
}

// WithDuration adds duration_ms to the logger context
func (l *Logger) WithDuration(durationMs int64) *Logger {
	return &Logger{
		Logger: l.Logger.With(zap.Int64("duration_ms", durationMs)),
	}
}
