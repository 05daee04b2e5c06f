// Package logger owns the process-wide zap logger.
package logger

import (
	"fmt"
	"sync/atomic"

	"learnquest/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var global atomic.Pointer[zap.Logger]

// Initialize builds the logger from config. Production uses JSON output with
// sampling; every other environment uses the colored console encoder.
func Initialize(cfg config.LoggerConfig) error {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if cfg.Level != "" {
		parsed, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return fmt.Errorf("logger level %q: %w", cfg.Level, err)
		}
		level.SetLevel(parsed)
	}

	var zc zap.Config
	if cfg.Env == "production" {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.TimeKey = "timestamp"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zc.Development = false
	}
	zc.Level = level
	zc.OutputPaths = []string{"stdout"}

	l, err := zc.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	Set(l)
	return nil
}

// Set replaces the global logger; tests use it with zaptest or observer cores.
func Set(l *zap.Logger) {
	global.Store(l)
}

// Get returns the global logger, or a no-op logger before Initialize.
func Get() *zap.Logger {
	if l := global.Load(); l != nil {
		return l
	}
	return zap.NewNop()
}

func Sync() error {
	if l := global.Load(); l != nil {
		return l.Sync()
	}
	return nil
}
