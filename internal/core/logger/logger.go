package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "leopards-connector"

// Production sampling, per message and per second.
const (
	samplingInitial    = 50
	samplingThereafter = 100
)

var globalLogger *zap.Logger

// Init initializes the global logger.
// For "development" env, it produces pretty console logs.
// For "production" env, it produces sampled JSON logs.
func Init(environment string, level string) error {
	logger, err := buildConfig(environment, level).Build()
	if err != nil {
		return err
	}

	globalLogger = logger.With(zap.String("service", serviceName))
	return nil
}

// buildConfig resolves the zap configuration for an environment. An unknown
// level falls back to the environment default.
func buildConfig(environment, level string) zap.Config {
	var config zap.Config

	if environment == "production" {
		config = zap.NewProductionConfig()
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		config.Sampling = &zap.SamplingConfig{
			Initial:    samplingInitial,
			Thereafter: samplingThereafter,
		}
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.Sampling = nil
	}

	l, err := zapcore.ParseLevel(level)
	if err == nil {
		config.Level = zap.NewAtomicLevelAt(l)
	}

	// Debug logs are never sampled.
	if config.Level.Level() == zapcore.DebugLevel {
		config.Sampling = nil
	}

	return config
}

// Get returns the global logger instance.
// If not initialized, it returns a no-op logger to prevent panics.
func Get() *zap.Logger {
	if globalLogger == nil {
		return zap.NewNop()
	}
	return globalLogger
}

// Named returns a child of the global logger scoped to a component.
func Named(component string) *zap.Logger {
	return Get().Named(component)
}

// Sync flushes any buffered log entries.
func Sync() {
	if globalLogger != nil {
		_ = globalLogger.Sync()
	}
}
