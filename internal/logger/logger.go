// Package logger builds the structured zap logger shared by the server,
// the worker and the CLI commands.
//
// The level comes from LOG_LEVEL (debug, info, warn, error); unknown values
// fall back to info.
//
//	log, err := logger.New(cfg.LogLevel)
//	log.Info("user registered", zap.String("user_id", id))
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a production JSON logger at the given level.
func New(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zap.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

// Must is New for process entry points, where a logger failure is fatal.
func Must(level string) *zap.Logger {
	log, err := New(level)
	if err != nil {
		panic(err)
	}
	return log
}
