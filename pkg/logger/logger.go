// Package logger builds the zap loggers used by both binaries. Construction
// happens once in each main; everything downstream receives the logger
// explicitly and narrows it with a component field.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls logger construction.
type Config struct {
	// Level: debug, info, warn, error.
	Level string

	// JSON selects the JSON encoder; console encoding otherwise.
	JSON bool

	// Development enables caller annotation and DPanic behavior.
	Development bool
}

// New builds a zap logger from the config.
func New(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
	}

	var zapCfg zap.Config
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)
	if cfg.JSON {
		zapCfg.Encoding = "json"
	} else {
		zapCfg.Encoding = "console"
	}
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zapCfg.Build()
}

// MustNew builds a logger or panics. For use in main only.
func MustNew(cfg Config) *zap.Logger {
	log, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return log
}
