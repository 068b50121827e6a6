// Package logging builds the zap logger shared by the metamodel runtime.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/conduit-lang/metamodel/internal/config"
)

// New creates a logger from the logging configuration. A logger that cannot
// be built is replaced by a no-op logger and the failure is reported on stderr.
func New(cfg config.LoggingConfig) *zap.Logger {
	logger, err := build(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to create zap logger: %v\n", err)
		return zap.NewNop()
	}
	return logger
}

func build(cfg config.LoggingConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("invalid logging.level %q: %w", cfg.Level, err)
		}
	}

	var zcfg zap.Config
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

// OrNop returns logger, or a no-op logger when it is nil.
func OrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
