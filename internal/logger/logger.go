// Package logger builds the structured zap logger used across the service.
package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// New constructs a production zap logger at the given level ("debug",
// "info", "warn", "error"). Callers own the returned logger and should
// defer a Sync.
func New(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl

	log, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return log, nil
}
