package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
)

// ValidateConfig performs validation on the complete configuration
func ValidateConfig(config *Config) error {
	if err := config.NodeDB.Validate(); err != nil {
		return fmt.Errorf("node_db validation failed: %w", err)
	}
	if err := config.Receipts.Validate(); err != nil {
		return fmt.Errorf("receipts validation failed: %w", err)
	}
	if _, err := ParseLogLevel(config.Log.Level); err != nil {
		return fmt.Errorf("log validation failed: %w", err)
	}
	if config.Simulation.BlockInterval < time.Second {
		return fmt.Errorf("simulation validation failed: block_interval must be at least 1s, got %s", config.Simulation.BlockInterval)
	}
	return nil
}

// ParseLogLevel returns the level of a level name; empty means info.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "trace":
		return log.LevelTrace, nil
	case "debug":
		return log.LevelDebug, nil
	case "info", "":
		return log.LevelInfo, nil
	case "warn":
		return log.LevelWarn, nil
	case "error":
		return log.LevelError, nil
	case "crit":
		return log.LevelCrit, nil
	default:
		return 0, fmt.Errorf("invalid log level: %q (valid options: trace, debug, info, warn, error, crit)", level)
	}
}
