// Package config loads the rentd configuration.
package config

import (
	"path/filepath"
	"time"

	"github.com/LeJamon/goStorageRent/internal/core/executor"
	"github.com/LeJamon/goStorageRent/internal/simulation"
)

// DefaultConfigFile is the file LoadDefaultConfig reads when it exists.
const DefaultConfigFile = "rentd.toml"

// Config represents the complete rentd configuration
type Config struct {
	StorageRent StorageRentConfig `toml:"storage_rent" mapstructure:"storage_rent"`
	NodeDB      NodeDBConfig      `toml:"node_db" mapstructure:"node_db"`
	Receipts    ReceiptsConfig    `toml:"receipts" mapstructure:"receipts"`
	Log         LogConfig         `toml:"log" mapstructure:"log"`
	Simulation  SimulationConfig  `toml:"simulation" mapstructure:"simulation"`

	configPath string `toml:"-" mapstructure:"-"`
}

// StorageRentConfig represents the [storage_rent] section
type StorageRentConfig struct {
	Enabled         bool   `toml:"enabled" mapstructure:"enabled"`
	ActivationBlock uint64 `toml:"activation_block" mapstructure:"activation_block"`
}

// LogConfig represents the [log] section
type LogConfig struct {
	Level string `toml:"level" mapstructure:"level"`
}

// SimulationConfig represents the [simulation] section
type SimulationConfig struct {
	BlockInterval time.Duration `toml:"block_interval" mapstructure:"block_interval"`
	GasLimit      uint64        `toml:"gas_limit" mapstructure:"gas_limit"`
}

// GetConfigPath returns the path of the loaded configuration file, empty
// when only defaults and the environment were used.
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// ConfigDir returns the directory relative paths are resolved against.
func (c *Config) ConfigDir() string {
	if c.configPath == "" {
		return "."
	}
	return filepath.Dir(c.configPath)
}

// ExecutorConfig returns the block processor settings.
func (c *Config) ExecutorConfig() executor.Config {
	return executor.Config{
		StorageRentEnabled:         c.StorageRent.Enabled,
		StorageRentActivationBlock: c.StorageRent.ActivationBlock,
	}
}

// SimulationOptions returns the scenario run settings.
func (c *Config) SimulationOptions() simulation.Options {
	return simulation.Options{
		Executor:      c.ExecutorConfig(),
		BlockInterval: c.Simulation.BlockInterval,
		GasLimit:      c.Simulation.GasLimit,
	}
}
