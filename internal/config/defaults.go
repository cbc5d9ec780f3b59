package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets every key's default value. Keys without a default are not
// picked up from the environment.
func setDefaults(v *viper.Viper) {
	// Storage rent
	v.SetDefault("storage_rent.enabled", true)
	v.SetDefault("storage_rent.activation_block", uint64(0))

	// Node database
	v.SetDefault("node_db.type", BackendPebble)
	v.SetDefault("node_db.path", "data/nodes")
	v.SetDefault("node_db.compression", "lz4")
	v.SetDefault("node_db.cache_size", 4096)

	// Receipts
	v.SetDefault("receipts.enabled", false)
	v.SetDefault("receipts.driver", "sqlite")
	v.SetDefault("receipts.dsn", "data/receipts.db")

	// Logging
	v.SetDefault("log.level", "info")

	// Simulation
	v.SetDefault("simulation.block_interval", 30*time.Second)
	v.SetDefault("simulation.gas_limit", uint64(6_800_000))
}
