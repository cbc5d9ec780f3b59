package config

import (
	"fmt"
	"path/filepath"

	"github.com/LeJamon/goStorageRent/internal/storage/compression"
	"github.com/LeJamon/goStorageRent/internal/storage/triestore"
)

// Node database backends.
const (
	BackendPebble  = "pebble"
	BackendBBolt   = "bbolt"
	BackendLevelDB = "leveldb"
	BackendMemory  = "memory"
)

// NodeDBConfig represents the [node_db] section, where trie versions are
// persisted.
type NodeDBConfig struct {
	Type        string `toml:"type" mapstructure:"type"`
	Path        string `toml:"path" mapstructure:"path"`
	Compression string `toml:"compression" mapstructure:"compression"`
	CacheSize   int    `toml:"cache_size" mapstructure:"cache_size"`
}

// ReceiptsConfig represents the [receipts] section
type ReceiptsConfig struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	Driver  string `toml:"driver" mapstructure:"driver"`
	DSN     string `toml:"dsn" mapstructure:"dsn"`
}

// Validate performs validation on the NodeDB configuration
func (n *NodeDBConfig) Validate() error {
	switch n.Type {
	case BackendPebble, BackendBBolt, BackendLevelDB:
		if n.Path == "" {
			return fmt.Errorf("node_db path is required for type %s", n.Type)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("invalid node_db type: %q (valid options: pebble, bbolt, leveldb, memory)", n.Type)
	}

	if !compression.IsAvailable(n.Compression) {
		return fmt.Errorf("invalid node_db compression: %q (valid options: %v)", n.Compression, compression.Available())
	}
	if n.CacheSize < 0 {
		return fmt.Errorf("cache_size must be non-negative, got %d", n.CacheSize)
	}
	return nil
}

// IsPersistent returns true if the node database is stored on disk
func (n *NodeDBConfig) IsPersistent() bool {
	return n.Type != BackendMemory
}

// StoreConfig returns the trie store settings.
func (n *NodeDBConfig) StoreConfig() triestore.Config {
	return triestore.Config{
		CacheSize:   n.CacheSize,
		Compression: n.Compression,
	}
}

// ResolvePath returns the database path, relative paths taken from dir.
func (n *NodeDBConfig) ResolvePath(dir string) string {
	return resolve(dir, n.Path)
}

// ResolveDSN returns the DSN with a relative sqlite path taken from dir.
func (r *ReceiptsConfig) ResolveDSN(dir string) string {
	if r.Driver != "sqlite" || r.DSN == ":memory:" {
		return r.DSN
	}
	return resolve(dir, r.DSN)
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// Validate performs validation on the receipts configuration
func (r *ReceiptsConfig) Validate() error {
	if !r.Enabled {
		return nil
	}
	switch r.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid receipts driver: %q (valid options: sqlite, postgres)", r.Driver)
	}
	if r.DSN == "" {
		return fmt.Errorf("receipts dsn is required when receipts are enabled")
	}
	return nil
}
