package relationaldb

import (
	"fmt"
	"strings"
	"time"
)

// Config contains database configuration settings
type Config struct {
	// Driver is a registered driver name, "sqlite" or "postgres".
	Driver string
	// DSN is the sqlite file path or the postgres connection string.
	DSN string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// DefaultTimeout bounds connecting and schema setup.
	DefaultTimeout time.Duration
}

// NewConfig creates a new Config with sensible defaults
func NewConfig() *Config {
	return &Config{
		Driver:          "sqlite",
		DSN:             "receipts.db",
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
		DefaultTimeout:  time.Second * 30,
	}
}

// PostgresConfig creates a PostgreSQL-specific configuration
func PostgresConfig(dsn string) *Config {
	config := NewConfig()
	config.Driver = "postgres"
	config.DSN = dsn
	config.MaxOpenConns = 10
	config.MaxIdleConns = 2
	return config
}

// SQLiteConfig creates a SQLite-specific configuration. SQLite allows a
// single writer, so the pool keeps one connection.
func SQLiteConfig(path string) *Config {
	config := NewConfig()
	config.DSN = path
	return config
}

// Validate checks the configuration for common errors
func (c *Config) Validate() error {
	switch c.Driver {
	case "postgres", "postgresql":
		c.Driver = "postgres"
	case "sqlite", "sqlite3":
		c.Driver = "sqlite"
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDriver, c.Driver)
	}
	if strings.TrimSpace(c.DSN) == "" {
		return ErrMissingDSN
	}
	if c.MaxOpenConns < 0 {
		return ErrInvalidMaxOpenConns
	}
	if c.DefaultTimeout <= 0 {
		return ErrInvalidTimeout
	}
	return nil
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns a string representation of the config with the DSN
// password redacted.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Driver: %s, DSN: %s}", c.Driver, redact(c.DSN))
}

// redact hides the password of a URL-style DSN.
func redact(dsn string) string {
	scheme := strings.Index(dsn, "://")
	at := strings.LastIndex(dsn, "@")
	if scheme < 0 || at < scheme {
		return dsn
	}
	userinfo := dsn[scheme+3 : at]
	if colon := strings.Index(userinfo, ":"); colon >= 0 {
		return dsn[:scheme+3] + userinfo[:colon] + ":***" + dsn[at:]
	}
	return dsn
}
