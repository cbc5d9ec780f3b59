// Package postgres registers the PostgreSQL receipt database.
package postgres

import (
	"github.com/LeJamon/goStorageRent/internal/storage/relationaldb"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// Dialect is the PostgreSQL dialect.
var Dialect = relationaldb.Dialect{
	DriverName: "postgres",
	BlobType:   "BYTEA",
	Numbered:   true,
}

func init() {
	relationaldb.RegisterDialect("postgres", Dialect)
}
