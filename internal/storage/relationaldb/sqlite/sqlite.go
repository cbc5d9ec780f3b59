// Package sqlite registers the embedded SQLite receipt database.
package sqlite

import (
	"strings"

	"github.com/LeJamon/goStorageRent/internal/storage/relationaldb"
	_ "modernc.org/sqlite" // SQLite driver
)

// Dialect is the SQLite dialect.
var Dialect = relationaldb.Dialect{
	DriverName: "sqlite",
	BlobType:   "BLOB",
	DSN:        withPragmas,
}

// withPragmas enables WAL and a busy timeout unless the DSN sets its own
// parameters.
func withPragmas(dsn string) string {
	if strings.Contains(dsn, "?") || dsn == ":memory:" {
		return dsn
	}
	return dsn + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
}

func init() {
	relationaldb.RegisterDialect("sqlite", Dialect)
}
