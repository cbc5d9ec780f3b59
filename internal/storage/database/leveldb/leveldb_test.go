package leveldb

import (
	"testing"

	"github.com/LeJamon/goStorageRent/internal/storage/database"
	"github.com/LeJamon/goStorageRent/internal/storage/database/dbtest"
)

func TestLevelDBMem(t *testing.T) {
	dbtest.Run(t, func(t *testing.T) database.Manager { return NewMemManager() })
}

func TestLevelDBDisk(t *testing.T) {
	dbtest.Run(t, func(t *testing.T) database.Manager { return NewManager(t.TempDir()) })
}
