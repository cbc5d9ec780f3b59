package bbolt

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/LeJamon/goStorageRent/internal/storage/database"
	"github.com/LeJamon/goStorageRent/internal/storage/database/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBBolt(t *testing.T) {
	dbtest.Run(t, func(t *testing.T) database.Manager { return NewManager(t.TempDir()) })
}

func TestBBoltFileLayout(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)
	db, err := m.OpenDB("receipts")
	require.NoError(t, err)
	require.NoError(t, db.Write(context.Background(), []byte("k"), []byte("v")))
	require.NoError(t, m.Close())

	// Verify DB file exists
	_, err = os.Stat(filepath.Join(dir, "receipts.db"))
	assert.NoError(t, err)
}
