package pebble

import (
	"context"
	"testing"

	"github.com/LeJamon/goStorageRent/internal/storage/database"
	"github.com/LeJamon/goStorageRent/internal/storage/database/dbtest"
	"github.com/stretchr/testify/require"
)

func TestPebbleMem(t *testing.T) {
	dbtest.Run(t, func(t *testing.T) database.Manager { return NewMemManager() })
}

func TestPebbleDisk(t *testing.T) {
	dbtest.Run(t, func(t *testing.T) database.Manager { return NewManager(t.TempDir()) })
}

func TestPebbleReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	m := NewManager(dir)
	db, err := m.OpenDB("nodes")
	require.NoError(t, err)
	require.NoError(t, db.Write(ctx, []byte("k"), []byte("v")))
	require.NoError(t, m.Close())

	m = NewManager(dir)
	defer m.Close()
	db, err = m.OpenDB("nodes")
	require.NoError(t, err)
	got, err := db.Read(ctx, []byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), got)
}
