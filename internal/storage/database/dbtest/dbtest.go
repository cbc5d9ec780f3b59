// Package dbtest holds the behaviour every database backend must share.
package dbtest

import (
	"context"
	"testing"

	"github.com/LeJamon/goStorageRent/internal/storage/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run runs the backend suite against databases opened from a fresh manager.
func Run(t *testing.T, newManager func(t *testing.T) database.Manager) {
	t.Run("ReadWriteDelete", func(t *testing.T) { testReadWriteDelete(t, newManager(t)) })
	t.Run("Batch", func(t *testing.T) { testBatch(t, newManager(t)) })
	t.Run("Iterator", func(t *testing.T) { testIterator(t, newManager(t)) })
	t.Run("Isolation", func(t *testing.T) { testIsolation(t, newManager(t)) })
	t.Run("Closed", func(t *testing.T) { testClosed(t, newManager(t)) })
}

func open(t *testing.T, m database.Manager, name string) database.DB {
	t.Helper()
	db, err := m.OpenDB(name)
	require.NoError(t, err)
	return db
}

func testReadWriteDelete(t *testing.T, m database.Manager) {
	defer m.Close()
	ctx := context.Background()
	db := open(t, m, "rw")

	_, err := db.Read(ctx, []byte("missing"))
	assert.ErrorIs(t, err, database.ErrKeyNotFound)
	has, err := db.Has(ctx, []byte("missing"))
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, db.Write(ctx, []byte("key"), []byte("value")))
	got, err := db.Read(ctx, []byte("key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)
	has, err = db.Has(ctx, []byte("key"))
	require.NoError(t, err)
	assert.True(t, has)

	// The returned slice is the caller's.
	got[0] = 'X'
	again, err := db.Read(ctx, []byte("key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), again)

	require.NoError(t, db.Write(ctx, []byte("key"), []byte("other")))
	got, err = db.Read(ctx, []byte("key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("other"), got)

	require.NoError(t, db.Delete(ctx, []byte("key")))
	_, err = db.Read(ctx, []byte("key"))
	assert.ErrorIs(t, err, database.ErrKeyNotFound)
	require.NoError(t, db.Delete(ctx, []byte("key")), "deleting a missing key is not an error")
}

func testBatch(t *testing.T, m database.Manager) {
	defer m.Close()
	ctx := context.Background()
	db := open(t, m, "batch")

	require.NoError(t, db.Write(ctx, []byte("gone"), []byte("1")))
	require.NoError(t, db.Batch(ctx, []database.BatchOperation{
		database.Put([]byte("a"), []byte("1")),
		database.Put([]byte("b"), []byte("2")),
		database.Del([]byte("gone")),
	}))

	for k, v := range map[string]string{"a": "1", "b": "2"} {
		got, err := db.Read(ctx, []byte(k))
		require.NoError(t, err)
		assert.Equal(t, []byte(v), got)
	}
	_, err := db.Read(ctx, []byte("gone"))
	assert.ErrorIs(t, err, database.ErrKeyNotFound)

	err = db.Batch(ctx, []database.BatchOperation{
		database.Put([]byte("c"), []byte("3")),
		{Type: database.BatchOpType(9), Key: []byte("d")},
	})
	assert.ErrorIs(t, err, database.ErrUnknownBatchOp)
	_, err = db.Read(ctx, []byte("c"))
	assert.ErrorIs(t, err, database.ErrKeyNotFound, "a failed batch applies nothing")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, db.Batch(cancelled, []database.BatchOperation{database.Put([]byte("e"), []byte("5"))}), context.Canceled)
}

func collect(t *testing.T, db database.DB, start, end []byte) []string {
	t.Helper()
	it, err := db.Iterator(context.Background(), start, end)
	require.NoError(t, err)
	defer it.Close()
	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key())+"="+string(it.Value()))
	}
	require.NoError(t, it.Error())
	return keys
}

func testIterator(t *testing.T, m database.Manager) {
	defer m.Close()
	ctx := context.Background()
	db := open(t, m, "iter")

	assert.Empty(t, collect(t, db, nil, nil))
	for _, k := range []string{"d", "b", "a", "c"} {
		require.NoError(t, db.Write(ctx, []byte(k), []byte(k+k)))
	}

	assert.Equal(t, []string{"a=aa", "b=bb", "c=cc", "d=dd"}, collect(t, db, nil, nil))
	assert.Equal(t, []string{"b=bb", "c=cc"}, collect(t, db, []byte("b"), []byte("d")))
	assert.Equal(t, []string{"c=cc", "d=dd"}, collect(t, db, []byte("bz"), nil))
	assert.Equal(t, []string{"a=aa"}, collect(t, db, nil, []byte("b")))
}

func testIsolation(t *testing.T, m database.Manager) {
	defer m.Close()
	ctx := context.Background()
	one := open(t, m, "one")
	two := open(t, m, "two")

	require.NoError(t, one.Write(ctx, []byte("k"), []byte("1")))
	_, err := two.Read(ctx, []byte("k"))
	assert.ErrorIs(t, err, database.ErrKeyNotFound)

	same := open(t, m, "one")
	got, err := same.Read(ctx, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)
}

func testClosed(t *testing.T, m database.Manager) {
	ctx := context.Background()
	db := open(t, m, "closed")
	require.NoError(t, db.Write(ctx, []byte("k"), []byte("v")))

	require.NoError(t, m.CloseDB("closed"))
	assert.ErrorIs(t, m.CloseDB("closed"), database.ErrDBNotOpen)

	_, err := db.Read(ctx, []byte("k"))
	assert.ErrorIs(t, err, database.ErrDBClosed)
	assert.ErrorIs(t, db.Write(ctx, []byte("k"), []byte("v")), database.ErrDBClosed)
	assert.ErrorIs(t, db.Delete(ctx, []byte("k")), database.ErrDBClosed)
	_, err = db.Iterator(ctx, nil, nil)
	assert.ErrorIs(t, err, database.ErrDBClosed)

	require.NoError(t, m.Close())
}
