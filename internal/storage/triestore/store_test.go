package triestore

import (
	"context"
	"fmt"
	"testing"

	"github.com/LeJamon/goStorageRent/internal/core/trie"
	"github.com/LeJamon/goStorageRent/internal/core/types/rentstamp"
	"github.com/LeJamon/goStorageRent/internal/storage/database"
	"github.com/LeJamon/goStorageRent/internal/storage/database/leveldb"
	"github.com/LeJamon/goStorageRent/internal/storage/database/pebble"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var backends = map[string]func() database.Manager{
	"leveldb": func() database.Manager { return leveldb.NewMemManager() },
	"pebble":  func() database.Manager { return pebble.NewMemManager() },
}

func forEachBackend(t *testing.T, fn func(t *testing.T, db database.DB)) {
	for name, newManager := range backends {
		t.Run(name, func(t *testing.T) {
			m := newManager()
			t.Cleanup(func() { m.Close() })
			db, err := m.OpenDB("trie")
			require.NoError(t, err)
			fn(t, db)
		})
	}
}

func newStore(t *testing.T, db database.DB, config Config) *Store {
	t.Helper()
	s, err := New(db, config)
	require.NoError(t, err)
	return s
}

func buildTrie(t *testing.T, n int) *trie.Trie {
	t.Helper()
	tr := trie.New()
	for i := 0; i < n; i++ {
		k := []byte(fmt.Sprintf("key-%03d", i))
		next, err := tr.Put(k, []byte(fmt.Sprintf("value-%d", i*i)))
		require.NoError(t, err)
		tr = next
		if i%3 == 0 {
			tr = tr.UpdateLastRentPaidTimestamp(k, rentstamp.Paid(int64(1_600_000_000+i)))
		}
	}
	return tr
}

func TestSaveLoad(t *testing.T) {
	forEachBackend(t, func(t *testing.T, db database.DB) {
		ctx := context.Background()
		s := newStore(t, db, DefaultConfig())
		tr := buildTrie(t, 40)

		root, err := s.Save(ctx, tr)
		require.NoError(t, err)
		want, err := tr.Hash()
		require.NoError(t, err)
		assert.Equal(t, want, root)

		// A fresh store sees only what reached the database.
		cold := newStore(t, db, Config{Compression: "lz4"})
		loaded, err := cold.Load(ctx, root)
		require.NoError(t, err)
		require.NoError(t, loaded.Invariants())
		assert.True(t, tr.Equal(loaded))

		ts, ok := loaded.LastRentPaidTimestamp([]byte("key-003"))
		require.True(t, ok)
		assert.Equal(t, rentstamp.Paid(1_600_000_003), ts)
	})
}

func TestSaveEmptyTrie(t *testing.T) {
	forEachBackend(t, func(t *testing.T, db database.DB) {
		ctx := context.Background()
		s := newStore(t, db, DefaultConfig())

		root, err := s.Save(ctx, trie.New())
		require.NoError(t, err)
		assert.Equal(t, trie.EmptyRoot, root)

		loaded, err := s.Load(ctx, root)
		require.NoError(t, err)
		assert.True(t, loaded.IsEmpty())
	})
}

func TestSaveSkipsStoredNodes(t *testing.T) {
	forEachBackend(t, func(t *testing.T, db database.DB) {
		ctx := context.Background()
		s := newStore(t, db, Config{Compression: "none"})
		tr := buildTrie(t, 20)

		_, err := s.Save(ctx, tr)
		require.NoError(t, err)
		first := s.Stats()
		require.NotZero(t, first.NodeWrites)

		_, err = s.Save(ctx, tr)
		require.NoError(t, err)
		second := s.Stats()
		assert.Equal(t, first.NodeWrites, second.NodeWrites)
		assert.Equal(t, first.NodeWrites, second.NodeSkipped)

		next, err := tr.Put([]byte("key-999"), []byte("late"))
		require.NoError(t, err)
		root, err := s.Save(ctx, next)
		require.NoError(t, err)
		third := s.Stats()
		assert.Greater(t, third.NodeWrites, second.NodeWrites)
		assert.Less(t, third.NodeWrites-second.NodeWrites, first.NodeWrites)

		has, err := s.Has(ctx, root)
		require.NoError(t, err)
		assert.True(t, has)
	})
}

func TestLoadUsesCache(t *testing.T) {
	forEachBackend(t, func(t *testing.T, db database.DB) {
		ctx := context.Background()
		s := newStore(t, db, DefaultConfig())
		root, err := s.Save(ctx, buildTrie(t, 10))
		require.NoError(t, err)

		_, err = s.Load(ctx, root)
		require.NoError(t, err)
		stats := s.Stats()
		assert.Equal(t, stats.NodeReads, stats.CacheHits)
	})
}

func TestLoadErrors(t *testing.T) {
	forEachBackend(t, func(t *testing.T, db database.DB) {
		ctx := context.Background()
		s := newStore(t, db, Config{Compression: "lz4"})

		_, err := s.Load(ctx, common.HexToHash("0x1234"))
		assert.ErrorIs(t, err, trie.ErrUnknownNode)
		assert.ErrorIs(t, err, database.ErrKeyNotFound)

		root, err := s.Save(ctx, buildTrie(t, 5))
		require.NoError(t, err)

		other, err := s.encode(trie.Record{Path: []byte{1}, Value: []byte("forged")})
		require.NoError(t, err)
		require.NoError(t, db.Write(ctx, nodeKey(root), other))
		_, err = s.Load(ctx, root)
		assert.ErrorIs(t, err, trie.ErrCorruptNode)

		require.NoError(t, db.Write(ctx, nodeKey(root), []byte{0x09}))
		_, err = s.Load(ctx, root)
		assert.Error(t, err)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err = s.Load(cancelled, root)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestHeads(t *testing.T) {
	forEachBackend(t, func(t *testing.T, db database.DB) {
		ctx := context.Background()
		s := newStore(t, db, DefaultConfig())

		_, err := s.Head(ctx, "latest")
		assert.ErrorIs(t, err, ErrHeadNotFound)
		assert.Error(t, s.SetHead(ctx, "", Head{}))

		tr := buildTrie(t, 8)
		head, err := s.SaveHead(ctx, "latest", tr, 7, 1_600_000_210)
		require.NoError(t, err)
		got, err := s.Head(ctx, "latest")
		require.NoError(t, err)
		assert.Equal(t, head, got)
		assert.Equal(t, uint64(7), got.Block)

		require.NoError(t, s.SetHead(ctx, "genesis", Head{Root: trie.EmptyRoot}))
		heads, err := s.Heads(ctx)
		require.NoError(t, err)
		assert.Len(t, heads, 2)
		assert.Equal(t, head, heads["latest"])
		assert.Equal(t, trie.EmptyRoot, heads["genesis"].Root)

		loaded, err := s.Load(ctx, got.Root)
		require.NoError(t, err)
		assert.True(t, tr.Equal(loaded))
	})
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.ErrorIs(t, Config{CacheSize: -1, Compression: "lz4"}.Validate(), ErrInvalidConfig)
	assert.ErrorIs(t, Config{Compression: "zstd"}.Validate(), ErrInvalidConfig)

	_, err := New(nil, Config{Compression: "brotli"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
