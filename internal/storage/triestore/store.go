// Package triestore persists versions of the state trie to a key/value
// database. Nodes are stored once by hash, msgpack encoded and compressed;
// named heads point at the roots of saved versions.
package triestore

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/LeJamon/goStorageRent/internal/core/trie"
	"github.com/LeJamon/goStorageRent/internal/storage/compression"
	"github.com/LeJamon/goStorageRent/internal/storage/database"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	// ErrHeadNotFound is returned when no head was saved under a name.
	ErrHeadNotFound = errors.New("trie head not found")

	// ErrInvalidConfig indicates that the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid trie store configuration")
)

var (
	nodePrefix = []byte("n")
	headPrefix = []byte("h")
)

func nodeKey(h common.Hash) []byte {
	return append(append([]byte{}, nodePrefix...), h.Bytes()...)
}

func headKey(name string) []byte {
	return append(append([]byte{}, headPrefix...), name...)
}

// Config holds configuration options for the Store.
type Config struct {
	// CacheSize is the number of decoded nodes kept in memory; 0 disables
	// the cache.
	CacheSize int

	// Compression names a registered compressor.
	Compression string
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		CacheSize:   4096,
		Compression: "lz4",
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.CacheSize < 0 {
		return fmt.Errorf("%w: cache size cannot be negative", ErrInvalidConfig)
	}
	if !compression.IsAvailable(c.Compression) {
		return fmt.Errorf("%w: unknown compression %q, available: %v",
			ErrInvalidConfig, c.Compression, compression.Available())
	}
	return nil
}

// Stats are counters since the store was opened.
type Stats struct {
	NodeReads   uint64
	CacheHits   uint64
	NodeWrites  uint64
	NodeSkipped uint64
	BytesStored uint64
}

// Store saves and loads tries.
type Store struct {
	db         database.DB
	compressor compression.Compressor
	cache      *lru.Cache[common.Hash, trie.Record]
	log        log.Logger

	stats struct {
		nodeReads   uint64
		cacheHits   uint64
		nodeWrites  uint64
		nodeSkipped uint64
		bytesStored uint64
	}
}

// New creates a store over db.
func New(db database.DB, config Config) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	compressor, err := compression.Get(config.Compression)
	if err != nil {
		return nil, err
	}

	s := &Store{
		db:         db,
		compressor: compressor,
		log:        log.New("module", "triestore"),
	}
	if config.CacheSize > 0 {
		s.cache, err = lru.New[common.Hash, trie.Record](config.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create node cache: %w", err)
		}
	}
	return s, nil
}

// Save writes every node of t not already stored and returns its root hash.
// All new nodes are written in one batch.
func (s *Store) Save(ctx context.Context, t *trie.Trie) (common.Hash, error) {
	var (
		ops     []database.BatchOperation
		written []common.Hash
		records []trie.Record
		skipped uint64
		bytes   uint64
	)
	root, err := t.Export(func(h common.Hash, rec trie.Record) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.cache != nil && s.cache.Contains(h) {
			skipped++
			return nil
		}
		key := nodeKey(h)
		has, err := s.db.Has(ctx, key)
		if err != nil {
			return fmt.Errorf("failed to check node %s: %w", h.Hex(), err)
		}
		if has {
			skipped++
			return nil
		}
		data, err := s.encode(rec)
		if err != nil {
			return fmt.Errorf("failed to encode node %s: %w", h.Hex(), err)
		}
		ops = append(ops, database.Put(key, data))
		written = append(written, h)
		records = append(records, rec)
		bytes += uint64(len(data))
		return nil
	})
	if err != nil {
		return common.Hash{}, err
	}

	if len(ops) > 0 {
		if err := s.db.Batch(ctx, ops); err != nil {
			return common.Hash{}, fmt.Errorf("failed to write trie nodes: %w", err)
		}
	}
	if s.cache != nil {
		for i, h := range written {
			s.cache.Add(h, records[i])
		}
	}

	atomic.AddUint64(&s.stats.nodeWrites, uint64(len(ops)))
	atomic.AddUint64(&s.stats.nodeSkipped, skipped)
	atomic.AddUint64(&s.stats.bytesStored, bytes)
	s.log.Debug("Saved trie", "root", root, "written", len(ops), "skipped", skipped, "bytes", bytes)
	return root, nil
}

// Load rebuilds the trie with the given root. Every node is verified
// against its hash.
func (s *Store) Load(ctx context.Context, root common.Hash) (*trie.Trie, error) {
	t, err := trie.Import(root, func(h common.Hash) (trie.Record, error) {
		return s.node(ctx, h)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load trie %s: %w", root.Hex(), err)
	}
	return t, nil
}

// Has reports whether the node with the given hash is stored.
func (s *Store) Has(ctx context.Context, h common.Hash) (bool, error) {
	if s.cache != nil && s.cache.Contains(h) {
		return true, nil
	}
	return s.db.Has(ctx, nodeKey(h))
}

func (s *Store) node(ctx context.Context, h common.Hash) (trie.Record, error) {
	if err := ctx.Err(); err != nil {
		return trie.Record{}, err
	}
	atomic.AddUint64(&s.stats.nodeReads, 1)
	if s.cache != nil {
		if rec, ok := s.cache.Get(h); ok {
			atomic.AddUint64(&s.stats.cacheHits, 1)
			return rec, nil
		}
	}

	data, err := s.db.Read(ctx, nodeKey(h))
	if err != nil {
		return trie.Record{}, err
	}
	rec, err := s.decode(data)
	if err != nil {
		return trie.Record{}, err
	}
	if s.cache != nil {
		s.cache.Add(h, rec)
	}
	return rec, nil
}

// Stats returns the store counters.
func (s *Store) Stats() Stats {
	return Stats{
		NodeReads:   atomic.LoadUint64(&s.stats.nodeReads),
		CacheHits:   atomic.LoadUint64(&s.stats.cacheHits),
		NodeWrites:  atomic.LoadUint64(&s.stats.nodeWrites),
		NodeSkipped: atomic.LoadUint64(&s.stats.nodeSkipped),
		BytesStored: atomic.LoadUint64(&s.stats.bytesStored),
	}
}
