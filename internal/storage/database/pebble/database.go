package pebble

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/LeJamon/goStorageRent/internal/storage/database"
	"github.com/cockroachdb/pebble"
)

// handle is shared by every DB opened on the same pebble instance, so
// closing it through the manager closes them all.
type handle struct {
	mu sync.RWMutex
	db *pebble.DB
}

type DB struct {
	h *handle
}

func (p *DB) Read(ctx context.Context, key []byte) ([]byte, error) {
	p.h.mu.RLock()
	defer p.h.mu.RUnlock()
	if p.h.db == nil {
		return nil, database.ErrDBClosed
	}

	val, closer, err := p.h.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, database.ErrKeyNotFound
		}
		return nil, err
	}
	defer closer.Close()

	// Copy the value out
	return append([]byte(nil), val...), nil
}

func (p *DB) Has(ctx context.Context, key []byte) (bool, error) {
	_, err := p.Read(ctx, key)
	if errors.Is(err, database.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (p *DB) Write(ctx context.Context, key, value []byte) error {
	p.h.mu.RLock()
	defer p.h.mu.RUnlock()
	if p.h.db == nil {
		return database.ErrDBClosed
	}
	return p.h.db.Set(key, value, pebble.Sync)
}

func (p *DB) Delete(ctx context.Context, key []byte) error {
	p.h.mu.RLock()
	defer p.h.mu.RUnlock()
	if p.h.db == nil {
		return database.ErrDBClosed
	}
	return p.h.db.Delete(key, pebble.Sync)
}

func (p *DB) Batch(ctx context.Context, ops []database.BatchOperation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.h.mu.RLock()
	defer p.h.mu.RUnlock()
	if p.h.db == nil {
		return database.ErrDBClosed
	}

	batch := p.h.db.NewBatch()
	defer batch.Close()

	for _, op := range ops {
		switch op.Type {
		case database.BatchPut:
			if err := batch.Set(op.Key, op.Value, nil); err != nil {
				return err
			}
		case database.BatchDelete:
			if err := batch.Delete(op.Key, nil); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: %d", database.ErrUnknownBatchOp, op.Type)
		}
	}

	return batch.Commit(pebble.Sync)
}

type Iterator struct {
	iter    *pebble.Iterator
	started bool
	current struct {
		key, value []byte
	}
}

func (p *DB) Iterator(ctx context.Context, start, end []byte) (database.Iterator, error) {
	p.h.mu.RLock()
	defer p.h.mu.RUnlock()
	if p.h.db == nil {
		return nil, database.ErrDBClosed
	}

	iter, err := p.h.db.NewIter(&pebble.IterOptions{
		LowerBound: start,
		UpperBound: end,
	})
	if err != nil {
		return nil, err
	}
	return &Iterator{iter: iter}, nil
}

func (it *Iterator) Next() bool {
	if !it.started {
		it.started = true
		it.iter.First()
	} else {
		it.iter.Next()
	}

	if !it.iter.Valid() {
		it.current.key, it.current.value = nil, nil
		return false
	}
	it.current.key = append([]byte(nil), it.iter.Key()...)
	it.current.value = append([]byte(nil), it.iter.Value()...)
	return true
}

func (it *Iterator) Key() []byte {
	return it.current.key
}

func (it *Iterator) Value() []byte {
	return it.current.value
}

func (it *Iterator) Error() error {
	return it.iter.Error()
}

func (it *Iterator) Close() error {
	return it.iter.Close()
}
