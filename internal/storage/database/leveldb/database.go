// Package leveldb is the goleveldb database backend. Its in-memory variant
// backs tests and the "memory" node store type.
package leveldb

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/LeJamon/goStorageRent/internal/storage/database"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

type handle struct {
	mu   sync.RWMutex
	db   *leveldb.DB
	sync bool
}

type DB struct {
	h *handle
}

func (l *DB) Read(ctx context.Context, key []byte) ([]byte, error) {
	l.h.mu.RLock()
	defer l.h.mu.RUnlock()
	if l.h.db == nil {
		return nil, database.ErrDBClosed
	}
	value, err := l.h.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, database.ErrKeyNotFound
	}
	return value, err
}

func (l *DB) Has(ctx context.Context, key []byte) (bool, error) {
	l.h.mu.RLock()
	defer l.h.mu.RUnlock()
	if l.h.db == nil {
		return false, database.ErrDBClosed
	}
	return l.h.db.Has(key, nil)
}

func (l *DB) writeOptions() *opt.WriteOptions {
	return &opt.WriteOptions{Sync: l.h.sync}
}

func (l *DB) Write(ctx context.Context, key, value []byte) error {
	l.h.mu.RLock()
	defer l.h.mu.RUnlock()
	if l.h.db == nil {
		return database.ErrDBClosed
	}
	return l.h.db.Put(key, value, l.writeOptions())
}

func (l *DB) Delete(ctx context.Context, key []byte) error {
	l.h.mu.RLock()
	defer l.h.mu.RUnlock()
	if l.h.db == nil {
		return database.ErrDBClosed
	}
	return l.h.db.Delete(key, l.writeOptions())
}

func (l *DB) Batch(ctx context.Context, ops []database.BatchOperation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	batch := new(leveldb.Batch)
	for _, op := range ops {
		switch op.Type {
		case database.BatchPut:
			batch.Put(op.Key, op.Value)
		case database.BatchDelete:
			batch.Delete(op.Key)
		default:
			return fmt.Errorf("%w: %d", database.ErrUnknownBatchOp, op.Type)
		}
	}

	l.h.mu.RLock()
	defer l.h.mu.RUnlock()
	if l.h.db == nil {
		return database.ErrDBClosed
	}
	return l.h.db.Write(batch, l.writeOptions())
}

type Iterator struct {
	iter iterator.Iterator
}

func (l *DB) Iterator(ctx context.Context, start, end []byte) (database.Iterator, error) {
	l.h.mu.RLock()
	defer l.h.mu.RUnlock()
	if l.h.db == nil {
		return nil, database.ErrDBClosed
	}
	return &Iterator{iter: l.h.db.NewIterator(&util.Range{Start: start, Limit: end}, nil)}, nil
}

func (it *Iterator) Next() bool {
	return it.iter.Next()
}

func (it *Iterator) Key() []byte {
	return append([]byte(nil), it.iter.Key()...)
}

func (it *Iterator) Value() []byte {
	return append([]byte(nil), it.iter.Value()...)
}

func (it *Iterator) Error() error {
	return it.iter.Error()
}

func (it *Iterator) Close() error {
	it.iter.Release()
	return nil
}
