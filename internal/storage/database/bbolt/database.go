package bbolt

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/LeJamon/goStorageRent/internal/storage/database"
	"go.etcd.io/bbolt"
)

// handle is one bolt file holding a single bucket.
type handle struct {
	mu     sync.RWMutex
	db     *bbolt.DB
	bucket []byte
}

type DB struct {
	h *handle
}

// view runs fn in a read transaction over the bucket.
func (b *DB) view(fn func(*bbolt.Bucket) error) error {
	b.h.mu.RLock()
	defer b.h.mu.RUnlock()
	if b.h.db == nil {
		return database.ErrDBClosed
	}
	return b.h.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(b.h.bucket)
		if bucket == nil {
			return fmt.Errorf("bucket %s not found", string(b.h.bucket))
		}
		return fn(bucket)
	})
}

// update runs fn in a write transaction over the bucket.
func (b *DB) update(fn func(*bbolt.Bucket) error) error {
	b.h.mu.RLock()
	defer b.h.mu.RUnlock()
	if b.h.db == nil {
		return database.ErrDBClosed
	}
	return b.h.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(b.h.bucket)
		if bucket == nil {
			return fmt.Errorf("bucket %s not found", string(b.h.bucket))
		}
		return fn(bucket)
	})
}

func (b *DB) Read(ctx context.Context, key []byte) ([]byte, error) {
	var value []byte
	err := b.view(func(bucket *bbolt.Bucket) error {
		v := bucket.Get(key)
		if v == nil {
			return database.ErrKeyNotFound
		}
		// bbolt's value is only valid during the transaction
		value = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (b *DB) Has(ctx context.Context, key []byte) (bool, error) {
	var found bool
	err := b.view(func(bucket *bbolt.Bucket) error {
		found = bucket.Get(key) != nil
		return nil
	})
	return found, err
}

func (b *DB) Write(ctx context.Context, key []byte, value []byte) error {
	return b.update(func(bucket *bbolt.Bucket) error {
		return bucket.Put(key, value)
	})
}

func (b *DB) Delete(ctx context.Context, key []byte) error {
	return b.update(func(bucket *bbolt.Bucket) error {
		return bucket.Delete(key)
	})
}

func (b *DB) Batch(ctx context.Context, ops []database.BatchOperation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.update(func(bucket *bbolt.Bucket) error {
		for _, op := range ops {
			var err error
			switch op.Type {
			case database.BatchPut:
				err = bucket.Put(op.Key, op.Value)
			case database.BatchDelete:
				err = bucket.Delete(op.Key)
			default:
				return fmt.Errorf("%w: %d", database.ErrUnknownBatchOp, op.Type)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Iterator walks a read-only transaction; Close must be called to release it.
type Iterator struct {
	tx      *bbolt.Tx
	cursor  *bbolt.Cursor
	started bool
	current struct {
		key, value []byte
	}
	start, end []byte
}

func (b *DB) Iterator(ctx context.Context, start, end []byte) (database.Iterator, error) {
	b.h.mu.RLock()
	defer b.h.mu.RUnlock()
	if b.h.db == nil {
		return nil, database.ErrDBClosed
	}

	tx, err := b.h.db.Begin(false) // Read-only transaction
	if err != nil {
		return nil, err
	}

	bucket := tx.Bucket(b.h.bucket)
	if bucket == nil {
		tx.Rollback()
		return nil, fmt.Errorf("bucket %s not found", string(b.h.bucket))
	}

	return &Iterator{
		tx:     tx,
		cursor: bucket.Cursor(),
		start:  start,
		end:    end,
	}, nil
}

func (it *Iterator) Next() bool {
	var k, v []byte
	if !it.started {
		it.started = true
		if it.start == nil {
			k, v = it.cursor.First()
		} else {
			k, v = it.cursor.Seek(it.start)
		}
	} else {
		k, v = it.cursor.Next()
	}

	if k == nil || (it.end != nil && bytes.Compare(k, it.end) >= 0) {
		it.current.key = nil
		it.current.value = nil
		return false
	}

	it.current.key = k
	it.current.value = v
	return true
}

func (it *Iterator) Key() []byte {
	return it.current.key
}

func (it *Iterator) Value() []byte {
	return it.current.value
}

func (it *Iterator) Error() error {
	return nil
}

func (it *Iterator) Close() error {
	return it.tx.Rollback()
}
