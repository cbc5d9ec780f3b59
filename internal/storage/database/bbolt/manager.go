package bbolt

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/LeJamon/goStorageRent/internal/storage/database"
	"go.etcd.io/bbolt"
)

// Manager keeps one bolt file per database, each with a bucket named after it.
type Manager struct {
	dbs  map[string]*handle
	path string
	mu   sync.Mutex
}

func NewManager(path string) *Manager {
	return &Manager{
		dbs:  make(map[string]*handle),
		path: path,
	}
}

func (m *Manager) OpenDB(name string) (database.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h, exists := m.dbs[name]; exists {
		return &DB{h: h}, nil
	}

	dbPath := filepath.Join(m.path, name+".db")
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", name, err)
	}

	// Create default bucket
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(name))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket for %s: %w", name, err)
	}

	h := &handle{db: db, bucket: []byte(name)}
	m.dbs[name] = h
	return &DB{h: h}, nil
}

func (m *Manager) CloseDB(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, exists := m.dbs[name]
	if !exists {
		return fmt.Errorf("%w: %s", database.ErrDBNotOpen, name)
	}
	delete(m.dbs, name)
	return h.close()
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var lastErr error
	for name, h := range m.dbs {
		if err := h.close(); err != nil {
			lastErr = fmt.Errorf("failed to close database %s: %w", name, err)
		}
		delete(m.dbs, name)
	}
	return lastErr
}

func (h *handle) close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.db == nil {
		return nil
	}
	err := h.db.Close()
	h.db = nil
	return err
}
