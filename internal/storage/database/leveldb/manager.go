package leveldb

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/LeJamon/goStorageRent/internal/storage/database"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

type Manager struct {
	dbs    map[string]*handle
	path   string
	memory bool
	mu     sync.Mutex
}

// NewManager opens databases as directories under path.
func NewManager(path string) *Manager {
	return &Manager{
		dbs:  make(map[string]*handle),
		path: path,
	}
}

// NewMemManager keeps every database in memory. A database lives until it
// is closed.
func NewMemManager() *Manager {
	return &Manager{
		dbs:    make(map[string]*handle),
		memory: true,
	}
}

func (m *Manager) OpenDB(name string) (database.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h, exists := m.dbs[name]; exists {
		return &DB{h: h}, nil
	}

	var (
		db  *leveldb.DB
		err error
	)
	if m.memory {
		db, err = leveldb.Open(storage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(filepath.Join(m.path, name+".db"), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", name, err)
	}

	h := &handle{db: db, sync: !m.memory}
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
