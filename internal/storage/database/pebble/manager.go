package pebble

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/LeJamon/goStorageRent/internal/storage/database"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

type Manager struct {
	dbs  map[string]*handle
	path string
	fs   vfs.FS
	mu   sync.Mutex
}

// NewManager opens databases as directories under path.
func NewManager(path string) *Manager {
	return &Manager{
		dbs:  make(map[string]*handle),
		path: path,
	}
}

// NewMemManager keeps every database in memory.
func NewMemManager() *Manager {
	return &Manager{
		dbs: make(map[string]*handle),
		fs:  vfs.NewMem(),
	}
}

func (m *Manager) OpenDB(name string) (database.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h, exists := m.dbs[name]; exists {
		return &DB{h: h}, nil // Already opened
	}

	dbPath := filepath.Join(m.path, name+".db")
	opts := &pebble.Options{}
	if m.fs != nil {
		opts.FS = m.fs
	}

	db, err := pebble.Open(dbPath, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", name, err)
	}

	h := &handle{db: db}
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
