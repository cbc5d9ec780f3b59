package di

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/LeJamon/goStorageRent/internal/config"
	"github.com/LeJamon/goStorageRent/internal/storage/database"
	"github.com/LeJamon/goStorageRent/internal/storage/database/bbolt"
	"github.com/LeJamon/goStorageRent/internal/storage/database/leveldb"
	"github.com/LeJamon/goStorageRent/internal/storage/database/pebble"
	"github.com/LeJamon/goStorageRent/internal/storage/relationaldb"
	_ "github.com/LeJamon/goStorageRent/internal/storage/relationaldb/postgres"
	_ "github.com/LeJamon/goStorageRent/internal/storage/relationaldb/sqlite"
	"github.com/LeJamon/goStorageRent/internal/storage/triestore"
	"github.com/ethereum/go-ethereum/log"
)

// ErrReceiptsDisabled is returned when receipts are requested but not
// enabled in the configuration.
var ErrReceiptsDisabled = errors.New("receipts are disabled")

// trieDBName is the database holding trie nodes and heads.
const trieDBName = "trie"

// Provider configures and registers services in the container.
type Provider struct {
	container *Container
	config    *config.Config
	log       log.Logger
}

// NewProvider creates a new service provider.
func NewProvider(container *Container, cfg *config.Config) *Provider {
	return &Provider{
		container: container,
		config:    cfg,
		log:       log.New("module", "di"),
	}
}

// RegisterAll registers all services.
func (p *Provider) RegisterAll() error {
	p.container.Register(ServiceConfig, p.config)
	p.registerStorageBuilders()
	return nil
}

// registerStorageBuilders registers storage service builders.
func (p *Provider) registerStorageBuilders() {
	p.container.RegisterBuilder(ServiceNodeDB, func(c *Container) (interface{}, error) {
		return p.newDatabaseManager()
	})

	p.container.RegisterBuilder(ServiceTrieStore, func(c *Container) (interface{}, error) {
		m, err := p.DatabaseManager()
		if err != nil {
			return nil, err
		}
		db, err := m.OpenDB(trieDBName)
		if err != nil {
			return nil, err
		}
		return triestore.New(db, p.config.NodeDB.StoreConfig())
	})

	p.container.RegisterBuilder(ServiceReceipts, func(c *Container) (interface{}, error) {
		rc := p.config.Receipts
		if !rc.Enabled {
			return nil, ErrReceiptsDisabled
		}
		var cfg *relationaldb.Config
		switch rc.Driver {
		case "postgres":
			cfg = relationaldb.PostgresConfig(rc.DSN)
		default:
			cfg = relationaldb.SQLiteConfig(rc.ResolveDSN(p.config.ConfigDir()))
		}
		return relationaldb.Open(context.Background(), cfg)
	})
}

func (p *Provider) newDatabaseManager() (database.Manager, error) {
	nc := p.config.NodeDB
	path := nc.ResolvePath(p.config.ConfigDir())
	if nc.IsPersistent() {
		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, fmt.Errorf("failed to create node_db directory: %w", err)
		}
	}
	p.log.Debug("Opening node database", "type", nc.Type, "path", path)

	switch nc.Type {
	case config.BackendPebble:
		return pebble.NewManager(path), nil
	case config.BackendBBolt:
		return bbolt.NewManager(path), nil
	case config.BackendLevelDB:
		return leveldb.NewManager(path), nil
	case config.BackendMemory:
		return leveldb.NewMemManager(), nil
	default:
		return nil, fmt.Errorf("unsupported node_db type: %s", nc.Type)
	}
}

// DatabaseManager returns the node database manager.
func (p *Provider) DatabaseManager() (database.Manager, error) {
	svc, err := p.container.Get(ServiceNodeDB)
	if err != nil {
		return nil, err
	}
	return svc.(database.Manager), nil
}

// TrieStore returns the trie store.
func (p *Provider) TrieStore() (*triestore.Store, error) {
	svc, err := p.container.Get(ServiceTrieStore)
	if err != nil {
		return nil, err
	}
	return svc.(*triestore.Store), nil
}

// Receipts returns the receipt repository, or ErrReceiptsDisabled.
func (p *Provider) Receipts() (relationaldb.ReceiptRepository, error) {
	svc, err := p.container.Get(ServiceReceipts)
	if err != nil {
		return nil, err
	}
	return svc.(relationaldb.ReceiptRepository), nil
}

// GetConfig returns the configuration from the container.
func (p *Provider) GetConfig() *config.Config {
	return p.config
}
