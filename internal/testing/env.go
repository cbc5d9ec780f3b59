package testing

import (
	"fmt"
	"math/big"
	"sort"
	"testing"
	"time"

	"github.com/LeJamon/goStorageRent/internal/core/executor"
	"github.com/LeJamon/goStorageRent/internal/core/state"
	"github.com/LeJamon/goStorageRent/internal/core/trie"
	"github.com/LeJamon/goStorageRent/internal/core/types/rentstamp"
	"github.com/LeJamon/goStorageRent/internal/simulation"
	"github.com/LeJamon/goStorageRent/internal/testing/builders"
	"github.com/ethereum/go-ethereum/common"
)

// BlockInterval is the time AdvanceBlocks moves the clock per block.
const BlockInterval = simulation.DefaultBlockInterval

// TestEnv manages a chain for storage rent testing.
// It provides a simplified interface for creating accounts, deploying
// contracts, submitting transactions, and verifying what they paid.
type TestEnv struct {
	t      *testing.T
	clock  *ManualClock
	config executor.Config

	// Genesis being assembled; nil once started.
	genesis map[string]*simulation.GenesisAccount

	world *simulation.World
	txs   int
}

// NewTestEnv creates a test environment with storage rent active from genesis.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	return NewTestEnvWithConfig(t, executor.DefaultConfig())
}

// NewTestEnvWithConfig creates a test environment with a custom processor config.
func NewTestEnvWithConfig(t *testing.T, config executor.Config) *TestEnv {
	t.Helper()
	return &TestEnv{
		t:       t,
		clock:   NewManualClock(),
		config:  config,
		genesis: make(map[string]*simulation.GenesisAccount),
	}
}

func (e *TestEnv) genesisAccount(acc *Account) *simulation.GenesisAccount {
	e.t.Helper()
	if e.genesis == nil {
		e.t.Fatalf("Cannot change genesis of %s: environment already started", acc.Name)
	}
	ga, ok := e.genesis[acc.Name]
	if !ok {
		ga = &simulation.GenesisAccount{Name: acc.Name, Balance: new(big.Int)}
		e.genesis[acc.Name] = ga
	}
	return ga
}

// Fund credits amount to the account at genesis.
func (e *TestEnv) Fund(acc *Account, amount int64) {
	e.t.Helper()
	ga := e.genesisAccount(acc)
	ga.Balance = new(big.Int).Add(ga.Balance, big.NewInt(amount))
}

// Deploy sets the account's code at genesis.
func (e *TestEnv) Deploy(acc *Account, code []byte) {
	e.t.Helper()
	e.genesisAccount(acc).Code = append([]byte(nil), code...)
}

// DeploySize deploys size bytes of code.
func (e *TestEnv) DeploySize(acc *Account, size int) {
	e.t.Helper()
	e.Deploy(acc, builders.Fill(size))
}

// SetStorage sets a storage slot of the account at genesis.
func (e *TestEnv) SetStorage(acc *Account, slot uint64, value []byte) {
	e.t.Helper()
	ga := e.genesisAccount(acc)
	if ga.Storage == nil {
		ga.Storage = make(map[common.Hash][]byte)
	}
	ga.Storage[builders.Slot(slot)] = append([]byte(nil), value...)
}

// Start builds genesis at the clock's current time.
func (e *TestEnv) Start() {
	e.t.Helper()
	if e.genesis == nil {
		return
	}
	names := make([]string, 0, len(e.genesis))
	for name := range e.genesis {
		names = append(names, name)
	}
	sort.Strings(names)

	g := simulation.Genesis{Timestamp: e.clock.Unix()}
	for _, name := range names {
		g.Accounts = append(g.Accounts, *e.genesis[name])
	}
	world, err := simulation.NewWorld(e.config, g)
	if err != nil {
		e.t.Fatalf("Failed to build genesis: %v", err)
	}
	e.world = world
	e.genesis = nil
}

// Now returns the current test time.
func (e *TestEnv) Now() time.Time {
	return e.clock.Now()
}

// AdvanceTime moves the clock forward.
func (e *TestEnv) AdvanceTime(d time.Duration) {
	e.clock.Advance(d)
}

// AdvanceBlocks moves the clock forward by n block intervals.
func (e *TestEnv) AdvanceBlocks(n int64) {
	e.clock.Advance(time.Duration(n) * BlockInterval)
}

// SetTime sets the clock.
func (e *TestEnv) SetTime(t time.Time) {
	e.clock.Set(t)
}

// Submit applies tx alone in a block at the current time.
func (e *TestEnv) Submit(tx *executor.Transaction) TxResult {
	e.t.Helper()
	return e.Close(tx)[0]
}

// Close applies one block holding txs at the current time. The environment
// is started first if needed.
func (e *TestEnv) Close(txs ...*executor.Transaction) []TxResult {
	e.t.Helper()
	e.Start()
	named := make([]simulation.NamedTx, len(txs))
	for i, tx := range txs {
		e.txs++
		named[i] = simulation.NamedTx{Name: fmt.Sprintf("tx%d", e.txs), Tx: tx}
	}
	execs, err := e.world.ApplyBlock(e.clock.Unix(), named...)
	if err != nil {
		e.t.Fatalf("Failed to apply block: %v", err)
	}
	results := make([]TxResult, len(execs))
	for i, exec := range execs {
		results[i] = newTxResult(exec)
	}
	return results
}

// World returns the underlying world. The environment is started first if needed.
func (e *TestEnv) World() *simulation.World {
	e.t.Helper()
	e.Start()
	return e.world
}

// Trie returns the current state.
func (e *TestEnv) Trie() *trie.Trie {
	e.t.Helper()
	return e.World().Trie()
}

func (e *TestEnv) account(acc *Account) state.Account {
	e.t.Helper()
	raw, ok := e.Trie().Get(state.AccountKey(acc.Address))
	if !ok {
		return state.NewAccount(nil)
	}
	a, err := state.DecodeAccount(raw)
	if err != nil {
		e.t.Fatalf("Failed to decode account %s: %v", acc.Name, err)
	}
	return a
}

// Exists reports whether the account is in the state.
func (e *TestEnv) Exists(acc *Account) bool {
	e.t.Helper()
	return e.Trie().Has(state.AccountKey(acc.Address))
}

// Balance returns the account's balance.
func (e *TestEnv) Balance(acc *Account) *big.Int {
	e.t.Helper()
	return e.account(acc).Balance
}

// Nonce returns the account's nonce.
func (e *TestEnv) Nonce(acc *Account) uint64 {
	e.t.Helper()
	return e.account(acc).Nonce
}

// Storage returns a storage slot of the account, nil when unset.
func (e *TestEnv) Storage(acc *Account, slot uint64) []byte {
	e.t.Helper()
	v, _ := e.Trie().Get(state.StorageKey(acc.Address, builders.Slot(slot)))
	return v
}

// RentTimestamp returns the last time the value under key paid rent.
func (e *TestEnv) RentTimestamp(key []byte) rentstamp.Timestamp {
	e.t.Helper()
	ts, ok := e.Trie().LastRentPaidTimestamp(key)
	if !ok {
		e.t.Fatalf("No value under key %x", key)
	}
	return ts
}
