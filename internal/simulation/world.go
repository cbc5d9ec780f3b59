// Package simulation runs named accounts and transactions through the
// executor block by block, the way the CLI and the end-to-end tests drive it.
package simulation

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/LeJamon/goStorageRent/internal/core/executor"
	"github.com/LeJamon/goStorageRent/internal/core/state"
	"github.com/LeJamon/goStorageRent/internal/core/trie"
	"github.com/LeJamon/goStorageRent/internal/core/types/rentstamp"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
)

var (
	ErrUnknownAccount     = errors.New("unknown account")
	ErrUnknownTransaction = errors.New("unknown transaction")
	ErrDuplicateName      = errors.New("name already used")
	ErrTimeGoesBackwards  = errors.New("block timestamp before previous block")
)

// GenesisAccount is an account present from genesis.
type GenesisAccount struct {
	Name    string
	Balance *big.Int
	Code    []byte
	Storage map[common.Hash][]byte
}

// Genesis describes the initial state. Every value in it has paid rent up
// to Timestamp.
type Genesis struct {
	Timestamp int64
	Accounts  []GenesisAccount
}

// NamedTx is a transaction with the name it is looked up by.
type NamedTx struct {
	Name string
	Tx   *executor.Transaction
}

// World is a chain of blocks over named accounts.
type World struct {
	processor *executor.Processor
	trie      *trie.Trie
	number    uint64
	timestamp int64
	gasLimit  uint64

	accounts   map[string]common.Address
	nonces     map[common.Address]uint64
	executions map[string]*executor.Execution
	blocks     map[string]uint64

	log log.Logger
}

// AddressOf derives the address of a named account.
func AddressOf(name string) common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte(name))[12:])
}

// NewWorld builds the genesis state.
func NewWorld(config executor.Config, genesis Genesis) (*World, error) {
	w := &World{
		processor:  executor.NewProcessor(config),
		timestamp:  genesis.Timestamp,
		accounts:   make(map[string]common.Address),
		nonces:     make(map[common.Address]uint64),
		executions: make(map[string]*executor.Execution),
		blocks:     make(map[string]uint64),
		log:        log.New("module", "simulation"),
	}

	root := state.NewRepository(nil)
	setup := root.StartTracking()
	for _, acc := range genesis.Accounts {
		if _, ok := w.accounts[acc.Name]; ok {
			return nil, fmt.Errorf("%w: account %q", ErrDuplicateName, acc.Name)
		}
		addr := AddressOf(acc.Name)
		w.accounts[acc.Name] = addr
		if err := setup.SetAccount(addr, state.NewAccount(acc.Balance)); err != nil {
			return nil, err
		}
		if len(acc.Code) > 0 {
			if err := setup.SetCode(addr, acc.Code); err != nil {
				return nil, err
			}
		}
		for slot, value := range acc.Storage {
			if err := setup.SetStorage(addr, slot, value); err != nil {
				return nil, err
			}
		}
	}
	if err := setup.Commit(); err != nil {
		return nil, err
	}
	if err := root.InitRentTimestamps(rentstamp.Paid(genesis.Timestamp)); err != nil {
		return nil, err
	}
	w.trie = root.Trie()
	w.log.Debug("Built genesis", "accounts", len(genesis.Accounts), "values", w.trie.Len())
	return w, nil
}

// SetBlockGasLimit bounds the gas of every following block; zero means no bound.
func (w *World) SetBlockGasLimit(limit uint64) {
	w.gasLimit = limit
}

// Address returns the address of a named account.
func (w *World) Address(name string) (common.Address, error) {
	addr, ok := w.accounts[name]
	if !ok {
		return common.Address{}, fmt.Errorf("%w: %q", ErrUnknownAccount, name)
	}
	return addr, nil
}

// NextNonce returns the nonce the next transaction from addr should carry.
func (w *World) NextNonce(addr common.Address) uint64 {
	return w.nonces[addr]
}

// Trie returns the current state.
func (w *World) Trie() *trie.Trie {
	return w.trie
}

// BlockNumber returns the number of the last block applied.
func (w *World) BlockNumber() uint64 {
	return w.number
}

// Timestamp returns the timestamp of the last block applied.
func (w *World) Timestamp() int64 {
	return w.timestamp
}

// ApplyBlock applies the next block at timestamp.
func (w *World) ApplyBlock(timestamp int64, txs ...NamedTx) ([]*executor.Execution, error) {
	if timestamp < w.timestamp {
		return nil, fmt.Errorf("%w: %d < %d", ErrTimeGoesBackwards, timestamp, w.timestamp)
	}
	block := &executor.Block{
		Number:       w.number + 1,
		Timestamp:    timestamp,
		GasLimit:     w.gasLimit,
		Transactions: make([]*executor.Transaction, 0, len(txs)),
	}
	for _, ntx := range txs {
		if _, ok := w.executions[ntx.Name]; ok {
			return nil, fmt.Errorf("%w: transaction %q", ErrDuplicateName, ntx.Name)
		}
		block.Transactions = append(block.Transactions, ntx.Tx)
	}

	result, err := w.processor.ProcessBlock(w.trie, block)
	if err != nil {
		return nil, err
	}
	// Drop the nodes the block superseded.
	w.trie = result.Trie.Compact()
	w.number = block.Number
	w.timestamp = timestamp
	for i, ntx := range txs {
		w.executions[ntx.Name] = result.Executions[i]
		w.blocks[ntx.Name] = block.Number
		w.nonces[ntx.Tx.From]++
	}
	return result.Executions, nil
}

// Execution returns the execution of a named transaction.
func (w *World) Execution(name string) (*executor.Execution, error) {
	exec, ok := w.executions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransaction, name)
	}
	return exec, nil
}

// Account returns the current record of a named account.
func (w *World) Account(name string) (state.Account, error) {
	addr, err := w.Address(name)
	if err != nil {
		return state.Account{}, err
	}
	raw, ok := w.trie.Get(state.AccountKey(addr))
	if !ok {
		return state.NewAccount(nil), nil
	}
	return state.DecodeAccount(raw)
}

// Storage returns a storage slot of a named contract.
func (w *World) Storage(name string, slot common.Hash) ([]byte, bool, error) {
	addr, err := w.Address(name)
	if err != nil {
		return nil, false, err
	}
	v, ok := w.trie.Get(state.StorageKey(addr, slot))
	return v, ok, nil
}
