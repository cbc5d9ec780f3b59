package state

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/LeJamon/goStorageRent/internal/core/tracking"
	"github.com/LeJamon/goStorageRent/internal/core/trie"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
)

var (
	ErrFrameClosed       = errors.New("repository frame already committed or rolled back")
	ErrRootFrame         = errors.New("root repository frame has no parent")
	ErrInvalidAccount    = errors.New("invalid account record")
	ErrInsufficientFunds = errors.New("insufficient balance for transfer")
)

// Repository is a frame of state changes over a trie version.
//
// Frames nest: a transaction runs in a frame started from the block's
// repository, and every call runs in a frame of its own. Each frame records
// the accesses made through it. Committing a frame hands its trie and its
// accesses to the parent; rolling it back discards its changes and turns its
// accesses into rollback accesses of the parent.
type Repository struct {
	parent  *Repository
	trie    *trie.Trie
	journal *tracking.Journal
	txID    common.Hash
	closed  bool
	log     log.Logger
}

// NewRepository creates a root frame over tr.
func NewRepository(tr *trie.Trie) *Repository {
	if tr == nil {
		tr = trie.New()
	}
	return &Repository{
		trie:    tr,
		journal: tracking.NewJournal(),
		log:     log.New("module", "state"),
	}
}

// StartTransaction starts a child frame whose accesses belong to txID.
func (r *Repository) StartTransaction(txID common.Hash) *Repository {
	child := r.StartTracking()
	child.txID = txID
	return child
}

// StartTracking starts a child frame of the same transaction.
func (r *Repository) StartTracking() *Repository {
	return &Repository{
		parent:  r,
		trie:    r.trie,
		journal: tracking.NewJournal(),
		txID:    r.txID,
		log:     r.log,
	}
}

// Commit hands the frame's state and accesses to its parent.
func (r *Repository) Commit() error {
	if err := r.close(); err != nil {
		return err
	}
	r.parent.trie = r.trie
	r.parent.journal.Merge(r.journal)
	return nil
}

// Rollback discards the frame's state changes. Its accesses become rollback
// accesses of the parent.
func (r *Repository) Rollback() error {
	if err := r.close(); err != nil {
		return err
	}
	r.parent.journal.Absorb(r.journal)
	r.log.Trace("Rolled back frame", "tx", r.txID, "accesses", r.journal.Len(), "rollbacks", r.journal.RollbackLen())
	return nil
}

func (r *Repository) close() error {
	if r.parent == nil {
		return ErrRootFrame
	}
	if r.closed {
		return ErrFrameClosed
	}
	r.closed = true
	return nil
}

// Trie returns the frame's current trie version.
func (r *Repository) Trie() *trie.Trie {
	return r.trie
}

// TransactionID returns the transaction the frame's accesses belong to.
func (r *Repository) TransactionID() common.Hash {
	return r.txID
}

// Journal returns the frame's accesses.
func (r *Repository) Journal() *tracking.Journal {
	return r.journal
}

func (r *Repository) track(key []byte, op tracking.Operation, successful bool) error {
	rec, err := tracking.NewAccessRecord(key, op, r.txID, successful)
	if err != nil {
		return err
	}
	r.journal.Track(rec)
	return nil
}

func (r *Repository) get(key []byte) ([]byte, bool, error) {
	if r.closed {
		return nil, false, ErrFrameClosed
	}
	value, ok := r.trie.Get(key)
	if err := r.track(key, tracking.Read, ok); err != nil {
		return nil, false, err
	}
	return value, ok, nil
}

// put writes value under key; an empty value deletes the key.
func (r *Repository) put(key, value []byte) error {
	if r.closed {
		return ErrFrameClosed
	}
	if len(value) == 0 {
		existed := r.trie.Has(key)
		next, err := r.trie.Delete(key)
		if err != nil {
			return err
		}
		r.trie = next
		return r.track(key, tracking.Delete, existed)
	}

	next, err := r.trie.Put(key, value)
	if err != nil {
		return err
	}
	r.trie = next
	return r.track(key, tracking.Write, true)
}

// GetAccount returns the account at addr.
func (r *Repository) GetAccount(addr common.Address) (Account, bool, error) {
	data, ok, err := r.get(AccountKey(addr))
	if err != nil || !ok {
		return NewAccount(nil), false, err
	}
	acc, err := DecodeAccount(data)
	if err != nil {
		return Account{}, false, fmt.Errorf("account %s: %w", addr.Hex(), err)
	}
	return acc, true, nil
}

// SetAccount stores the account at addr.
func (r *Repository) SetAccount(addr common.Address, acc Account) error {
	enc, err := EncodeAccount(acc)
	if err != nil {
		return fmt.Errorf("account %s: %w", addr.Hex(), err)
	}
	return r.put(AccountKey(addr), enc)
}

// IncrementNonce bumps the nonce of addr, creating the account if needed.
func (r *Repository) IncrementNonce(addr common.Address) error {
	acc, _, err := r.GetAccount(addr)
	if err != nil {
		return err
	}
	acc.Nonce++
	return r.SetAccount(addr, acc)
}

// Transfer moves amount from one account to another.
func (r *Repository) Transfer(from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	src, _, err := r.GetAccount(from)
	if err != nil {
		return err
	}
	if src.Balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientFunds, from.Hex(), src.Balance, amount)
	}
	src.Balance = new(big.Int).Sub(src.Balance, amount)
	if err := r.SetAccount(from, src); err != nil {
		return err
	}

	dst, _, err := r.GetAccount(to)
	if err != nil {
		return err
	}
	dst.Balance = new(big.Int).Add(dst.Balance, amount)
	return r.SetAccount(to, dst)
}

// GetCode returns the code of the contract at addr.
func (r *Repository) GetCode(addr common.Address) ([]byte, bool, error) {
	return r.get(CodeKey(addr))
}

// SetCode stores contract code at addr.
func (r *Repository) SetCode(addr common.Address, code []byte) error {
	return r.put(CodeKey(addr), code)
}

// GetStorage returns the value of a contract storage slot.
func (r *Repository) GetStorage(addr common.Address, slot common.Hash) ([]byte, bool, error) {
	return r.get(StorageKey(addr, slot))
}

// SetStorage stores a contract storage slot. An empty value clears it.
func (r *Repository) SetStorage(addr common.Address, slot common.Hash, value []byte) error {
	return r.put(StorageKey(addr, slot), value)
}

// IsContract reports whether addr holds code. The check is not tracked.
func (r *Repository) IsContract(addr common.Address) bool {
	return r.trie.Has(CodeKey(addr))
}
