// Package tracking records which trie nodes a transaction touched.
//
// Every read, write or delete a transaction performs against a state view
// leaves an AccessRecord behind. The records are later resolved by the
// storage rent session into rented nodes.
package tracking

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ErrUnsuccessfulWrite is returned when a write record is built with successful=false.
var ErrUnsuccessfulWrite = errors.New("a write access must always be successful")

// Operation is the kind of access performed on a trie node.
type Operation uint8

const (
	Read Operation = iota
	Write
	Delete
)

// String returns a string representation of the operation
func (o Operation) String() string {
	switch o {
	case Read:
		return "read"
	case Write:
		return "write"
	case Delete:
		return "delete"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(o))
	}
}

// ParseOperation returns the operation named s.
func ParseOperation(s string) (Operation, error) {
	switch s {
	case "read":
		return Read, nil
	case "write":
		return Write, nil
	case "delete":
		return Delete, nil
	default:
		return Read, fmt.Errorf("unknown operation %q", s)
	}
}

// Rank orders operations by how much they say about the node: a node written
// in a transaction is charged as written even if it was also read.
func (o Operation) Rank() int {
	switch o {
	case Write:
		return 2
	case Delete:
		return 1
	default:
		return 0
	}
}

// AccessRecord is one touch of a trie node during a transaction. It is
// immutable once built.
type AccessRecord struct {
	key        string
	operation  Operation
	txID       common.Hash
	successful bool
}

// Identity is the equality key of an AccessRecord. The success flag is not
// part of it.
type Identity struct {
	Key       string
	Operation Operation
	TxID      common.Hash
}

// NewAccessRecord builds a record, copying the key.
func NewAccessRecord(key []byte, op Operation, txID common.Hash, successful bool) (AccessRecord, error) {
	if op == Write && !successful {
		return AccessRecord{}, ErrUnsuccessfulWrite
	}
	return AccessRecord{
		key:        string(key),
		operation:  op,
		txID:       txID,
		successful: successful,
	}, nil
}

// Key returns a copy of the trie key.
func (r AccessRecord) Key() []byte {
	return []byte(r.key)
}

// KeyString returns the trie key as an immutable string.
func (r AccessRecord) KeyString() string {
	return r.key
}

func (r AccessRecord) Operation() Operation {
	return r.operation
}

func (r AccessRecord) TransactionID() common.Hash {
	return r.txID
}

func (r AccessRecord) Successful() bool {
	return r.successful
}

// ID returns the identity used for set membership.
func (r AccessRecord) ID() Identity {
	return Identity{Key: r.key, Operation: r.operation, TxID: r.txID}
}

// Equal compares records by identity.
func (r AccessRecord) Equal(o AccessRecord) bool {
	return r.ID() == o.ID()
}

// UseForStorageRent reports whether a rolled-back access is charged a
// rollback fee in the given transaction: it must have succeeded, must not be
// a delete, and must belong to that transaction.
func (r AccessRecord) UseForStorageRent(txID common.Hash) bool {
	return r.successful && r.operation != Delete && r.txID == txID
}

func (r AccessRecord) String() string {
	return fmt.Sprintf("AccessRecord[key: %x, operation: %s, successful: %t, tx: %s]",
		[]byte(r.key), r.operation, r.successful, r.txID.Hex())
}
