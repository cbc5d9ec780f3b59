// Package executor applies blocks of transactions to the state and charges
// their storage rent.
//
// Contracts are not interpreted: a transaction carries the script of storage
// operations and nested calls its execution performs, which is all the rent
// accounting needs to see.
package executor

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// OpKind is the kind of a scripted operation.
type OpKind uint8

const (
	OpLoad OpKind = iota
	OpStore
	OpClear
	OpCall
)

// String returns a string representation of the op kind
func (k OpKind) String() string {
	switch k {
	case OpLoad:
		return "load"
	case OpStore:
		return "store"
	case OpClear:
		return "clear"
	case OpCall:
		return "call"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Op is one step of a call: a storage access of the executing contract, or
// a nested call.
type Op struct {
	Kind  OpKind
	Slot  common.Hash
	Value []byte
	Call  *Call `rlp:"nil"`

	// BubbleRevert makes a reverted nested call revert the caller as well.
	// Otherwise the caller handles the failure and carries on.
	BubbleRevert bool
}

// Call is the execution of a contract.
type Call struct {
	To    common.Address
	Value *big.Int
	Ops   []Op

	// Revert makes the call revert once its ops ran.
	Revert bool
}

// Transaction is a signed-off transfer or contract call. A transaction to an
// account without code is a plain value transfer and its Ops are ignored.
type Transaction struct {
	From     common.Address
	To       common.Address
	Nonce    uint64
	Value    *big.Int
	GasLimit uint64
	Ops      []Op
	Revert   bool
}

// Hash returns the Keccak-256 hash of the transaction's RLP encoding.
func (tx *Transaction) Hash() (common.Hash, error) {
	enc, err := rlp.EncodeToBytes(tx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode transaction: %w", err)
	}
	return crypto.Keccak256Hash(enc), nil
}

// Block is a batch of transactions applied at one timestamp.
type Block struct {
	Number       uint64
	Timestamp    int64
	GasLimit     uint64
	Transactions []*Transaction
}

// Status is the outcome of a transaction.
type Status uint8

const (
	StatusSuccessful Status = iota
	StatusFailed
)

// String returns a string representation of the status
func (s Status) String() string {
	switch s {
	case StatusSuccessful:
		return "successful"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// Receipt records what a transaction did and what it paid.
type Receipt struct {
	TxHash      common.Hash
	BlockNumber uint64
	Status      Status
	GasUsed     uint64

	// Reason explains a failed status.
	Reason string

	RentEngaged   bool
	PayableRent   uint64
	RollbackRent  uint64
	PaidRent      uint64
	RentedNodes   int
	RollbackNodes int
}

// Successful reports whether the transaction succeeded.
func (r *Receipt) Successful() bool {
	return r.Status == StatusSuccessful
}
