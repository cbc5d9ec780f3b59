package storagerent

import (
	"fmt"
	"math"

	"github.com/LeJamon/goStorageRent/internal/core/tracking"
	"github.com/LeJamon/goStorageRent/internal/core/types/rentstamp"
)

// RentedNode is the economic snapshot of one trie node touched by a
// transaction: an AccessRecord resolved against a state view.
type RentedNode struct {
	key          string
	operation    tracking.Operation
	size         int64
	lastPaid     rentstamp.Timestamp
	contractCode bool
	successful   bool
}

// NewRentedNode builds a rented node. size is the byte length of the node's
// value and lastPaid its rent timestamp in the resolving view.
func NewRentedNode(key []byte, op tracking.Operation, size int64, lastPaid rentstamp.Timestamp,
	contractCode, successful bool) RentedNode {
	return RentedNode{
		key:          string(key),
		operation:    op,
		size:         size,
		lastPaid:     lastPaid,
		contractCode: contractCode,
		successful:   successful,
	}
}

func (n RentedNode) Key() []byte { return []byte(n.key) }
func (n RentedNode) KeyString() string { return n.key }
func (n RentedNode) Operation() tracking.Operation { return n.operation }
func (n RentedNode) Size() int64 { return n.size }
func (n RentedNode) LastPaidTimestamp() rentstamp.Timestamp { return n.lastPaid }
func (n RentedNode) IsContractCode() bool { return n.contractCode }
func (n RentedNode) Successful() bool { return n.successful }

// Cap is the maximum rent the node pays in one transaction.
func (n RentedNode) Cap() int64 {
	if n.contractCode {
		return RentCapContractCode
	}
	return RentCap
}

// Threshold is the rent under which the node pays nothing.
func (n RentedNode) Threshold() int64 {
	switch n.operation {
	case tracking.Write, tracking.Delete:
		return WriteThreshold
	default:
		if n.contractCode {
			return ReadThresholdContractCode
		}
		return ReadThreshold
	}
}

// Duration returns the unpaid time at blockTimestamp, in milliseconds. A node
// that never paid, or that is paid up beyond blockTimestamp, owes nothing.
func (n RentedNode) Duration(blockTimestamp int64) (int64, error) {
	last, ok := n.lastPaid.Seconds()
	if !ok || last >= blockTimestamp {
		return 0, nil
	}
	elapsed := blockTimestamp - last
	if elapsed < 0 || elapsed > math.MaxInt64/millisPerSecond {
		return 0, fmt.Errorf("%w: elapsed time from %d to %d", ErrRentOverflow, last, blockTimestamp)
	}
	return elapsed * millisPerSecond, nil
}

// RentDue returns the rent accrued by the node at blockTimestamp.
func (n RentedNode) RentDue(blockTimestamp int64) (int64, error) {
	duration, err := n.Duration(blockTimestamp)
	if err != nil {
		return 0, err
	}
	return RentDue(n.size, duration)
}

// PayableRent returns the rent the node pays at blockTimestamp.
func (n RentedNode) PayableRent(blockTimestamp int64) (int64, error) {
	due, err := n.RentDue(blockTimestamp)
	if err != nil {
		return 0, err
	}
	return ComputeRent(due, n.Cap(), n.Threshold())
}

// RollbackFee returns the fee charged when the node was only touched by a
// reverted call: a fixed share of the capped rent. The threshold does not
// apply, every rolled-back touch pays.
func (n RentedNode) RollbackFee(blockTimestamp int64) (int64, error) {
	due, err := n.RentDue(blockTimestamp)
	if err != nil {
		return 0, err
	}
	rent, err := ComputeRent(due, n.Cap(), 0)
	if err != nil {
		return 0, err
	}
	return RollbackFee(rent), nil
}

// NewTimestamp returns the node's rent timestamp once it paid at blockTimestamp.
func (n RentedNode) NewTimestamp(blockTimestamp int64) (rentstamp.Timestamp, error) {
	due, err := n.RentDue(blockTimestamp)
	if err != nil {
		return rentstamp.Unset, err
	}
	return ComputeNewTimestamp(n.size, due, n.lastPaid, blockTimestamp, n.Cap(), n.Threshold())
}

func (n RentedNode) String() string {
	return fmt.Sprintf("RentedNode[key: %x, operation: %s, size: %d, lastPaid: %s, code: %t, successful: %t]",
		[]byte(n.key), n.operation, n.size, n.lastPaid, n.contractCode, n.successful)
}
