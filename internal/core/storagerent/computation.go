// Package storagerent charges transactions for the trie storage they occupy.
//
// Rent accrues per node with its size and with the time elapsed since the
// node last paid. A transaction pays, once per node it touched, the accrued
// rent bounded by a cap; amounts under a threshold are not charged at all.
// Nodes touched only by reverted calls pay a reduced rollback fee.
package storagerent

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/LeJamon/goStorageRent/internal/core/types/rentstamp"
)

// Rent thresholds and caps, in gas. These values are part of the protocol.
const (
	ReadThreshold             int64 = 2500
	ReadThresholdContractCode int64 = 15000
	WriteThreshold            int64 = 1000
	RentCap                   int64 = 5000
	RentCapContractCode       int64 = 30000
)

const (
	// StorageOverhead is added to every node size, in bytes.
	StorageOverhead int64 = 128

	// RentalRateShift expresses the rental rate of 2^-21 gas per byte-second.
	RentalRateShift = 21

	// RollbackFeePercent is the share of the rent charged for rolled-back accesses.
	RollbackFeePercent int64 = 25

	millisPerSecond = 1000
)

// RentDue returns the rent accrued by a node of nodeSize bytes over
// durationMillis milliseconds:
//
//	floor((nodeSize + StorageOverhead) * floor(durationMillis / 1000) * 2^-21)
//
// This is not what a transaction pays; see ComputeRent.
func RentDue(nodeSize, durationMillis int64) (int64, error) {
	if err := nonNegative(nodeSize, "node size"); err != nil {
		return 0, err
	}
	if err := nonNegative(durationMillis, "duration"); err != nil {
		return 0, err
	}
	if nodeSize > math.MaxInt64-StorageOverhead {
		return 0, fmt.Errorf("%w: node size %d", ErrRentOverflow, nodeSize)
	}

	seconds := uint64(durationMillis / millisPerSecond)
	hi, lo := bits.Mul64(uint64(nodeSize+StorageOverhead), seconds)
	if hi>>RentalRateShift != 0 {
		return 0, fmt.Errorf("%w: rent due for %d bytes over %d ms", ErrRentOverflow, nodeSize, durationMillis)
	}
	due := hi<<(64-RentalRateShift) | lo>>RentalRateShift
	if due > math.MaxInt64 {
		return 0, fmt.Errorf("%w: rent due for %d bytes over %d ms", ErrRentOverflow, nodeSize, durationMillis)
	}
	return int64(due), nil
}

// ComputeRent returns the rent a transaction pays for one node: the rent due
// bounded by rentCap, or zero when that amount does not exceed rentThreshold.
func ComputeRent(rentDue, rentCap, rentThreshold int64) (int64, error) {
	if err := nonNegative(rentDue, "rent due"); err != nil {
		return 0, err
	}
	if err := nonNegative(rentCap, "cap"); err != nil {
		return 0, err
	}
	if err := nonNegative(rentThreshold, "threshold"); err != nil {
		return 0, err
	}

	computed := min(rentCap, rentDue)
	if computed > rentThreshold {
		return computed, nil
	}
	return 0, nil
}

// ComputeNewTimestamp returns the rent timestamp of a node after the
// transaction paid (or did not pay) its rent:
//   - a node that never paid is initialized to the current block timestamp;
//   - rent at or below the threshold leaves the timestamp untouched;
//   - rent within the cap is fully paid, the timestamp becomes the current one;
//   - rent above the cap is paid partially, the timestamp advances by the time
//     the cap pays for, floor(rentCap / (nodeSize * 2^-21)) seconds.
func ComputeNewTimestamp(nodeSize, rentDue int64, lastPaid rentstamp.Timestamp,
	currentBlockTimestamp, rentCap, rentThreshold int64) (rentstamp.Timestamp, error) {
	if err := nonNegative(nodeSize, "node size"); err != nil {
		return rentstamp.Unset, err
	}
	if err := nonNegative(rentDue, "rent due"); err != nil {
		return rentstamp.Unset, err
	}
	if err := nonNegative(currentBlockTimestamp, "current block timestamp"); err != nil {
		return rentstamp.Unset, err
	}
	if err := nonNegative(rentCap, "cap"); err != nil {
		return rentstamp.Unset, err
	}
	if err := nonNegative(rentThreshold, "threshold"); err != nil {
		return rentstamp.Unset, err
	}

	last, ok := lastPaid.Seconds()
	if !ok {
		return rentstamp.Paid(currentBlockTimestamp), nil
	}
	if rentDue <= rentThreshold {
		return lastPaid, nil
	}
	if rentDue <= rentCap || nodeSize == 0 {
		return rentstamp.Paid(currentBlockTimestamp), nil
	}

	timePaid, err := PaidDuration(nodeSize, rentCap)
	if err != nil {
		return rentstamp.Unset, err
	}
	if last > math.MaxInt64-timePaid {
		return rentstamp.Unset, fmt.Errorf("%w: timestamp %d advanced by %d", ErrRentOverflow, last, timePaid)
	}
	return rentstamp.Paid(last + timePaid), nil
}

// PaidDuration returns how many seconds of rent rentCap gas pays for a node
// of nodeSize bytes: floor(rentCap * 2^21 / nodeSize). nodeSize must be positive.
func PaidDuration(nodeSize, rentCap int64) (int64, error) {
	if nodeSize <= 0 {
		return 0, fmt.Errorf("%w: node size must be greater than zero", ErrInvalidArgument)
	}
	if err := nonNegative(rentCap, "cap"); err != nil {
		return 0, err
	}

	hi, lo := bits.Mul64(uint64(rentCap), 1<<RentalRateShift)
	if hi >= uint64(nodeSize) {
		return 0, fmt.Errorf("%w: cap %d over %d bytes", ErrRentOverflow, rentCap, nodeSize)
	}
	quo, _ := bits.Div64(hi, lo, uint64(nodeSize))
	if quo > math.MaxInt64 {
		return 0, fmt.Errorf("%w: cap %d over %d bytes", ErrRentOverflow, rentCap, nodeSize)
	}
	return int64(quo), nil
}

// RollbackFee returns the share of rent charged for a rolled-back access.
func RollbackFee(rent int64) int64 {
	return rent/100*RollbackFeePercent + rent%100*RollbackFeePercent/100
}

func nonNegative(v int64, name string) error {
	if v < 0 {
		return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidArgument, name, v)
	}
	return nil
}
