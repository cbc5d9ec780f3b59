package storagerent

import (
	"fmt"
	"sort"

	"github.com/LeJamon/goStorageRent/internal/core/tracking"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/log"
)

//go:generate mockgen -source=session.go -destination=view_mock.go -package=storagerent

// View is the state a session reads accesses from and writes timestamps to.
// A session works with two of them: the view as it was before the
// transaction, and the view the transaction is executing in.
type View interface {
	// StorageRentAccesses returns the accesses the transaction made in this view.
	StorageRentAccesses(txID common.Hash) []tracking.AccessRecord

	// RollbackAccesses returns the accesses made by reverted calls of the
	// transaction that are eligible for a rollback fee.
	RollbackAccesses(txID common.Hash) []tracking.AccessRecord

	// RentedNode resolves an access against this view.
	RentedNode(rec tracking.AccessRecord) (RentedNode, error)

	// UpdateRents stores the new rent timestamp of every node once it paid
	// at blockTimestamp.
	UpdateRents(nodes []RentedNode, blockTimestamp int64) error
}

// Outcome is what a transaction paid. It exists only once pay succeeded.
type Outcome struct {
	PayableRent  uint64
	RollbackRent uint64
	TotalRent    uint64
}

// Session pays the storage rent of a single transaction. It is created for
// one transaction, paid exactly once and then only read.
type Session struct {
	log log.Logger

	rentedNodes   []RentedNode
	rollbackNodes []RentedNode

	outcome *Outcome
}

// NewSession creates an unpaid session.
func NewSession() *Session {
	return &Session{log: log.New("module", "storagerent")}
}

// Pay charges the rent of every node the transaction touched and returns the
// gas left afterwards.
//
// Accesses are gathered from both views. Accesses that succeeded are charged
// once per node; accesses made by reverted calls are charged a rollback fee
// each, repeats included. Charges are computed against preTx. If the
// remaining gas covers the total, the new rent timestamps of the charged
// nodes (never of the rollback ones) are written to inTx.
func (s *Session) Pay(gasRemaining uint64, blockTimestamp int64, preTx, inTx View, txID common.Hash) (uint64, error) {
	if s.outcome != nil {
		return gasRemaining, ErrAlreadyPaid
	}

	accesses := gatherAccesses(txID, preTx, inTx)
	rollbacks := gatherRollbacks(txID, preTx, inTx)
	if len(accesses) == 0 && len(rollbacks) == 0 {
		return gasRemaining, fmt.Errorf("%w: transaction %s", ErrEmptyAccessSet, txID.Hex())
	}

	rented, err := resolveRented(preTx, accesses)
	if err != nil {
		return gasRemaining, err
	}
	rollbackNodes := make([]RentedNode, 0, len(rollbacks))
	for _, rec := range rollbacks {
		node, err := preTx.RentedNode(rec)
		if err != nil {
			return gasRemaining, fmt.Errorf("failed to resolve rollback access %s: %w", rec, err)
		}
		rollbackNodes = append(rollbackNodes, node)
	}
	s.rentedNodes = rented
	s.rollbackNodes = rollbackNodes

	payable, err := sumRent(rented, func(n RentedNode) (int64, error) { return n.PayableRent(blockTimestamp) })
	if err != nil {
		return gasRemaining, err
	}
	rollbackRent, err := sumRent(rollbackNodes, func(n RentedNode) (int64, error) { return n.RollbackFee(blockTimestamp) })
	if err != nil {
		return gasRemaining, err
	}
	total, overflow := math.SafeAdd(payable, rollbackRent)
	if overflow {
		return gasRemaining, fmt.Errorf("%w: payable %d + rollback %d", ErrRentOverflow, payable, rollbackRent)
	}

	if gasRemaining < total {
		s.log.Warn("Out of gas paying storage rent", "tx", txID, "remaining", gasRemaining, "needed", total)
		return gasRemaining, fmt.Errorf("%w: gasRemaining: %d, gasNeeded: %d", ErrOutOfGas, gasRemaining, total)
	}

	if err := inTx.UpdateRents(rented, blockTimestamp); err != nil {
		return gasRemaining, fmt.Errorf("failed to update rent timestamps: %w", err)
	}

	s.outcome = &Outcome{
		PayableRent:  payable,
		RollbackRent: rollbackRent,
		TotalRent:    total,
	}
	s.log.Debug("Paid storage rent", "tx", txID, "rented", len(rented), "rollbacks", len(rollbackNodes),
		"payable", payable, "rollback", rollbackRent, "total", total)

	return gasRemaining - total, nil
}

// Outcome returns what was paid, and false if pay has not succeeded.
func (s *Session) Outcome() (Outcome, bool) {
	if s.outcome == nil {
		return Outcome{}, false
	}
	return *s.outcome, true
}

// PaidRent returns the total rent paid.
func (s *Session) PaidRent() (uint64, error) {
	if s.outcome == nil {
		return 0, ErrPayNotYetCalled
	}
	return s.outcome.TotalRent, nil
}

// PayableRent returns the rent paid for nodes touched successfully.
func (s *Session) PayableRent() (uint64, error) {
	if s.outcome == nil {
		return 0, ErrPayNotYetCalled
	}
	return s.outcome.PayableRent, nil
}

// RollbacksRent returns the fees paid for rolled-back accesses.
func (s *Session) RollbacksRent() (uint64, error) {
	if s.outcome == nil {
		return 0, ErrPayNotYetCalled
	}
	return s.outcome.RollbackRent, nil
}

// RentedNodes returns the charged nodes, one per key, ordered by key.
func (s *Session) RentedNodes() []RentedNode {
	return append([]RentedNode(nil), s.rentedNodes...)
}

// RollbackNodes returns one node per rolled-back access.
func (s *Session) RollbackNodes() []RentedNode {
	return append([]RentedNode(nil), s.rollbackNodes...)
}

// gatherAccesses unions the accesses of both views, one per identity.
func gatherAccesses(txID common.Hash, views ...View) []tracking.AccessRecord {
	seen := make(map[tracking.Identity]struct{})
	var out []tracking.AccessRecord
	for _, v := range views {
		for _, rec := range v.StorageRentAccesses(txID) {
			if _, ok := seen[rec.ID()]; ok {
				continue
			}
			seen[rec.ID()] = struct{}{}
			out = append(out, rec)
		}
	}
	return out
}

// gatherRollbacks concatenates the eligible rollback accesses of both views.
func gatherRollbacks(txID common.Hash, views ...View) []tracking.AccessRecord {
	var out []tracking.AccessRecord
	for _, v := range views {
		for _, rec := range v.RollbackAccesses(txID) {
			if rec.UseForStorageRent(txID) {
				out = append(out, rec)
			}
		}
	}
	return out
}

// resolveRented resolves accesses to one successful node per key. When a key
// was accessed in several ways, the strongest operation is the one charged.
func resolveRented(view View, accesses []tracking.AccessRecord) ([]RentedNode, error) {
	byKey := make(map[string]RentedNode, len(accesses))
	for _, rec := range accesses {
		node, err := view.RentedNode(rec)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve access %s: %w", rec, err)
		}
		if !node.Successful() {
			continue
		}
		if prev, ok := byKey[node.KeyString()]; ok && prev.Operation().Rank() >= node.Operation().Rank() {
			continue
		}
		byKey[node.KeyString()] = node
	}

	out := make([]RentedNode, 0, len(byKey))
	for _, node := range byKey {
		out = append(out, node)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].KeyString() < out[j].KeyString() })
	return out, nil
}

func sumRent(nodes []RentedNode, rent func(RentedNode) (int64, error)) (uint64, error) {
	var total uint64
	for _, n := range nodes {
		r, err := rent(n)
		if err != nil {
			return 0, fmt.Errorf("failed to compute rent of %s: %w", n, err)
		}
		var overflow bool
		if total, overflow = math.SafeAdd(total, uint64(r)); overflow {
			return 0, fmt.Errorf("%w: summing rent of %d nodes", ErrRentOverflow, len(nodes))
		}
	}
	return total, nil
}
