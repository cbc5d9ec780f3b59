package state

import (
	"fmt"

	"github.com/LeJamon/goStorageRent/internal/core/storagerent"
	"github.com/LeJamon/goStorageRent/internal/core/tracking"
	"github.com/LeJamon/goStorageRent/internal/core/trie"
	"github.com/LeJamon/goStorageRent/internal/core/types/rentstamp"
	"github.com/ethereum/go-ethereum/common"
)

var _ storagerent.View = (*Repository)(nil)

// StorageRentAccesses returns the accesses txID made through this frame and
// the committed frames below it.
func (r *Repository) StorageRentAccesses(txID common.Hash) []tracking.AccessRecord {
	return r.journal.Tracked(txID)
}

// RollbackAccesses returns the accesses txID made through rolled-back frames
// below this one that are eligible for a rollback fee.
func (r *Repository) RollbackAccesses(txID common.Hash) []tracking.AccessRecord {
	return r.journal.Rollbacks(txID)
}

// RentedNode resolves rec against this frame's trie. A key the trie does not
// hold resolves to an empty node that never paid rent.
func (r *Repository) RentedNode(rec tracking.AccessRecord) (storagerent.RentedNode, error) {
	key := rec.Key()
	size, lastPaid := int64(0), rentstamp.Unset
	if n, ok := r.trie.Find(key); ok {
		size, lastPaid = n.Size(), n.LastRentPaidTimestamp()
	}
	return storagerent.NewRentedNode(key, rec.Operation(), size, lastPaid, IsCodeKey(key), rec.Successful()), nil
}

// UpdateRents writes the new rent timestamp of every node into this frame's trie.
func (r *Repository) UpdateRents(nodes []storagerent.RentedNode, blockTimestamp int64) error {
	if r.closed {
		return ErrFrameClosed
	}
	tr := r.trie
	for _, n := range nodes {
		ts, err := n.NewTimestamp(blockTimestamp)
		if err != nil {
			return fmt.Errorf("new rent timestamp of %s: %w", n, err)
		}
		tr = tr.UpdateLastRentPaidTimestamp(n.Key(), ts)
	}
	r.trie = tr
	return nil
}

// InitRentTimestamps stamps every value in the frame that never paid rent
// with ts. It is used when building genesis state.
func (r *Repository) InitRentTimestamps(ts rentstamp.Timestamp) error {
	if r.closed {
		return ErrFrameClosed
	}
	tr := r.trie
	err := r.trie.Walk(func(n trie.NodeView) error {
		if !n.LastRentPaidTimestamp().IsSet() {
			tr = tr.UpdateLastRentPaidTimestamp(n.Key(), ts)
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.trie = tr
	return nil
}
