package tracking

import "github.com/ethereum/go-ethereum/common"

// Journal holds the accesses of one tracked repository frame.
//
// Accesses made by the frame itself form a set (one entry per identity, the
// first one recorded wins). Accesses made by child frames that were rolled
// back form a list and are never deduplicated: every rolled-back touch is
// kept, repeats included.
type Journal struct {
	tracked   map[Identity]AccessRecord
	order     []Identity
	rollbacks []AccessRecord
}

// NewJournal creates an empty journal.
func NewJournal() *Journal {
	return &Journal{
		tracked: make(map[Identity]AccessRecord),
	}
}

// Track adds an access made by this frame.
func (j *Journal) Track(rec AccessRecord) {
	id := rec.ID()
	if _, exists := j.tracked[id]; exists {
		return
	}
	j.tracked[id] = rec
	j.order = append(j.order, id)
}

// Tracked returns the frame's accesses for a transaction in recording order.
func (j *Journal) Tracked(txID common.Hash) []AccessRecord {
	out := make([]AccessRecord, 0, len(j.order))
	for _, id := range j.order {
		if id.TxID == txID {
			out = append(out, j.tracked[id])
		}
	}
	return out
}

// Rollbacks returns the rolled-back accesses of a transaction that are
// eligible for a rollback fee, in recording order.
func (j *Journal) Rollbacks(txID common.Hash) []AccessRecord {
	out := make([]AccessRecord, 0, len(j.rollbacks))
	for _, rec := range j.rollbacks {
		if rec.UseForStorageRent(txID) {
			out = append(out, rec)
		}
	}
	return out
}

// Len returns the number of distinct accesses tracked by this frame.
func (j *Journal) Len() int {
	return len(j.order)
}

// RollbackLen returns the number of rolled-back accesses held, of any transaction.
func (j *Journal) RollbackLen() int {
	return len(j.rollbacks)
}

// Merge folds a committed child frame into this one.
func (j *Journal) Merge(child *Journal) {
	for _, id := range child.order {
		j.Track(child.tracked[id])
	}
	j.rollbacks = append(j.rollbacks, child.rollbacks...)
}

// Absorb folds a rolled-back child frame into this one: everything the child
// touched becomes a rollback access of this frame.
func (j *Journal) Absorb(child *Journal) {
	for _, id := range child.order {
		j.rollbacks = append(j.rollbacks, child.tracked[id])
	}
	j.rollbacks = append(j.rollbacks, child.rollbacks...)
}
