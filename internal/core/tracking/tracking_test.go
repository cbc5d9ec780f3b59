package tracking

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	txA = common.HexToHash("0xaa")
	txB = common.HexToHash("0xbb")
)

func record(t *testing.T, key string, op Operation, tx common.Hash, ok bool) AccessRecord {
	t.Helper()
	rec, err := NewAccessRecord([]byte(key), op, tx, ok)
	require.NoError(t, err)
	return rec
}

func TestNewAccessRecord(t *testing.T) {
	_, err := NewAccessRecord([]byte{0x01}, Write, txA, false)
	require.ErrorIs(t, err, ErrUnsuccessfulWrite)

	for _, op := range []Operation{Read, Delete} {
		rec, err := NewAccessRecord([]byte{0x01}, op, txA, false)
		require.NoError(t, err, op.String())
		assert.False(t, rec.Successful())
	}

	key := []byte{0x0a, 0x00}
	rec, err := NewAccessRecord(key, Write, txA, true)
	require.NoError(t, err)
	key[0] = 0xff
	assert.Equal(t, []byte{0x0a, 0x00}, rec.Key(), "record must not alias the caller's key")
}

func TestAccessRecordIdentity(t *testing.T) {
	a := record(t, "k", Read, txA, true)
	b := record(t, "k", Read, txA, false)
	assert.True(t, a.Equal(b), "success flag is not part of the identity")

	assert.False(t, a.Equal(record(t, "k", Write, txA, true)))
	assert.False(t, a.Equal(record(t, "k", Read, txB, true)))
	assert.False(t, a.Equal(record(t, "j", Read, txA, true)))
}

func TestUseForStorageRent(t *testing.T) {
	tests := []struct {
		name string
		rec  AccessRecord
		want bool
	}{
		{"successful read", record(t, "k", Read, txA, true), true},
		{"write", record(t, "k", Write, txA, true), true},
		{"failed read", record(t, "k", Read, txA, false), false},
		{"delete", record(t, "k", Delete, txA, true), false},
		{"other transaction", record(t, "k", Read, txB, true), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rec.UseForStorageRent(txA))
		})
	}
}

func TestJournalTrackDeduplicates(t *testing.T) {
	j := NewJournal()
	j.Track(record(t, "k1", Read, txA, false))
	j.Track(record(t, "k1", Read, txA, true))
	j.Track(record(t, "k1", Write, txA, true))
	j.Track(record(t, "k2", Read, txB, true))

	got := j.Tracked(txA)
	require.Len(t, got, 2)
	assert.False(t, got[0].Successful(), "first record of an identity wins")
	assert.Equal(t, Write, got[1].Operation())
	assert.Len(t, j.Tracked(txB), 1)
	assert.Equal(t, 3, j.Len())
}

func TestJournalRollbackKeepsRepeats(t *testing.T) {
	parent := NewJournal()

	inner := NewJournal()
	inner.Track(record(t, "k1", Read, txA, true))
	inner.Track(record(t, "k2", Delete, txA, true))

	outer := NewJournal()
	outer.Track(record(t, "k1", Read, txA, true))
	outer.Absorb(inner)
	parent.Absorb(outer)

	rollbacks := parent.Rollbacks(txA)
	require.Len(t, rollbacks, 2, "k1 twice, the delete is filtered")
	assert.Equal(t, "k1", rollbacks[0].KeyString())
	assert.Equal(t, "k1", rollbacks[1].KeyString())
	assert.Equal(t, 3, parent.RollbackLen())
	assert.Zero(t, parent.Len())
}

func TestJournalMerge(t *testing.T) {
	parent := NewJournal()
	parent.Track(record(t, "k1", Read, txA, true))

	child := NewJournal()
	child.Track(record(t, "k1", Read, txA, true))
	child.Track(record(t, "k2", Write, txA, true))

	grandchild := NewJournal()
	grandchild.Track(record(t, "k3", Read, txA, true))
	child.Absorb(grandchild)

	parent.Merge(child)
	assert.Len(t, parent.Tracked(txA), 2)
	assert.Len(t, parent.Rollbacks(txA), 1)
}

func TestOperationRank(t *testing.T) {
	assert.Greater(t, Write.Rank(), Delete.Rank())
	assert.Greater(t, Delete.Rank(), Read.Rank())
	assert.Equal(t, "unknown(9)", Operation(9).String())
}

func TestParseOperation(t *testing.T) {
	for _, op := range []Operation{Read, Write, Delete} {
		got, err := ParseOperation(op.String())
		require.NoError(t, err)
		assert.Equal(t, op, got)
	}
	_, err := ParseOperation("update")
	assert.Error(t, err)
}
