package storagerent

import (
	"errors"
	"testing"

	"github.com/LeJamon/goStorageRent/internal/core/tracking"
	"github.com/LeJamon/goStorageRent/internal/core/types/rentstamp"
	"github.com/ethereum/go-ethereum/common"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTx = common.HexToHash("0x01")

func access(t *testing.T, key string, op tracking.Operation, ok bool) tracking.AccessRecord {
	t.Helper()
	rec, err := tracking.NewAccessRecord([]byte(key), op, testTx, ok)
	require.NoError(t, err)
	return rec
}

// resolver resolves records to nodes paid at genesis, sized by key.
func resolver(sizes map[string]int64) func(tracking.AccessRecord) (RentedNode, error) {
	return func(rec tracking.AccessRecord) (RentedNode, error) {
		return NewRentedNode(rec.Key(), rec.Operation(), sizes[rec.KeyString()], rentstamp.Paid(0), false, rec.Successful()), nil
	}
}

type views struct {
	pre, in *MockView
}

func newViews(t *testing.T, pre, in, preRollbacks, inRollbacks []tracking.AccessRecord, sizes map[string]int64) views {
	ctrl := gomock.NewController(t)
	v := views{pre: NewMockView(ctrl), in: NewMockView(ctrl)}
	v.pre.EXPECT().StorageRentAccesses(testTx).Return(pre).AnyTimes()
	v.pre.EXPECT().RollbackAccesses(testTx).Return(preRollbacks).AnyTimes()
	v.in.EXPECT().StorageRentAccesses(testTx).Return(in).AnyTimes()
	v.in.EXPECT().RollbackAccesses(testTx).Return(inRollbacks).AnyTimes()
	v.pre.EXPECT().RentedNode(gomock.Any()).DoAndReturn(resolver(sizes)).AnyTimes()
	return v
}

func TestSessionAccessorsBeforePay(t *testing.T) {
	s := NewSession()

	_, err := s.PaidRent()
	assert.ErrorIs(t, err, ErrPayNotYetCalled)
	_, err = s.PayableRent()
	assert.ErrorIs(t, err, ErrPayNotYetCalled)
	_, err = s.RollbacksRent()
	assert.ErrorIs(t, err, ErrPayNotYetCalled)
	_, ok := s.Outcome()
	assert.False(t, ok)
	assert.Empty(t, s.RentedNodes())
	assert.Empty(t, s.RollbackNodes())
}

func TestSessionPayWithoutAccesses(t *testing.T) {
	v := newViews(t, nil, nil, nil, nil, nil)

	s := NewSession()
	left, err := s.Pay(1000, monthAndAHalf, v.pre, v.in, testTx)
	require.ErrorIs(t, err, ErrEmptyAccessSet)
	assert.True(t, IsEngineFault(err))
	assert.Equal(t, uint64(1000), left)
}

func TestSessionPay(t *testing.T) {
	pre := []tracking.AccessRecord{
		access(t, "k1", tracking.Read, true),
	}
	in := []tracking.AccessRecord{
		access(t, "k1", tracking.Read, true),
		access(t, "k1", tracking.Write, true),
		access(t, "k2", tracking.Read, false),
		access(t, "k0", tracking.Read, true),
	}
	inRollbacks := []tracking.AccessRecord{
		access(t, "k3", tracking.Read, true),
		access(t, "k3", tracking.Read, true),
		access(t, "k4", tracking.Delete, true),
		access(t, "k5", tracking.Read, false),
	}
	sizes := map[string]int64{"k0": 4, "k1": 2207, "k2": 2207, "k3": 4, "k4": 4, "k5": 4}
	v := newViews(t, pre, in, nil, inRollbacks, sizes)

	var updated []RentedNode
	v.in.EXPECT().UpdateRents(gomock.Any(), monthAndAHalf).DoAndReturn(func(nodes []RentedNode, _ int64) error {
		updated = nodes
		return nil
	}).Times(1)

	s := NewSession()
	left, err := s.Pay(10_000, monthAndAHalf, v.pre, v.in, testTx)
	require.NoError(t, err)

	rented := s.RentedNodes()
	require.Len(t, rented, 2)
	assert.Equal(t, "k0", rented[0].KeyString())
	assert.Equal(t, "k1", rented[1].KeyString())
	assert.Equal(t, tracking.Write, rented[1].Operation(), "the write wins over the read")
	assert.Equal(t, rented, updated)

	rollbacks := s.RollbackNodes()
	require.Len(t, rollbacks, 2, "repeats are kept, deletes and failures are not")

	payable, err := s.PayableRent()
	require.NoError(t, err)
	assert.Equal(t, uint64(2501), payable)
	rollbackRent, err := s.RollbacksRent()
	require.NoError(t, err)
	assert.Equal(t, uint64(70), rollbackRent)
	paid, err := s.PaidRent()
	require.NoError(t, err)
	assert.Equal(t, uint64(2571), paid)
	assert.Equal(t, uint64(10_000-2571), left)

	out, ok := s.Outcome()
	require.True(t, ok)
	assert.Equal(t, Outcome{PayableRent: 2501, RollbackRent: 70, TotalRent: 2571}, out)

	_, err = s.Pay(10_000, monthAndAHalf, v.pre, v.in, testTx)
	assert.ErrorIs(t, err, ErrAlreadyPaid)
}

func TestSessionPayOnlyRollbacks(t *testing.T) {
	preRollbacks := []tracking.AccessRecord{access(t, "k3", tracking.Read, true)}
	v := newViews(t, nil, nil, preRollbacks, nil, map[string]int64{"k3": 4})
	v.in.EXPECT().UpdateRents(gomock.Len(0), monthAndAHalf).Return(nil).Times(1)

	s := NewSession()
	left, err := s.Pay(100, monthAndAHalf, v.pre, v.in, testTx)
	require.NoError(t, err)
	assert.Equal(t, uint64(65), left)
	assert.Empty(t, s.RentedNodes())
}

func TestSessionPayOutOfGas(t *testing.T) {
	in := []tracking.AccessRecord{access(t, "k1", tracking.Read, true)}
	v := newViews(t, nil, in, nil, nil, map[string]int64{"k1": 2207})
	v.in.EXPECT().UpdateRents(gomock.Any(), gomock.Any()).Times(0)

	s := NewSession()
	left, err := s.Pay(2500, monthAndAHalf, v.pre, v.in, testTx)
	require.ErrorIs(t, err, ErrOutOfGas)
	assert.False(t, IsEngineFault(err))
	assert.Contains(t, err.Error(), "gasRemaining: 2500, gasNeeded: 2501")
	assert.Equal(t, uint64(2500), left)

	_, err = s.PaidRent()
	assert.ErrorIs(t, err, ErrPayNotYetCalled)
	assert.Len(t, s.RentedNodes(), 1)
}

func TestSessionPayExactGas(t *testing.T) {
	in := []tracking.AccessRecord{access(t, "k1", tracking.Read, true)}
	v := newViews(t, nil, in, nil, nil, map[string]int64{"k1": 2207})
	v.in.EXPECT().UpdateRents(gomock.Len(1), monthAndAHalf).Return(nil)

	left, err := NewSession().Pay(2501, monthAndAHalf, v.pre, v.in, testTx)
	require.NoError(t, err)
	assert.Zero(t, left)
}

func TestSessionPayUpdateFailure(t *testing.T) {
	in := []tracking.AccessRecord{access(t, "k1", tracking.Write, true)}
	v := newViews(t, nil, in, nil, nil, map[string]int64{"k1": 10})
	boom := errors.New("boom")
	v.in.EXPECT().UpdateRents(gomock.Any(), gomock.Any()).Return(boom)

	s := NewSession()
	_, err := s.Pay(10_000, monthAndAHalf, v.pre, v.in, testTx)
	require.ErrorIs(t, err, boom)
	assert.True(t, IsEngineFault(err))
	_, ok := s.Outcome()
	assert.False(t, ok)
}

func TestSessionPayResolveFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	pre, inTx := NewMockView(ctrl), NewMockView(ctrl)
	pre.EXPECT().StorageRentAccesses(testTx).Return(nil)
	pre.EXPECT().RollbackAccesses(testTx).Return(nil)
	inTx.EXPECT().StorageRentAccesses(testTx).Return([]tracking.AccessRecord{access(t, "k1", tracking.Read, true)})
	inTx.EXPECT().RollbackAccesses(testTx).Return(nil)
	boom := errors.New("missing")
	pre.EXPECT().RentedNode(gomock.Any()).Return(RentedNode{}, boom)

	_, err := NewSession().Pay(10_000, monthAndAHalf, pre, inTx, testTx)
	require.ErrorIs(t, err, boom)
}
