// Package receipttest holds the behaviour every receipt database must share.
package receipttest

import (
	"context"
	"testing"

	"github.com/LeJamon/goStorageRent/internal/core/executor"
	"github.com/LeJamon/goStorageRent/internal/storage/relationaldb"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receipt(name string, block uint64) *executor.Receipt {
	return &executor.Receipt{
		TxHash:      crypto.Keccak256Hash([]byte(name)),
		BlockNumber: block,
		Status:      executor.StatusSuccessful,
		GasUsed:     21000,
	}
}

// Run runs the suite against repositories opened by open. Each call must
// return an empty database.
func Run(t *testing.T, open func(t *testing.T) relationaldb.ReceiptRepository) {
	t.Run("SaveAndGet", func(t *testing.T) { testSaveAndGet(t, open(t)) })
	t.Run("BlockReceipts", func(t *testing.T) { testBlockReceipts(t, open(t)) })
	t.Run("RentTotals", func(t *testing.T) { testRentTotals(t, open(t)) })
	t.Run("Closed", func(t *testing.T) { testClosed(t, open(t)) })
}

func testSaveAndGet(t *testing.T, repo relationaldb.ReceiptRepository) {
	defer repo.Close()
	ctx := context.Background()

	_, err := repo.Receipt(ctx, common.HexToHash("0x01"))
	assert.ErrorIs(t, err, relationaldb.ErrReceiptNotFound)

	transfer := receipt("transfer", 67717)
	transfer.GasUsed = 64716
	transfer.RentEngaged = true
	transfer.PayableRent = 15001
	transfer.PaidRent = 15001
	transfer.RentedNodes = 5

	failed := receipt("failed", 67717)
	failed.Status = executor.StatusFailed
	failed.Reason = "execution reverted"
	failed.RentEngaged = true
	failed.PayableRent = 0
	failed.RollbackRent = 1010
	failed.PaidRent = 1010
	failed.RentedNodes = 3
	failed.RollbackNodes = 15

	require.NoError(t, repo.SaveBlockReceipts(ctx, []*executor.Receipt{transfer, failed}))
	require.NoError(t, repo.SaveBlockReceipts(ctx, nil))

	got, err := repo.Receipt(ctx, transfer.TxHash)
	require.NoError(t, err)
	assert.Equal(t, transfer, got)

	got, err = repo.Receipt(ctx, failed.TxHash)
	require.NoError(t, err)
	assert.Equal(t, failed, got)
	assert.False(t, got.Successful())

	// Saving again replaces.
	updated := *failed
	updated.Reason = "out of gas"
	require.NoError(t, repo.SaveBlockReceipts(ctx, []*executor.Receipt{&updated}))
	got, err = repo.Receipt(ctx, failed.TxHash)
	require.NoError(t, err)
	assert.Equal(t, "out of gas", got.Reason)
}

func testBlockReceipts(t *testing.T, repo relationaldb.ReceiptRepository) {
	defer repo.Close()
	ctx := context.Background()

	block := []*executor.Receipt{receipt("c", 5), receipt("a", 5), receipt("b", 5)}
	require.NoError(t, repo.SaveBlockReceipts(ctx, block))
	require.NoError(t, repo.SaveBlockReceipts(ctx, []*executor.Receipt{receipt("d", 6)}))

	got, err := repo.BlockReceipts(ctx, 5)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := range block {
		assert.Equal(t, block[i].TxHash, got[i].TxHash)
	}

	got, err = repo.BlockReceipts(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func testRentTotals(t *testing.T, repo relationaldb.ReceiptRepository) {
	defer repo.Close()
	ctx := context.Background()

	totals, err := repo.RentTotals(ctx, 0, 100)
	require.NoError(t, err)
	assert.Equal(t, relationaldb.RentTotals{}, totals)

	a := receipt("a", 1)
	a.RentEngaged, a.PayableRent, a.PaidRent = true, 2501, 2781
	a.RollbackRent = 280
	b := receipt("b", 2)
	b.RentEngaged, b.Status, b.RollbackRent, b.PaidRent = true, executor.StatusFailed, 1010, 1010
	c := receipt("c", 3)
	require.NoError(t, repo.SaveBlockReceipts(ctx, []*executor.Receipt{a}))
	require.NoError(t, repo.SaveBlockReceipts(ctx, []*executor.Receipt{b}))
	require.NoError(t, repo.SaveBlockReceipts(ctx, []*executor.Receipt{c}))

	totals, err = repo.RentTotals(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, relationaldb.RentTotals{
		Transactions: 3,
		Engaged:      2,
		Failed:       1,
		Payable:      2501,
		Rollback:     1290,
		Paid:         3791,
	}, totals)

	totals, err = repo.RentTotals(ctx, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(1010), totals.Paid)

	totals, err = repo.RentTotals(ctx, 3, 1)
	require.NoError(t, err)
	assert.Zero(t, totals.Transactions)
}

func testClosed(t *testing.T, repo relationaldb.ReceiptRepository) {
	ctx := context.Background()
	require.NoError(t, repo.Ping(ctx))
	require.NoError(t, repo.Close())
	require.NoError(t, repo.Close())

	assert.ErrorIs(t, repo.Ping(ctx), relationaldb.ErrDatabaseClosed)
	assert.ErrorIs(t, repo.SaveBlockReceipts(ctx, []*executor.Receipt{receipt("x", 1)}), relationaldb.ErrDatabaseClosed)
	_, err := repo.Receipt(ctx, common.Hash{})
	assert.ErrorIs(t, err, relationaldb.ErrDatabaseClosed)
}
