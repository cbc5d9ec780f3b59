package state

import (
	"math/big"
	"testing"

	"github.com/LeJamon/goStorageRent/internal/core/storagerent"
	"github.com/LeJamon/goStorageRent/internal/core/tracking"
	"github.com/LeJamon/goStorageRent/internal/core/types/rentstamp"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice    = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	contract = common.HexToAddress("0x00000000000000000000000000000000c0ffee00")
	txHash   = common.HexToHash("0x7701")
	slotOne  = common.BigToHash(big.NewInt(1))
	slotTwo  = common.BigToHash(big.NewInt(2))
)

func TestKeys(t *testing.T) {
	acc := AccountKey(alice)
	require.Len(t, acc, AccountKeyLength)
	assert.Equal(t, byte(0x00), acc[0])

	code := CodeKey(alice)
	require.Len(t, code, CodeKeyLength)
	assert.Equal(t, acc, code[:AccountKeyLength])
	assert.True(t, IsCodeKey(code))

	storage := StorageKey(alice, slotOne)
	require.Len(t, storage, StorageKeyLength)
	assert.Equal(t, acc, storage[:AccountKeyLength])
	assert.False(t, IsCodeKey(storage))
	assert.False(t, IsCodeKey(acc))
}

func TestAccountEncoding(t *testing.T) {
	enc, err := EncodeAccount(NewAccount(nil))
	require.NoError(t, err)
	assert.Len(t, enc, 3)

	acc := Account{Nonce: 7, Balance: big.NewInt(1_000_000)}
	enc, err = EncodeAccount(acc)
	require.NoError(t, err)
	got, err := DecodeAccount(enc)
	require.NoError(t, err)
	assert.Equal(t, acc.Nonce, got.Nonce)
	assert.Zero(t, acc.Balance.Cmp(got.Balance))

	_, err = EncodeAccount(Account{Balance: big.NewInt(-1)})
	assert.ErrorIs(t, err, ErrInvalidAccount)
	_, err = DecodeAccount([]byte{0x01, 0x02})
	assert.ErrorIs(t, err, ErrInvalidAccount)
}

func genesis(t *testing.T) *Repository {
	t.Helper()
	root := NewRepository(nil)
	setup := root.StartTracking()
	require.NoError(t, setup.SetAccount(alice, NewAccount(big.NewInt(100))))
	require.NoError(t, setup.SetAccount(contract, NewAccount(nil)))
	require.NoError(t, setup.SetCode(contract, []byte{0xde, 0xad, 0xbe, 0xef}))
	require.NoError(t, setup.SetStorage(contract, slotOne, []byte{0x01}))
	require.NoError(t, setup.Commit())
	require.NoError(t, root.InitRentTimestamps(rentstamp.Paid(1000)))
	return NewRepository(root.Trie())
}

func TestRepositoryTracksAccesses(t *testing.T) {
	block := genesis(t)
	tx := block.StartTransaction(txHash)

	_, ok, err := tx.GetStorage(contract, slotOne)
	require.NoError(t, err)
	assert.True(t, ok)
	_, ok, err = tx.GetStorage(contract, slotTwo)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, tx.SetStorage(contract, slotOne, nil))
	require.NoError(t, tx.SetStorage(contract, slotTwo, nil))

	recs := tx.StorageRentAccesses(txHash)
	require.Len(t, recs, 4)
	assert.True(t, recs[0].Successful())
	assert.False(t, recs[1].Successful(), "reading an absent slot")
	assert.Equal(t, tracking.Delete, recs[2].Operation())
	assert.True(t, recs[2].Successful())
	assert.False(t, recs[3].Successful(), "clearing an absent slot")

	assert.Empty(t, tx.StorageRentAccesses(common.Hash{}))
	assert.Empty(t, block.StorageRentAccesses(txHash), "nothing reaches the block before commit")
}

func TestRepositoryCommitAndRollback(t *testing.T) {
	block := genesis(t)
	tx := block.StartTransaction(txHash)
	require.NoError(t, tx.IncrementNonce(alice))

	ok := tx.StartTracking()
	require.NoError(t, ok.SetStorage(contract, slotTwo, []byte{0x02}))
	require.NoError(t, ok.Commit())

	reverted := tx.StartTracking()
	_, _, err := reverted.GetCode(contract)
	require.NoError(t, err)
	require.NoError(t, reverted.SetStorage(contract, slotOne, []byte{0x09}))
	nested := reverted.StartTracking()
	_, _, err = nested.GetStorage(contract, slotOne)
	require.NoError(t, err)
	require.NoError(t, nested.Rollback())
	require.NoError(t, reverted.Rollback())

	value, found, err := tx.GetStorage(contract, slotTwo)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte{0x02}, value)
	value, _, err = tx.GetStorage(contract, slotOne)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, value, "rolled-back write is discarded")

	assert.Len(t, tx.RollbackAccesses(txHash), 3)
	assert.Equal(t, 3, tx.Journal().RollbackLen())

	assert.ErrorIs(t, reverted.Rollback(), ErrFrameClosed)
	assert.ErrorIs(t, reverted.Commit(), ErrFrameClosed)
	_, _, err = reverted.GetAccount(alice)
	assert.ErrorIs(t, err, ErrFrameClosed)
	assert.ErrorIs(t, block.Commit(), ErrRootFrame)

	require.NoError(t, tx.Commit())
	acc, found, err := block.GetAccount(alice)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, uint64(1), acc.Nonce)
	assert.Len(t, block.RollbackAccesses(txHash), 3)
}

func TestRepositoryTransfer(t *testing.T) {
	tx := genesis(t).StartTransaction(txHash)
	require.NoError(t, tx.Transfer(alice, contract, big.NewInt(40)))

	src, _, err := tx.GetAccount(alice)
	require.NoError(t, err)
	dst, _, err := tx.GetAccount(contract)
	require.NoError(t, err)
	assert.Zero(t, src.Balance.Cmp(big.NewInt(60)))
	assert.Zero(t, dst.Balance.Cmp(big.NewInt(40)))

	assert.ErrorIs(t, tx.Transfer(alice, contract, big.NewInt(61)), ErrInsufficientFunds)
	require.NoError(t, tx.Transfer(alice, contract, nil))
}

func TestRentedNodeResolution(t *testing.T) {
	block := genesis(t)
	tx := block.StartTransaction(txHash)
	_, _, err := tx.GetCode(contract)
	require.NoError(t, err)
	require.NoError(t, tx.SetStorage(contract, slotTwo, []byte{0x02}))

	recs := tx.StorageRentAccesses(txHash)
	require.Len(t, recs, 2)

	code, err := block.RentedNode(recs[0])
	require.NoError(t, err)
	assert.True(t, code.IsContractCode())
	assert.Equal(t, int64(4), code.Size())
	assert.Equal(t, rentstamp.Paid(1000), code.LastPaidTimestamp())
	assert.True(t, code.Successful())

	fresh, err := block.RentedNode(recs[1])
	require.NoError(t, err)
	assert.Zero(t, fresh.Size(), "slot two does not exist before the transaction")
	assert.Equal(t, rentstamp.Unset, fresh.LastPaidTimestamp())
	assert.Equal(t, tracking.Write, fresh.Operation())
}

func TestUpdateRents(t *testing.T) {
	block := genesis(t)
	tx := block.StartTransaction(txHash)
	_, _, err := tx.GetStorage(contract, slotOne)
	require.NoError(t, err)
	require.NoError(t, tx.SetStorage(contract, slotTwo, []byte{0x02}))

	session := storagerent.NewSession()
	const now = int64(1000 + 74875*30)
	left, err := session.Pay(1000, now, block, tx, txHash)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), left, "both nodes are under their threshold")

	ts, ok := tx.Trie().LastRentPaidTimestamp(StorageKey(contract, slotOne))
	require.True(t, ok)
	assert.Equal(t, rentstamp.Paid(1000), ts, "below threshold the clock does not move")

	ts, ok = tx.Trie().LastRentPaidTimestamp(StorageKey(contract, slotTwo))
	require.True(t, ok)
	assert.Equal(t, rentstamp.Paid(now), ts, "a new node starts paying now")

	ts, _ = block.Trie().LastRentPaidTimestamp(StorageKey(contract, slotOne))
	assert.Equal(t, rentstamp.Paid(1000), ts)
	require.NoError(t, tx.Trie().Invariants())
}
