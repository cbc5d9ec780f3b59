package executor

import (
	"math/big"
	"testing"

	"github.com/LeJamon/goStorageRent/internal/core/state"
	"github.com/LeJamon/goStorageRent/internal/core/storagerent"
	"github.com/LeJamon/goStorageRent/internal/core/trie"
	"github.com/LeJamon/goStorageRent/internal/core/types/rentstamp"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	genesisTime = int64(1_600_000_000)
	halfYear    = int64(74875 * 30)
)

var (
	sender  = common.HexToAddress("0x1000000000000000000000000000000000000001")
	friend  = common.HexToAddress("0x1000000000000000000000000000000000000002")
	counter = common.HexToAddress("0xc000000000000000000000000000000000000001")
	callee  = common.HexToAddress("0xc000000000000000000000000000000000000002")

	slotA = common.BigToHash(big.NewInt(1))
	slotB = common.BigToHash(big.NewInt(2))
	slotC = common.BigToHash(big.NewInt(3))
)

// world returns genesis state: a funded sender and two small contracts,
// every value stamped at genesisTime.
func world(t *testing.T) *trie.Trie {
	t.Helper()
	root := state.NewRepository(nil)
	setup := root.StartTracking()
	require.NoError(t, setup.SetAccount(sender, state.NewAccount(big.NewInt(1_000_000))))
	for _, c := range []common.Address{counter, callee} {
		require.NoError(t, setup.SetAccount(c, state.NewAccount(nil)))
		require.NoError(t, setup.SetCode(c, []byte{0x60, 0x00, 0x60, 0x00}))
		require.NoError(t, setup.SetStorage(c, slotA, []byte{0x01}))
	}
	require.NoError(t, setup.SetStorage(counter, slotB, make([]byte, 2207)))
	require.NoError(t, setup.Commit())
	require.NoError(t, root.InitRentTimestamps(rentstamp.Paid(genesisTime)))
	return root.Trie()
}

func block(number uint64, txs ...*Transaction) *Block {
	return &Block{Number: number, Timestamp: genesisTime + halfYear, Transactions: txs}
}

func apply(t *testing.T, p *Processor, st *trie.Trie, b *Block) (*trie.Trie, *Execution) {
	t.Helper()
	res, err := p.ProcessBlock(st, b)
	require.NoError(t, err)
	require.Len(t, res.Executions, 1)
	return res.Trie, res.Executions[0]
}

func storage(t *testing.T, st *trie.Trie, addr common.Address, slot common.Hash) []byte {
	t.Helper()
	v, _ := st.Get(state.StorageKey(addr, slot))
	return v
}

func TestValueTransferDoesNotEngageRent(t *testing.T) {
	p := NewProcessor(DefaultConfig())
	tx := &Transaction{From: sender, To: friend, Value: big.NewInt(250), GasLimit: IntrinsicGas}

	st, exec := apply(t, p, world(t), block(1, tx))
	assert.True(t, exec.Receipt.Successful())
	assert.False(t, exec.Receipt.RentEngaged)
	assert.Equal(t, IntrinsicGas, exec.Receipt.GasUsed)

	_, err := exec.Session.PaidRent()
	assert.ErrorIs(t, err, storagerent.ErrPayNotYetCalled)

	raw, ok := st.Get(state.AccountKey(friend))
	require.True(t, ok)
	acc, err := state.DecodeAccount(raw)
	require.NoError(t, err)
	assert.Zero(t, acc.Balance.Cmp(big.NewInt(250)))
}

func TestRentActivation(t *testing.T) {
	tx := &Transaction{From: sender, To: counter, GasLimit: 100_000, Ops: []Op{{Kind: OpLoad, Slot: slotA}}}

	disabled := NewProcessor(Config{StorageRentEnabled: false})
	_, exec := apply(t, disabled, world(t), block(1, tx))
	assert.False(t, exec.Receipt.RentEngaged)

	later := NewProcessor(Config{StorageRentEnabled: true, StorageRentActivationBlock: 10})
	_, exec = apply(t, later, world(t), block(9, tx))
	assert.False(t, exec.Receipt.RentEngaged)
	_, exec = apply(t, later, world(t), block(10, tx))
	assert.True(t, exec.Receipt.RentEngaged)
}

func TestContractCallPaysRent(t *testing.T) {
	p := NewProcessor(DefaultConfig())
	tx := &Transaction{From: sender, To: counter, GasLimit: 100_000, Ops: []Op{
		{Kind: OpLoad, Slot: slotB},
		{Kind: OpStore, Slot: slotA, Value: []byte{0x02}},
	}}

	st, exec := apply(t, p, world(t), block(1, tx))
	r := exec.Receipt
	require.True(t, r.Successful(), r.Reason)
	assert.True(t, r.RentEngaged)
	assert.Equal(t, uint64(2501), r.PaidRent)
	assert.Equal(t, 5, r.RentedNodes, "sender, account, code, two slots")
	assert.Equal(t, IntrinsicGas+LoadGas+StoreGas+2501, r.GasUsed)
	assert.Equal(t, []byte{0x02}, storage(t, st, counter, slotA))

	ts, _ := st.LastRentPaidTimestamp(state.StorageKey(counter, slotB))
	assert.Equal(t, rentstamp.Paid(genesisTime+halfYear), ts)
	ts, _ = st.LastRentPaidTimestamp(state.StorageKey(counter, slotA))
	assert.Equal(t, rentstamp.Paid(genesisTime), ts, "below threshold the clock does not move")
	require.NoError(t, st.Invariants())
}

func TestRevertedTransactionStillPaysRent(t *testing.T) {
	p := NewProcessor(DefaultConfig())
	tx := &Transaction{From: sender, To: counter, GasLimit: 100_000, Revert: true, Ops: []Op{
		{Kind: OpLoad, Slot: slotB},
		{Kind: OpStore, Slot: slotA, Value: []byte{0x02}},
	}}

	st, exec := apply(t, p, world(t), block(1, tx))
	r := exec.Receipt
	assert.False(t, r.Successful())
	assert.Equal(t, 3, r.RentedNodes, "sender, account, code")
	assert.Equal(t, 2, r.RollbackNodes)
	assert.Equal(t, uint64(625+34), r.RollbackRent)
	assert.Equal(t, []byte{0x01}, storage(t, st, counter, slotA))

	ts, _ := st.LastRentPaidTimestamp(state.StorageKey(counter, slotB))
	assert.Equal(t, rentstamp.Paid(genesisTime), ts, "rolled-back nodes keep their clock")

	raw, _ := st.Get(state.AccountKey(sender))
	acc, err := state.DecodeAccount(raw)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), acc.Nonce)
}

func TestNestedCallRevert(t *testing.T) {
	inner := &Call{To: callee, Revert: true, Ops: []Op{{Kind: OpStore, Slot: slotA, Value: []byte{0x09}}}}

	t.Run("handled", func(t *testing.T) {
		tx := &Transaction{From: sender, To: counter, GasLimit: 200_000, Ops: []Op{
			{Kind: OpStore, Slot: slotC, Value: []byte{0x03}},
			{Kind: OpCall, Call: inner},
		}}
		st, exec := apply(t, NewProcessor(DefaultConfig()), world(t), block(1, tx))
		require.True(t, exec.Receipt.Successful(), exec.Receipt.Reason)
		assert.Equal(t, []byte{0x03}, storage(t, st, counter, slotC))
		assert.Equal(t, []byte{0x01}, storage(t, st, callee, slotA))
		assert.Equal(t, 3, exec.Receipt.RollbackNodes, "callee account, code and slot")
	})

	t.Run("bubbled", func(t *testing.T) {
		tx := &Transaction{From: sender, To: counter, GasLimit: 200_000, Ops: []Op{
			{Kind: OpStore, Slot: slotC, Value: []byte{0x03}},
			{Kind: OpCall, Call: inner, BubbleRevert: true},
			{Kind: OpStore, Slot: slotA, Value: []byte{0x07}},
		}}
		st, exec := apply(t, NewProcessor(DefaultConfig()), world(t), block(1, tx))
		assert.False(t, exec.Receipt.Successful())
		assert.Nil(t, storage(t, st, counter, slotC))
		assert.Equal(t, []byte{0x01}, storage(t, st, counter, slotA))
	})
}

func TestExecutionOutOfGas(t *testing.T) {
	tx := &Transaction{From: sender, To: counter, GasLimit: IntrinsicGas + StoreGas - 1, Ops: []Op{
		{Kind: OpStore, Slot: slotA, Value: []byte{0x02}},
	}}
	st, exec := apply(t, NewProcessor(DefaultConfig()), world(t), block(1, tx))
	assert.False(t, exec.Receipt.Successful())
	assert.Contains(t, exec.Receipt.Reason, ErrOutOfGas.Error())
	assert.Equal(t, tx.GasLimit, exec.Receipt.GasUsed)
	assert.Equal(t, []byte{0x01}, storage(t, st, counter, slotA))
}

func TestRentOutOfGas(t *testing.T) {
	tx := &Transaction{From: sender, To: counter, GasLimit: IntrinsicGas + LoadGas + 2500, Ops: []Op{
		{Kind: OpLoad, Slot: slotB},
	}}
	original := world(t)
	st, exec := apply(t, NewProcessor(DefaultConfig()), original, block(1, tx))

	r := exec.Receipt
	assert.False(t, r.Successful())
	assert.Contains(t, r.Reason, "gasNeeded: 2501")
	assert.Equal(t, tx.GasLimit, r.GasUsed)
	assert.Zero(t, r.PaidRent)
	assert.Equal(t, 4, r.RentedNodes)

	_, err := exec.Session.PaidRent()
	assert.ErrorIs(t, err, storagerent.ErrPayNotYetCalled)

	ts, _ := st.LastRentPaidTimestamp(state.StorageKey(counter, slotB))
	assert.Equal(t, rentstamp.Paid(genesisTime), ts)

	raw, _ := st.Get(state.AccountKey(sender))
	acc, err := state.DecodeAccount(raw)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), acc.Nonce, "the nonce is consumed anyway")
}

func TestInvalidTransactions(t *testing.T) {
	p := NewProcessor(DefaultConfig())

	_, err := p.ProcessBlock(world(t), block(1, &Transaction{From: sender, To: friend, GasLimit: IntrinsicGas - 1}))
	assert.ErrorIs(t, err, ErrIntrinsicGas)

	_, err = p.ProcessBlock(world(t), block(1, &Transaction{From: sender, To: friend, GasLimit: IntrinsicGas, Value: big.NewInt(-1)}))
	assert.ErrorIs(t, err, ErrNegativeValue)

	b := block(1,
		&Transaction{From: sender, To: friend, GasLimit: IntrinsicGas},
		&Transaction{From: sender, To: friend, Nonce: 1, GasLimit: IntrinsicGas},
	)
	b.GasLimit = IntrinsicGas + 1
	_, err = p.ProcessBlock(world(t), b)
	assert.ErrorIs(t, err, ErrBlockGasLimit)

	bad := &Transaction{From: sender, To: counter, GasLimit: 100_000, Ops: []Op{{Kind: OpCall}}}
	_, err = p.ProcessBlock(world(t), block(1, bad))
	assert.ErrorIs(t, err, ErrMissingCallInfo)
}

func TestInsufficientFundsFailsTransaction(t *testing.T) {
	tx := &Transaction{From: friend, To: sender, Value: big.NewInt(1), GasLimit: IntrinsicGas}
	_, exec := apply(t, NewProcessor(DefaultConfig()), world(t), block(1, tx))
	assert.False(t, exec.Receipt.Successful())
	assert.Contains(t, exec.Receipt.Reason, "insufficient balance")
}
