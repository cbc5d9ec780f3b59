package builders

import (
	"math/big"

	"github.com/LeJamon/goStorageRent/internal/core/executor"
	"github.com/ethereum/go-ethereum/common"
)

// DefaultCallGas is the gas limit of a built contract call unless GasLimit
// is set.
const DefaultCallGas uint64 = 1_000_000

// Slot returns the storage slot numbered n.
func Slot(n uint64) common.Hash {
	return common.BigToHash(new(big.Int).SetUint64(n))
}

// Fill returns size non-zero bytes, used for values whose content does not
// matter.
func Fill(size int) []byte {
	b := make([]byte, size)
	for i := range b {
		b[i] = 0xaa
	}
	return b
}

// script is the op list shared by both builders.
type script []executor.Op

func (s *script) load(slot uint64) {
	*s = append(*s, executor.Op{Kind: executor.OpLoad, Slot: Slot(slot)})
}

func (s *script) store(slot uint64, value []byte) {
	*s = append(*s, executor.Op{Kind: executor.OpStore, Slot: Slot(slot), Value: value})
}

func (s *script) clear(slot uint64) {
	*s = append(*s, executor.Op{Kind: executor.OpClear, Slot: Slot(slot)})
}

func (s *script) call(n *NestedBuilder, bubble bool) {
	*s = append(*s, executor.Op{Kind: executor.OpCall, Call: n.Build(), BubbleRevert: bubble})
}

// CallBuilder provides a fluent interface for building transactions.
type CallBuilder struct {
	from     *Account
	to       *Account
	value    *big.Int
	gasLimit uint64
	nonce    *uint64
	revert   bool
	ops      script
}

// Pay creates a value transfer. It carries the intrinsic gas only.
func Pay(from, to *Account, amount int64) *CallBuilder {
	return &CallBuilder{
		from:     from,
		to:       to,
		value:    big.NewInt(amount),
		gasLimit: executor.IntrinsicGas,
	}
}

// Call creates a contract call with no ops.
func Call(from, to *Account) *CallBuilder {
	return &CallBuilder{
		from:     from,
		to:       to,
		gasLimit: DefaultCallGas,
	}
}

// Value sets the value sent with the call.
func (b *CallBuilder) Value(amount int64) *CallBuilder {
	b.value = big.NewInt(amount)
	return b
}

// GasLimit sets the gas limit.
func (b *CallBuilder) GasLimit(gas uint64) *CallBuilder {
	b.gasLimit = gas
	return b
}

// Nonce sets the nonce instead of taking the sender's next one.
func (b *CallBuilder) Nonce(n uint64) *CallBuilder {
	b.nonce = &n
	return b
}

// Revert makes the call revert after its ops ran.
func (b *CallBuilder) Revert() *CallBuilder {
	b.revert = true
	return b
}

// Load reads a storage slot of the callee.
func (b *CallBuilder) Load(slot uint64) *CallBuilder {
	b.ops.load(slot)
	return b
}

// Store writes a storage slot of the callee.
func (b *CallBuilder) Store(slot uint64, value []byte) *CallBuilder {
	b.ops.store(slot, value)
	return b
}

// Clear deletes a storage slot of the callee.
func (b *CallBuilder) Clear(slot uint64) *CallBuilder {
	b.ops.clear(slot)
	return b
}

// Nested makes a nested call whose revert the caller handles.
func (b *CallBuilder) Nested(n *NestedBuilder) *CallBuilder {
	b.ops.call(n, false)
	return b
}

// NestedBubble makes a nested call whose revert reverts the caller.
func (b *CallBuilder) NestedBubble(n *NestedBuilder) *CallBuilder {
	b.ops.call(n, true)
	return b
}

// Build constructs the transaction.
func (b *CallBuilder) Build() *executor.Transaction {
	tx := &executor.Transaction{
		From:     b.from.Address,
		To:       b.to.Address,
		Value:    b.value,
		GasLimit: b.gasLimit,
		Ops:      append([]executor.Op(nil), b.ops...),
		Revert:   b.revert,
	}
	if b.nonce != nil {
		tx.Nonce = *b.nonce
	} else {
		tx.Nonce = b.from.NextNonce()
	}
	return tx
}

// NestedBuilder provides a fluent interface for building nested calls.
type NestedBuilder struct {
	to     *Account
	value  *big.Int
	revert bool
	ops    script
}

// To creates a nested call to the given contract.
func To(to *Account) *NestedBuilder {
	return &NestedBuilder{to: to}
}

// Value sets the value sent with the nested call.
func (n *NestedBuilder) Value(amount int64) *NestedBuilder {
	n.value = big.NewInt(amount)
	return n
}

// Revert makes the nested call revert after its ops ran.
func (n *NestedBuilder) Revert() *NestedBuilder {
	n.revert = true
	return n
}

// Load reads a storage slot of the nested callee.
func (n *NestedBuilder) Load(slot uint64) *NestedBuilder {
	n.ops.load(slot)
	return n
}

// Store writes a storage slot of the nested callee.
func (n *NestedBuilder) Store(slot uint64, value []byte) *NestedBuilder {
	n.ops.store(slot, value)
	return n
}

// Clear deletes a storage slot of the nested callee.
func (n *NestedBuilder) Clear(slot uint64) *NestedBuilder {
	n.ops.clear(slot)
	return n
}

// Nested makes a further nested call whose revert this call handles.
func (n *NestedBuilder) Nested(inner *NestedBuilder) *NestedBuilder {
	n.ops.call(inner, false)
	return n
}

// Build constructs the nested call.
func (n *NestedBuilder) Build() *executor.Call {
	return &executor.Call{
		To:     n.to.Address,
		Value:  n.value,
		Ops:    append([]executor.Op(nil), n.ops...),
		Revert: n.revert,
	}
}
