package storagerent

import (
	"testing"

	"github.com/LeJamon/goStorageRent/internal/core/executor"
	"github.com/LeJamon/goStorageRent/internal/core/state"
	"github.com/LeJamon/goStorageRent/internal/core/types/rentstamp"
	rentTesting "github.com/LeJamon/goStorageRent/internal/testing"
	"github.com/LeJamon/goStorageRent/internal/testing/builders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	// A month and a bit of blocks: 15358 bytes of code owe 15001.
	monthAndABit = 67716
	// A month and a half of blocks: a 2207 byte slot owes 2501, a 4 byte
	// one 141.
	monthAndAHalf = 74875
)

// tokenEnv is a token contract holding alice's balance in slot 1.
func tokenEnv(t *testing.T) (*rentTesting.TestEnv, *rentTesting.Account, *rentTesting.Account, *rentTesting.Account) {
	t.Helper()
	env := rentTesting.NewTestEnv(t)
	alice := rentTesting.NewAccount("alice")
	bob := rentTesting.NewAccount("bob")
	token := rentTesting.NewAccount("token")

	env.Fund(alice, 1_000_000)
	env.DeploySize(token, 15358)
	env.SetStorage(token, 1, builders.Fill(32))
	env.Start()
	return env, alice, bob, token
}

func transfer(alice, token *rentTesting.Account) *builders.CallBuilder {
	return builders.Call(alice.Ref(), token.Ref()).
		Load(1).
		Store(1, builders.Fill(32)).
		Store(2, builders.Fill(32))
}

func TestStorageRent_ValueTransferNotEngaged(t *testing.T) {
	env, alice, bob, _ := tokenEnv(t)
	env.AdvanceBlocks(monthAndABit)

	result := env.Submit(builders.Pay(alice.Ref(), bob.Ref(), 1000).Build())
	rentTesting.RequireTxSuccess(t, result)
	rentTesting.RequireRentNotEngaged(t, result)
	rentTesting.RequireBalance(t, env, bob, 1000)
	assert.Equal(t, executor.IntrinsicGas, result.Receipt.GasUsed)
}

func TestStorageRent_TokenTransfer(t *testing.T) {
	env, alice, _, token := tokenEnv(t)
	genesis := env.Now().Unix()
	env.AdvanceBlocks(monthAndABit)
	now := env.Now().Unix()

	result := env.Submit(transfer(alice, token).Build())
	rentTesting.RequireTxSuccess(t, result)
	// Only the code is over its threshold.
	rentTesting.RequireRent(t, result, rentTesting.Rent{Paid: 15001, Rented: 5})
	assert.Equal(t, executor.IntrinsicGas+executor.LoadGas+2*executor.StoreGas+15001, result.Receipt.GasUsed)

	rentTesting.RequireRentTimestamp(t, env, state.CodeKey(token.Address), rentstamp.Paid(now))
	rentTesting.RequireRentTimestamp(t, env, state.StorageKey(token.Address, builders.Slot(1)), rentstamp.Paid(genesis))
	rentTesting.RequireRentTimestamp(t, env, state.StorageKey(token.Address, builders.Slot(2)), rentstamp.Paid(now))
	rentTesting.RequireRentTimestamp(t, env, state.AccountKey(alice.Address), rentstamp.Paid(genesis))
	require.NoError(t, env.Trie().Invariants())

	// The code has paid up; the same transfer right after owes nothing.
	result = env.Submit(transfer(alice, token).Build())
	rentTesting.RequireTxSuccess(t, result)
	rentTesting.RequireRent(t, result, rentTesting.Rent{Paid: 0, Rented: 5})
}

func TestStorageRent_TokenTransferOutOfGas(t *testing.T) {
	env, alice, _, token := tokenEnv(t)
	env.AdvanceBlocks(monthAndABit)

	gas := executor.IntrinsicGas + executor.LoadGas + 2*executor.StoreGas + 15000
	result := env.Submit(transfer(alice, token).GasLimit(gas).Build())
	rentTesting.RequireTxFail(t, result, "gasNeeded: 15001")
	assert.Equal(t, gas, result.Receipt.GasUsed)
	assert.Equal(t, 5, result.Receipt.RentedNodes)

	_, err := result.Session.PaidRent()
	require.Error(t, err)
	rentTesting.RequireNonce(t, env, alice, 1)
	assert.Nil(t, env.Storage(token, 2))
}

// dappEnv is a dapp contract calling into a library contract.
func dappEnv(t *testing.T) (*rentTesting.TestEnv, *rentTesting.Account, *rentTesting.Account, *rentTesting.Account) {
	t.Helper()
	env := rentTesting.NewTestEnv(t)
	alice := rentTesting.NewAccount("alice")
	dapp := rentTesting.NewAccount("dapp")
	lib := rentTesting.NewAccount("lib")

	env.Fund(alice, 1_000_000)
	env.DeploySize(dapp, 4)
	env.SetStorage(dapp, 1, builders.Fill(2207))
	for slot := uint64(2); slot <= 4; slot++ {
		env.SetStorage(dapp, slot, builders.Fill(4))
	}
	env.DeploySize(lib, 4)
	for slot := uint64(1); slot <= 6; slot++ {
		env.SetStorage(lib, slot, builders.Fill(4))
	}
	env.Start()
	return env, alice, dapp, lib
}

// libCall reads three slots, rewrites three and creates two.
func libCall(lib *rentTesting.Account) *builders.NestedBuilder {
	n := builders.To(lib.Ref()).Load(1).Load(2).Load(3)
	for slot := uint64(4); slot <= 8; slot++ {
		n.Store(slot, builders.Fill(4))
	}
	return n
}

func dappCall(alice, dapp *rentTesting.Account, inner *builders.NestedBuilder) *builders.CallBuilder {
	return builders.Call(alice.Ref(), dapp.Ref()).
		Load(1).
		Store(2, builders.Fill(4)).
		Store(3, builders.Fill(4)).
		Load(4).
		Store(5, builders.Fill(4)).
		Nested(inner)
}

func TestStorageRent_NestedCallFailureHandled(t *testing.T) {
	env, alice, dapp, lib := dappEnv(t)
	genesis := env.Now().Unix()
	env.AdvanceBlocks(monthAndAHalf)
	now := env.Now().Unix()

	result := env.Submit(dappCall(alice, dapp, libCall(lib).Revert()).Build())
	rentTesting.RequireTxSuccess(t, result)
	// 2501 for the large slot; 35 for each of the eight pre-existing values
	// the library touched, nothing for the two it created.
	rentTesting.RequireRent(t, result, rentTesting.Rent{Paid: 2781, Rollback: 280, Rented: 8, Rollbacks: 10})

	assert.Equal(t, builders.Fill(4), env.Storage(dapp, 5))
	assert.Nil(t, env.Storage(lib, 7))
	rentTesting.RequireRentTimestamp(t, env, state.StorageKey(dapp.Address, builders.Slot(1)), rentstamp.Paid(now))
	rentTesting.RequireRentTimestamp(t, env, state.StorageKey(lib.Address, builders.Slot(1)), rentstamp.Paid(genesis))
	require.NoError(t, env.Trie().Invariants())
}

func TestStorageRent_AllCallsSucceed(t *testing.T) {
	env, alice, dapp, lib := dappEnv(t)
	env.AdvanceBlocks(monthAndAHalf)

	result := env.Submit(dappCall(alice, dapp, libCall(lib)).Build())
	rentTesting.RequireTxSuccess(t, result)
	rentTesting.RequireRent(t, result, rentTesting.Rent{Paid: 2501, Rented: 18})
	assert.Equal(t, builders.Fill(4), env.Storage(lib, 8))
}

func TestStorageRent_TransactionFails(t *testing.T) {
	env, alice, dapp, lib := dappEnv(t)
	genesis := env.Now().Unix()
	env.AdvanceBlocks(monthAndAHalf)

	result := env.Submit(dappCall(alice, dapp, libCall(lib).Revert()).Revert().Build())
	rentTesting.RequireTxFail(t, result, "reverted")
	// Everything past the nonce, the dapp account and its code is rolled
	// back: the large slot is charged a quarter of 2501, three small ones 35.
	rentTesting.RequireRent(t, result, rentTesting.Rent{Paid: 1010, Rollback: 1010, Rented: 3, Rollbacks: 15})

	assert.Nil(t, env.Storage(dapp, 5))
	rentTesting.RequireRentTimestamp(t, env, state.StorageKey(dapp.Address, builders.Slot(1)), rentstamp.Paid(genesis))
	rentTesting.RequireNonce(t, env, alice, 1)
}

func TestStorageRent_NotYetActive(t *testing.T) {
	env := rentTesting.NewTestEnvWithConfig(t, executor.Config{StorageRentEnabled: true, StorageRentActivationBlock: 3})
	alice := rentTesting.NewAccount("alice")
	token := rentTesting.NewAccount("token")
	env.Fund(alice, 1_000_000)
	env.DeploySize(token, 15358)
	env.Start()
	env.AdvanceBlocks(monthAndABit)

	for block := 1; block <= 3; block++ {
		result := env.Submit(builders.Call(alice.Ref(), token.Ref()).Load(1).Build())
		rentTesting.RequireTxSuccess(t, result)
		if block < 3 {
			rentTesting.RequireRentNotEngaged(t, result)
			continue
		}
		rentTesting.RequireRent(t, result, rentTesting.Rent{Paid: 15001, Rented: 3})
	}
}
