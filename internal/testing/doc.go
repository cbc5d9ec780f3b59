// Package testing provides test infrastructure for storage rent tests.
//
// # Overview
//
// The testing package provides:
//   - TestEnv: a chain of blocks over named accounts, driven by a ManualClock
//   - Account: deterministic test accounts, addressed by name
//   - Assertions: helpers checking receipts and the rent a transaction paid
//
// Transactions are built with the builders package.
//
// # Basic Usage
//
//	func TestTokenTransfer(t *testing.T) {
//	    env := testing.NewTestEnv(t)
//
//	    alice := testing.NewAccount("alice")
//	    token := testing.NewAccount("token")
//
//	    env.Fund(alice, 1_000_000)
//	    env.DeploySize(token, 15358)
//	    env.Start()
//
//	    env.AdvanceBlocks(67716)
//	    result := env.Submit(builders.Call(alice.Ref(), token.Ref()).Load(1).Build())
//	    testing.RequireTxSuccess(t, result)
//	    testing.RequireRent(t, result, testing.Rent{Paid: 15001, Rented: 5})
//	}
//
// # TestEnv
//
// Accounts, code and storage are set up before Start, which builds genesis
// at the clock's time with every value having paid rent up to then. Each
// Submit or Close applies one block at the clock's current time.
//
//	env.AdvanceBlocks(10)               // ten block intervals
//	env.AdvanceTime(24 * time.Hour)     // any duration
//	env.Close(tx1, tx2)                 // one block, two transactions
//
// # Clock Control
//
// The test environment uses a ManualClock that can be controlled:
//
//	env.AdvanceTime(10 * time.Second)
//	env.SetTime(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
//	env.Now()  // Current test time
package testing
