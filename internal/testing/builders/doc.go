// Package builders provides fluent transaction builders for tests.
//
// A contract call is described by the storage operations and nested calls
// its execution performs:
//
//	// Value transfer
//	Pay(alice, bob, 250).Build()
//
//	// Token transfer: read the sender's balance, update both balances
//	Call(alice, token).
//	    Load(1).
//	    Store(1, []byte{0x09}).
//	    Store(2, []byte{0x01}).
//	    Build()
//
//	// Nested call that reverts and is handled by the caller
//	Call(alice, dapp).
//	    Load(1).
//	    Nested(To(lib).Store(7, []byte{0x01}).Revert()).
//	    GasLimit(500_000).
//	    Build()
package builders
