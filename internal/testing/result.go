package testing

import (
	"github.com/LeJamon/goStorageRent/internal/core/executor"
	"github.com/LeJamon/goStorageRent/internal/core/storagerent"
)

// TxResult represents the result of applying a transaction.
type TxResult struct {
	// Success indicates whether the transaction succeeded.
	Success bool

	// Reason explains a failure.
	Reason string

	Receipt *executor.Receipt
	Session *storagerent.Session
}

// Rent is the rent a transaction is expected to have paid. The payable part
// is Paid less Rollback.
type Rent struct {
	Paid      uint64
	Rollback  uint64
	Rented    int
	Rollbacks int
}

func newTxResult(exec *executor.Execution) TxResult {
	return TxResult{
		Success: exec.Receipt.Successful(),
		Reason:  exec.Receipt.Reason,
		Receipt: exec.Receipt,
		Session: exec.Session,
	}
}
