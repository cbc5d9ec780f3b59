package testing

import (
	"math/big"
	"testing"

	"github.com/LeJamon/goStorageRent/internal/core/storagerent"
	"github.com/LeJamon/goStorageRent/internal/core/types/rentstamp"
	"github.com/stretchr/testify/require"
)

// RequireBalance asserts that an account has the expected balance.
func RequireBalance(t *testing.T, env *TestEnv, acc *Account, expected int64) {
	t.Helper()
	actual := env.Balance(acc)
	require.Zero(t, actual.Cmp(big.NewInt(expected)),
		"Account %s balance mismatch: expected %d, got %s", acc.Name, expected, actual)
}

// RequireNonce asserts that an account has the expected nonce.
func RequireNonce(t *testing.T, env *TestEnv, acc *Account, expected uint64) {
	t.Helper()
	require.Equal(t, expected, env.Nonce(acc), "Account %s nonce mismatch", acc.Name)
}

// RequireTxSuccess asserts that a transaction succeeded.
func RequireTxSuccess(t *testing.T, result TxResult) {
	t.Helper()
	require.True(t, result.Success, "Expected transaction success, got failure: %s", result.Reason)
}

// RequireTxFail asserts that a transaction failed for the given reason.
// An empty reason matches any failure.
func RequireTxFail(t *testing.T, result TxResult, reason string) {
	t.Helper()
	require.False(t, result.Success, "Expected transaction failure, but transaction succeeded")
	if reason != "" {
		require.Contains(t, result.Reason, reason)
	}
}

// RequireRentNotEngaged asserts that the transaction never paid rent.
func RequireRentNotEngaged(t *testing.T, result TxResult) {
	t.Helper()
	require.False(t, result.Receipt.RentEngaged, "Expected rent not to be engaged")
	_, err := result.Session.PaidRent()
	require.ErrorIs(t, err, storagerent.ErrPayNotYetCalled)
}

// RequireRent asserts the rent a transaction paid and how many nodes it
// paid for.
func RequireRent(t *testing.T, result TxResult, expected Rent) {
	t.Helper()
	require.True(t, result.Receipt.RentEngaged, "Expected rent to be engaged")

	paid, err := result.Session.PaidRent()
	require.NoError(t, err)
	payable, err := result.Session.PayableRent()
	require.NoError(t, err)
	rollbacks, err := result.Session.RollbacksRent()
	require.NoError(t, err)

	require.Equal(t, expected.Paid, paid, "paid rent")
	require.Equal(t, expected.Rollback, rollbacks, "rollback rent")
	require.Equal(t, expected.Paid-expected.Rollback, payable, "payable rent")
	require.Len(t, result.Session.RentedNodes(), expected.Rented, "rented nodes")
	require.Len(t, result.Session.RollbackNodes(), expected.Rollbacks, "rollback nodes")

	require.Equal(t, paid, result.Receipt.PaidRent)
	require.Equal(t, expected.Rented, result.Receipt.RentedNodes)
	require.Equal(t, expected.Rollbacks, result.Receipt.RollbackNodes)
}

// RequireRentTimestamp asserts when the value under key last paid rent.
func RequireRentTimestamp(t *testing.T, env *TestEnv, key []byte, expected rentstamp.Timestamp) {
	t.Helper()
	require.Equal(t, expected, env.RentTimestamp(key), "rent timestamp of %x", key)
}
