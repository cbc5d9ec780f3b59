package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/LeJamon/goStorageRent/internal/storage/relationaldb"
	"github.com/LeJamon/goStorageRent/internal/storage/relationaldb/receipttest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLite(t *testing.T) {
	receipttest.Run(t, func(t *testing.T) relationaldb.ReceiptRepository {
		repo, err := relationaldb.Open(context.Background(),
			relationaldb.SQLiteConfig(filepath.Join(t.TempDir(), "receipts.db")))
		require.NoError(t, err)
		return repo
	})
}

func TestReopen(t *testing.T) {
	ctx := context.Background()
	config := relationaldb.SQLiteConfig(filepath.Join(t.TempDir(), "receipts.db"))

	repo, err := relationaldb.Open(ctx, config)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	// The schema is created only when missing.
	repo, err = relationaldb.Open(ctx, config)
	require.NoError(t, err)
	defer repo.Close()
	totals, err := repo.RentTotals(ctx, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, totals.Transactions)
}

func TestWithPragmas(t *testing.T) {
	assert.Equal(t, "r.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", withPragmas("r.db"))
	assert.Equal(t, "r.db?mode=ro", withPragmas("r.db?mode=ro"))
	assert.Equal(t, ":memory:", withPragmas(":memory:"))
}

func TestOpenUnregisteredDriver(t *testing.T) {
	_, err := relationaldb.Open(context.Background(), relationaldb.PostgresConfig("postgres://localhost/rent"))
	assert.ErrorIs(t, err, relationaldb.ErrInvalidDriver)
	assert.Contains(t, relationaldb.AvailableDrivers(), "sqlite")
}
