package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/LeJamon/goStorageRent/internal/storage/relationaldb"
	"github.com/LeJamon/goStorageRent/internal/storage/relationaldb/receipttest"
	"github.com/stretchr/testify/require"
)

// TestPostgres runs against the database named by RENTD_TEST_POSTGRES_DSN.
func TestPostgres(t *testing.T) {
	dsn := os.Getenv("RENTD_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("RENTD_TEST_POSTGRES_DSN not set")
	}
	receipttest.Run(t, func(t *testing.T) relationaldb.ReceiptRepository {
		ctx := context.Background()
		repo, err := relationaldb.Open(ctx, relationaldb.PostgresConfig(dsn))
		require.NoError(t, err)
		require.NoError(t, repo.Truncate(ctx))
		return repo
	})
}
