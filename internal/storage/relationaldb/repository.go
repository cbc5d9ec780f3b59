package relationaldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/LeJamon/goStorageRent/internal/core/executor"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
)

const receiptColumns = `tx_hash, block_number, tx_index, status, gas_used, reason,
	rent_engaged, payable_rent, rollback_rent, paid_rent, rented_nodes, rollback_nodes`

// Repository is a ReceiptRepository over database/sql.
type Repository struct {
	db      *sql.DB
	dialect Dialect
	log     log.Logger
}

var _ ReceiptRepository = (*Repository)(nil)

// Open connects to the configured database and creates the schema.
func Open(ctx context.Context, config *Config) (*Repository, error) {
	config = config.Clone()
	if err := config.Validate(); err != nil {
		return nil, NewConfigurationError("open", "invalid configuration", err)
	}
	dialect, ok := lookupDialect(config.Driver)
	if !ok {
		return nil, NewConfigurationError("open",
			fmt.Sprintf("driver %q not registered, available: %v", config.Driver, AvailableDrivers()), ErrInvalidDriver)
	}

	dsn := config.DSN
	if dialect.DSN != nil {
		dsn = dialect.DSN(dsn)
	}
	sqlDB, err := sql.Open(dialect.DriverName, dsn)
	if err != nil {
		return nil, NewConnectionError("open", "failed to open database connection", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(ctx, config.DefaultTimeout)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, NewConnectionError("open", "failed to ping database", err)
	}

	r := &Repository{
		db:      sqlDB,
		dialect: dialect,
		log:     log.New("module", "relationaldb", "driver", config.Driver),
	}
	if err := r.initSchema(ctx); err != nil {
		sqlDB.Close()
		return nil, NewSchemaError("open", "failed to initialize schema", err)
	}
	r.log.Debug("Opened receipt database", "config", config)
	return r, nil
}

func (r *Repository) initSchema(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS receipts (
			tx_hash        %s PRIMARY KEY,
			block_number   BIGINT NOT NULL,
			tx_index       INTEGER NOT NULL,
			status         SMALLINT NOT NULL,
			gas_used       BIGINT NOT NULL,
			reason         TEXT NOT NULL,
			rent_engaged   BOOLEAN NOT NULL,
			payable_rent   BIGINT NOT NULL,
			rollback_rent  BIGINT NOT NULL,
			paid_rent      BIGINT NOT NULL,
			rented_nodes   INTEGER NOT NULL,
			rollback_nodes INTEGER NOT NULL
		)`, r.dialect.BlobType),
		`CREATE INDEX IF NOT EXISTS receipts_block_idx ON receipts (block_number, tx_index)`,
	}
	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveBlockReceipts stores receipts in one transaction.
func (r *Repository) SaveBlockReceipts(ctx context.Context, receipts []*executor.Receipt) error {
	if r.db == nil {
		return ErrDatabaseClosed
	}
	if len(receipts) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return NewTransactionError("save_block_receipts", "failed to begin transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, r.dialect.rebind(`INSERT INTO receipts (`+receiptColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (tx_hash) DO UPDATE SET
			block_number = excluded.block_number,
			tx_index = excluded.tx_index,
			status = excluded.status,
			gas_used = excluded.gas_used,
			reason = excluded.reason,
			rent_engaged = excluded.rent_engaged,
			payable_rent = excluded.payable_rent,
			rollback_rent = excluded.rollback_rent,
			paid_rent = excluded.paid_rent,
			rented_nodes = excluded.rented_nodes,
			rollback_nodes = excluded.rollback_nodes`))
	if err != nil {
		return NewQueryError("save_block_receipts", "failed to prepare insert", err)
	}
	defer stmt.Close()

	for i, rec := range receipts {
		args, err := receiptArgs(rec, i)
		if err != nil {
			return NewDataError("save_block_receipts", "receipt "+rec.TxHash.Hex(), err)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return NewQueryError("save_block_receipts", "failed to insert receipt "+rec.TxHash.Hex(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return NewTransactionError("save_block_receipts", "failed to commit", err)
	}
	r.log.Debug("Saved receipts", "block", receipts[0].BlockNumber, "count", len(receipts))
	return nil
}

func receiptArgs(rec *executor.Receipt, index int) ([]any, error) {
	values := make([]int64, 0, 5)
	for _, v := range []uint64{rec.BlockNumber, rec.GasUsed, rec.PayableRent, rec.RollbackRent, rec.PaidRent} {
		if v > math.MaxInt64 {
			return nil, fmt.Errorf("%w: %d", ErrValueOverflow, v)
		}
		values = append(values, int64(v))
	}
	return []any{
		rec.TxHash.Bytes(), values[0], index, int(rec.Status), values[1], rec.Reason,
		rec.RentEngaged, values[2], values[3], values[4], rec.RentedNodes, rec.RollbackNodes,
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReceipt(row rowScanner) (*executor.Receipt, error) {
	var (
		rec                                 executor.Receipt
		hash                                []byte
		index, status                       int
		block, gas, payable, rollback, paid int64
	)
	err := row.Scan(&hash, &block, &index, &status, &gas, &rec.Reason,
		&rec.RentEngaged, &payable, &rollback, &paid, &rec.RentedNodes, &rec.RollbackNodes)
	if err != nil {
		return nil, err
	}
	if len(hash) != common.HashLength {
		return nil, fmt.Errorf("transaction hash of %d bytes", len(hash))
	}
	rec.TxHash = common.BytesToHash(hash)
	rec.BlockNumber = uint64(block)
	rec.Status = executor.Status(status)
	rec.GasUsed = uint64(gas)
	rec.PayableRent = uint64(payable)
	rec.RollbackRent = uint64(rollback)
	rec.PaidRent = uint64(paid)
	return &rec, nil
}

// Receipt returns the receipt of a transaction.
func (r *Repository) Receipt(ctx context.Context, txHash common.Hash) (*executor.Receipt, error) {
	if r.db == nil {
		return nil, ErrDatabaseClosed
	}
	row := r.db.QueryRowContext(ctx,
		r.dialect.rebind(`SELECT `+receiptColumns+` FROM receipts WHERE tx_hash = ?`), txHash.Bytes())
	rec, err := scanReceipt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrReceiptNotFound, txHash.Hex())
	}
	if err != nil {
		return nil, NewQueryError("receipt", "failed to query receipt", err)
	}
	return rec, nil
}

// BlockReceipts returns the receipts of a block.
func (r *Repository) BlockReceipts(ctx context.Context, block uint64) ([]*executor.Receipt, error) {
	if r.db == nil {
		return nil, ErrDatabaseClosed
	}
	if block > math.MaxInt64 {
		return nil, fmt.Errorf("%w: block %d", ErrValueOverflow, block)
	}
	rows, err := r.db.QueryContext(ctx, r.dialect.rebind(
		`SELECT `+receiptColumns+` FROM receipts WHERE block_number = ? ORDER BY tx_index`), int64(block))
	if err != nil {
		return nil, NewQueryError("block_receipts", "failed to query block receipts", err)
	}
	defer rows.Close()

	var receipts []*executor.Receipt
	for rows.Next() {
		rec, err := scanReceipt(rows)
		if err != nil {
			return nil, NewQueryError("block_receipts", "failed to scan receipt", err)
		}
		receipts = append(receipts, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, NewQueryError("block_receipts", "failed to read receipts", err)
	}
	return receipts, nil
}

// RentTotals sums the rent of blocks in [from, to].
func (r *Repository) RentTotals(ctx context.Context, from, to uint64) (RentTotals, error) {
	if r.db == nil {
		return RentTotals{}, ErrDatabaseClosed
	}
	if to > math.MaxInt64 {
		to = math.MaxInt64
	}
	if from > to {
		return RentTotals{}, nil
	}

	var (
		totals                  RentTotals
		payable, rollback, paid int64
	)
	err := r.db.QueryRowContext(ctx, r.dialect.rebind(`SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN rent_engaged THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status <> 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(payable_rent), 0),
			COALESCE(SUM(rollback_rent), 0),
			COALESCE(SUM(paid_rent), 0)
		FROM receipts WHERE block_number >= ? AND block_number <= ?`), int64(from), int64(to)).
		Scan(&totals.Transactions, &totals.Engaged, &totals.Failed, &payable, &rollback, &paid)
	if err != nil {
		return RentTotals{}, NewQueryError("rent_totals", "failed to sum rent", err)
	}
	totals.Payable = uint64(payable)
	totals.Rollback = uint64(rollback)
	totals.Paid = uint64(paid)
	return totals, nil
}

func (r *Repository) Ping(ctx context.Context) error {
	if r.db == nil {
		return ErrDatabaseClosed
	}
	if err := r.db.PingContext(ctx); err != nil {
		return NewConnectionError("ping", "database ping failed", err)
	}
	return nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	if err != nil {
		return NewConnectionError("close", "failed to close database connection", err)
	}
	return nil
}

// Truncate deletes every receipt.
func (r *Repository) Truncate(ctx context.Context) error {
	if r.db == nil {
		return ErrDatabaseClosed
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM receipts`); err != nil {
		return NewQueryError("truncate", "failed to delete receipts", err)
	}
	return nil
}
