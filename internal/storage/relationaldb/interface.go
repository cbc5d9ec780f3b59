// Package relationaldb stores transaction receipts, with their storage rent
// figures, in a SQL database. Drivers register a Dialect from their own
// subpackage; import internal/storage/relationaldb/sqlite or .../postgres
// for the side effect.
package relationaldb

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/LeJamon/goStorageRent/internal/core/executor"
	"github.com/ethereum/go-ethereum/common"
)

// ReceiptRepository persists receipts.
type ReceiptRepository interface {
	// SaveBlockReceipts stores the receipts of one block in order. A receipt
	// saved again under the same hash replaces the earlier one.
	SaveBlockReceipts(ctx context.Context, receipts []*executor.Receipt) error

	// Receipt returns the receipt of a transaction, or ErrReceiptNotFound.
	Receipt(ctx context.Context, txHash common.Hash) (*executor.Receipt, error)

	// BlockReceipts returns the receipts of a block in order.
	BlockReceipts(ctx context.Context, block uint64) ([]*executor.Receipt, error)

	// RentTotals sums the rent recorded for blocks in [from, to].
	RentTotals(ctx context.Context, from, to uint64) (RentTotals, error)

	Ping(ctx context.Context) error
	Close() error
}

// RentTotals aggregates the rent of a block range.
type RentTotals struct {
	Transactions int64
	Engaged      int64
	Failed       int64
	Payable      uint64
	Rollback     uint64
	Paid         uint64
}

// Dialect describes what differs between SQL drivers.
type Dialect struct {
	// DriverName is the database/sql driver name.
	DriverName string
	// BlobType is the column type of raw bytes.
	BlobType string
	// Numbered placeholders ($1, $2, ...) instead of '?'.
	Numbered bool
	// DSN adapts the configured DSN, if set.
	DSN func(dsn string) string
}

// rebind rewrites '?' placeholders for the dialect.
func (d Dialect) rebind(query string) string {
	if !d.Numbered {
		return query
	}
	out := make([]byte, 0, len(query)+8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			out = append(out, fmt.Sprintf("$%d", n)...)
			continue
		}
		out = append(out, query[i])
	}
	return string(out)
}

var (
	dialectMu sync.RWMutex
	dialects  = make(map[string]Dialect)
)

// RegisterDialect registers a dialect under a driver name.
func RegisterDialect(name string, d Dialect) {
	dialectMu.Lock()
	defer dialectMu.Unlock()
	dialects[name] = d
}

// AvailableDrivers returns the registered driver names, sorted.
func AvailableDrivers() []string {
	dialectMu.RLock()
	defer dialectMu.RUnlock()
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupDialect(name string) (Dialect, bool) {
	dialectMu.RLock()
	defer dialectMu.RUnlock()
	d, ok := dialects[name]
	return d, ok
}
