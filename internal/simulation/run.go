package simulation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/LeJamon/goStorageRent/internal/core/executor"
	"github.com/LeJamon/goStorageRent/internal/core/trie"
	"github.com/ethereum/go-ethereum/common"
)

// TxReport is the outcome of one named transaction.
type TxReport struct {
	Name      string
	Block     uint64
	Timestamp int64
	Receipt   *executor.Receipt
}

// Report is the outcome of a scenario run.
type Report struct {
	Scenario     string
	Transactions []TxReport
	Mismatches   []string
	StateRoot    common.Hash
	Trie         *trie.Trie

	// Head block of the final state.
	Block     uint64
	Timestamp int64
}

// Passed reports whether every expectation held.
func (r *Report) Passed() bool {
	return len(r.Mismatches) == 0
}

// Options configures a scenario run.
type Options struct {
	Executor executor.Config

	// BlockInterval applies to scenarios that set none.
	BlockInterval time.Duration

	// GasLimit bounds the gas of each block; zero means no bound.
	GasLimit uint64
}

// DefaultOptions runs with rent active from genesis and 30 second blocks.
func DefaultOptions() Options {
	return Options{
		Executor:      executor.DefaultConfig(),
		BlockInterval: DefaultBlockInterval,
	}
}

// Run plays s from its genesis. A scenario activation block overrides the one
// in opts.
func Run(ctx context.Context, s *Scenario, opts Options) (*Report, error) {
	interval := opts.BlockInterval
	if s.BlockInterval != "" || interval <= 0 {
		var err error
		if interval, err = s.Interval(); err != nil {
			return nil, err
		}
	}
	config := opts.Executor
	if s.ActivationBlock > 0 {
		config.StorageRentActivationBlock = s.ActivationBlock
	}
	genesis, err := s.GenesisOf()
	if err != nil {
		return nil, err
	}
	w, err := NewWorld(config, genesis)
	if err != nil {
		return nil, err
	}
	w.SetBlockGasLimit(opts.GasLimit)

	report := &Report{Scenario: s.Name}
	step := int64(interval.Seconds())
	for _, sb := range s.Blocks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		advance := sb.Advance
		if advance == 0 {
			advance = 1
		}
		timestamp := w.Timestamp() + int64(advance)*step

		txs := make([]NamedTx, 0, len(sb.Transactions))
		nonces := make(map[common.Address]uint64)
		for _, stx := range sb.Transactions {
			tx, err := w.Transaction(stx)
			if err != nil {
				return nil, fmt.Errorf("transaction %q: %w", stx.Name, err)
			}
			// Several transactions of one sender in the same block.
			tx.Nonce += nonces[tx.From]
			nonces[tx.From]++
			txs = append(txs, NamedTx{Name: stx.Name, Tx: tx})
		}
		execs, err := w.ApplyBlock(timestamp, txs...)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", w.BlockNumber()+1, err)
		}
		for i, exec := range execs {
			report.Transactions = append(report.Transactions, TxReport{
				Name:      txs[i].Name,
				Block:     w.BlockNumber(),
				Timestamp: timestamp,
				Receipt:   exec.Receipt,
			})
		}
	}

	report.Trie = w.Trie()
	report.Block, report.Timestamp = w.BlockNumber(), w.Timestamp()
	if report.StateRoot, err = report.Trie.Hash(); err != nil {
		return nil, err
	}
	report.Mismatches = check(report, s.Expect)
	return report, nil
}

func check(report *Report, expect map[string]ExpectedRent) []string {
	receipts := make(map[string]*executor.Receipt, len(report.Transactions))
	for _, tr := range report.Transactions {
		receipts[tr.Name] = tr.Receipt
	}
	names := make([]string, 0, len(expect))
	for name := range expect {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []string
	mismatch := func(name, field string, got, want any) {
		out = append(out, fmt.Sprintf("%s: %s = %v, want %v", name, field, got, want))
	}
	for _, name := range names {
		e, r := expect[name], receipts[name]
		if e.Successful != nil && r.Successful() != *e.Successful {
			mismatch(name, "successful", r.Successful(), *e.Successful)
		}
		if e.RentEngaged != nil && r.RentEngaged != *e.RentEngaged {
			mismatch(name, "rentEngaged", r.RentEngaged, *e.RentEngaged)
		}
		if e.PaidRent != nil && r.PaidRent != *e.PaidRent {
			mismatch(name, "paidRent", r.PaidRent, *e.PaidRent)
		}
		if e.PayableRent != nil && r.PayableRent != *e.PayableRent {
			mismatch(name, "payableRent", r.PayableRent, *e.PayableRent)
		}
		if e.RollbackRent != nil && r.RollbackRent != *e.RollbackRent {
			mismatch(name, "rollbackRent", r.RollbackRent, *e.RollbackRent)
		}
		if e.RentedNodes != nil && r.RentedNodes != *e.RentedNodes {
			mismatch(name, "rentedNodes", r.RentedNodes, *e.RentedNodes)
		}
		if e.RollbackNodes != nil && r.RollbackNodes != *e.RollbackNodes {
			mismatch(name, "rollbackNodes", r.RollbackNodes, *e.RollbackNodes)
		}
	}
	return out
}
