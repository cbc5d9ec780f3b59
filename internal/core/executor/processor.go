package executor

import (
	"errors"
	"fmt"

	"github.com/LeJamon/goStorageRent/internal/core/state"
	"github.com/LeJamon/goStorageRent/internal/core/storagerent"
	"github.com/LeJamon/goStorageRent/internal/core/trie"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
)

// Config holds the processor configuration.
type Config struct {
	// StorageRentEnabled turns storage rent on.
	StorageRentEnabled bool

	// StorageRentActivationBlock is the first block that pays rent.
	StorageRentActivationBlock uint64
}

// DefaultConfig returns a config with storage rent active from genesis.
func DefaultConfig() Config {
	return Config{StorageRentEnabled: true}
}

// Execution is the result of applying one transaction.
type Execution struct {
	Receipt *Receipt

	// Session is the transaction's rent session. It is never paid when rent
	// was not engaged.
	Session *storagerent.Session
}

// BlockResult is the result of applying a block.
type BlockResult struct {
	Trie       *trie.Trie
	Executions []*Execution
	GasUsed    uint64
}

// Processor applies transactions.
type Processor struct {
	config Config
	log    log.Logger
}

// NewProcessor creates a processor.
func NewProcessor(config Config) *Processor {
	return &Processor{
		config: config,
		log:    log.New("module", "executor"),
	}
}

// RentEngaged reports whether tx pays storage rent in block number. Only
// calls to contracts do, once rent is active.
func (p *Processor) RentEngaged(repo *state.Repository, number uint64, tx *Transaction) bool {
	return p.config.StorageRentEnabled &&
		number >= p.config.StorageRentActivationBlock &&
		repo.IsContract(tx.To)
}

// ProcessBlock applies every transaction of block on top of st.
func (p *Processor) ProcessBlock(st *trie.Trie, block *Block) (*BlockResult, error) {
	repo := state.NewRepository(st)
	result := &BlockResult{Executions: make([]*Execution, 0, len(block.Transactions))}

	for i, tx := range block.Transactions {
		if block.GasLimit > 0 && tx.GasLimit > block.GasLimit-result.GasUsed {
			return nil, fmt.Errorf("%w: transaction %d needs %d, %d left", ErrBlockGasLimit, i, tx.GasLimit, block.GasLimit-result.GasUsed)
		}
		exec, err := p.ApplyTransaction(repo, block, tx)
		if err != nil {
			return nil, fmt.Errorf("transaction %d of block %d: %w", i, block.Number, err)
		}
		result.GasUsed += exec.Receipt.GasUsed
		result.Executions = append(result.Executions, exec)
	}

	result.Trie = repo.Trie()
	p.log.Info("Processed block", "number", block.Number, "txs", len(block.Transactions), "gas", result.GasUsed)
	return result, nil
}

// ApplyTransaction applies tx to the block repository. Failed transactions
// still produce a receipt; an error means the engine itself failed.
func (p *Processor) ApplyTransaction(blockRepo *state.Repository, block *Block, tx *Transaction) (*Execution, error) {
	if tx.Value != nil && tx.Value.Sign() < 0 {
		return nil, ErrNegativeValue
	}
	hash, err := tx.Hash()
	if err != nil {
		return nil, err
	}
	if tx.GasLimit < IntrinsicGas {
		return nil, fmt.Errorf("%w: tx %s has %d, needs %d", ErrIntrinsicGas, hash.Hex(), tx.GasLimit, IntrinsicGas)
	}

	receipt := &Receipt{TxHash: hash, BlockNumber: block.Number, Status: StatusSuccessful}
	exec := &Execution{Receipt: receipt, Session: storagerent.NewSession()}
	meter := &gasMeter{remaining: tx.GasLimit - IntrinsicGas}
	engaged := p.RentEngaged(blockRepo, block.Number, tx)

	txRepo := blockRepo.StartTransaction(hash)
	if err := txRepo.IncrementNonce(tx.From); err != nil {
		return nil, err
	}

	if blockRepo.IsContract(tx.To) {
		err = p.runTransactionCall(txRepo, tx, meter)
	} else {
		err = txRepo.Transfer(tx.From, tx.To, tx.Value)
	}
	if err != nil {
		if !isTransactionFailure(err) {
			return nil, err
		}
		receipt.Status = StatusFailed
		receipt.Reason = err.Error()
	}

	if engaged {
		receipt.RentEngaged = true
		left, err := exec.Session.Pay(meter.remaining, block.Timestamp, blockRepo, txRepo, hash)
		switch {
		case errors.Is(err, storagerent.ErrOutOfGas):
			return p.failOutOfRent(blockRepo, txRepo, tx, exec, err)
		case err != nil:
			return nil, fmt.Errorf("storage rent of %s: %w", hash.Hex(), err)
		}
		meter.remaining = left
		p.fillRent(receipt, exec.Session)
	}

	if err := txRepo.Commit(); err != nil {
		return nil, err
	}
	receipt.GasUsed = tx.GasLimit - meter.remaining
	p.log.Debug("Applied transaction", "tx", hash, "status", receipt.Status, "gas", receipt.GasUsed,
		"rent", receipt.PaidRent, "engaged", engaged)
	return exec, nil
}

// failOutOfRent discards everything tx did except the nonce bump. All gas
// is consumed, as for any other out-of-gas failure.
func (p *Processor) failOutOfRent(blockRepo, txRepo *state.Repository, tx *Transaction, exec *Execution, cause error) (*Execution, error) {
	if err := txRepo.Rollback(); err != nil {
		return nil, err
	}
	nonceRepo := blockRepo.StartTransaction(txRepo.TransactionID())
	if err := nonceRepo.IncrementNonce(tx.From); err != nil {
		return nil, err
	}
	if err := nonceRepo.Commit(); err != nil {
		return nil, err
	}

	receipt := exec.Receipt
	receipt.Status = StatusFailed
	receipt.Reason = cause.Error()
	receipt.GasUsed = tx.GasLimit
	receipt.RentedNodes = len(exec.Session.RentedNodes())
	receipt.RollbackNodes = len(exec.Session.RollbackNodes())
	p.log.Debug("Transaction could not pay storage rent", "tx", receipt.TxHash, "err", cause)
	return exec, nil
}

func (p *Processor) fillRent(receipt *Receipt, session *storagerent.Session) {
	outcome, _ := session.Outcome()
	receipt.PayableRent = outcome.PayableRent
	receipt.RollbackRent = outcome.RollbackRent
	receipt.PaidRent = outcome.TotalRent
	receipt.RentedNodes = len(session.RentedNodes())
	receipt.RollbackNodes = len(session.RollbackNodes())
}

// runTransactionCall runs the top-level call of tx. The callee's account and
// code are read in the transaction frame; the call body runs in a frame of
// its own, so a revert discards the body only.
func (p *Processor) runTransactionCall(txRepo *state.Repository, tx *Transaction, meter *gasMeter) error {
	if err := readCallee(txRepo, tx.To); err != nil {
		return err
	}
	body := txRepo.StartTracking()
	reverted, err := p.runBody(body, tx.From, &Call{To: tx.To, Value: tx.Value, Ops: tx.Ops, Revert: tx.Revert}, meter)
	if err != nil || reverted {
		if rbErr := body.Rollback(); rbErr != nil {
			return rbErr
		}
		if err != nil {
			return err
		}
		return errReverted
	}
	return body.Commit()
}

// runNestedCall runs call in a child frame of caller. The callee's account
// and code are read in the child frame.
func (p *Processor) runNestedCall(callerRepo *state.Repository, caller common.Address, call *Call, meter *gasMeter) (bool, error) {
	frame := callerRepo.StartTracking()
	err := readCallee(frame, call.To)
	reverted := false
	if err == nil {
		reverted, err = p.runBody(frame, caller, call, meter)
	}
	if err != nil || reverted {
		if rbErr := frame.Rollback(); rbErr != nil {
			return false, rbErr
		}
		if err != nil && !isTransactionFailure(err) {
			return false, err
		}
		// Out of gas ends the whole transaction.
		if errors.Is(err, ErrOutOfGas) {
			return false, err
		}
		return true, nil
	}
	return false, frame.Commit()
}

// runBody transfers the call value and runs the call's ops in repo.
func (p *Processor) runBody(repo *state.Repository, caller common.Address, call *Call, meter *gasMeter) (bool, error) {
	if err := repo.Transfer(caller, call.To, call.Value); err != nil {
		return false, err
	}
	for _, op := range call.Ops {
		cost, err := opGas(op.Kind)
		if err != nil {
			return false, err
		}
		if err := meter.consume(cost); err != nil {
			return false, err
		}

		switch op.Kind {
		case OpLoad:
			_, _, err = repo.GetStorage(call.To, op.Slot)
		case OpStore:
			err = repo.SetStorage(call.To, op.Slot, op.Value)
		case OpClear:
			err = repo.SetStorage(call.To, op.Slot, nil)
		case OpCall:
			if op.Call == nil {
				return false, ErrMissingCallInfo
			}
			var reverted bool
			reverted, err = p.runNestedCall(repo, call.To, op.Call, meter)
			if err == nil && reverted && op.BubbleRevert {
				return true, nil
			}
		}
		if err != nil {
			return false, err
		}
	}
	return call.Revert, nil
}

func readCallee(repo *state.Repository, addr common.Address) error {
	if _, _, err := repo.GetAccount(addr); err != nil {
		return err
	}
	_, _, err := repo.GetCode(addr)
	return err
}

var errReverted = errors.New("execution reverted")

// isTransactionFailure reports whether err fails the transaction rather
// than the engine.
func isTransactionFailure(err error) bool {
	return errors.Is(err, ErrOutOfGas) ||
		errors.Is(err, errReverted) ||
		errors.Is(err, state.ErrInsufficientFunds)
}
