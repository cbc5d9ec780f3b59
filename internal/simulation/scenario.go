package simulation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/LeJamon/goStorageRent/internal/core/executor"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	ErrInvalidScenario = errors.New("invalid scenario")
	ErrUnknownOp       = errors.New("unknown op")
)

// DefaultBlockInterval is the time between two consecutive blocks when a
// scenario does not set one.
const DefaultBlockInterval = 30 * time.Second

// Scenario is a scripted run: a genesis, a sequence of blocks and the rent
// each named transaction is expected to pay.
type Scenario struct {
	Name string `json:"name"`

	// BlockInterval is a duration string such as "30s".
	BlockInterval string `json:"blockInterval,omitempty"`

	// ActivationBlock is the first block that pays rent.
	ActivationBlock uint64 `json:"activationBlock,omitempty"`

	Genesis ScenarioGenesis         `json:"genesis"`
	Blocks  []ScenarioBlock         `json:"blocks"`
	Expect  map[string]ExpectedRent `json:"expect,omitempty"`
}

// ScenarioGenesis is the JSON form of Genesis.
type ScenarioGenesis struct {
	Timestamp int64             `json:"timestamp"`
	Accounts  []ScenarioAccount `json:"accounts"`
}

// ScenarioAccount is the JSON form of GenesisAccount. CodeSize fills the code
// with that many bytes when Code is empty.
type ScenarioAccount struct {
	Name     string            `json:"name"`
	Balance  *hexutil.Big      `json:"balance,omitempty"`
	Code     hexutil.Bytes     `json:"code,omitempty"`
	CodeSize int               `json:"codeSize,omitempty"`
	Storage  map[string]string `json:"storage,omitempty"`

	// StorageSizes creates slots holding that many bytes.
	StorageSizes map[string]int `json:"storageSizes,omitempty"`
}

// ScenarioBlock is a block mined Advance block intervals after the previous
// one. Advance defaults to one interval.
type ScenarioBlock struct {
	Advance      uint64       `json:"advance,omitempty"`
	Transactions []ScenarioTx `json:"transactions"`
}

// ScenarioTx is a named transaction between named accounts.
type ScenarioTx struct {
	Name     string       `json:"name"`
	From     string       `json:"from"`
	To       string       `json:"to"`
	Value    *hexutil.Big `json:"value,omitempty"`
	GasLimit uint64       `json:"gasLimit"`
	Revert   bool         `json:"revert,omitempty"`
	Ops      []ScenarioOp `json:"ops,omitempty"`
}

// ScenarioOp is a scripted op. Call is set for "call" ops only.
type ScenarioOp struct {
	Kind         string        `json:"kind"`
	Slot         string        `json:"slot,omitempty"`
	Value        hexutil.Bytes `json:"value,omitempty"`
	Size         int           `json:"size,omitempty"`
	Call         *ScenarioCall `json:"call,omitempty"`
	BubbleRevert bool          `json:"bubbleRevert,omitempty"`
}

// ScenarioCall is a nested call.
type ScenarioCall struct {
	To     string       `json:"to"`
	Value  *hexutil.Big `json:"value,omitempty"`
	Revert bool         `json:"revert,omitempty"`
	Ops    []ScenarioOp `json:"ops,omitempty"`
}

// ExpectedRent is what a named transaction should have paid. Unset fields
// are not checked.
type ExpectedRent struct {
	Successful    *bool   `json:"successful,omitempty"`
	RentEngaged   *bool   `json:"rentEngaged,omitempty"`
	PaidRent      *uint64 `json:"paidRent,omitempty"`
	PayableRent   *uint64 `json:"payableRent,omitempty"`
	RollbackRent  *uint64 `json:"rollbackRent,omitempty"`
	RentedNodes   *int    `json:"rentedNodes,omitempty"`
	RollbackNodes *int    `json:"rollbackNodes,omitempty"`
}

// LoadScenario reads a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := DecodeScenario(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// DecodeScenario decodes a scenario and checks it refers only to accounts and
// transactions it defines.
func DecodeScenario(r io.Reader) (*Scenario, error) {
	var s Scenario
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Interval returns the scenario's block interval.
func (s *Scenario) Interval() (time.Duration, error) {
	if s.BlockInterval == "" {
		return DefaultBlockInterval, nil
	}
	d, err := time.ParseDuration(s.BlockInterval)
	if err != nil {
		return 0, fmt.Errorf("%w: block interval: %v", ErrInvalidScenario, err)
	}
	if d < time.Second {
		return 0, fmt.Errorf("%w: block interval %s under one second", ErrInvalidScenario, d)
	}
	return d, nil
}

func (s *Scenario) validate() error {
	if _, err := s.Interval(); err != nil {
		return err
	}
	accounts := make(map[string]bool, len(s.Genesis.Accounts))
	for _, acc := range s.Genesis.Accounts {
		if acc.Name == "" {
			return fmt.Errorf("%w: unnamed account", ErrInvalidScenario)
		}
		if accounts[acc.Name] {
			return fmt.Errorf("%w: account %q defined twice", ErrInvalidScenario, acc.Name)
		}
		accounts[acc.Name] = true
	}
	txs := make(map[string]bool)
	for i, b := range s.Blocks {
		for _, tx := range b.Transactions {
			if tx.Name == "" {
				return fmt.Errorf("%w: unnamed transaction in block %d", ErrInvalidScenario, i)
			}
			if txs[tx.Name] {
				return fmt.Errorf("%w: transaction %q defined twice", ErrInvalidScenario, tx.Name)
			}
			txs[tx.Name] = true
			if !accounts[tx.From] || !accounts[tx.To] {
				return fmt.Errorf("%w: transaction %q between unknown accounts", ErrInvalidScenario, tx.Name)
			}
			if err := validateOps(tx.Ops, accounts); err != nil {
				return fmt.Errorf("transaction %q: %w", tx.Name, err)
			}
		}
	}
	for name := range s.Expect {
		if !txs[name] {
			return fmt.Errorf("%w: expectation for unknown transaction %q", ErrInvalidScenario, name)
		}
	}
	return nil
}

func validateOps(ops []ScenarioOp, accounts map[string]bool) error {
	for _, op := range ops {
		kind, err := parseOpKind(op.Kind)
		if err != nil {
			return err
		}
		if kind == executor.OpCall {
			if op.Call == nil {
				return fmt.Errorf("%w: call op without a call", ErrInvalidScenario)
			}
			if !accounts[op.Call.To] {
				return fmt.Errorf("%w: call to unknown account %q", ErrInvalidScenario, op.Call.To)
			}
			if err := validateOps(op.Call.Ops, accounts); err != nil {
				return err
			}
		}
	}
	return nil
}

func parseOpKind(kind string) (executor.OpKind, error) {
	switch strings.ToLower(kind) {
	case "load":
		return executor.OpLoad, nil
	case "store":
		return executor.OpStore, nil
	case "clear":
		return executor.OpClear, nil
	case "call":
		return executor.OpCall, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownOp, kind)
	}
}

// ParseSlot accepts a slot as a decimal or 0x-prefixed hex number.
func ParseSlot(s string) (common.Hash, error) {
	n, ok := new(big.Int).SetString(s, 0)
	if !ok || n.Sign() < 0 || n.BitLen() > 256 {
		return common.Hash{}, fmt.Errorf("%w: bad slot %q", ErrInvalidScenario, s)
	}
	return common.BigToHash(n), nil
}

// GenesisOf converts the scenario genesis.
func (s *Scenario) GenesisOf() (Genesis, error) {
	g := Genesis{Timestamp: s.Genesis.Timestamp}
	for _, acc := range s.Genesis.Accounts {
		ga := GenesisAccount{Name: acc.Name, Code: acc.Code, Storage: make(map[common.Hash][]byte)}
		if acc.Balance != nil {
			ga.Balance = acc.Balance.ToInt()
		}
		if len(ga.Code) == 0 && acc.CodeSize > 0 {
			ga.Code = filler(acc.CodeSize)
		}
		for k, v := range acc.Storage {
			slot, err := ParseSlot(k)
			if err != nil {
				return Genesis{}, err
			}
			value, err := hexutil.Decode(v)
			if err != nil {
				return Genesis{}, fmt.Errorf("%w: slot %s of %q: %v", ErrInvalidScenario, k, acc.Name, err)
			}
			ga.Storage[slot] = value
		}
		for k, size := range acc.StorageSizes {
			slot, err := ParseSlot(k)
			if err != nil {
				return Genesis{}, err
			}
			ga.Storage[slot] = filler(size)
		}
		g.Accounts = append(g.Accounts, ga)
	}
	return g, nil
}

// Transaction converts a scenario transaction, addressing it through w.
func (w *World) Transaction(stx ScenarioTx) (*executor.Transaction, error) {
	from, err := w.Address(stx.From)
	if err != nil {
		return nil, err
	}
	to, err := w.Address(stx.To)
	if err != nil {
		return nil, err
	}
	ops, err := w.ops(stx.Ops)
	if err != nil {
		return nil, err
	}
	tx := &executor.Transaction{
		From:     from,
		To:       to,
		Nonce:    w.NextNonce(from),
		GasLimit: stx.GasLimit,
		Ops:      ops,
		Revert:   stx.Revert,
	}
	if stx.Value != nil {
		tx.Value = stx.Value.ToInt()
	}
	return tx, nil
}

func (w *World) ops(sops []ScenarioOp) ([]executor.Op, error) {
	ops := make([]executor.Op, 0, len(sops))
	for _, sop := range sops {
		kind, err := parseOpKind(sop.Kind)
		if err != nil {
			return nil, err
		}
		op := executor.Op{Kind: kind, Value: sop.Value, BubbleRevert: sop.BubbleRevert}
		if len(op.Value) == 0 && sop.Size > 0 {
			op.Value = filler(sop.Size)
		}
		if sop.Slot != "" {
			if op.Slot, err = ParseSlot(sop.Slot); err != nil {
				return nil, err
			}
		}
		if sop.Call != nil {
			to, err := w.Address(sop.Call.To)
			if err != nil {
				return nil, err
			}
			inner, err := w.ops(sop.Call.Ops)
			if err != nil {
				return nil, err
			}
			op.Call = &executor.Call{To: to, Ops: inner, Revert: sop.Call.Revert}
			if sop.Call.Value != nil {
				op.Call.Value = sop.Call.Value.ToInt()
			}
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// filler returns size non-zero bytes.
func filler(size int) []byte {
	b := make([]byte, size)
	for i := range b {
		b[i] = byte(i%255) + 1
	}
	return b
}
