package executor

import "errors"

// Flat gas schedule.
const (
	IntrinsicGas uint64 = 21000
	LoadGas      uint64 = 800
	StoreGas     uint64 = 20000
	ClearGas     uint64 = 5000
	CallGas      uint64 = 700
)

var (
	ErrIntrinsicGas    = errors.New("intrinsic gas too low")
	ErrOutOfGas        = errors.New("out of gas")
	ErrBlockGasLimit   = errors.New("block gas limit reached")
	ErrNegativeValue   = errors.New("negative value")
	ErrUnknownOpKind   = errors.New("unknown op kind")
	ErrMissingCallInfo = errors.New("call op without a call")
)

// opGas returns the gas an op costs before it runs.
func opGas(kind OpKind) (uint64, error) {
	switch kind {
	case OpLoad:
		return LoadGas, nil
	case OpStore:
		return StoreGas, nil
	case OpClear:
		return ClearGas, nil
	case OpCall:
		return CallGas, nil
	default:
		return 0, ErrUnknownOpKind
	}
}

// gasMeter counts down the gas of one transaction.
type gasMeter struct {
	remaining uint64
}

func (m *gasMeter) consume(amount uint64) error {
	if m.remaining < amount {
		m.remaining = 0
		return ErrOutOfGas
	}
	m.remaining -= amount
	return nil
}
