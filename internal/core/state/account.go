package state

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
)

// Account is the record stored under an account key.
type Account struct {
	Nonce   uint64
	Balance *big.Int
}

// NewAccount returns an account with the given balance and nonce zero.
func NewAccount(balance *big.Int) Account {
	if balance == nil {
		balance = new(big.Int)
	}
	return Account{Balance: new(big.Int).Set(balance)}
}

// EncodeAccount returns the RLP encoding of acc.
func EncodeAccount(acc Account) ([]byte, error) {
	if acc.Balance == nil {
		acc.Balance = new(big.Int)
	}
	if acc.Balance.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative balance %s", ErrInvalidAccount, acc.Balance)
	}
	enc, err := rlp.EncodeToBytes(&acc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode account: %w", err)
	}
	return enc, nil
}

// DecodeAccount decodes an account record.
func DecodeAccount(data []byte) (Account, error) {
	var acc Account
	if err := rlp.DecodeBytes(data, &acc); err != nil {
		return Account{}, fmt.Errorf("%w: %w", ErrInvalidAccount, err)
	}
	if acc.Balance == nil {
		acc.Balance = new(big.Int)
	}
	return acc, nil
}
