package builders

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Account is the sending or receiving side of a built transaction.
type Account struct {
	Address common.Address

	// Nonce is the nonce the next built transaction will carry.
	Nonce uint64
}

// NewAccount creates an account with nonce zero.
func NewAccount(address common.Address) *Account {
	return &Account{Address: address}
}

// NextNonce returns the current nonce and increments it for the next use.
func (a *Account) NextNonce() uint64 {
	n := a.Nonce
	a.Nonce++
	return n
}

// String returns a string representation of the account
func (a *Account) String() string {
	return fmt.Sprintf("Account{%s, nonce=%d}", a.Address.Hex(), a.Nonce)
}
