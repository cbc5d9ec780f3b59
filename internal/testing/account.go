package testing

import (
	"fmt"

	"github.com/LeJamon/goStorageRent/internal/simulation"
	"github.com/LeJamon/goStorageRent/internal/testing/builders"
	"github.com/ethereum/go-ethereum/common"
)

// Account represents a test account or contract.
type Account struct {
	// Name is a human-readable identifier for the account (used for debugging).
	Name string

	// Address is derived from Name, so the same name is always the same account.
	Address common.Address

	ref *builders.Account
}

// NewAccount creates a test account with an address derived from the name.
func NewAccount(name string) *Account {
	addr := simulation.AddressOf(name)
	return &Account{
		Name:    name,
		Address: addr,
		ref:     builders.NewAccount(addr),
	}
}

// Ref returns the account as used by the transaction builders. The same
// builder account is returned on every call, so nonces carry over.
func (a *Account) Ref() *builders.Account {
	return a.ref
}

// String returns a string representation of the account
func (a *Account) String() string {
	return fmt.Sprintf("Account{%s, %s}", a.Name, a.Address.Hex())
}
