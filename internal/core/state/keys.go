// Package state maps accounts, contract code and contract storage onto trie
// keys and tracks every access a transaction makes to them.
package state

import (
	"github.com/ethereum/go-ethereum/common"
)

// Key layout:
//
//	account  0x00 ‖ address            21 bytes
//	code     account ‖ 0x80            22 bytes
//	storage  account ‖ 0x00 ‖ slot     54 bytes
const (
	domainPrefix  byte = 0x00
	codePrefix    byte = 0x80
	storagePrefix byte = 0x00

	AccountKeyLength = 1 + common.AddressLength
	CodeKeyLength    = AccountKeyLength + 1
	StorageKeyLength = AccountKeyLength + 1 + common.HashLength
)

// AccountKey returns the trie key of an account record.
func AccountKey(addr common.Address) []byte {
	key := make([]byte, 0, AccountKeyLength)
	key = append(key, domainPrefix)
	return append(key, addr.Bytes()...)
}

// CodeKey returns the trie key of a contract's code.
func CodeKey(addr common.Address) []byte {
	return append(AccountKey(addr), codePrefix)
}

// StorageKey returns the trie key of a contract storage slot.
func StorageKey(addr common.Address, slot common.Hash) []byte {
	key := append(AccountKey(addr), storagePrefix)
	return append(key, slot.Bytes()...)
}

// IsCodeKey reports whether key addresses contract code.
func IsCodeKey(key []byte) bool {
	return len(key) == CodeKeyLength && key[0] == domainPrefix && key[CodeKeyLength-1] == codePrefix
}
