package operation

import (
	"strings"

	"github.com/dgraph-io/badger/v2"

	"github.com/Daniellrra/bako-safe-api/model/vault"
)

// InsertTransaction inserts a new transaction record keyed by its identifier.
func InsertTransaction(txID vault.Identifier, tx *vault.Transaction) func(*badger.Txn) error {
	return insert(makePrefix(codeTransaction, txID[:]), tx)
}

// UpdateTransaction replaces the stored record of an existing transaction.
func UpdateTransaction(txID vault.Identifier, tx *vault.Transaction) func(*badger.Txn) error {
	return update(makePrefix(codeTransaction, txID[:]), tx)
}

// RetrieveTransaction retrieves the transaction with the given identifier.
func RetrieveTransaction(txID vault.Identifier, tx *vault.Transaction) func(*badger.Txn) error {
	return retrieve(makePrefix(codeTransaction, txID[:]), tx)
}

// IndexTransactionHash indexes a transaction identifier by its chain-facing
// hash. Hashes are indexed lower-cased so lookups are case-insensitive.
func IndexTransactionHash(hash string, txID vault.Identifier) func(*badger.Txn) error {
	return insert(makePrefix(codeTransactionHash, []byte(strings.ToLower(hash))), txID)
}

// LookupTransactionHash resolves a chain-facing hash to the identifier of the
// indexed transaction.
func LookupTransactionHash(hash string, txID *vault.Identifier) func(*badger.Txn) error {
	return retrieve(makePrefix(codeTransactionHash, []byte(strings.ToLower(hash))), txID)
}

// TraverseTransactions iterates over all stored transaction records.
func TraverseTransactions(handle func(tx *vault.Transaction) error) func(*badger.Txn) error {
	return traverse(
		makePrefix(codeTransaction),
		func() interface{} { return &vault.Transaction{} },
		func(entity interface{}) error { return handle(entity.(*vault.Transaction)) },
	)
}
