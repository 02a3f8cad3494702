package storage

import (
	"time"

	"github.com/Daniellrra/bako-safe-api/model/vault"
)

// TransactionFilter narrows List results. Zero values mean "no restriction".
// Filters are plain immutable values passed per call; stores never keep
// filter state between requests.
type TransactionFilter struct {
	Statuses  []vault.TransactionStatus
	Signer    vault.Address
	VaultID   string
	CreatedBy string
	Name      string // case-insensitive substring match
	StartDate *time.Time
	EndDate   *time.Time
}

// Pagination selects an offset/limit window of the result set. A zero Limit
// disables windowing. When WithTotal is set, List also reports the total
// number of matches before windowing.
type Pagination struct {
	Offset    uint
	Limit     uint
	WithTotal bool
}

// OrderField enumerates the sortable transaction fields.
type OrderField int

const (
	OrderByUpdatedAt OrderField = iota
	OrderByCreatedAt
	OrderByStatus
	OrderByName
)

// Ordination fixes the result ordering of List.
type Ordination struct {
	OrderBy   OrderField
	Ascending bool
}

// DefaultOrdination sorts most-recently-updated first.
func DefaultOrdination() Ordination {
	return Ordination{OrderBy: OrderByUpdatedAt, Ascending: false}
}

// TransactionList is the windowed result of a List call. Total is only
// populated when requested through Pagination.WithTotal.
type TransactionList struct {
	Transactions []*vault.Transaction
	Total        uint
}

// Transactions is the persistent store of vault transactions and their
// witness ledgers.
type Transactions interface {

	// Store inserts a new transaction record. It returns ErrAlreadyExists
	// when a record with the same identifier is already stored.
	Store(tx *vault.Transaction) error

	// ByID retrieves the transaction with the given identifier. It returns
	// ErrNotFound when no such record exists.
	ByID(txID vault.Identifier) (*vault.Transaction, error)

	// ByHash retrieves the transaction with the given chain-facing hash.
	// It returns ErrNotFound when no such record exists.
	ByHash(hash string) (*vault.Transaction, error)

	// Update applies the mutation to the stored record inside a single
	// store transaction: the record is read, mutated and written back
	// atomically. A mutation error aborts the update without any visible
	// partial state. It returns ErrNotFound for unknown identifiers.
	Update(txID vault.Identifier, mutate func(tx *vault.Transaction) error) (*vault.Transaction, error)

	// List returns the transactions matching the filter, ordered and
	// windowed as requested.
	List(filter TransactionFilter, page Pagination, order Ordination) (*TransactionList, error)
}
