package badger

import (
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v2"
	"github.com/pkg/errors"

	"github.com/Daniellrra/bako-safe-api/model/vault"
	"github.com/Daniellrra/bako-safe-api/storage"
	"github.com/Daniellrra/bako-safe-api/storage/badger/operation"
)

// Transactions implements storage.Transactions on top of a badger key-value
// store. Every mutating call runs inside a single badger transaction, so
// concurrent updates to the same record serialize on the store and no
// half-applied state is ever visible.
type Transactions struct {
	db *badger.DB
}

func NewTransactions(db *badger.DB) *Transactions {
	t := Transactions{
		db: db,
	}
	return &t
}

func (t *Transactions) Store(tx *vault.Transaction) error {
	return t.db.Update(func(btx *badger.Txn) error {
		err := operation.InsertTransaction(tx.ID, tx)(btx)
		if err != nil {
			return errors.Wrap(err, "could not insert transaction")
		}
		err = operation.IndexTransactionHash(tx.Hash, tx.ID)(btx)
		if err != nil {
			return errors.Wrap(err, "could not index transaction hash")
		}
		return nil
	})
}

func (t *Transactions) ByID(txID vault.Identifier) (*vault.Transaction, error) {
	var tx vault.Transaction
	err := t.db.View(func(btx *badger.Txn) error {
		return operation.RetrieveTransaction(txID, &tx)(btx)
	})
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (t *Transactions) ByHash(hash string) (*vault.Transaction, error) {
	var tx vault.Transaction
	err := t.db.View(func(btx *badger.Txn) error {
		var txID vault.Identifier
		err := operation.LookupTransactionHash(hash, &txID)(btx)
		if err != nil {
			return err
		}
		return operation.RetrieveTransaction(txID, &tx)(btx)
	})
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (t *Transactions) Update(txID vault.Identifier, mutate func(tx *vault.Transaction) error) (*vault.Transaction, error) {
	var tx vault.Transaction
	err := t.db.Update(func(btx *badger.Txn) error {
		err := operation.RetrieveTransaction(txID, &tx)(btx)
		if err != nil {
			return err
		}
		err = mutate(&tx)
		if err != nil {
			return err
		}
		err = operation.UpdateTransaction(txID, &tx)(btx)
		if err != nil {
			return errors.Wrap(err, "could not update transaction")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (t *Transactions) List(filter storage.TransactionFilter, page storage.Pagination, order storage.Ordination) (*storage.TransactionList, error) {
	var matches []*vault.Transaction
	err := t.db.View(func(btx *badger.Txn) error {
		return operation.TraverseTransactions(func(tx *vault.Transaction) error {
			if matchesFilter(tx, filter) {
				matches = append(matches, tx)
			}
			return nil
		})(btx)
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not list transactions")
	}

	sortTransactions(matches, order)

	result := &storage.TransactionList{}
	if page.WithTotal {
		result.Total = uint(len(matches))
	}

	if page.Offset >= uint(len(matches)) {
		matches = nil
	} else {
		matches = matches[page.Offset:]
	}
	if page.Limit > 0 && page.Limit < uint(len(matches)) {
		matches = matches[:page.Limit]
	}
	result.Transactions = matches

	return result, nil
}

func matchesFilter(tx *vault.Transaction, filter storage.TransactionFilter) bool {
	if len(filter.Statuses) > 0 {
		ok := false
		for _, s := range filter.Statuses {
			if tx.Status == s {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if filter.Signer != "" && tx.Witnesses.ByAccount(filter.Signer) < 0 {
		return false
	}
	if filter.VaultID != "" && tx.VaultID != filter.VaultID {
		return false
	}
	if filter.CreatedBy != "" && tx.CreatedBy != filter.CreatedBy {
		return false
	}
	if filter.Name != "" && !strings.Contains(strings.ToLower(tx.Name), strings.ToLower(filter.Name)) {
		return false
	}
	if filter.StartDate != nil && tx.CreatedAt.Before(*filter.StartDate) {
		return false
	}
	if filter.EndDate != nil && tx.CreatedAt.After(*filter.EndDate) {
		return false
	}
	return true
}

func sortTransactions(txs []*vault.Transaction, order storage.Ordination) {
	less := func(i, j int) bool {
		switch order.OrderBy {
		case storage.OrderByCreatedAt:
			return txs[i].CreatedAt.Before(txs[j].CreatedAt)
		case storage.OrderByStatus:
			return txs[i].Status < txs[j].Status
		case storage.OrderByName:
			return txs[i].Name < txs[j].Name
		default:
			return txs[i].UpdatedAt.Before(txs[j].UpdatedAt)
		}
	}
	if order.Ascending {
		sort.SliceStable(txs, less)
		return
	}
	sort.SliceStable(txs, func(i, j int) bool { return less(j, i) })
}
