package badger_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Daniellrra/bako-safe-api/model/vault"
	"github.com/Daniellrra/bako-safe-api/storage"
	bstorage "github.com/Daniellrra/bako-safe-api/storage/badger"
	"github.com/Daniellrra/bako-safe-api/utils/unittest"
)

func TestTransactionsStoreRetrieve(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		store := bstorage.NewTransactions(db)

		signers := unittest.SignerFixtures(t, 3)
		expected := unittest.TransactionFixture(t, unittest.VaultFixture(signers, 2))

		err := store.Store(expected)
		require.NoError(t, err)

		actual, err := store.ByID(expected.ID)
		require.NoError(t, err)
		assert.Equal(t, expected.ID, actual.ID)
		assert.Equal(t, expected.Status, actual.Status)
		assert.Len(t, actual.Witnesses, 3)

		byHash, err := store.ByHash(expected.Hash)
		require.NoError(t, err)
		assert.Equal(t, expected.ID, byHash.ID)

		// storing the same record twice must fail
		err = store.Store(expected)
		require.ErrorIs(t, err, storage.ErrAlreadyExists)
	})
}

func TestTransactionsNotFound(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		store := bstorage.NewTransactions(db)

		_, err := store.ByID(vault.MakeID([]byte("missing")))
		require.ErrorIs(t, err, storage.ErrNotFound)

		_, err = store.ByHash("missing")
		require.ErrorIs(t, err, storage.ErrNotFound)

		_, err = store.Update(vault.MakeID([]byte("missing")), func(tx *vault.Transaction) error {
			return nil
		})
		require.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestTransactionsUpdate(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		store := bstorage.NewTransactions(db)

		signers := unittest.SignerFixtures(t, 3)
		tx := unittest.TransactionFixture(t, unittest.VaultFixture(signers, 2))
		require.NoError(t, store.Store(tx))

		updated, err := store.Update(tx.ID, func(tx *vault.Transaction) error {
			tx.Status = vault.TransactionStatusAwaitingSubmission
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, vault.TransactionStatusAwaitingSubmission, updated.Status)

		stored, err := store.ByID(tx.ID)
		require.NoError(t, err)
		assert.Equal(t, vault.TransactionStatusAwaitingSubmission, stored.Status)
	})
}

// A mutation error aborts the update without any visible partial state.
func TestTransactionsUpdateAborted(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		store := bstorage.NewTransactions(db)

		signers := unittest.SignerFixtures(t, 3)
		tx := unittest.TransactionFixture(t, unittest.VaultFixture(signers, 2))
		require.NoError(t, store.Store(tx))

		mutationErr := fmt.Errorf("mutation failed")
		_, err := store.Update(tx.ID, func(tx *vault.Transaction) error {
			tx.Status = vault.TransactionStatusRejected
			return mutationErr
		})
		require.ErrorIs(t, err, mutationErr)

		stored, err := store.ByID(tx.ID)
		require.NoError(t, err)
		assert.Equal(t, vault.TransactionStatusAwaitingApproval, stored.Status)
	})
}

func TestTransactionsList(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		store := bstorage.NewTransactions(db)

		signers := unittest.SignerFixtures(t, 3)
		info := unittest.VaultFixture(signers, 2)

		base := time.Now().UTC()
		var all []*vault.Transaction
		for i := 0; i < 5; i++ {
			tx := unittest.TransactionFixture(t, info)
			tx.Name = fmt.Sprintf("tx-%d", i)
			tx.CreatedAt = base.Add(time.Duration(i) * time.Minute)
			tx.UpdatedAt = tx.CreatedAt
			if i >= 3 {
				tx.Status = vault.TransactionStatusAwaitingConfirmation
			}
			require.NoError(t, store.Store(tx))
			all = append(all, tx)
		}

		t.Run("default ordering is most recently updated first", func(t *testing.T) {
			result, err := store.List(storage.TransactionFilter{}, storage.Pagination{}, storage.DefaultOrdination())
			require.NoError(t, err)
			require.Len(t, result.Transactions, 5)
			assert.Equal(t, "tx-4", result.Transactions[0].Name)
			assert.Equal(t, "tx-0", result.Transactions[4].Name)
		})

		t.Run("filter by status", func(t *testing.T) {
			result, err := store.List(storage.TransactionFilter{
				Statuses: []vault.TransactionStatus{vault.TransactionStatusAwaitingConfirmation},
			}, storage.Pagination{}, storage.DefaultOrdination())
			require.NoError(t, err)
			assert.Len(t, result.Transactions, 2)
		})

		t.Run("filter by signer", func(t *testing.T) {
			result, err := store.List(storage.TransactionFilter{
				Signer: signers[0].Member.Address,
			}, storage.Pagination{}, storage.DefaultOrdination())
			require.NoError(t, err)
			assert.Len(t, result.Transactions, 5)

			result, err = store.List(storage.TransactionFilter{
				Signer: "0xNotASigner",
			}, storage.Pagination{}, storage.DefaultOrdination())
			require.NoError(t, err)
			assert.Empty(t, result.Transactions)
		})

		t.Run("filter by name substring", func(t *testing.T) {
			result, err := store.List(storage.TransactionFilter{
				Name: "TX-3",
			}, storage.Pagination{}, storage.DefaultOrdination())
			require.NoError(t, err)
			require.Len(t, result.Transactions, 1)
			assert.Equal(t, "tx-3", result.Transactions[0].Name)
		})

		t.Run("filter by date range", func(t *testing.T) {
			start := base.Add(90 * time.Second)
			end := base.Add(210 * time.Second)
			result, err := store.List(storage.TransactionFilter{
				StartDate: &start,
				EndDate:   &end,
			}, storage.Pagination{}, storage.DefaultOrdination())
			require.NoError(t, err)
			require.Len(t, result.Transactions, 2)
		})

		t.Run("pagination with total", func(t *testing.T) {
			result, err := store.List(storage.TransactionFilter{}, storage.Pagination{
				Offset:    1,
				Limit:     2,
				WithTotal: true,
			}, storage.DefaultOrdination())
			require.NoError(t, err)
			assert.Equal(t, uint(5), result.Total)
			require.Len(t, result.Transactions, 2)
			assert.Equal(t, "tx-3", result.Transactions[0].Name)
			assert.Equal(t, "tx-2", result.Transactions[1].Name)
		})

		t.Run("offset beyond result set", func(t *testing.T) {
			result, err := store.List(storage.TransactionFilter{}, storage.Pagination{
				Offset: 10,
				Limit:  2,
			}, storage.DefaultOrdination())
			require.NoError(t, err)
			assert.Empty(t, result.Transactions)
		})

		t.Run("ascending by created at", func(t *testing.T) {
			result, err := store.List(storage.TransactionFilter{}, storage.Pagination{}, storage.Ordination{
				OrderBy:   storage.OrderByCreatedAt,
				Ascending: true,
			})
			require.NoError(t, err)
			require.Len(t, result.Transactions, 5)
			assert.Equal(t, "tx-0", result.Transactions[0].Name)
		})
	})
}
