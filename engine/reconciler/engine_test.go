package reconciler_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Daniellrra/bako-safe-api/chain"
	"github.com/Daniellrra/bako-safe-api/engine/coordinator"
	"github.com/Daniellrra/bako-safe-api/engine/reconciler"
	"github.com/Daniellrra/bako-safe-api/model/vault"
	"github.com/Daniellrra/bako-safe-api/module/signature"
	"github.com/Daniellrra/bako-safe-api/notifications"
	bstorage "github.com/Daniellrra/bako-safe-api/storage/badger"
	"github.com/Daniellrra/bako-safe-api/utils/unittest"
)

type stubChain struct {
	mu     sync.Mutex
	status chain.StatusResult
}

func (s *stubChain) Submit(context.Context, []byte, [][]byte) (string, error) {
	return "0xchain", nil
}

func (s *stubChain) TxStatus(context.Context, string) (chain.StatusResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, nil
}

func (s *stubChain) setStatus(result chain.StatusResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = result
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, vault.Event) error { return nil }

// The loop picks up a submitted transaction and applies the chain outcome
// once the chain reports it final.
func TestReconcilesSubmittedTransaction(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		store := bstorage.NewTransactions(db)
		chainClient := &stubChain{status: chain.StatusResult{State: chain.TxStatePending}}
		dist := notifications.NewDistributor(unittest.Logger(), noopNotifier{}, 1)
		defer dist.Stop()

		coord := coordinator.New(unittest.Logger(), store, signature.NewRecoverVerifier(),
			chainClient, dist, coordinator.Config{})

		signers := unittest.SignerFixtures(t, 3)
		info := unittest.VaultFixture(signers, 2)

		tx, err := coord.Create(context.Background(), coordinator.CreateRequest{
			Name:     "transfer",
			Payload:  unittest.PayloadFixture(t),
			Vault:    info,
			Proposer: signers[0].Member.ID,
		})
		require.NoError(t, err)
		for _, signer := range signers[:2] {
			_, err = coord.RecordResponse(context.Background(), tx.ID,
				signer.Member.Address, signer.Sign(t, tx.Hash), true)
			require.NoError(t, err)
		}

		eng := reconciler.New(unittest.Logger(), coord, reconciler.Config{
			Interval:   20 * time.Millisecond,
			StartDelay: time.Millisecond,
		})
		unittest.RequireReturnsBefore(t, func() { <-eng.Ready() }, time.Second, "engine startup")
		defer func() {
			unittest.RequireReturnsBefore(t, func() { <-eng.Done() }, time.Second, "engine shutdown")
		}()

		// while the chain reports pending, the status must not move
		time.Sleep(100 * time.Millisecond)
		stored, err := store.ByID(tx.ID)
		require.NoError(t, err)
		assert.Equal(t, vault.TransactionStatusAwaitingConfirmation, stored.Status)

		chainClient.setStatus(chain.StatusResult{State: chain.TxStateSuccess, FeeUsed: "0.000012"})
		require.Eventually(t, func() bool {
			stored, err := store.ByID(tx.ID)
			return err == nil && stored.Status == vault.TransactionStatusConfirmedSuccess
		}, 2*time.Second, 10*time.Millisecond)

		stored, err = store.ByID(tx.ID)
		require.NoError(t, err)
		assert.Equal(t, "0.000012", stored.GasUsed)
	})
}

// A round with nothing to do is a no-op, and shutdown drains cleanly.
func TestIdleShutdown(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		store := bstorage.NewTransactions(db)
		dist := notifications.NewDistributor(unittest.Logger(), noopNotifier{}, 1)
		defer dist.Stop()

		coord := coordinator.New(unittest.Logger(), store, signature.NewRecoverVerifier(),
			&stubChain{}, dist, coordinator.Config{})

		eng := reconciler.New(unittest.Logger(), coord, reconciler.Config{
			Interval:   5 * time.Millisecond,
			StartDelay: time.Millisecond,
		})
		unittest.RequireReturnsBefore(t, func() { <-eng.Ready() }, time.Second, "engine startup")
		time.Sleep(30 * time.Millisecond)
		unittest.RequireReturnsBefore(t, func() { <-eng.Done() }, time.Second, "engine shutdown")
	})
}
