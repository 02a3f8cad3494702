package unittest

import (
	"crypto/ecdsa"
	"crypto/rand"
	"fmt"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/Daniellrra/bako-safe-api/model/vault"
)

// SignerFixture is a vault member with a throwaway secp256k1 key, able to
// produce signatures that verify against its address.
type SignerFixture struct {
	Key    *ecdsa.PrivateKey
	Member vault.Member
}

// Sign signs the given transaction hash the way wallets do: over the
// personal-message digest of the hash string.
func (s *SignerFixture) Sign(t testing.TB, hash string) []byte {
	sig, err := crypto.Sign(accounts.TextHash([]byte(hash)), s.Key)
	require.NoError(t, err)
	return sig
}

// SignerFixtures returns n signers with fresh keys.
func SignerFixtures(t testing.TB, n int) []*SignerFixture {
	signers := make([]*SignerFixture, 0, n)
	for i := 0; i < n; i++ {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)
		signers = append(signers, &SignerFixture{
			Key: key,
			Member: vault.Member{
				ID:      fmt.Sprintf("member-%d", i),
				Address: vault.NormalizeAddress(crypto.PubkeyToAddress(key.PublicKey).Hex()),
			},
		})
	}
	return signers
}

// VaultFixture returns a vault definition with the given signers and
// threshold, members in canonical signer order.
func VaultFixture(signers []*SignerFixture, requiredSigners uint) vault.Info {
	members := make([]vault.Member, 0, len(signers))
	for _, s := range signers {
		members = append(members, s.Member)
	}
	return vault.Info{
		VaultID:         "vault-fixture",
		Address:         "0xf1x7u2e",
		RequiredSigners: requiredSigners,
		Members:         members,
	}
}

// PayloadFixture returns a random unsigned transaction payload.
func PayloadFixture(t testing.TB) []byte {
	payload := make([]byte, 64)
	_, err := rand.Read(payload)
	require.NoError(t, err)
	return payload
}

// TransactionFixture returns a freshly created transaction for the given
// vault, all witness entries pending.
func TransactionFixture(t testing.TB, info vault.Info) *vault.Transaction {
	now := time.Now().UTC()
	payload := PayloadFixture(t)
	id := vault.MakeID(payload)

	tx := &vault.Transaction{
		ID:              id,
		Name:            "transaction-fixture",
		Hash:            id.String(),
		Status:          vault.TransactionStatusAwaitingApproval,
		RequiredSigners: info.RequiredSigners,
		TotalSigners:    uint(len(info.Members)),
		VaultID:         info.VaultID,
		VaultAddress:    info.Address,
		Members:         info.Members,
		Outputs: []vault.Output{
			{To: "0xrec1p1en7", AssetID: "asset-eth", Amount: "0.5"},
		},
		Payload:   payload,
		Witnesses: vault.NewWitnessList(info, now),
		CreatedBy: info.Members[0].ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	tx.Resume = vault.BuildResume(tx)
	return tx
}
