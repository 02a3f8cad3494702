// Package signature verifies witness signatures by public key recovery:
// a signature is valid when the account recovered from it matches the
// claimed signer address. No key material is ever held by this package.
package signature

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/Daniellrra/bako-safe-api/model/vault"
)

const signatureLength = 65 // r (32) || s (32) || v (1)

// RecoverVerifier checks secp256k1 signatures made over the personal-message
// digest of the transaction hash, the scheme wallets use to sign vault
// transactions.
type RecoverVerifier struct{}

func NewRecoverVerifier() *RecoverVerifier {
	return &RecoverVerifier{}
}

func (v *RecoverVerifier) Verify(hash string, sig []byte, account vault.Address) error {
	if len(sig) != signatureLength {
		return fmt.Errorf("invalid signature length (%d)", len(sig))
	}

	// wallets encode the recovery id as 27/28, crypto.SigToPub expects 0/1
	normalized := make([]byte, signatureLength)
	copy(normalized, sig)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(hash)), normalized)
	if err != nil {
		return fmt.Errorf("could not recover public key: %w", err)
	}

	recovered := crypto.PubkeyToAddress(*pub)
	if !strings.EqualFold(recovered.Hex(), account.String()) {
		return fmt.Errorf("signature recovers to %s, not %s", recovered.Hex(), account)
	}

	return nil
}
