package signature_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Daniellrra/bako-safe-api/module/signature"
	"github.com/Daniellrra/bako-safe-api/utils/unittest"
)

func TestVerifyValidSignature(t *testing.T) {
	signer := unittest.SignerFixtures(t, 1)[0]
	verifier := signature.NewRecoverVerifier()

	hash := "0f2d5a8c41"
	sig := signer.Sign(t, hash)

	err := verifier.Verify(hash, sig, signer.Member.Address)
	require.NoError(t, err)
}

func TestVerifyWalletRecoveryID(t *testing.T) {
	signer := unittest.SignerFixtures(t, 1)[0]
	verifier := signature.NewRecoverVerifier()

	hash := "0f2d5a8c41"
	sig := signer.Sign(t, hash)

	// wallets ship the recovery id offset by 27
	shifted := make([]byte, len(sig))
	copy(shifted, sig)
	shifted[64] += 27

	err := verifier.Verify(hash, shifted, signer.Member.Address)
	require.NoError(t, err)
}

func TestVerifyWrongSigner(t *testing.T) {
	signers := unittest.SignerFixtures(t, 2)
	verifier := signature.NewRecoverVerifier()

	hash := "0f2d5a8c41"
	sig := signers[0].Sign(t, hash)

	err := verifier.Verify(hash, sig, signers[1].Member.Address)
	require.Error(t, err)
}

func TestVerifyWrongHash(t *testing.T) {
	signer := unittest.SignerFixtures(t, 1)[0]
	verifier := signature.NewRecoverVerifier()

	sig := signer.Sign(t, "0f2d5a8c41")

	err := verifier.Verify("different-hash", sig, signer.Member.Address)
	require.Error(t, err)
}

func TestVerifyMalformedSignature(t *testing.T) {
	signer := unittest.SignerFixtures(t, 1)[0]
	verifier := signature.NewRecoverVerifier()

	err := verifier.Verify("0f2d5a8c41", []byte{0x01, 0x02}, signer.Member.Address)
	require.Error(t, err)
}
