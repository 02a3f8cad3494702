package module

import (
	"context"

	"github.com/Daniellrra/bako-safe-api/model/vault"
)

// SignatureVerifier confirms a supplied signature over a transaction hash was
// produced by the claimed account. Implementations are pure and CPU-bound.
type SignatureVerifier interface {

	// Verify returns nil when the signature over the given transaction hash
	// recovers to the claimed account, and an error otherwise. A verification
	// failure of any kind is treated as an invalid signature by callers.
	Verify(hash string, signature []byte, account vault.Address) error
}

// Notifier delivers signer-facing events to vault members. Delivery is
// best-effort: the coordinator dispatches events only after the state
// transition committed, and a delivery failure is logged, never propagated
// back into the transaction lifecycle.
type Notifier interface {
	Notify(ctx context.Context, event vault.Event) error
}
