// Package chain defines the outbound capabilities the coordinator consumes
// from the network: submitting an assembled, witnessed transaction and
// fetching the status of a previously submitted one.
package chain

import "context"

// TxState is the chain-side state of a submitted transaction.
type TxState int

const (
	// TxStatePending indicates the chain accepted the transaction into its
	// queue but has not finalized it yet.
	TxStatePending TxState = iota
	// TxStateSuccess indicates the transaction finalized successfully.
	TxStateSuccess
	// TxStateFailed indicates the transaction finalized as failed.
	TxStateFailed
)

// String returns the string representation of a chain transaction state.
func (s TxState) String() string {
	return [...]string{"PENDING", "SUCCESS", "FAILED"}[s]
}

// StatusResult is the outcome of a chain status lookup. FeeUsed is only
// populated once the transaction finalized.
type StatusResult struct {
	State   TxState
	FeeUsed string
}

// Client submits witnessed transactions to the chain and fetches their
// status. Both calls perform network I/O; callers bound them with a context
// deadline and must never invoke them while holding a transaction lock.
type Client interface {

	// Submit sends the assembled payload with its witness signatures, in
	// canonical signer order, and returns the chain transaction id.
	// Failures of any kind (rejection, network, timeout) are returned as
	// *SubmissionError.
	Submit(ctx context.Context, payload []byte, witnesses [][]byte) (string, error)

	// TxStatus fetches the current state of a submitted transaction.
	// Transient failures (network, timeout) are returned as
	// *VerificationError and are safe to retry.
	TxStatus(ctx context.Context, chainTxID string) (StatusResult, error)
}
