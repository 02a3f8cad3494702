package vault

import (
	"time"
)

// Output is one intended asset movement of a transaction.
type Output struct {
	To      Address
	AssetID string
	Amount  string
}

// Transaction is the authoritative record of a proposed on-chain action
// submitted through a vault. It owns the witness ledger and moves through a
// fixed lifecycle driven by signer responses, chain submission and chain
// verification.
type Transaction struct {
	ID   Identifier
	Name string

	// Hash is the chain-facing hash of the unsigned transaction, signed by
	// each approving witness.
	Hash string

	Status          TransactionStatus
	RequiredSigners uint
	TotalSigners    uint

	VaultID      string
	VaultAddress Address
	Members      []Member

	Outputs   []Output
	Payload   []byte // opaque assembled transaction for chain submission
	Witnesses WitnessList

	Resume Resume

	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time

	// SendTime is set when the transaction is accepted by the chain.
	SendTime *time.Time
	// GasUsed is the fee reported by the chain once the transaction finalizes.
	GasUsed string
	// ChainTxID is the identifier assigned by the chain on submission.
	ChainTxID string
}

// Vault reassembles the vault definition snapshot fixed at creation time.
func (tx *Transaction) Vault() Info {
	return Info{
		VaultID:         tx.VaultID,
		Address:         tx.VaultAddress,
		RequiredSigners: tx.RequiredSigners,
		Members:         tx.Members,
	}
}

// TransactionStatus represents the lifecycle status of a vault transaction.
type TransactionStatus int

const (
	// TransactionStatusUnknown indicates that the transaction status is not known.
	TransactionStatusUnknown TransactionStatus = iota
	// TransactionStatusAwaitingApproval is the status while the approval quorum
	// has not been reached and is still reachable.
	TransactionStatusAwaitingApproval
	// TransactionStatusAwaitingSubmission is the status once enough approvals
	// were collected and the transaction is ready to be sent to the chain.
	TransactionStatusAwaitingSubmission
	// TransactionStatusSubmissionFailed is the status after a failed chain
	// submission. It requires an explicit re-submit, there is no automatic retry.
	TransactionStatusSubmissionFailed
	// TransactionStatusAwaitingConfirmation is the status after the chain
	// accepted the transaction, until it finalizes.
	TransactionStatusAwaitingConfirmation
	// TransactionStatusConfirmedSuccess is the terminal status of a transaction
	// that finalized successfully on chain.
	TransactionStatusConfirmedSuccess
	// TransactionStatusConfirmedFailed is the terminal status of a transaction
	// that finalized as failed on chain.
	TransactionStatusConfirmedFailed
	// TransactionStatusRejected is the terminal status once enough signers
	// rejected that the approval quorum became unreachable.
	TransactionStatusRejected
)

// String returns the string representation of a transaction status.
func (s TransactionStatus) String() string {
	return [...]string{
		"UNKNOWN",
		"AWAITING_APPROVAL",
		"AWAITING_SUBMISSION",
		"SUBMISSION_FAILED",
		"AWAITING_CHAIN_CONFIRMATION",
		"CONFIRMED_SUCCESS",
		"CONFIRMED_FAILED",
		"REJECTED",
	}[s]
}

// IsTerminal returns true for statuses a transaction can never leave.
func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case TransactionStatusConfirmedSuccess,
		TransactionStatusConfirmedFailed,
		TransactionStatusRejected:
		return true
	}
	return false
}

// validTransitions encodes the forward-only lifecycle graph. A transaction
// may only move along these edges, it never revisits an earlier status.
var validTransitions = map[TransactionStatus][]TransactionStatus{
	TransactionStatusAwaitingApproval: {
		TransactionStatusAwaitingSubmission,
		TransactionStatusRejected,
		// administrative close applies a terminal outcome directly
		TransactionStatusConfirmedSuccess,
		TransactionStatusConfirmedFailed,
	},
	TransactionStatusAwaitingSubmission: {
		TransactionStatusAwaitingConfirmation,
		TransactionStatusSubmissionFailed,
		TransactionStatusConfirmedSuccess,
		TransactionStatusConfirmedFailed,
	},
	TransactionStatusSubmissionFailed: {
		TransactionStatusAwaitingConfirmation,
		TransactionStatusSubmissionFailed,
		TransactionStatusConfirmedSuccess,
		TransactionStatusConfirmedFailed,
	},
	TransactionStatusAwaitingConfirmation: {
		TransactionStatusConfirmedSuccess,
		TransactionStatusConfirmedFailed,
	},
}

// CanTransitionTo checks whether moving from status s to next follows the
// lifecycle graph.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
