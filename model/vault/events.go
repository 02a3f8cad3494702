package vault

// EventKind enumerates the signer-facing events a state transition produces.
type EventKind int

const (
	EventKindUnknown EventKind = iota
	// EventTransactionCreated is sent to every vault member except the
	// proposer when a transaction is created.
	EventTransactionCreated
	// EventTransactionSigned is sent to the other members when a signer approves.
	EventTransactionSigned
	// EventTransactionDeclined is sent to all members when the quorum becomes
	// unreachable and the transaction is rejected.
	EventTransactionDeclined
	// EventTransactionCompleted is sent to all members when the transaction
	// finalizes successfully on chain.
	EventTransactionCompleted
)

// String returns the string representation of an event kind.
func (k EventKind) String() string {
	return [...]string{
		"UNKNOWN",
		"TRANSACTION_CREATED",
		"TRANSACTION_SIGNED",
		"TRANSACTION_DECLINED",
		"TRANSACTION_COMPLETED",
	}[k]
}

// Event describes one notification produced by a committed state transition.
// Events are collected during the transition and dispatched only after the
// record update commits, so delivery failures can never roll back state.
type Event struct {
	// ID uniquely identifies one dispatch, so downstream delivery channels
	// can deduplicate redeliveries.
	ID              string
	Kind            EventKind
	TransactionID   Identifier
	TransactionName string
	VaultID         string
	Recipients      []string // member ids
}
