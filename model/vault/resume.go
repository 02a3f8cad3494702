package vault

// resumeVersion tags the snapshot layout so stored blobs remain readable
// across schema changes.
const resumeVersion = 1

// Resume is the denormalized snapshot of a transaction's chain-facing state.
// It is persisted alongside the record as the durable audit trail and must be
// reproducible from the transaction and its witness ledger at any point.
type Resume struct {
	Version         int
	TransactionID   Identifier
	Hash            string
	Status          TransactionStatus
	Outputs         []Output
	Witnesses       [][]byte // approved signatures in canonical signer order
	RequiredSigners uint
	TotalSigners    uint
	VaultID         string
	VaultAddress    Address
	ChainTxID       string
	GasUsed         string
	// Error holds the detail of the last submission failure, if any.
	Error string
}

// BuildResume derives the snapshot from the current transaction state. The
// submission error detail is carried over from the previous snapshot unless
// the transaction has moved past the failure.
func BuildResume(tx *Transaction) Resume {
	r := Resume{
		Version:         resumeVersion,
		TransactionID:   tx.ID,
		Hash:            tx.Hash,
		Status:          tx.Status,
		Outputs:         tx.Outputs,
		Witnesses:       tx.Witnesses.Signatures(),
		RequiredSigners: tx.RequiredSigners,
		TotalSigners:    tx.TotalSigners,
		VaultID:         tx.VaultID,
		VaultAddress:    tx.VaultAddress,
		ChainTxID:       tx.ChainTxID,
		GasUsed:         tx.GasUsed,
	}
	if tx.Status == TransactionStatusSubmissionFailed {
		r.Error = tx.Resume.Error
	}
	return r
}
