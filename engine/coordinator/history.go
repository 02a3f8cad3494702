package coordinator

import (
	"sort"
	"time"

	"github.com/Daniellrra/bako-safe-api/model/vault"
	"github.com/Daniellrra/bako-safe-api/storage"
)

// HistoryEntryKind enumerates the audit trail entries of a transaction.
type HistoryEntryKind int

const (
	HistoryCreated HistoryEntryKind = iota
	HistorySigned
	HistoryDeclined
	HistorySent
	HistoryFailed
)

// String returns the string representation of a history entry kind.
func (k HistoryEntryKind) String() string {
	return [...]string{"CREATED", "SIGNED", "DECLINED", "SENT", "FAILED"}[k]
}

// HistoryEntry is one step in a transaction's audit trail.
type HistoryEntry struct {
	Kind HistoryEntryKind
	Time time.Time
	// Actor identifies who drove the step: the proposer's member id for
	// creation and terminal steps, the signer address for witness responses.
	Actor string
}

// History derives the ordered audit trail of a transaction from its record:
// creation, each resolved witness response, and the submission or failure
// outcome where applicable.
func (c *Coordinator) History(txID vault.Identifier) ([]HistoryEntry, error) {
	tx, err := c.transactions.ByID(txID)
	if err != nil {
		return nil, err
	}

	entries := []HistoryEntry{
		{Kind: HistoryCreated, Time: tx.CreatedAt, Actor: tx.CreatedBy},
	}

	for i := range tx.Witnesses {
		w := &tx.Witnesses[i]
		switch w.Status {
		case vault.WitnessStatusApproved:
			entries = append(entries, HistoryEntry{Kind: HistorySigned, Time: w.UpdatedAt, Actor: w.Account.String()})
		case vault.WitnessStatusRejected:
			entries = append(entries, HistoryEntry{Kind: HistoryDeclined, Time: w.UpdatedAt, Actor: w.Account.String()})
		}
	}

	switch tx.Status {
	case vault.TransactionStatusConfirmedSuccess:
		sent := tx.UpdatedAt
		if tx.SendTime != nil {
			sent = *tx.SendTime
		}
		entries = append(entries, HistoryEntry{Kind: HistorySent, Time: sent, Actor: tx.CreatedBy})
	case vault.TransactionStatusConfirmedFailed, vault.TransactionStatusSubmissionFailed:
		entries = append(entries, HistoryEntry{Kind: HistoryFailed, Time: tx.UpdatedAt, Actor: tx.CreatedBy})
	case vault.TransactionStatusRejected:
		entries = append(entries, HistoryEntry{Kind: HistoryDeclined, Time: tx.UpdatedAt, Actor: tx.CreatedBy})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Time.Before(entries[j].Time)
	})

	return entries, nil
}

// PendingActivity summarizes what a signer still has to act on.
type PendingActivity struct {
	// AwaitingSignature is the number of transactions waiting on this
	// signer's response.
	AwaitingSignature uint
	// Blocked reports whether any transaction of the inspected vaults is
	// stuck awaiting approvals.
	Blocked bool
}

// PendingActivity reports the open approval workload of a signer, optionally
// restricted to one vault.
func (c *Coordinator) PendingActivity(signer vault.Address, vaultID string) (PendingActivity, error) {
	filter := storage.TransactionFilter{
		Statuses: []vault.TransactionStatus{vault.TransactionStatusAwaitingApproval},
		Signer:   signer,
		VaultID:  vaultID,
	}
	result, err := c.transactions.List(filter, storage.Pagination{}, storage.DefaultOrdination())
	if err != nil {
		return PendingActivity{}, err
	}

	activity := PendingActivity{
		Blocked: len(result.Transactions) > 0,
	}
	for _, tx := range result.Transactions {
		idx := tx.Witnesses.ByAccount(signer)
		if idx >= 0 && tx.Witnesses[idx].Status == vault.WitnessStatusPending {
			activity.AwaitingSignature++
		}
	}

	return activity, nil
}
