// Package coordinator implements the transaction lifecycle of the vault:
// creation, witness intake, quorum-driven status derivation, chain submission
// and on-chain verification. It owns the authoritative transaction record and
// enforces the state machine end to end.
package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Daniellrra/bako-safe-api/chain"
	"github.com/Daniellrra/bako-safe-api/model/vault"
	"github.com/Daniellrra/bako-safe-api/module"
	"github.com/Daniellrra/bako-safe-api/notifications"
	"github.com/Daniellrra/bako-safe-api/storage"
)

const (
	defaultSubmitTimeout = 30 * time.Second
	defaultVerifyTimeout = 15 * time.Second
)

// Config parameterizes the coordinator.
type Config struct {
	SubmitTimeout time.Duration
	VerifyTimeout time.Duration
}

// Coordinator orchestrates the transaction lifecycle. All state-modifying
// operations serialize per transaction through the lock table; chain calls
// run outside the lock, bounded by a timeout, and their outcome is applied
// under the lock afterwards. Notifications are dispatched only after the
// store commit, so their failure can never affect lifecycle state.
type Coordinator struct {
	log          zerolog.Logger
	transactions storage.Transactions
	verifier     module.SignatureVerifier
	client       chain.Client
	dist         *notifications.Distributor
	locks        *lockTable

	submitTimeout time.Duration
	verifyTimeout time.Duration
}

func New(
	log zerolog.Logger,
	transactions storage.Transactions,
	verifier module.SignatureVerifier,
	client chain.Client,
	dist *notifications.Distributor,
	conf Config,
) *Coordinator {
	if conf.SubmitTimeout == 0 {
		conf.SubmitTimeout = defaultSubmitTimeout
	}
	if conf.VerifyTimeout == 0 {
		conf.VerifyTimeout = defaultVerifyTimeout
	}

	c := &Coordinator{
		log:           log.With().Str("engine", "coordinator").Logger(),
		transactions:  transactions,
		verifier:      verifier,
		client:        client,
		dist:          dist,
		locks:         newLockTable(),
		submitTimeout: conf.SubmitTimeout,
		verifyTimeout: conf.VerifyTimeout,
	}
	return c
}

// CreateRequest carries a transaction proposal. The vault definition is
// supplied by the caller and fixed into the record; later membership changes
// do not affect the proposed transaction.
type CreateRequest struct {
	Name    string
	Payload []byte
	Hash    string // chain-facing hash signed by witnesses; derived from the payload when empty
	Outputs []vault.Output
	Vault   vault.Info
	// Proposer is the member id of the proposing identity.
	Proposer string
	// Elevated is set when the proposer holds an elevated workspace role and
	// may propose on vaults they are not a member of.
	Elevated bool
}

// Create validates the proposal and stores a new transaction in
// AWAITING_APPROVAL with one pending witness entry per vault member, then
// notifies every member except the proposer.
func (c *Coordinator) Create(ctx context.Context, req CreateRequest) (*vault.Transaction, error) {
	info := req.Vault
	if info.RequiredSigners < 1 || info.RequiredSigners > uint(len(info.Members)) {
		return nil, fmt.Errorf("invalid vault definition: %d signers required of %d members",
			info.RequiredSigners, len(info.Members))
	}

	if !req.Elevated && !info.IsMember(req.Proposer) {
		return nil, vault.PermissionDeniedError{MemberID: req.Proposer, VaultID: info.VaultID}
	}

	if len(req.Payload) == 0 {
		return nil, fmt.Errorf("proposal payload must not be empty")
	}

	now := time.Now().UTC()
	id := vault.MakeID(req.Payload)
	hash := req.Hash
	if hash == "" {
		hash = id.String()
	}

	tx := &vault.Transaction{
		ID:              id,
		Name:            req.Name,
		Hash:            hash,
		Status:          vault.TransactionStatusAwaitingApproval,
		RequiredSigners: info.RequiredSigners,
		TotalSigners:    uint(len(info.Members)),
		VaultID:         info.VaultID,
		VaultAddress:    info.Address,
		Members:         info.Members,
		Outputs:         req.Outputs,
		Payload:         req.Payload,
		Witnesses:       vault.NewWitnessList(info, now),
		CreatedBy:       req.Proposer,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	tx.Resume = vault.BuildResume(tx)

	err := c.transactions.Store(tx)
	if err != nil {
		return nil, fmt.Errorf("could not store transaction: %w", err)
	}

	c.log.Info().
		Str("transaction_id", tx.ID.String()).
		Str("vault_id", tx.VaultID).
		Uint("required_signers", tx.RequiredSigners).
		Uint("total_signers", tx.TotalSigners).
		Msg("transaction created")

	c.dist.Dispatch(c.newEvent(vault.EventTransactionCreated, tx, info.MemberIDsExcept(req.Proposer)))

	return tx, nil
}

// RecordResponse applies one signer's decision to the witness ledger and
// recomputes the lifecycle status. An approval must carry a signature that
// verifies against the transaction hash and the signer's address. When the
// response completes the quorum, submission triggers immediately; a
// submission failure is reported to the caller, but the response itself
// stays recorded.
//
// The returned flag reports whether the ledger changed: a repeated identical
// response from an already-resolved signer is a no-op success, a conflicting
// one fails with InvalidStateError.
func (c *Coordinator) RecordResponse(ctx context.Context, txID vault.Identifier, account vault.Address, sig []byte, accept bool) (bool, error) {
	entry := c.locks.get(txID)
	entry.mu.Lock()

	tx, err := c.transactions.ByID(txID)
	if err != nil {
		entry.mu.Unlock()
		return false, err
	}

	if tx.Status.IsTerminal() {
		entry.mu.Unlock()
		return false, vault.InvalidStateError{TransactionID: txID, Status: tx.Status, Operation: "record response for"}
	}

	idx := tx.Witnesses.ByAccount(account)
	if idx < 0 {
		entry.mu.Unlock()
		return false, vault.UnknownSignerError{TransactionID: txID, Account: account}
	}

	// witness entries are write-once: repeating the same decision is a
	// no-op, changing it is refused
	current := tx.Witnesses[idx].Status
	if current != vault.WitnessStatusPending {
		entry.mu.Unlock()
		responded := current == vault.WitnessStatusApproved
		if responded == accept {
			return false, nil
		}
		return false, vault.InvalidStateError{TransactionID: txID, Status: tx.Status, Operation: "change recorded response for"}
	}

	if accept {
		err = c.verifier.Verify(tx.Hash, sig, account)
		if err != nil {
			entry.mu.Unlock()
			return false, vault.InvalidSignatureError{Account: account, Err: err}
		}
	}

	now := time.Now().UTC()
	var newStatus vault.TransactionStatus
	tx, err = c.transactions.Update(txID, func(tx *vault.Transaction) error {
		idx := tx.Witnesses.ByAccount(account)
		if idx < 0 {
			return vault.UnknownSignerError{TransactionID: txID, Account: account}
		}
		witness := &tx.Witnesses[idx]
		if witness.Status != vault.WitnessStatusPending {
			return vault.InvalidStateError{TransactionID: txID, Status: tx.Status, Operation: "change recorded response for"}
		}

		if accept {
			witness.Status = vault.WitnessStatusApproved
			witness.Signature = sig
		} else {
			witness.Status = vault.WitnessStatusRejected
			witness.Signature = nil
		}
		witness.UpdatedAt = now

		// decisions are evaluated against the approval threshold only while
		// the transaction still awaits approval; a late response never
		// reverts a transaction that already crossed the threshold
		newStatus = tx.Status
		if tx.Status == vault.TransactionStatusAwaitingApproval {
			derived := vault.EvaluateQuorum(tx.Witnesses, tx.RequiredSigners)
			if derived != tx.Status && tx.Status.CanTransitionTo(derived) {
				tx.Status = derived
				newStatus = derived
			}
		}

		tx.UpdatedAt = now
		tx.Resume = vault.BuildResume(tx)
		return nil
	})
	if err != nil {
		entry.mu.Unlock()
		return false, err
	}
	entry.mu.Unlock()

	log := c.log.With().
		Str("transaction_id", txID.String()).
		Str("account", account.String()).
		Bool("accept", accept).
		Str("status", newStatus.String()).
		Logger()
	log.Info().Msg("witness response recorded")

	var events []vault.Event
	if accept {
		if member, ok := tx.Vault().MemberByAddress(account); ok {
			events = append(events, c.newEvent(vault.EventTransactionSigned, tx, tx.Vault().MemberIDsExcept(member.ID)))
		}
	}
	if newStatus == vault.TransactionStatusRejected {
		events = append(events, c.newEvent(vault.EventTransactionDeclined, tx, tx.Vault().MemberIDs()))
	}
	c.dist.Dispatch(events...)

	if newStatus == vault.TransactionStatusAwaitingSubmission {
		err = c.submit(ctx, txID)
		if err != nil {
			log.Warn().Err(err).Msg("submission after quorum failed")
			return true, err
		}
	}

	return true, nil
}

// Submit is the explicit submission trigger, used by an operator to retry
// after a submission failure was resolved. It fails with InvalidStateError
// unless the transaction is ready for (re-)submission.
func (c *Coordinator) Submit(ctx context.Context, txID vault.Identifier) error {
	return c.submit(ctx, txID)
}

// submit sends the witnessed transaction to the chain. At most one submission
// is in flight per transaction: a concurrent trigger while one is running is
// a no-op. The chain call runs outside the transaction lock.
func (c *Coordinator) submit(ctx context.Context, txID vault.Identifier) error {
	entry := c.locks.get(txID)
	entry.mu.Lock()

	tx, err := c.transactions.ByID(txID)
	if err != nil {
		entry.mu.Unlock()
		return err
	}

	if tx.Status != vault.TransactionStatusAwaitingSubmission &&
		tx.Status != vault.TransactionStatusSubmissionFailed {
		entry.mu.Unlock()
		return vault.InvalidStateError{TransactionID: txID, Status: tx.Status, Operation: "submit"}
	}

	if !entry.submitting.CompareAndSwap(false, true) {
		// already submitting on another path
		entry.mu.Unlock()
		return nil
	}
	defer entry.submitting.Store(false)

	witnesses := tx.Witnesses.Signatures()
	if uint(len(witnesses)) < tx.RequiredSigners {
		entry.mu.Unlock()
		return fmt.Errorf("only %d of %d required signatures attached", len(witnesses), tx.RequiredSigners)
	}
	payload := tx.Payload
	entry.mu.Unlock()

	subCtx, cancel := context.WithTimeout(ctx, c.submitTimeout)
	defer cancel()
	chainTxID, submitErr := c.client.Submit(subCtx, payload, witnesses)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	// another path may have transitioned the record while the chain call was
	// in flight; the outcome only applies to a record still awaiting it
	stillSubmittable := func(tx *vault.Transaction) bool {
		return tx.Status == vault.TransactionStatusAwaitingSubmission ||
			tx.Status == vault.TransactionStatusSubmissionFailed
	}

	now := time.Now().UTC()
	if submitErr != nil {
		if !chain.IsSubmissionError(submitErr) {
			submitErr = chain.NewSubmissionError(submitErr)
		}
		applied := false
		_, err = c.transactions.Update(txID, func(tx *vault.Transaction) error {
			if !stillSubmittable(tx) {
				return nil
			}
			applied = true
			tx.Status = vault.TransactionStatusSubmissionFailed
			tx.UpdatedAt = now
			tx.Resume.Error = submitErr.Error()
			tx.Resume = vault.BuildResume(tx)
			return nil
		})
		if err != nil {
			return fmt.Errorf("could not record submission failure: %w", err)
		}
		if !applied {
			c.log.Warn().Err(submitErr).
				Str("transaction_id", txID.String()).
				Msg("transaction left submission state during failed chain submission")
			return submitErr
		}
		c.log.Warn().Err(submitErr).
			Str("transaction_id", txID.String()).
			Msg("chain submission failed")
		return submitErr
	}

	applied := false
	_, err = c.transactions.Update(txID, func(tx *vault.Transaction) error {
		if !stillSubmittable(tx) {
			return nil
		}
		applied = true
		tx.Status = vault.TransactionStatusAwaitingConfirmation
		tx.ChainTxID = chainTxID
		tx.SendTime = &now
		tx.UpdatedAt = now
		tx.Resume = vault.BuildResume(tx)
		return nil
	})
	if err != nil {
		return fmt.Errorf("could not record submission: %w", err)
	}
	if !applied {
		c.log.Warn().
			Str("transaction_id", txID.String()).
			Str("chain_tx_id", chainTxID).
			Msg("transaction left submission state during chain submission")
		return nil
	}

	c.log.Info().
		Str("transaction_id", txID.String()).
		Str("chain_tx_id", chainTxID).
		Msg("transaction submitted to chain")
	return nil
}

// Reconcile fetches the on-chain status of a submitted transaction and
// applies it. While the chain still reports the transaction as pending, or
// the lookup fails transiently, the last known snapshot is returned
// unchanged and the call is safely repeated later. Reconciling an already
// confirmed transaction is a no-op returning its snapshot.
func (c *Coordinator) Reconcile(ctx context.Context, txID vault.Identifier) (vault.Resume, error) {
	entry := c.locks.get(txID)
	entry.mu.Lock()

	tx, err := c.transactions.ByID(txID)
	if err != nil {
		entry.mu.Unlock()
		return vault.Resume{}, err
	}

	if tx.Status == vault.TransactionStatusConfirmedSuccess ||
		tx.Status == vault.TransactionStatusConfirmedFailed {
		entry.mu.Unlock()
		return tx.Resume, nil
	}

	if tx.Status != vault.TransactionStatusAwaitingConfirmation {
		entry.mu.Unlock()
		return vault.Resume{}, vault.InvalidStateError{TransactionID: txID, Status: tx.Status, Operation: "reconcile"}
	}

	chainTxID := tx.ChainTxID
	lastKnown := tx.Resume
	entry.mu.Unlock()

	verifyCtx, cancel := context.WithTimeout(ctx, c.verifyTimeout)
	defer cancel()
	result, err := c.client.TxStatus(verifyCtx, chainTxID)
	if err != nil {
		// transient: report the last known state, the next poll retries
		c.log.Warn().Err(err).
			Str("transaction_id", txID.String()).
			Str("chain_tx_id", chainTxID).
			Msg("chain status lookup failed")
		return lastKnown, nil
	}

	if result.State == chain.TxStatePending {
		return lastKnown, nil
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	// re-read under the lock; another path may have applied the outcome
	tx, err = c.transactions.ByID(txID)
	if err != nil {
		return vault.Resume{}, err
	}
	if tx.Status != vault.TransactionStatusAwaitingConfirmation {
		return tx.Resume, nil
	}

	outcome := vault.TransactionStatusConfirmedSuccess
	if result.State == chain.TxStateFailed {
		outcome = vault.TransactionStatusConfirmedFailed
	}

	now := time.Now().UTC()
	tx, err = c.transactions.Update(txID, func(tx *vault.Transaction) error {
		tx.Status = outcome
		tx.GasUsed = result.FeeUsed
		tx.UpdatedAt = now
		tx.Resume = vault.BuildResume(tx)
		return nil
	})
	if err != nil {
		return vault.Resume{}, fmt.Errorf("could not record chain outcome: %w", err)
	}

	c.log.Info().
		Str("transaction_id", txID.String()).
		Str("chain_tx_id", chainTxID).
		Str("status", outcome.String()).
		Str("gas_used", tx.GasUsed).
		Msg("transaction reconciled")

	if outcome == vault.TransactionStatusConfirmedSuccess {
		c.dist.Dispatch(c.newEvent(vault.EventTransactionCompleted, tx, tx.Vault().MemberIDs()))
	}

	return tx.Resume, nil
}

// Close applies a terminal outcome confirmed by an external process, for
// example a chain listener. It fails with InvalidStateError when the
// transaction is already terminal, so it can be invoked at most once.
func (c *Coordinator) Close(ctx context.Context, txID vault.Identifier, outcome vault.TransactionStatus, gasUsed string) (*vault.Transaction, error) {
	if outcome != vault.TransactionStatusConfirmedSuccess &&
		outcome != vault.TransactionStatusConfirmedFailed {
		return nil, fmt.Errorf("close outcome must be terminal, got %s", outcome)
	}

	entry := c.locks.get(txID)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	tx, err := c.transactions.ByID(txID)
	if err != nil {
		return nil, err
	}
	if tx.Status.IsTerminal() {
		return nil, vault.InvalidStateError{TransactionID: txID, Status: tx.Status, Operation: "close"}
	}

	now := time.Now().UTC()
	tx, err = c.transactions.Update(txID, func(tx *vault.Transaction) error {
		if !tx.Status.CanTransitionTo(outcome) {
			return vault.InvalidStateError{TransactionID: txID, Status: tx.Status, Operation: "close"}
		}
		tx.Status = outcome
		tx.GasUsed = gasUsed
		if tx.SendTime == nil {
			tx.SendTime = &now
		}
		tx.UpdatedAt = now
		tx.Resume = vault.BuildResume(tx)
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.log.Info().
		Str("transaction_id", txID.String()).
		Str("status", outcome.String()).
		Msg("transaction closed")

	if outcome == vault.TransactionStatusConfirmedSuccess {
		c.dist.Dispatch(c.newEvent(vault.EventTransactionCompleted, tx, tx.Vault().MemberIDs()))
	}

	return tx, nil
}

// ByID returns the transaction with the given identifier. A transaction
// awaiting chain confirmation is reconciled inline first, so reads always
// reflect the freshest chain view available.
func (c *Coordinator) ByID(ctx context.Context, txID vault.Identifier) (*vault.Transaction, error) {
	tx, err := c.transactions.ByID(txID)
	if err != nil {
		return nil, err
	}

	if tx.Status == vault.TransactionStatusAwaitingConfirmation {
		_, err = c.Reconcile(ctx, txID)
		if err != nil {
			return nil, err
		}
		return c.transactions.ByID(txID)
	}

	return tx, nil
}

// ByHash returns the transaction with the given chain-facing hash.
func (c *Coordinator) ByHash(hash string) (*vault.Transaction, error) {
	return c.transactions.ByHash(hash)
}

// List returns the transactions matching the filter.
func (c *Coordinator) List(filter storage.TransactionFilter, page storage.Pagination, order storage.Ordination) (*storage.TransactionList, error) {
	return c.transactions.List(filter, page, order)
}

func (c *Coordinator) newEvent(kind vault.EventKind, tx *vault.Transaction, recipients []string) vault.Event {
	return vault.Event{
		ID:              uuid.NewString(),
		Kind:            kind,
		TransactionID:   tx.ID,
		TransactionName: tx.Name,
		VaultID:         tx.VaultID,
		Recipients:      recipients,
	}
}
