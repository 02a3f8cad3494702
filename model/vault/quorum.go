package vault

// EvaluateQuorum derives the next lifecycle status from the witness ledger
// and the approval threshold. It is a pure function and assumes the
// transaction has not reached a terminal status yet; terminal and
// post-submission statuses are guarded by the coordinator, not here.
//
// The rules are:
//   - approvals reached the threshold -> AWAITING_SUBMISSION
//   - the threshold became mathematically unreachable -> REJECTED
//   - otherwise -> AWAITING_APPROVAL
//
// With requiredSigners == len(ledger), a single rejection makes the quorum
// unreachable and the transaction is rejected immediately.
func EvaluateQuorum(ledger WitnessList, requiredSigners uint) TransactionStatus {
	approved, _, pending := ledger.Counts()

	if approved >= requiredSigners {
		return TransactionStatusAwaitingSubmission
	}

	if approved+pending < requiredSigners {
		return TransactionStatusRejected
	}

	return TransactionStatusAwaitingApproval
}
