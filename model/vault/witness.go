package vault

import "time"

// WitnessStatus represents the stance of one required signer on a transaction.
type WitnessStatus int

const (
	// WitnessStatusPending indicates the signer has not responded yet.
	WitnessStatusPending WitnessStatus = iota
	// WitnessStatusApproved indicates the signer approved and provided a signature.
	WitnessStatusApproved
	// WitnessStatusRejected indicates the signer declined to sign.
	WitnessStatusRejected
)

// String returns the string representation of a witness status.
func (s WitnessStatus) String() string {
	return [...]string{"PENDING", "APPROVED", "REJECTED"}[s]
}

// WitnessEntry records one required signer's response to a transaction.
// An entry is write-once: the first non-pending response is final for that
// signer, and a conflicting second response is rejected by the coordinator.
type WitnessEntry struct {
	Account   Address
	Status    WitnessStatus
	Signature []byte // present if and only if Status is APPROVED
	UpdatedAt time.Time
}

// WitnessList is the per-transaction ledger of signer responses, stored in
// the vault's canonical signer order.
type WitnessList []WitnessEntry

// ByAccount returns the index of the entry for the given signer address,
// or -1 when the address is not a required signer of the transaction.
func (wl WitnessList) ByAccount(account Address) int {
	for i := range wl {
		if wl[i].Account.Equals(account) {
			return i
		}
	}
	return -1
}

// Counts tallies the ledger entries by response state.
func (wl WitnessList) Counts() (approved uint, rejected uint, pending uint) {
	for i := range wl {
		switch wl[i].Status {
		case WitnessStatusApproved:
			approved++
		case WitnessStatusRejected:
			rejected++
		default:
			pending++
		}
	}
	return
}

// Signatures returns the captured signatures of all approved entries, in
// ledger (canonical signer) order. This is the witness set assembled for
// chain submission.
func (wl WitnessList) Signatures() [][]byte {
	sigs := make([][]byte, 0, len(wl))
	for i := range wl {
		if wl[i].Status == WitnessStatusApproved && len(wl[i].Signature) > 0 {
			sigs = append(sigs, wl[i].Signature)
		}
	}
	return sigs
}

// NewWitnessList creates the initial ledger for a transaction, one pending
// entry per vault member, in canonical signer order.
func NewWitnessList(v Info, now time.Time) WitnessList {
	wl := make(WitnessList, 0, len(v.Members))
	for _, m := range v.Members {
		wl = append(wl, WitnessEntry{
			Account:   m.Address,
			Status:    WitnessStatusPending,
			UpdatedAt: now,
		})
	}
	return wl
}
