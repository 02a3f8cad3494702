package coordinator

import (
	"sync"

	"go.uber.org/atomic"

	"github.com/Daniellrra/bako-safe-api/model/vault"
)

// lockEntry serializes state transitions of one transaction. The submitting
// flag additionally guards the submission window: it is set under the mutex
// before the chain call and cleared when the outcome has been applied, so a
// concurrent trigger can never cause a second chain submission.
type lockEntry struct {
	mu         sync.Mutex
	submitting *atomic.Bool
}

// lockTable hands out the per-transaction lock entries. Entries are created
// lazily and kept for the lifetime of the process; the table is bounded by
// the number of distinct transactions touched.
type lockTable struct {
	mu      sync.Mutex
	entries map[vault.Identifier]*lockEntry
}

func newLockTable() *lockTable {
	return &lockTable{
		entries: make(map[vault.Identifier]*lockEntry),
	}
}

func (lt *lockTable) get(txID vault.Identifier) *lockEntry {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	entry, ok := lt.entries[txID]
	if !ok {
		entry = &lockEntry{submitting: atomic.NewBool(false)}
		lt.entries[txID] = entry
	}
	return entry
}
