package verify

import (
	"crypto/subtle"
	"sync"
)

// Entry is an in-flight, unconfirmed challenge. The plaintext email lives
// only here; it is hashed and discarded the moment the challenge succeeds.
type Entry struct {
	Identity string
	Email    string
	Code     string
}

// UpsertResult describes what an idempotent upsert did to the table.
type UpsertResult int

const (
	// EntryCreated means no entry existed for the identity.
	EntryCreated UpsertResult = iota
	// CodeRefreshed means an entry with the same email got a new code.
	CodeRefreshed
	// EmailReplaced means the entry's email and code were both replaced.
	EmailReplaced
)

// PendingTable holds at most one unconfirmed challenge per identity. All
// reads and writes run under one mutex, held across the whole
// lookup-then-mutate sequence, so two racing requests for the same identity
// can never produce diverging entries. The table is memory-only: a restart
// drops every pending challenge, and users simply re-request.
type PendingTable struct {
	mu      sync.Mutex
	entries map[string]Entry
}

// NewPendingTable builds an empty table.
func NewPendingTable() *PendingTable {
	return &PendingTable{entries: make(map[string]Entry)}
}

// Upsert inserts or refreshes the challenge for e.Identity and reports which
// of the three cases applied.
func (t *PendingTable) Upsert(e Entry) UpsertResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	existing, ok := t.entries[e.Identity]
	t.entries[e.Identity] = e

	switch {
	case !ok:
		return EntryCreated
	case existing.Email == e.Email:
		return CodeRefreshed
	default:
		return EmailReplaced
	}
}

// TakeMatch removes and returns the entry for identity if its code matches
// suppliedCode. The comparison is constant-time. A miss reports false
// without revealing whether an entry exists.
func (t *PendingTable) TakeMatch(identity, suppliedCode string) (Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[identity]
	if !ok {
		return Entry{}, false
	}
	if subtle.ConstantTimeCompare([]byte(entry.Code), []byte(suppliedCode)) != 1 {
		return Entry{}, false
	}

	delete(t.entries, identity)
	return entry, true
}

// Restore puts a taken entry back unless the identity re-requested in the
// meantime. Used to undo consumption when the commit that followed failed.
func (t *PendingTable) Restore(e Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.entries[e.Identity]; !ok {
		t.entries[e.Identity] = e
	}
}

// Get returns the entry for identity without consuming it.
func (t *PendingTable) Get(identity string) (Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[identity]
	return entry, ok
}

// Len reports how many challenges are outstanding.
func (t *PendingTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
