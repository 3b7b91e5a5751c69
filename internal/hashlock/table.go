// Package hashlock provides a process-wide, lazily-populated table mapping
// content hash to mutex, so that at most one Connection Handler executes
// the DupCheck/MaybeCompress/Finalize/Admit critical section for a given
// hash at any instant.
package hashlock

import "sync"

// Table is a concurrent map from hash to *sync.Mutex. The zero value is
// ready to use. Entries are created on first lookup and retained for the
// table's lifetime; eviction is not required for correctness and is not
// implemented (the key set is bounded by distinct content hashes observed
// during the process's run).
type Table struct {
	mu      sync.Mutex
	entries map[string]*sync.Mutex
}

// NewTable returns an empty hash-lock table.
func NewTable() *Table {
	return &Table{entries: make(map[string]*sync.Mutex)}
}

// Acquire locks the mutex for hash, creating it if this is the first
// reference, and returns a release function. Lookup-or-insert is atomic
// with respect to concurrent Acquire calls for the same or different
// hashes.
func (t *Table) Acquire(hash string) (release func()) {
	m := t.lockFor(hash)
	m.Lock()
	return m.Unlock
}

func (t *Table) lockFor(hash string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.entries == nil {
		t.entries = make(map[string]*sync.Mutex)
	}
	m, ok := t.entries[hash]
	if !ok {
		m = &sync.Mutex{}
		t.entries[hash] = m
	}
	return m
}

// Len reports the number of distinct hashes the table has ever seen.
// Exposed for tests and metrics; not part of the correctness contract.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
