package driver

import "sync"

// lockTable serializes operations per volume name (§5 concurrency model).
// Operations on distinct names proceed in parallel; a coarser single
// mutex would also satisfy correctness, but contention is low enough for
// create/mount's I/O cost to dominate regardless.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*sync.Mutex)}
}

// withLock runs fn while holding the per-name mutex for name, creating one
// on first use. Entries are never removed — the table grows with the
// distinct set of volume names ever seen, which is bounded in practice by
// the number of volumes the plugin manages.
func (t *lockTable) withLock(name string, fn func() error) error {
	t.mu.Lock()
	m, ok := t.locks[name]
	if !ok {
		m = &sync.Mutex{}
		t.locks[name] = m
	}
	t.mu.Unlock()

	m.Lock()
	defer m.Unlock()
	return fn()
}
