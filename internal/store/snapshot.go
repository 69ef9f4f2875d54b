package store

import "fmt"

// Snapshots is the single-slot transaction snapshot manager of a Store.
//
// States: no snapshot, snapshot active. Begin always lands in the active
// state, discarding any earlier snapshot. Rollback and Commit without an
// active snapshot are no-ops.
type Snapshots struct {
	store  *Store
	saved  []KV
	active bool
}

// NewSnapshots returns a manager with no active snapshot.
func NewSnapshots(s *Store) *Snapshots {
	return &Snapshots{store: s}
}

// Active reports whether a snapshot is held.
func (m *Snapshots) Active() bool {
	return m.active
}

// Begin captures a full copy of the store.
func (m *Snapshots) Begin() error {
	kvs, err := m.store.backend.Entries()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if m.active {
		m.store.logger.Debug("snapshot replaced", "entries", len(m.saved))
	}
	m.saved = kvs
	m.active = true
	m.store.logger.Debug("snapshot begin", "entries", len(kvs))
	return nil
}

// Rollback restores the store to the captured copy and drops the snapshot.
//
// On a backend error the snapshot is kept so the rollback can be retried.
func (m *Snapshots) Rollback() error {
	if !m.active {
		return nil
	}
	if err := m.store.backend.Clear(); err != nil {
		return fmt.Errorf("rollback transaction: %w", err)
	}
	for _, kv := range m.saved {
		if err := m.store.backend.Put(kv.Key, kv.Value); err != nil {
			return fmt.Errorf("rollback transaction: %w", err)
		}
	}
	m.store.logger.Debug("snapshot rollback", "entries", len(m.saved))
	m.saved = nil
	m.active = false
	return nil
}

// Commit keeps the current store contents and drops the snapshot.
func (m *Snapshots) Commit() {
	if !m.active {
		return
	}
	m.store.logger.Debug("snapshot commit", "entries", len(m.saved))
	m.saved = nil
	m.active = false
}

// Discard drops any snapshot without touching the store.
func (m *Snapshots) Discard() {
	m.saved = nil
	m.active = false
}

// Reset empties the store and then drops any snapshot. When the store
// cannot be cleared the snapshot is kept.
func (m *Snapshots) Reset() error {
	if err := m.store.Clear(); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	if m.active {
		m.store.logger.Debug("snapshot dropped by reset", "entries", len(m.saved))
	}
	m.Discard()
	return nil
}
