// Package store provides the simulated state store behind a mock VM session.
//
// The store is a single flat byte-keyed map (a Backend) with namespacing
// layered on top:
//   - Backend: Get/Put/Delete/Clear/Entries over raw keys
//   - Store: (Space, key) addressing via a prefix-free composite key
//   - Snapshots: single-slot begin/rollback/commit over the whole store
//
// # Backends
//
// Every backend is memory-resident unless a path is given:
//   - memory: a Go map (the default)
//   - sqlite: mattn/go-sqlite3 on ":memory:"
//   - leveldb: goleveldb on storage.NewMemStorage
//   - badger: badger/v4 with WithInMemory(true)
//   - pebble: pebble/v2 on vfs.NewMem
//
// All backends return Entries sorted by raw key, so dumps and snapshots
// are deterministic regardless of backend.
//
// # Composite Keys
//
// A (Space, key) pair is stored under
//
//	flag(1 byte) || uvarint(len(zone)) || zone || uvarint(id) || key
//
// The space prefix is self-delimiting, so distinct pairs never share a raw
// key and every raw key splits back into exactly one pair.
package store
