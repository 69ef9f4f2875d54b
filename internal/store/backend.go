package store

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
)

//go:generate mockgen -source backend.go -destination backend_mock.go -package store

// Backend kinds accepted by OpenBackend.
const (
	KindMemory  = "memory"
	KindSQLite  = "sqlite"
	KindLevelDB = "leveldb"
	KindBadger  = "badger"
	KindPebble  = "pebble"
)

// ErrUnknownBackend is returned by OpenBackend for an unsupported kind.
var ErrUnknownBackend = errors.New("unknown backend")

// KV is one raw backend entry.
type KV struct {
	Key   []byte
	Value []byte
}

// Backend is a flat byte-keyed map.
//
// Get reports absence with ok == false. A present value is never nil, even
// when empty. Entries returns copies sorted by key.
type Backend interface {
	Get(key []byte) (value []byte, ok bool, err error)
	Put(key, value []byte) error
	Delete(key []byte) error
	Clear() error
	Entries() ([]KV, error)
	Close() error
}

// Kinds lists the supported backend kinds.
func Kinds() []string {
	return []string{KindMemory, KindSQLite, KindLevelDB, KindBadger, KindPebble}
}

// OpenBackend opens a backend of the given kind. An empty kind selects the
// memory backend. An empty path keeps the database memory-resident.
func OpenBackend(kind, path string) (Backend, error) {
	var (
		b   Backend
		err error
	)
	switch kind {
	case "", KindMemory:
		return NewMemory(), nil
	case KindSQLite:
		b, err = nonNil(OpenSQLite(path))
	case KindLevelDB:
		b, err = nonNil(OpenLevelDB(path))
	case KindBadger:
		b, err = nonNil(OpenBadger(path))
	case KindPebble:
		b, err = nonNil(OpenPebble(path))
	default:
		return nil, fmt.Errorf("%w: %q (want one of %v)", ErrUnknownBackend, kind, Kinds())
	}
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", kind, err)
	}
	return b, nil
}

// nonNil keeps a typed nil pointer out of the Backend interface.
func nonNil[B Backend](b B, err error) (Backend, error) {
	if err != nil {
		return nil, err
	}
	return b, nil
}

func sortKVs(kvs []KV) {
	slices.SortFunc(kvs, func(a, b KV) int {
		return bytes.Compare(a.Key, b.Key)
	})
}

// present normalizes a stored value so present-but-empty is never nil.
func present(v []byte) []byte {
	if v == nil {
		return []byte{}
	}
	return v
}
