package store

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrCorruptKey is returned when a raw backend key does not split into a
// (Space, key) pair.
var ErrCorruptKey = errors.New("corrupt composite key")

// Space is a namespace partition of the store.
type Space struct {
	System bool
	Zone   []byte
	ID     uint32
}

// MetadataSpace is the reserved partition holding host metadata, control
// markers, the injected result queue, logs and events.
var MetadataSpace = Space{System: true}

// UserSpace returns the contract partition with the given id.
func UserSpace(id uint32) Space {
	return Space{ID: id}
}

// Equal reports whether two spaces address the same partition.
func (s Space) Equal(other Space) bool {
	return s.System == other.System && s.ID == other.ID && bytes.Equal(s.Zone, other.Zone)
}

func (s Space) String() string {
	kind := "user"
	if s.System {
		kind = "system"
	}
	return fmt.Sprintf("%s/%x/%d", kind, s.Zone, s.ID)
}

func (s Space) appendPrefix(b []byte) []byte {
	var flag byte
	if s.System {
		flag = 1
	}
	b = append(b, flag)
	b = protowire.AppendVarint(b, uint64(len(s.Zone)))
	b = append(b, s.Zone...)
	b = protowire.AppendVarint(b, uint64(s.ID))
	return b
}

// compositeKey builds the raw backend key for (space, key).
func compositeKey(space Space, key string) []byte {
	b := make([]byte, 0, 1+len(space.Zone)+len(key)+4)
	b = space.appendPrefix(b)
	return append(b, key...)
}

// splitKey is the inverse of compositeKey.
func splitKey(raw []byte) (Space, string, error) {
	if len(raw) == 0 {
		return Space{}, "", fmt.Errorf("%w: empty", ErrCorruptKey)
	}
	var space Space
	switch raw[0] {
	case 0:
	case 1:
		space.System = true
	default:
		return Space{}, "", fmt.Errorf("%w: flag byte %d", ErrCorruptKey, raw[0])
	}
	rest := raw[1:]

	zoneLen, n := protowire.ConsumeVarint(rest)
	if n < 0 {
		return Space{}, "", fmt.Errorf("%w: zone length: %v", ErrCorruptKey, protowire.ParseError(n))
	}
	rest = rest[n:]
	if zoneLen > uint64(len(rest)) {
		return Space{}, "", fmt.Errorf("%w: zone length %d past end", ErrCorruptKey, zoneLen)
	}
	if zoneLen > 0 {
		space.Zone = append([]byte{}, rest[:zoneLen]...)
	}
	rest = rest[zoneLen:]

	id, n := protowire.ConsumeVarint(rest)
	if n < 0 {
		return Space{}, "", fmt.Errorf("%w: id: %v", ErrCorruptKey, protowire.ParseError(n))
	}
	if id > math.MaxUint32 {
		return Space{}, "", fmt.Errorf("%w: id %d overflows uint32", ErrCorruptKey, id)
	}
	space.ID = uint32(id)
	return space, string(rest[n:]), nil
}

// Entry is one namespaced store entry.
type Entry struct {
	Space Space
	Key   string
	Value []byte
}

// Store is the namespaced key-value store of one session.
//
// Values are copied on the way in and out; callers never alias stored
// bytes. Absence is reported with ok == false, distinct from a present
// empty value.
type Store struct {
	backend Backend
	logger  *slog.Logger
}

// New wraps a backend. A nil logger discards output.
func New(backend Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{backend: backend, logger: logger}
}

// Put inserts or overwrites the value at (space, key).
func (s *Store) Put(space Space, key string, value []byte) error {
	if err := s.backend.Put(compositeKey(space, key), present(value)); err != nil {
		return fmt.Errorf("put %s %q: %w", space, key, err)
	}
	s.logger.Debug("store put", "space", space.String(), "key", key, "size", len(value))
	return nil
}

// Get returns the value at (space, key). ok is false when absent.
func (s *Store) Get(space Space, key string) ([]byte, bool, error) {
	v, ok, err := s.backend.Get(compositeKey(space, key))
	if err != nil {
		return nil, false, fmt.Errorf("get %s %q: %w", space, key, err)
	}
	if !ok {
		return nil, false, nil
	}
	return present(v), true, nil
}

// Delete removes the entry if present.
func (s *Store) Delete(space Space, key string) error {
	if err := s.backend.Delete(compositeKey(space, key)); err != nil {
		return fmt.Errorf("delete %s %q: %w", space, key, err)
	}
	s.logger.Debug("store delete", "space", space.String(), "key", key)
	return nil
}

// Clear removes every entry in every space.
func (s *Store) Clear() error {
	if err := s.backend.Clear(); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	s.logger.Debug("store clear")
	return nil
}

// Entries returns every entry ordered by composite key: system spaces after
// user spaces, then by zone, id and key.
func (s *Store) Entries() ([]Entry, error) {
	kvs, err := s.backend.Entries()
	if err != nil {
		return nil, fmt.Errorf("entries: %w", err)
	}
	out := make([]Entry, 0, len(kvs))
	for _, kv := range kvs {
		space, key, err := splitKey(kv.Key)
		if err != nil {
			return nil, fmt.Errorf("entries: %w", err)
		}
		out = append(out, Entry{Space: space, Key: key, Value: present(kv.Value)})
	}
	return out, nil
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
