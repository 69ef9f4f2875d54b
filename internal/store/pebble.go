package store

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble/v2"
	"github.com/cockroachdb/pebble/v2/vfs"
)

// Pebble wraps a pebble/v2 database.
type Pebble struct {
	db *pebble.DB
}

// OpenPebble opens a Pebble backend at path, or on an in-memory filesystem
// when path is empty.
func OpenPebble(path string) (*Pebble, error) {
	opts := &pebble.Options{}
	if path == "" {
		opts.FS = vfs.NewMem()
	}

	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble: %w", err)
	}
	return &Pebble{db: db}, nil
}

func (b *Pebble) Get(key []byte) ([]byte, bool, error) {
	v, closer, err := b.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("pebble get: %w", err)
	}
	out := make([]byte, len(v))
	copy(out, v)
	if err := closer.Close(); err != nil {
		return nil, false, fmt.Errorf("pebble get: %w", err)
	}
	return out, true, nil
}

func (b *Pebble) Put(key, value []byte) error {
	if err := b.db.Set(key, value, pebble.NoSync); err != nil {
		return fmt.Errorf("pebble put: %w", err)
	}
	return nil
}

func (b *Pebble) Delete(key []byte) error {
	if err := b.db.Delete(key, pebble.NoSync); err != nil {
		return fmt.Errorf("pebble delete: %w", err)
	}
	return nil
}

func (b *Pebble) Clear() error {
	kvs, err := b.Entries()
	if err != nil {
		return fmt.Errorf("pebble clear: %w", err)
	}
	batch := b.db.NewBatch()
	defer batch.Close()
	for _, kv := range kvs {
		if err := batch.Delete(kv.Key, nil); err != nil {
			return fmt.Errorf("pebble clear: %w", err)
		}
	}
	if err := b.db.Apply(batch, pebble.NoSync); err != nil {
		return fmt.Errorf("pebble clear: %w", err)
	}
	return nil
}

func (b *Pebble) Entries() ([]KV, error) {
	it, err := b.db.NewIter(&pebble.IterOptions{KeyTypes: pebble.IterKeyTypePointsOnly})
	if err != nil {
		return nil, fmt.Errorf("pebble entries: %w", err)
	}
	var out []KV
	for it.First(); it.Valid(); it.Next() {
		out = append(out, KV{
			Key:   append([]byte{}, it.Key()...),
			Value: append([]byte{}, it.Value()...),
		})
	}
	if err := it.Close(); err != nil {
		return nil, fmt.Errorf("pebble entries: %w", err)
	}
	return out, nil
}

func (b *Pebble) Close() error {
	return b.db.Close()
}
