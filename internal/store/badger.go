package store

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// Badger wraps a badger/v4 database.
type Badger struct {
	db *badger.DB
}

// OpenBadger opens a Badger backend at path, or fully in memory when path
// is empty.
func OpenBadger(path string) (*Badger, error) {
	opts := badger.DefaultOptions(path).
		WithLoggingLevel(badger.ERROR)
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return &Badger{db: db}, nil
}

func (b *Badger) Get(key []byte) ([]byte, bool, error) {
	var (
		value []byte
		found bool
	)
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("badger get: %w", err)
	}
	if !found {
		return nil, false, nil
	}
	return present(value), true, nil
}

func (b *Badger) Put(key, value []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(append([]byte{}, key...), append([]byte{}, value...))
	})
	if err != nil {
		return fmt.Errorf("badger put: %w", err)
	}
	return nil
}

func (b *Badger) Delete(key []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(append([]byte{}, key...))
	})
	if err != nil {
		return fmt.Errorf("badger delete: %w", err)
	}
	return nil
}

func (b *Badger) Clear() error {
	if err := b.db.DropAll(); err != nil {
		return fmt.Errorf("badger clear: %w", err)
	}
	return nil
}

func (b *Badger) Entries() ([]KV, error) {
	var out []KV
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			out = append(out, KV{Key: item.KeyCopy(nil), Value: present(value)})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger entries: %w", err)
	}
	return out, nil
}

func (b *Badger) Close() error {
	return b.db.Close()
}
