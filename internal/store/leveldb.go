package store

import (
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

// LevelDB wraps a goleveldb database.
type LevelDB struct {
	db *leveldb.DB
}

// OpenLevelDB opens a LevelDB backend at path, or on memory storage when
// path is empty.
func OpenLevelDB(path string) (*LevelDB, error) {
	var (
		db  *leveldb.DB
		err error
	)
	if path == "" {
		db, err = leveldb.Open(storage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(path, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb: %w", err)
	}
	return &LevelDB{db: db}, nil
}

func (b *LevelDB) Get(key []byte) ([]byte, bool, error) {
	data, err := b.db.Get(key, &opt.ReadOptions{})
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("leveldb get: %w", err)
	}
	return present(data), true, nil
}

func (b *LevelDB) Put(key, value []byte) error {
	if err := b.db.Put(key, value, &opt.WriteOptions{}); err != nil {
		return fmt.Errorf("leveldb put: %w", err)
	}
	return nil
}

func (b *LevelDB) Delete(key []byte) error {
	if err := b.db.Delete(key, &opt.WriteOptions{}); err != nil {
		return fmt.Errorf("leveldb delete: %w", err)
	}
	return nil
}

func (b *LevelDB) Clear() error {
	batch := new(leveldb.Batch)
	it := b.db.NewIterator(nil, nil)
	for it.Next() {
		batch.Delete(append([]byte{}, it.Key()...))
	}
	it.Release()
	if err := it.Error(); err != nil {
		return fmt.Errorf("leveldb clear: %w", err)
	}
	if err := b.db.Write(batch, &opt.WriteOptions{}); err != nil {
		return fmt.Errorf("leveldb clear: %w", err)
	}
	return nil
}

func (b *LevelDB) Entries() ([]KV, error) {
	var out []KV
	it := b.db.NewIterator(nil, nil)
	defer it.Release()
	for it.Next() {
		out = append(out, KV{
			Key:   append([]byte{}, it.Key()...),
			Value: append([]byte{}, it.Value()...),
		})
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("leveldb entries: %w", err)
	}
	return out, nil
}

func (b *LevelDB) Close() error {
	return b.db.Close()
}
