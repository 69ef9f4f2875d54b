// Package queue implements FIFO and append-only sequences persisted in the
// session store.
//
// A Queue keeps no state of its own: the whole sequence lives as a single
// List record under one store key. Every mutation rewrites that record, so
// queue contents take part in snapshot rollback and reset like any other
// entry.
package queue

import (
	"fmt"

	"github.com/roach88/mockvm/internal/record"
	"github.com/roach88/mockvm/internal/store"
)

// Queue is a sequence of Values stored under (space, key).
//
// Two access modes share the representation:
//   - FIFO: SetResults replaces the sequence, ConsumeNext pops the front
//   - append: Append adds to the back, All reads without removing
type Queue struct {
	store *store.Store
	space store.Space
	key   string
}

// New returns a queue over the given store entry.
func New(s *store.Store, space store.Space, key string) *Queue {
	return &Queue{store: s, space: space, key: key}
}

// Key returns the store key backing the queue.
func (q *Queue) Key() string {
	return q.key
}

// SetResults replaces the whole sequence with items, in order.
// Any previously unread items are discarded.
func (q *Queue) SetResults(items [][]byte) error {
	return q.save(record.BytesList(items))
}

// ConsumeNext removes and returns the front item.
// Returns (nil, false, nil) when the queue is absent or exhausted.
func (q *Queue) ConsumeNext() ([]byte, bool, error) {
	l, err := q.load()
	if err != nil {
		return nil, false, err
	}
	if len(l) == 0 {
		return nil, false, nil
	}

	front, err := record.AsBytes(l[0])
	if err != nil {
		return nil, false, fmt.Errorf("queue %q: front: %w: %v", q.key, record.ErrInvalidRecord, err)
	}
	if err := q.save(l[1:]); err != nil {
		return nil, false, err
	}
	return front, true, nil
}

// Append adds v to the back of the sequence.
func (q *Queue) Append(v record.Value) error {
	l, err := q.load()
	if err != nil {
		return err
	}
	return q.save(append(l, v))
}

// All returns the full sequence without removing anything.
// An absent queue reads as empty.
func (q *Queue) All() (record.List, error) {
	return q.load()
}

// Len returns the number of items in the sequence.
func (q *Queue) Len() (int, error) {
	l, err := q.load()
	if err != nil {
		return 0, err
	}
	return len(l), nil
}

func (q *Queue) load() (record.List, error) {
	data, ok, err := q.store.Get(q.space, q.key)
	if err != nil {
		return nil, fmt.Errorf("queue %q: %w", q.key, err)
	}
	if !ok {
		return record.List{}, nil
	}
	l, err := record.DecodeList(data)
	if err != nil {
		return nil, fmt.Errorf("queue %q: %w", q.key, err)
	}
	return l, nil
}

func (q *Queue) save(l record.List) error {
	data, err := record.EncodeList(l)
	if err != nil {
		return fmt.Errorf("queue %q: %w", q.key, err)
	}
	if err := q.store.Put(q.space, q.key, data); err != nil {
		return fmt.Errorf("queue %q: %w", q.key, err)
	}
	return nil
}
