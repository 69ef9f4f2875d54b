package session

import (
	"fmt"
	"log/slog"

	"github.com/roach88/mockvm/internal/queue"
	"github.com/roach88/mockvm/internal/record"
	"github.com/roach88/mockvm/internal/store"
)

// Session is one simulated VM: a store, its snapshot slot and the result,
// log and event queues kept inside it.
//
// A Session is single-threaded. Callers must not use it from more than one
// goroutine at a time.
type Session struct {
	id      string
	backend string
	logger  *slog.Logger

	store     *store.Store
	snapshots *store.Snapshots
	results   *queue.Queue
	logs      *queue.Queue
	events    *queue.Queue
}

// New opens a session with an empty store.
func New(opts ...Option) (*Session, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = defaultConfig().Logger
	}
	if cfg.IDs == nil {
		cfg.IDs = UUIDv7Generator{}
	}
	if cfg.ID == "" {
		cfg.ID = cfg.IDs.Generate()
	}
	if cfg.Backend == "" {
		cfg.Backend = store.KindMemory
	}

	backend, err := store.OpenBackend(cfg.Backend, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", cfg.ID, err)
	}

	logger := cfg.Logger.With("session_id", cfg.ID)
	st := store.New(backend, logger)

	s := &Session{
		id:        cfg.ID,
		backend:   cfg.Backend,
		logger:    logger,
		store:     st,
		snapshots: store.NewSnapshots(st),
		results:   queue.New(st, store.MetadataSpace, KeyCallContractResults),
		logs:      queue.New(st, store.MetadataSpace, KeyLogs),
		events:    queue.New(st, store.MetadataSpace, KeyEvents),
	}
	logger.Debug("session opened", "backend", cfg.Backend)
	return s, nil
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// Backend returns the store backend kind.
func (s *Session) Backend() string {
	return s.backend
}

// Close releases the store. The session must not be used afterwards.
func (s *Session) Close() error {
	s.logger.Debug("session closed")
	return s.store.Close()
}

// Entries dumps every store entry in composite key order.
func (s *Session) Entries() ([]store.Entry, error) {
	return s.store.Entries()
}

// InTransaction reports whether a snapshot is held.
func (s *Session) InTransaction() bool {
	return s.snapshots.Active()
}

// PutBytes stores value at (space, key).
//
// A write to MetadataSpace under a control marker key triggers the marker's
// transition instead and stores nothing.
func (s *Session) PutBytes(space store.Space, key string, value []byte) error {
	if space.Equal(store.MetadataSpace) && IsMarker(key) {
		return s.mark(key)
	}
	return s.store.Put(space, key, value)
}

// GetBytes returns the value at (space, key). ok is false when absent.
func (s *Session) GetBytes(space store.Space, key string) ([]byte, bool, error) {
	return s.store.Get(space, key)
}

// Remove deletes the entry at (space, key) if present.
func (s *Session) Remove(space store.Space, key string) error {
	return s.store.Delete(space, key)
}

// PutObject encodes r and stores it at (space, key).
func (s *Session) PutObject(space store.Space, key string, r record.Record) error {
	data, err := record.Encode(r)
	if err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}
	return s.PutBytes(space, key, data)
}

// GetObject decodes the value at (space, key) into r.
// Returns (false, nil) when absent, leaving r untouched.
func (s *Session) GetObject(space store.Space, key string, r record.Record) (bool, error) {
	data, ok, err := s.GetBytes(space, key)
	if err != nil || !ok {
		return false, err
	}
	if err := record.Decode(data, r); err != nil {
		return false, fmt.Errorf("get object %q: %w", key, err)
	}
	return true, nil
}

// mark runs the transition for a control marker.
func (s *Session) mark(marker string) error {
	s.logger.Debug("control marker", "marker", marker)
	switch marker {
	case MarkerReset:
		return s.snapshots.Reset()
	case MarkerBeginTransaction:
		return s.snapshots.Begin()
	case MarkerRollbackTransaction:
		return s.snapshots.Rollback()
	case MarkerCommitTransaction:
		s.snapshots.Commit()
		return nil
	default:
		return fmt.Errorf("unknown control marker %q", marker)
	}
}

func (s *Session) putMeta(key string, r record.Record) error {
	return s.PutObject(store.MetadataSpace, key, r)
}

func (s *Session) getMeta(key string, r record.Record) error {
	ok, err := s.GetObject(store.MetadataSpace, key, r)
	if err != nil {
		return err
	}
	if !ok {
		return notSet(key)
	}
	return nil
}

func (s *Session) putMetaBytes(key string, value []byte) error {
	return s.PutBytes(store.MetadataSpace, key, value)
}

func (s *Session) getMetaBytes(key string) ([]byte, error) {
	v, ok, err := s.GetBytes(store.MetadataSpace, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notSet(key)
	}
	return v, nil
}
