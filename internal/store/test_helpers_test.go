package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// openTestBackend opens a memory-resident backend of the given kind and
// closes it when the test ends.
func openTestBackend(t *testing.T, kind string) Backend {
	t.Helper()
	b, err := OpenBackend(kind, "")
	require.NoError(t, err, "OpenBackend(%q)", kind)
	t.Cleanup(func() { b.Close() })
	return b
}

// forEachBackend runs fn once per backend kind as a subtest.
func forEachBackend(t *testing.T, fn func(t *testing.T, b Backend)) {
	t.Helper()
	for _, kind := range Kinds() {
		t.Run(kind, func(t *testing.T) {
			fn(t, openTestBackend(t, kind))
		})
	}
}

// createTestStore creates a store over a fresh backend of the given kind.
func createTestStore(t *testing.T, kind string) *Store {
	t.Helper()
	return New(openTestBackend(t, kind), nil)
}

// forEachStore runs fn once per backend kind with a fresh Store.
func forEachStore(t *testing.T, fn func(t *testing.T, s *Store)) {
	t.Helper()
	for _, kind := range Kinds() {
		t.Run(kind, func(t *testing.T) {
			fn(t, createTestStore(t, kind))
		})
	}
}

// mustPut writes a value and fails the test on error.
func mustPut(t *testing.T, s *Store, space Space, key string, value []byte) {
	t.Helper()
	require.NoError(t, s.Put(space, key, value))
}

// mustGet reads a value and fails the test on error.
func mustGet(t *testing.T, s *Store, space Space, key string) ([]byte, bool) {
	t.Helper()
	v, ok, err := s.Get(space, key)
	require.NoError(t, err)
	return v, ok
}
