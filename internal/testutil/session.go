package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/mockvm/internal/session"
)

// NewSession opens a memory-backed session with a deterministic ID.
// The session is reset and closed when the test ends.
func NewSession(t testing.TB, opts ...session.Option) *session.Session {
	t.Helper()
	all := append([]session.Option{session.WithIDGenerator(NewFixedIDGenerator(t.Name()))}, opts...)
	s, err := session.New(all...)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := s.Reset(); err != nil {
			t.Errorf("session reset: %v", err)
		}
		if err := s.Close(); err != nil {
			t.Errorf("session close: %v", err)
		}
	})
	return s
}
