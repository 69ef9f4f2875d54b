package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mockvm/internal/record"
	"github.com/roach88/mockvm/internal/store"
)

func newTestQueue(t *testing.T, key string) (*Queue, *store.Store) {
	t.Helper()
	s := store.New(store.NewMemory(), nil)
	t.Cleanup(func() { s.Close() })
	return New(s, store.MetadataSpace, key), s
}

func TestQueue_FIFO(t *testing.T) {
	q, _ := newTestQueue(t, "call_contract_results")
	require.NoError(t, q.SetResults([][]byte{[]byte("res1"), []byte("res2")}))

	got, ok, err := q.ConsumeNext()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("res1"), got)

	got, ok, err = q.ConsumeNext()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("res2"), got)

	got, ok, err = q.ConsumeNext()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestQueue_ConsumeAbsent(t *testing.T) {
	q, _ := newTestQueue(t, "call_contract_results")
	_, ok, err := q.ConsumeNext()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestQueue_SetResultsReplacesUnread(t *testing.T) {
	q, _ := newTestQueue(t, "call_contract_results")
	require.NoError(t, q.SetResults([][]byte{[]byte("a"), []byte("b")}))
	_, _, err := q.ConsumeNext()
	require.NoError(t, err)

	require.NoError(t, q.SetResults([][]byte{[]byte("c")}))
	n, err := q.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, ok, err := q.ConsumeNext()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("c"), got)
}

func TestQueue_EmptyResultIsPresent(t *testing.T) {
	q, _ := newTestQueue(t, "call_contract_results")
	require.NoError(t, q.SetResults([][]byte{{}}))

	got, ok, err := q.ConsumeNext()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte{}, got)
}

func TestQueue_AppendIsStableAndGrowing(t *testing.T) {
	q, _ := newTestQueue(t, "logs")
	require.NoError(t, q.Append(record.String("l1")))

	first, err := q.All()
	require.NoError(t, err)
	assert.Equal(t, record.List{record.String("l1")}, first)

	require.NoError(t, q.Append(record.String("l2")))
	second, err := q.All()
	require.NoError(t, err)
	assert.Equal(t, record.List{record.String("l1"), record.String("l2")}, second)

	again, err := q.All()
	require.NoError(t, err)
	assert.Equal(t, second, again)
}

func TestQueue_AllAbsentIsEmpty(t *testing.T) {
	q, _ := newTestQueue(t, "events")
	l, err := q.All()
	require.NoError(t, err)
	assert.NotNil(t, l)
	assert.Empty(t, l)
}

func TestQueue_StateLivesInStore(t *testing.T) {
	q, s := newTestQueue(t, "call_contract_results")
	snaps := store.NewSnapshots(s)
	require.NoError(t, q.SetResults([][]byte{[]byte("r1"), []byte("r2")}))

	require.NoError(t, snaps.Begin())
	_, _, err := q.ConsumeNext()
	require.NoError(t, err)
	require.NoError(t, snaps.Rollback())

	got, ok, err := q.ConsumeNext()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("r1"), got, "rollback must restore the consumed result")

	require.NoError(t, s.Clear())
	n, err := q.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestQueue_CorruptEntry(t *testing.T) {
	q, s := newTestQueue(t, "logs")
	require.NoError(t, s.Put(store.MetadataSpace, "logs", []byte{0xff}))

	_, err := q.All()
	require.Error(t, err)
	assert.True(t, record.IsDecodeError(err))
	assert.ErrorIs(t, err, record.ErrMalformed)
}

func TestQueue_NonBytesFront(t *testing.T) {
	q, _ := newTestQueue(t, "call_contract_results")
	require.NoError(t, q.Append(record.Int32(1)))

	_, _, err := q.ConsumeNext()
	require.Error(t, err)
	assert.ErrorIs(t, err, record.ErrInvalidRecord)
}
