package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mockvm/internal/record"
	"github.com/roach88/mockvm/internal/store"
)

func TestGetters_NotSet(t *testing.T) {
	s := newTestSession(t)

	_, err := s.EntryPoint()
	assert.ErrorIs(t, err, ErrNotSet)
	_, err = s.ContractArguments()
	assert.ErrorIs(t, err, ErrNotSet)
	_, err = s.ContractID()
	assert.ErrorIs(t, err, ErrNotSet)
	_, err = s.HeadInfo()
	assert.ErrorIs(t, err, ErrNotSet)
	_, err = s.LastIrreversibleBlock()
	assert.ErrorIs(t, err, ErrNotSet)
	_, err = s.Caller()
	assert.ErrorIs(t, err, ErrNotSet)
	_, err = s.Transaction()
	assert.ErrorIs(t, err, ErrNotSet)
	_, err = s.Block()
	assert.ErrorIs(t, err, ErrNotSet)
	_, err = s.TransactionField("id")
	assert.ErrorIs(t, err, ErrNotSet)
	_, err = s.BlockField("id")
	assert.ErrorIs(t, err, ErrNotSet)
}

func TestSetters_RoundTrip(t *testing.T) {
	s := newTestSession(t)

	require.NoError(t, s.SetEntryPoint(0xc3ab8ff1))
	ep, err := s.EntryPoint()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xc3ab8ff1), ep)

	require.NoError(t, s.SetContractArguments([]byte("myArgs")))
	args, err := s.ContractArguments()
	require.NoError(t, err)
	assert.Equal(t, []byte("myArgs"), args)

	require.NoError(t, s.SetContractID([]byte("contract")))
	id, err := s.ContractID()
	require.NoError(t, err)
	assert.Equal(t, []byte("contract"), id)

	head := record.HeadInfo{HeadBlockTime: 123456789, LastIrreversibleBlock: 3}
	require.NoError(t, s.SetHeadInfo(head))
	gotHead, err := s.HeadInfo()
	require.NoError(t, err)
	assert.Equal(t, head, gotHead)

	require.NoError(t, s.SetLastIrreversibleBlock(987654321))
	lib, err := s.LastIrreversibleBlock()
	require.NoError(t, err)
	assert.Equal(t, uint64(987654321), lib)

	caller := record.CallerData{Caller: []byte("alice"), CallerPrivilege: record.UserMode}
	require.NoError(t, s.SetCaller(caller))
	gotCaller, err := s.Caller()
	require.NoError(t, err)
	assert.Equal(t, caller, gotCaller)
}

func TestSetters_EntryPointStoredAsInt32(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.SetEntryPoint(0xffffffff))

	var vr record.ValueRecord
	ok, err := s.GetObject(store.MetadataSpace, KeyEntryPoint, &vr)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, record.Int32(-1), vr.Value)
}

func TestEntryPoint_WrongKind(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.PutObject(store.MetadataSpace, KeyEntryPoint, &record.ValueRecord{Value: record.String("x")}))

	_, err := s.EntryPoint()
	require.ErrorIs(t, err, record.ErrInvalidRecord)
}

func TestHeadInfoAndAuthoritiesDoNotCollide(t *testing.T) {
	s := newTestSession(t)
	account := []byte("alice")

	require.NoError(t, s.SetAuthorities(record.AuthorityList{{Type: record.ContractCall, Account: account, Authorized: true}}))
	require.NoError(t, s.SetHeadInfo(record.HeadInfo{HeadBlockTime: 1}))

	ok, err := s.CheckAuthority(record.ContractCall, account)
	require.NoError(t, err)
	assert.True(t, ok)

	head, err := s.HeadInfo()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), head.HeadBlockTime)
}

func TestTransactionField(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.SetTransaction(record.Transaction{
		ID: []byte("0x12345"),
		Header: record.TransactionHeader{
			RCLimit: 10,
			Payer:   []byte("payer"),
		},
	}))

	tests := []struct {
		name string
		want record.Value
	}{
		{"id", record.Bytes("0x12345")},
		{"header.rc_limit", record.Uint64(10)},
		{"header.payer", record.Bytes("payer")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.TransactionField(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := s.TransactionField("header.bogus")
	assert.ErrorIs(t, err, ErrUnknownField)

	tx, err := s.Transaction()
	require.NoError(t, err)
	assert.Equal(t, []byte("0x12345"), tx.ID)
}

func TestBlockField(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.SetBlock(record.Block{
		ID:        []byte("0x12345"),
		Header:    record.BlockHeader{Height: 42, Timestamp: 1000, Signer: []byte("signer")},
		Signature: []byte("sig"),
	}))

	tests := []struct {
		name string
		want record.Value
	}{
		{"id", record.Bytes("0x12345")},
		{"signature", record.Bytes("sig")},
		{"header.height", record.Uint64(42)},
		{"header.timestamp", record.Uint64(1000)},
		{"header.signer", record.Bytes("signer")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.BlockField(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := s.BlockField("transactions")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestCheckAuthority(t *testing.T) {
	s := newTestSession(t)
	account := []byte("1DQzuCcTKacbs9GGScRTU1Hc8BsyARTPqe")

	ok, err := s.CheckAuthority(record.ContractCall, account)
	require.NoError(t, err)
	assert.False(t, ok, "no authorities set")

	require.NoError(t, s.SetAuthorities(record.AuthorityList{
		{Type: record.ContractCall, Account: account, Authorized: true},
		{Type: record.ContractUpload, Account: account, Authorized: false},
	}))

	ok, err = s.CheckAuthority(record.ContractCall, account)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.CheckAuthority(record.ContractUpload, account)
	require.NoError(t, err)
	assert.False(t, ok)

	err = s.RequireAuthority(record.ContractUpload, account)
	var ae *AuthorityError
	require.ErrorAs(t, err, &ae)
	assert.True(t, ae.Mocked)
	assert.Contains(t, err.Error(), "denied")

	err = s.RequireAuthority(record.TransactionApplication, account)
	require.ErrorAs(t, err, &ae)
	assert.False(t, ae.Mocked)
	assert.Contains(t, err.Error(), "no mocked authority")

	assert.NoError(t, s.RequireAuthority(record.ContractCall, account))
}

func TestEvent(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.SetContractID([]byte("token")))

	require.NoError(t, s.Event("my-event-1", []byte("data1"), [][]byte{[]byte("alice")}))
	require.NoError(t, s.Event("my-event-2", []byte("data2"), nil))

	raw, err := s.GetEvents()
	require.NoError(t, err)
	require.Len(t, raw, 2)

	events, err := s.DecodedEvents()
	require.NoError(t, err)
	assert.Equal(t, []record.EventData{
		{Sequence: 0, Source: []byte("token"), Name: "my-event-1", Data: []byte("data1"), Impacted: [][]byte{[]byte("alice")}},
		{Sequence: 1, Source: []byte("token"), Name: "my-event-2", Data: []byte("data2")},
	}, events)
}

func TestEvent_WithoutContractID(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.Event("e", nil, nil))

	events, err := s.DecodedEvents()
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Nil(t, events[0].Source)
	assert.Equal(t, "e", events[0].Name)
}

func TestEvent_EmptyAndNilAccounts(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.Event("none", nil, [][]byte{}))
	require.NoError(t, s.Event("nil-account", nil, [][]byte{nil, []byte("bob")}))

	events, err := s.DecodedEvents()
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Nil(t, events[0].Impacted)
	assert.Equal(t, [][]byte{{}, []byte("bob")}, events[1].Impacted)
}

func TestSetAuthorities_Nil(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.SetAuthorities(nil))

	ok, err := s.CheckAuthority(record.ContractCall, []byte("alice"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCallContract_NilResultIsEmpty(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.SetCallContractResults([][]byte{nil, []byte("b")}))

	res, ok, err := s.CallContract(nil, 0, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte{}, res)

	res, ok, err = s.CallContract(nil, 0, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("b"), res)
}

func TestCallContract_ResultsRemaining(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.SetCallContractResults([][]byte{[]byte("a"), []byte("b")}))

	n, err := s.ResultsRemaining()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, _, err = s.CallContract([]byte("c"), 1, []byte("args"))
	require.NoError(t, err)
	n, err = s.ResultsRemaining()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestIsMarker(t *testing.T) {
	assert.True(t, IsMarker(MarkerReset))
	assert.True(t, IsMarker(MarkerCommitTransaction))
	assert.False(t, IsMarker(KeyLogs))
	assert.NotContains(t, ReservedKeys(), MarkerReset)
	assert.Len(t, ReservedKeys(), 12)
}
