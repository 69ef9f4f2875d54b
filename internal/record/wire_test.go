package record

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeValue_WireBytes(t *testing.T) {
	tests := []struct {
		name     string
		value    Value
		expected []byte
	}{
		{"int32", Int32(5), []byte{0x08, 0x05}},
		{"int32 zero keeps tag", Int32(0), []byte{0x08, 0x00}},
		{"uint64", Uint64(300), []byte{0x10, 0xac, 0x02}},
		{"bytes", Bytes{0x01, 0x02}, []byte{0x1a, 0x02, 0x01, 0x02}},
		{"empty bytes", Bytes{}, []byte{0x1a, 0x00}},
		{"bool true", Bool(true), []byte{0x20, 0x01}},
		{"bool false", Bool(false), []byte{0x20, 0x00}},
		{"string", String("hi"), []byte{0x2a, 0x02, 'h', 'i'}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeValue(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestEncodeValue_Deterministic(t *testing.T) {
	l := List{Int32(1), String("a"), Bytes("b")}
	first, err := EncodeList(l)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := EncodeList(l)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestEncodeValue_Invalid(t *testing.T) {
	_, err := EncodeValue(nil)
	require.ErrorIs(t, err, ErrInvalidRecord)

	_, err = EncodeValue(String([]byte{0xff, 0xfe}))
	require.ErrorIs(t, err, ErrInvalidRecord)

	_, err = EncodeList(List{Int32(1), nil})
	require.ErrorIs(t, err, ErrInvalidRecord)
	assert.Contains(t, err.Error(), "list[1]")
}

func TestEncode_RejectsNilThatWouldNotRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		record Record
		reason string
	}{
		{"nil bytes value", &ValueRecord{Value: Bytes(nil)}, "nil bytes_value"},
		{"nil bytes in list", &List{String("a"), Bytes(nil)}, "list[1]"},
		{"nil list", new(List), "nil list"},
		{"nil authority list", new(AuthorityList), "nil authority list"},
		{"empty operations", &Transaction{Operations: [][]byte{}}, "operations is empty but not nil"},
		{"nil operation", &Transaction{Operations: [][]byte{nil}}, "operations[0] is nil"},
		{"nil signature", &Transaction{Signatures: [][]byte{[]byte("s"), nil}}, "signatures[1] is nil"},
		{"empty impacted", &EventData{Impacted: [][]byte{}}, "impacted is empty but not nil"},
		{"nil impacted account", &EventData{Impacted: [][]byte{nil}}, "impacted[0] is nil"},
		{"empty transactions", &Block{Transactions: []Transaction{}}, "transactions is empty but not nil"},
		{"nested nil operation", &Block{Transactions: []Transaction{{Operations: [][]byte{nil}}}}, "transactions[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.record)
			require.ErrorIs(t, err, ErrInvalidRecord)
			assert.Contains(t, err.Error(), tt.reason)
		})
	}
}

func TestDecodeValue_Int32UnsignedForm(t *testing.T) {
	// 0xc3ab8ff1 written as an unsigned 32-bit varint, not sign-extended.
	v, err := DecodeValue([]byte{0x08, 0xf1, 0x9f, 0xae, 0x9d, 0x0c})
	require.NoError(t, err)
	assert.Equal(t, Int32(-1012166671), v)
	assert.Equal(t, uint32(0xc3ab8ff1), uint32(v.(Int32)))

	// Re-encoding yields the sign-extended form.
	data, err := EncodeValue(v)
	require.NoError(t, err)
	assert.Len(t, data, 11)
	again, err := DecodeValue(data)
	require.NoError(t, err)
	assert.Equal(t, v, again)
}

func TestValue_RoundTrip(t *testing.T) {
	values := []Value{
		Int32(0), Int32(1), Int32(-1), Int32(math.MaxInt32), Int32(math.MinInt32),
		Uint64(0), Uint64(math.MaxUint64),
		Bytes{}, Bytes{0x00}, Bytes("payload"),
		Bool(true), Bool(false),
		String(""), String("héllo"), String("line sep"),
	}
	for _, v := range values {
		data, err := EncodeValue(v)
		require.NoError(t, err)
		got, err := DecodeValue(data)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestList_RoundTripPreservesOrder(t *testing.T) {
	l := List{String("l1"), String("l2"), Bytes("e"), Int32(-7), Uint64(9), Bool(true)}
	data, err := EncodeList(l)
	require.NoError(t, err)

	got, err := DecodeList(data)
	require.NoError(t, err)
	assert.Equal(t, l, got)
}

func TestList_EmptyRoundTrip(t *testing.T) {
	data, err := EncodeList(List{})
	require.NoError(t, err)
	assert.Empty(t, data)
	assert.NotNil(t, data)

	got, err := DecodeList(data)
	require.NoError(t, err)
	assert.Equal(t, List{}, got)
}

// randomValue draws a Value. One byte string in eight is nil.
func randomValue(rng *rand.Rand) Value {
	switch rng.Intn(5) {
	case 0:
		return Int32(rng.Int31() - rng.Int31())
	case 1:
		return Uint64(rng.Uint64())
	case 2:
		if rng.Intn(8) == 0 {
			return Bytes(nil)
		}
		p := make([]byte, rng.Intn(40))
		rng.Read(p)
		return Bytes(p)
	case 3:
		return Bool(rng.Intn(2) == 1)
	default:
		r := make([]rune, rng.Intn(20))
		for i := range r {
			r[i] = rune('a' + rng.Intn(26))
		}
		return String(string(r))
	}
}

func hasNilBytes(l List) bool {
	for _, v := range l {
		if b, ok := v.(Bytes); ok && b == nil {
			return true
		}
	}
	return false
}

func TestList_RoundTripProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	rejected := 0
	for i := 0; i < 500; i++ {
		l := make(List, rng.Intn(16))
		for j := range l {
			l[j] = randomValue(rng)
		}
		data, err := EncodeList(l)
		if hasNilBytes(l) {
			require.ErrorIs(t, err, ErrInvalidRecord, "iteration %d", i)
			rejected++
			continue
		}
		require.NoError(t, err)

		got, err := DecodeList(data)
		require.NoError(t, err, "iteration %d", i)
		require.Equal(t, l, got, "iteration %d", i)
	}
	assert.Positive(t, rejected)
}

func TestDecodeValue_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		reason string
	}{
		{"empty", []byte{}, "no variant set"},
		{"truncated varint", []byte{0x08}, "field 1"},
		{"truncated tag", []byte{0x80}, "offset 0"},
		{"two variants", []byte{0x08, 0x01, 0x20, 0x01}, "more than one variant set"},
		{"unknown field", []byte{0x30, 0x01}, "unknown field 6"},
		{"fixed32 wire type", []byte{0x0d, 0x00, 0x00, 0x00, 0x00}, "unsupported wire type"},
		{"bool out of range", []byte{0x20, 0x02}, "is not a bool"},
		{"invalid utf8", []byte{0x2a, 0x01, 0xff}, "invalid UTF-8"},
		{"int32 overflow", []byte{0x08, 0x80, 0x80, 0x80, 0x80, 0x10}, "overflows int32"},
		{"bytes as varint", []byte{0x18, 0x01}, "wire type 0, expected 2"},
		{"length past end", []byte{0x1a, 0x05, 0x01}, "field 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := DecodeValue(tt.data)
			require.Error(t, err)
			assert.Nil(t, v)
			assert.True(t, errors.Is(err, ErrMalformed))
			assert.True(t, IsDecodeError(err))
			assert.Contains(t, err.Error(), tt.reason)
		})
	}
}

func TestDecodeList_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		reason string
	}{
		{"empty element", []byte{0x0a, 0x00}, "element 0"},
		{"unknown field", []byte{0x12, 0x00}, "unknown field 2"},
		{"element as varint", []byte{0x08, 0x01}, "expected 2"},
		{"bad second element", []byte{0x0a, 0x02, 0x08, 0x01, 0x0a, 0x01, 0x30}, "element 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeList(tt.data)
			require.Error(t, err)
			var de *DecodeError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, "list", de.Record)
			assert.Contains(t, err.Error(), tt.reason)
		})
	}
}

func TestDecode_ScalarIsNotAList(t *testing.T) {
	data, err := EncodeValue(Int32(3))
	require.NoError(t, err)

	_, err = DecodeList(data)
	require.ErrorIs(t, err, ErrMalformed)
}
