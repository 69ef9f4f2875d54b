package record

import "fmt"

// Value is a sealed interface for the scalar tagged union.
// Only Int32, Uint64, Bytes, Bool and String implement it.
type Value interface {
	recordValue() // Sealed
	// Kind names the populated variant (e.g. "int32_value").
	Kind() string
}

// Int32 holds a signed 32-bit integer (entry points, authorization types).
type Int32 int32

func (Int32) recordValue() {}

// Kind implements Value.
func (Int32) Kind() string { return KindInt32 }

// Uint64 holds an unsigned 64-bit integer (block heights, times).
type Uint64 uint64

func (Uint64) recordValue() {}

// Kind implements Value.
func (Uint64) Kind() string { return KindUint64 }

// Bytes holds an arbitrary byte string (call results, event payloads).
type Bytes []byte

func (Bytes) recordValue() {}

// Kind implements Value.
func (Bytes) Kind() string { return KindBytes }

// Bool holds a boolean.
type Bool bool

func (Bool) recordValue() {}

// Kind implements Value.
func (Bool) Kind() string { return KindBool }

// String holds a UTF-8 string (log lines).
type String string

func (String) recordValue() {}

// Kind implements Value.
func (String) Kind() string { return KindString }

// Variant names, matching the protobuf field names of the value record.
const (
	KindInt32  = "int32_value"
	KindUint64 = "uint64_value"
	KindBytes  = "bytes_value"
	KindBool   = "bool_value"
	KindString = "string_value"
)

// List is an ordered sequence of Values.
// Order is significant and preserved by Encode/Decode.
type List []Value

// ValueRecord wraps a single Value so it can be passed wherever a Record is
// expected (PutObject, GetObject).
type ValueRecord struct {
	Value Value
}

// NewList builds a List from values.
func NewList(vals ...Value) List {
	if vals == nil {
		return List{}
	}
	return List(vals)
}

// BytesList builds a List of Bytes values, one per element, in order.
// A nil element becomes an empty byte string.
func BytesList(items [][]byte) List {
	l := make(List, len(items))
	for i, it := range items {
		if it == nil {
			it = []byte{}
		}
		l[i] = Bytes(it)
	}
	return l
}

// StringList builds a List of String values, one per element, in order.
func StringList(items []string) List {
	l := make(List, len(items))
	for i, it := range items {
		l[i] = String(it)
	}
	return l
}

// AsBytes returns v as a byte string. Returns an error if v is not Bytes.
func AsBytes(v Value) ([]byte, error) {
	b, ok := v.(Bytes)
	if !ok {
		return nil, fmt.Errorf("expected %s, got %s", KindBytes, kindOf(v))
	}
	return []byte(b), nil
}

// AsString returns v as a string. Returns an error if v is not String.
func AsString(v Value) (string, error) {
	s, ok := v.(String)
	if !ok {
		return "", fmt.Errorf("expected %s, got %s", KindString, kindOf(v))
	}
	return string(s), nil
}

func kindOf(v Value) string {
	if v == nil {
		return "nil"
	}
	return v.Kind()
}
