package record

import (
	"errors"
	"fmt"
	"math"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the value record. Exactly one is set per encoded Value.
const (
	valueInt32Field  protowire.Number = 1
	valueUint64Field protowire.Number = 2
	valueBytesField  protowire.Number = 3
	valueBoolField   protowire.Number = 4
	valueStringField protowire.Number = 5
)

// listValuesField is the repeated field holding List elements.
const listValuesField protowire.Number = 1

// ErrMalformed is wrapped by every *DecodeError.
var ErrMalformed = errors.New("malformed record")

// ErrInvalidRecord is returned by Encode for records that have no valid
// encoding: nil Values or byte strings, strings that are not UTF-8, and
// repeated fields whose Go form would not survive a round trip.
var ErrInvalidRecord = errors.New("invalid record")

// Record is implemented by every type that can be stored as an opaque byte
// string through PutObject/GetObject.
type Record interface {
	// AppendWire appends the wire encoding of the record to b.
	AppendWire(b []byte) ([]byte, error)
	// UnmarshalWire replaces the receiver with the record encoded in data.
	UnmarshalWire(data []byte) error
}

// DecodeError reports bytes that are not a well-formed encoding of the
// expected record shape.
type DecodeError struct {
	// Record names the expected record (e.g. "list", "head_info").
	Record string
	// Offset is the byte offset of the offending field within the input.
	Offset int
	// Reason is a human-readable description.
	Reason string
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: offset %d: %s", e.Record, e.Offset, e.Reason)
}

// Unwrap makes errors.Is(err, ErrMalformed) hold for every DecodeError.
func (e *DecodeError) Unwrap() error {
	return ErrMalformed
}

// IsDecodeError reports whether err is or wraps a *DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// Encode returns the canonical byte form of r.
func Encode(r Record) ([]byte, error) {
	b, err := r.AppendWire(nil)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	if b == nil {
		b = []byte{}
	}
	return b, nil
}

// Decode parses data into r. Returns a *DecodeError on malformed input;
// r is left unspecified in that case.
func Decode(data []byte, r Record) error {
	return r.UnmarshalWire(data)
}

// EncodeValue encodes a single Value.
func EncodeValue(v Value) ([]byte, error) {
	return Encode(&ValueRecord{Value: v})
}

// DecodeValue decodes a single Value.
func DecodeValue(data []byte) (Value, error) {
	var vr ValueRecord
	if err := vr.UnmarshalWire(data); err != nil {
		return nil, err
	}
	return vr.Value, nil
}

// EncodeList encodes a List.
func EncodeList(l List) ([]byte, error) {
	return Encode(&l)
}

// DecodeList decodes a List, preserving element order.
func DecodeList(data []byte) (List, error) {
	var l List
	if err := l.UnmarshalWire(data); err != nil {
		return nil, err
	}
	return l, nil
}

// AppendWire implements Record.
func (vr *ValueRecord) AppendWire(b []byte) ([]byte, error) {
	return appendValue(b, vr.Value)
}

// UnmarshalWire implements Record.
func (vr *ValueRecord) UnmarshalWire(data []byte) error {
	v, err := decodeValue(data)
	if err != nil {
		return err
	}
	vr.Value = v
	return nil
}

// AppendWire implements Record.
func (l *List) AppendWire(b []byte) ([]byte, error) {
	if *l == nil {
		return nil, fmt.Errorf("%w: nil list", ErrInvalidRecord)
	}
	for i, v := range *l {
		inner, err := appendValue(nil, v)
		if err != nil {
			return nil, fmt.Errorf("list[%d]: %w", i, err)
		}
		b = appendMessageField(b, listValuesField, inner)
	}
	return b, nil
}

// UnmarshalWire implements Record.
func (l *List) UnmarshalWire(data []byte) error {
	r := newFieldReader("list", data)
	out := List{}
	for {
		f, ok, err := r.next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if f.num != listValuesField {
			return r.unknown(f)
		}
		raw, err := r.readMessage(f)
		if err != nil {
			return err
		}
		v, err := decodeValue(raw)
		if err != nil {
			return r.nested(f, fmt.Sprintf("element %d", len(out)), err)
		}
		out = append(out, v)
	}
	*l = out
	return nil
}

// appendValue appends the value record for v. Variants are always written,
// even when zero, so the tag survives the round trip.
func appendValue(b []byte, v Value) ([]byte, error) {
	switch val := v.(type) {
	case Int32:
		b = protowire.AppendTag(b, valueInt32Field, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(val)))
	case Uint64:
		b = protowire.AppendTag(b, valueUint64Field, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(val))
	case Bytes:
		if val == nil {
			return nil, fmt.Errorf("%w: nil bytes_value", ErrInvalidRecord)
		}
		b = protowire.AppendTag(b, valueBytesField, protowire.BytesType)
		b = protowire.AppendBytes(b, val)
	case Bool:
		b = protowire.AppendTag(b, valueBoolField, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(bool(val)))
	case String:
		if !utf8.ValidString(string(val)) {
			return nil, fmt.Errorf("%w: string_value is not valid UTF-8", ErrInvalidRecord)
		}
		b = protowire.AppendTag(b, valueStringField, protowire.BytesType)
		b = protowire.AppendString(b, string(val))
	case nil:
		return nil, fmt.Errorf("%w: nil value", ErrInvalidRecord)
	default:
		return nil, fmt.Errorf("%w: unknown value type %T", ErrInvalidRecord, v)
	}
	return b, nil
}

func decodeValue(data []byte) (Value, error) {
	r := newFieldReader("value", data)
	var v Value
	for {
		f, ok, err := r.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if v != nil {
			return nil, r.failAt(f.off, "more than one variant set")
		}
		switch f.num {
		case valueInt32Field:
			n, err := r.readInt32(f)
			if err != nil {
				return nil, err
			}
			v = Int32(n)
		case valueUint64Field:
			n, err := r.readUint64(f)
			if err != nil {
				return nil, err
			}
			v = Uint64(n)
		case valueBytesField:
			p, err := r.readBytes(f)
			if err != nil {
				return nil, err
			}
			v = Bytes(p)
		case valueBoolField:
			bv, err := r.readBool(f)
			if err != nil {
				return nil, err
			}
			v = Bool(bv)
		case valueStringField:
			s, err := r.readString(f)
			if err != nil {
				return nil, err
			}
			v = String(s)
		default:
			return nil, r.unknown(f)
		}
	}
	if v == nil {
		return nil, r.failAt(0, "no variant set")
	}
	return v, nil
}

// Encoding helpers. Scalar fields of structured records follow proto3
// presence rules: zero numbers and empty strings are omitted, nil byte
// slices are omitted, non-nil byte slices (even empty) are written.

func appendUint64Field(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBoolField(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, 1)
}

func appendBytesField(b []byte, num protowire.Number, v []byte) []byte {
	if v == nil {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendMessageField(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

// appendRepeatedBytes writes one field per element. A repeated field with
// no elements decodes as nil and an element always decodes non-nil, so
// empty non-nil slices and nil elements are rejected.
func appendRepeatedBytes(b []byte, num protowire.Number, name string, items [][]byte) ([]byte, error) {
	if items != nil && len(items) == 0 {
		return nil, fmt.Errorf("%w: %s is empty but not nil", ErrInvalidRecord, name)
	}
	for i, it := range items {
		if it == nil {
			return nil, fmt.Errorf("%w: %s[%d] is nil", ErrInvalidRecord, name, i)
		}
		b = appendMessageField(b, num, it)
	}
	return b, nil
}

// field is one decoded tag/value pair.
type field struct {
	num    protowire.Number
	typ    protowire.Type
	varint uint64
	bytes  []byte
	off    int
}

// fieldReader walks the top-level fields of one encoded record.
type fieldReader struct {
	record string
	data   []byte
	off    int
	seen   map[protowire.Number]bool
}

func newFieldReader(record string, data []byte) *fieldReader {
	return &fieldReader{record: record, data: data}
}

// next returns the next field, or ok=false at end of input.
func (r *fieldReader) next() (field, bool, error) {
	if r.off >= len(r.data) {
		return field{}, false, nil
	}
	b := r.data[r.off:]
	num, typ, n := protowire.ConsumeTag(b)
	if n < 0 {
		return field{}, false, r.failAt(r.off, protowire.ParseError(n).Error())
	}
	f := field{num: num, typ: typ, off: r.off}
	b = b[n:]

	var m int
	switch typ {
	case protowire.VarintType:
		f.varint, m = protowire.ConsumeVarint(b)
	case protowire.BytesType:
		f.bytes, m = protowire.ConsumeBytes(b)
	default:
		return field{}, false, r.failAt(r.off, fmt.Sprintf("field %d: unsupported wire type %d", num, typ))
	}
	if m < 0 {
		return field{}, false, r.failAt(r.off, fmt.Sprintf("field %d: %v", num, protowire.ParseError(m)))
	}
	r.off += n + m
	return f, true, nil
}

// once rejects a second occurrence of a singular field.
func (r *fieldReader) once(f field) error {
	if r.seen == nil {
		r.seen = make(map[protowire.Number]bool)
	}
	if r.seen[f.num] {
		return r.failAt(f.off, fmt.Sprintf("field %d: repeated singular field", f.num))
	}
	r.seen[f.num] = true
	return nil
}

func (r *fieldReader) expect(f field, typ protowire.Type) error {
	if f.typ != typ {
		return r.failAt(f.off, fmt.Sprintf("field %d: wire type %d, expected %d", f.num, f.typ, typ))
	}
	return nil
}

func (r *fieldReader) readUint64(f field) (uint64, error) {
	if err := r.expect(f, protowire.VarintType); err != nil {
		return 0, err
	}
	return f.varint, nil
}

func (r *fieldReader) readInt32(f field) (int32, error) {
	if err := r.expect(f, protowire.VarintType); err != nil {
		return 0, err
	}
	// Negative values arrive sign-extended to 64 bits; writers that emit the
	// unsigned 32-bit form are accepted and truncated like protobuf does.
	if f.varint <= math.MaxUint32 {
		return int32(uint32(f.varint)), nil
	}
	if n := int64(f.varint); n < 0 && n >= math.MinInt32 {
		return int32(n), nil
	}
	return 0, r.failAt(f.off, fmt.Sprintf("field %d: %d overflows int32", f.num, f.varint))
}

func (r *fieldReader) readBool(f field) (bool, error) {
	if err := r.expect(f, protowire.VarintType); err != nil {
		return false, err
	}
	if f.varint > 1 {
		return false, r.failAt(f.off, fmt.Sprintf("field %d: %d is not a bool", f.num, f.varint))
	}
	return f.varint == 1, nil
}

// readBytes returns a copy of the field payload. The copy is never nil so a
// present-but-empty field stays distinct from an absent one.
func (r *fieldReader) readBytes(f field) ([]byte, error) {
	if err := r.expect(f, protowire.BytesType); err != nil {
		return nil, err
	}
	return append([]byte{}, f.bytes...), nil
}

func (r *fieldReader) readString(f field) (string, error) {
	if err := r.expect(f, protowire.BytesType); err != nil {
		return "", err
	}
	if !utf8.Valid(f.bytes) {
		return "", r.failAt(f.off, fmt.Sprintf("field %d: invalid UTF-8", f.num))
	}
	return string(f.bytes), nil
}

// readMessage returns the raw payload of an embedded message without copying.
func (r *fieldReader) readMessage(f field) ([]byte, error) {
	if err := r.expect(f, protowire.BytesType); err != nil {
		return nil, err
	}
	return f.bytes, nil
}

func (r *fieldReader) unknown(f field) error {
	return r.failAt(f.off, fmt.Sprintf("unknown field %d", f.num))
}

// nested reports a failure inside an embedded message at field f.
func (r *fieldReader) nested(f field, what string, err error) error {
	return r.failAt(f.off, fmt.Sprintf("%s: %v", what, err))
}

func (r *fieldReader) failAt(off int, reason string) error {
	return &DecodeError{Record: r.record, Offset: off, Reason: reason}
}
