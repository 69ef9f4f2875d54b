// Package record defines the structured records the simulator stores as
// opaque byte strings, and the pure encode/decode functions between them.
//
// Records come in three shapes:
//   - Value: a sealed tagged union holding exactly one scalar
//     (Int32, Uint64, Bytes, Bool, String)
//   - List: an ordered sequence of Values
//   - structured records the host API hands to contract code
//     (HeadInfo, CallerData, Transaction, Block, AuthorityList)
//
// # Wire Format
//
// Every record is encoded with the protobuf wire format. Encoding is
// deterministic: fields are written in ascending field-number order and the
// same record always yields the same bytes. Decode is the exact inverse of
// Encode for well-formed input and fails with a *DecodeError (wrapping
// ErrMalformed) otherwise. Decoding never falls back to a default record.
//
// Field numbers for each record are listed in wire.go and records.go.
//
// Every record Encode accepts decodes back to an identical Go value. Byte
// strings that are Values or elements of repeated fields decode non-nil, a
// repeated field with no elements decodes nil, and a top-level List or
// AuthorityList decodes non-nil. Encode returns ErrInvalidRecord for the
// other forms (a nil Bytes, a nil element, an empty non-nil repeated field,
// a nil List). Scalar byte fields of structured records keep nil (absent)
// and empty (present) apart.
//
// Int32 fields accept both the sign-extended 64-bit varint form and the
// unsigned 32-bit form; Encode always writes the former.
//
// # Canonical JSON
//
// MarshalCanonical renders records and plain Go values as RFC 8785 style
// canonical JSON. It is used for golden files and CLI output, never for the
// stored byte form.
//
// This package imports nothing internal.
package record
