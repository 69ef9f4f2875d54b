package record

import (
	"fmt"
	"math"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"
)

// Privilege is the privilege level of a caller.
type Privilege int32

const (
	KernelMode Privilege = 0
	UserMode   Privilege = 1
)

// AuthorizationType is the kind of action an authority check guards.
type AuthorizationType int32

const (
	ContractCall           AuthorizationType = 0
	TransactionApplication AuthorizationType = 1
	ContractUpload         AuthorizationType = 2
)

// String returns the snake_case name of the authorization type.
func (t AuthorizationType) String() string {
	switch t {
	case ContractCall:
		return "contract_call"
	case TransactionApplication:
		return "transaction_application"
	case ContractUpload:
		return "contract_upload"
	default:
		return fmt.Sprintf("authorization_type(%d)", int32(t))
	}
}

// ParseAuthorizationType is the inverse of AuthorizationType.String for the
// named types.
func ParseAuthorizationType(s string) (AuthorizationType, error) {
	for _, t := range []AuthorizationType{ContractCall, TransactionApplication, ContractUpload} {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown authorization type %q", s)
}

// BlockTopology identifies a block by id, height and parent.
//
// Fields: 1 id, 2 height, 3 previous.
type BlockTopology struct {
	ID       []byte
	Height   uint64
	Previous []byte
}

// HeadInfo describes the chain head as seen by the contract.
//
// Fields: 1 head_topology, 2 head_block_time, 3 last_irreversible_block,
// 4 head_state_merkle_root.
type HeadInfo struct {
	HeadTopology          BlockTopology
	HeadBlockTime         uint64
	LastIrreversibleBlock uint64
	HeadStateMerkleRoot   []byte
}

// CallerData identifies the account that invoked the contract.
//
// Fields: 1 caller, 2 caller_privilege.
type CallerData struct {
	Caller          []byte
	CallerPrivilege Privilege
}

// TransactionHeader carries the signed transaction metadata.
//
// Fields: 1 chain_id, 2 rc_limit, 3 nonce, 4 operation_merkle_root,
// 5 payer, 6 payee.
type TransactionHeader struct {
	ChainID             []byte
	RCLimit             uint64
	Nonce               []byte
	OperationMerkleRoot []byte
	Payer               []byte
	Payee               []byte
}

// Transaction is the transaction being applied.
// Operations are kept as opaque encoded operations.
//
// Fields: 1 id, 2 header, 3 operations (repeated), 4 signatures (repeated).
type Transaction struct {
	ID         []byte
	Header     TransactionHeader
	Operations [][]byte
	Signatures [][]byte
}

// BlockHeader carries the block metadata.
//
// Fields: 1 previous, 2 height, 3 timestamp, 4 previous_state_merkle_root,
// 5 transaction_merkle_root, 6 signer.
type BlockHeader struct {
	Previous                []byte
	Height                  uint64
	Timestamp               uint64
	PreviousStateMerkleRoot []byte
	TransactionMerkleRoot   []byte
	Signer                  []byte
}

// Block is the block being applied.
//
// Fields: 1 id, 2 header, 3 transactions (repeated), 4 signature.
type Block struct {
	ID           []byte
	Header       BlockHeader
	Transactions []Transaction
	Signature    []byte
}

// Authority is one mocked authority decision.
//
// Fields: 1 type, 2 account, 3 authorized.
type Authority struct {
	Type       AuthorizationType
	Account    []byte
	Authorized bool
}

// EventData is one event emitted by the contract.
//
// Fields: 1 sequence, 2 source, 3 name, 4 data, 5 impacted (repeated).
type EventData struct {
	Sequence uint32
	Source   []byte
	Name     string
	Data     []byte
	Impacted [][]byte
}

// AuthorityList is the set of mocked authority decisions.
//
// Fields: 1 authorities (repeated).
type AuthorityList []Authority

// BlockTopology

func (t *BlockTopology) appendWire(b []byte) []byte {
	b = appendBytesField(b, 1, t.ID)
	b = appendUint64Field(b, 2, t.Height)
	b = appendBytesField(b, 3, t.Previous)
	return b
}

func (t *BlockTopology) unmarshalWire(data []byte) error {
	r := newFieldReader("block_topology", data)
	*t = BlockTopology{}
	return r.each(func(f field) (err error) {
		switch f.num {
		case 1:
			t.ID, err = r.readBytes(f)
		case 2:
			t.Height, err = r.readUint64(f)
		case 3:
			t.Previous, err = r.readBytes(f)
		default:
			err = r.unknown(f)
		}
		return err
	})
}

// HeadInfo

// AppendWire implements Record.
func (h *HeadInfo) AppendWire(b []byte) ([]byte, error) {
	b = appendMessageField(b, 1, h.HeadTopology.appendWire(nil))
	b = appendUint64Field(b, 2, h.HeadBlockTime)
	b = appendUint64Field(b, 3, h.LastIrreversibleBlock)
	b = appendBytesField(b, 4, h.HeadStateMerkleRoot)
	return b, nil
}

// UnmarshalWire implements Record.
func (h *HeadInfo) UnmarshalWire(data []byte) error {
	r := newFieldReader("head_info", data)
	*h = HeadInfo{}
	return r.each(func(f field) (err error) {
		switch f.num {
		case 1:
			raw, err := r.readMessage(f)
			if err != nil {
				return err
			}
			if err := h.HeadTopology.unmarshalWire(raw); err != nil {
				return r.nested(f, "head_topology", err)
			}
		case 2:
			h.HeadBlockTime, err = r.readUint64(f)
		case 3:
			h.LastIrreversibleBlock, err = r.readUint64(f)
		case 4:
			h.HeadStateMerkleRoot, err = r.readBytes(f)
		default:
			err = r.unknown(f)
		}
		return err
	})
}

// CallerData

// AppendWire implements Record.
func (c *CallerData) AppendWire(b []byte) ([]byte, error) {
	b = appendBytesField(b, 1, c.Caller)
	b = appendUint64Field(b, 2, uint64(int64(c.CallerPrivilege)))
	return b, nil
}

// UnmarshalWire implements Record.
func (c *CallerData) UnmarshalWire(data []byte) error {
	r := newFieldReader("caller_data", data)
	*c = CallerData{}
	return r.each(func(f field) (err error) {
		switch f.num {
		case 1:
			c.Caller, err = r.readBytes(f)
		case 2:
			var n int32
			n, err = r.readInt32(f)
			c.CallerPrivilege = Privilege(n)
		default:
			err = r.unknown(f)
		}
		return err
	})
}

// TransactionHeader

func (h *TransactionHeader) appendWire(b []byte) []byte {
	b = appendBytesField(b, 1, h.ChainID)
	b = appendUint64Field(b, 2, h.RCLimit)
	b = appendBytesField(b, 3, h.Nonce)
	b = appendBytesField(b, 4, h.OperationMerkleRoot)
	b = appendBytesField(b, 5, h.Payer)
	b = appendBytesField(b, 6, h.Payee)
	return b
}

func (h *TransactionHeader) unmarshalWire(data []byte) error {
	r := newFieldReader("transaction_header", data)
	*h = TransactionHeader{}
	return r.each(func(f field) (err error) {
		switch f.num {
		case 1:
			h.ChainID, err = r.readBytes(f)
		case 2:
			h.RCLimit, err = r.readUint64(f)
		case 3:
			h.Nonce, err = r.readBytes(f)
		case 4:
			h.OperationMerkleRoot, err = r.readBytes(f)
		case 5:
			h.Payer, err = r.readBytes(f)
		case 6:
			h.Payee, err = r.readBytes(f)
		default:
			err = r.unknown(f)
		}
		return err
	})
}

// Transaction

// AppendWire implements Record.
func (t *Transaction) AppendWire(b []byte) ([]byte, error) {
	b = appendBytesField(b, 1, t.ID)
	b = appendMessageField(b, 2, t.Header.appendWire(nil))
	b, err := appendRepeatedBytes(b, 3, "operations", t.Operations)
	if err != nil {
		return nil, err
	}
	return appendRepeatedBytes(b, 4, "signatures", t.Signatures)
}

// UnmarshalWire implements Record.
func (t *Transaction) UnmarshalWire(data []byte) error {
	r := newFieldReader("transaction", data)
	*t = Transaction{}
	return r.each(func(f field) (err error) {
		switch f.num {
		case 1:
			t.ID, err = r.readBytes(f)
		case 2:
			raw, err := r.readMessage(f)
			if err != nil {
				return err
			}
			if err := t.Header.unmarshalWire(raw); err != nil {
				return r.nested(f, "header", err)
			}
		case 3:
			var op []byte
			op, err = r.readBytes(f)
			t.Operations = append(t.Operations, op)
		case 4:
			var sig []byte
			sig, err = r.readBytes(f)
			t.Signatures = append(t.Signatures, sig)
		default:
			err = r.unknown(f)
		}
		return err
	}, 3, 4)
}

// BlockHeader

func (h *BlockHeader) appendWire(b []byte) []byte {
	b = appendBytesField(b, 1, h.Previous)
	b = appendUint64Field(b, 2, h.Height)
	b = appendUint64Field(b, 3, h.Timestamp)
	b = appendBytesField(b, 4, h.PreviousStateMerkleRoot)
	b = appendBytesField(b, 5, h.TransactionMerkleRoot)
	b = appendBytesField(b, 6, h.Signer)
	return b
}

func (h *BlockHeader) unmarshalWire(data []byte) error {
	r := newFieldReader("block_header", data)
	*h = BlockHeader{}
	return r.each(func(f field) (err error) {
		switch f.num {
		case 1:
			h.Previous, err = r.readBytes(f)
		case 2:
			h.Height, err = r.readUint64(f)
		case 3:
			h.Timestamp, err = r.readUint64(f)
		case 4:
			h.PreviousStateMerkleRoot, err = r.readBytes(f)
		case 5:
			h.TransactionMerkleRoot, err = r.readBytes(f)
		case 6:
			h.Signer, err = r.readBytes(f)
		default:
			err = r.unknown(f)
		}
		return err
	})
}

// Block

// AppendWire implements Record.
func (bl *Block) AppendWire(b []byte) ([]byte, error) {
	b = appendBytesField(b, 1, bl.ID)
	b = appendMessageField(b, 2, bl.Header.appendWire(nil))
	if bl.Transactions != nil && len(bl.Transactions) == 0 {
		return nil, fmt.Errorf("%w: transactions is empty but not nil", ErrInvalidRecord)
	}
	for i := range bl.Transactions {
		inner, err := bl.Transactions[i].AppendWire(nil)
		if err != nil {
			return nil, fmt.Errorf("transactions[%d]: %w", i, err)
		}
		b = appendMessageField(b, 3, inner)
	}
	b = appendBytesField(b, 4, bl.Signature)
	return b, nil
}

// UnmarshalWire implements Record.
func (bl *Block) UnmarshalWire(data []byte) error {
	r := newFieldReader("block", data)
	*bl = Block{}
	return r.each(func(f field) (err error) {
		switch f.num {
		case 1:
			bl.ID, err = r.readBytes(f)
		case 2:
			raw, err := r.readMessage(f)
			if err != nil {
				return err
			}
			if err := bl.Header.unmarshalWire(raw); err != nil {
				return r.nested(f, "header", err)
			}
		case 3:
			raw, err := r.readMessage(f)
			if err != nil {
				return err
			}
			var tx Transaction
			if err := tx.UnmarshalWire(raw); err != nil {
				return r.nested(f, fmt.Sprintf("transactions[%d]", len(bl.Transactions)), err)
			}
			bl.Transactions = append(bl.Transactions, tx)
		case 4:
			bl.Signature, err = r.readBytes(f)
		default:
			err = r.unknown(f)
		}
		return err
	}, 3)
}

// Authority

func (a *Authority) appendWire(b []byte) []byte {
	b = appendUint64Field(b, 1, uint64(int64(a.Type)))
	b = appendBytesField(b, 2, a.Account)
	b = appendBoolField(b, 3, a.Authorized)
	return b
}

func (a *Authority) unmarshalWire(data []byte) error {
	r := newFieldReader("authority", data)
	*a = Authority{}
	return r.each(func(f field) (err error) {
		switch f.num {
		case 1:
			var n int32
			n, err = r.readInt32(f)
			a.Type = AuthorizationType(n)
		case 2:
			a.Account, err = r.readBytes(f)
		case 3:
			a.Authorized, err = r.readBool(f)
		default:
			err = r.unknown(f)
		}
		return err
	})
}

// AppendWire implements Record.
func (l *AuthorityList) AppendWire(b []byte) ([]byte, error) {
	if *l == nil {
		return nil, fmt.Errorf("%w: nil authority list", ErrInvalidRecord)
	}
	for i := range *l {
		b = appendMessageField(b, 1, (*l)[i].appendWire(nil))
	}
	return b, nil
}

// UnmarshalWire implements Record.
func (l *AuthorityList) UnmarshalWire(data []byte) error {
	r := newFieldReader("authority_list", data)
	out := AuthorityList{}
	err := r.each(func(f field) error {
		if f.num != 1 {
			return r.unknown(f)
		}
		raw, err := r.readMessage(f)
		if err != nil {
			return err
		}
		var a Authority
		if err := a.unmarshalWire(raw); err != nil {
			return r.nested(f, fmt.Sprintf("authorities[%d]", len(out)), err)
		}
		out = append(out, a)
		return nil
	}, 1)
	if err != nil {
		return err
	}
	*l = out
	return nil
}

// EventData

// AppendWire implements Record.
func (e *EventData) AppendWire(b []byte) ([]byte, error) {
	if !utf8.ValidString(e.Name) {
		return nil, fmt.Errorf("%w: event name is not valid UTF-8", ErrInvalidRecord)
	}
	b = appendUint64Field(b, 1, uint64(e.Sequence))
	b = appendBytesField(b, 2, e.Source)
	if e.Name != "" {
		b = appendMessageField(b, 3, []byte(e.Name))
	}
	b = appendBytesField(b, 4, e.Data)
	return appendRepeatedBytes(b, 5, "impacted", e.Impacted)
}

// UnmarshalWire implements Record.
func (e *EventData) UnmarshalWire(data []byte) error {
	r := newFieldReader("event_data", data)
	*e = EventData{}
	return r.each(func(f field) (err error) {
		switch f.num {
		case 1:
			var n uint64
			n, err = r.readUint64(f)
			if err == nil && n > math.MaxUint32 {
				err = r.failAt(f.off, fmt.Sprintf("field %d: %d overflows uint32", f.num, n))
			}
			e.Sequence = uint32(n)
		case 2:
			e.Source, err = r.readBytes(f)
		case 3:
			e.Name, err = r.readString(f)
		case 4:
			e.Data, err = r.readBytes(f)
		case 5:
			var acct []byte
			acct, err = r.readBytes(f)
			e.Impacted = append(e.Impacted, acct)
		default:
			err = r.unknown(f)
		}
		return err
	}, 5)
}

// each calls fn for every field. Fields not listed in repeated may appear
// at most once.
func (r *fieldReader) each(fn func(field) error, repeated ...protowire.Number) error {
	for {
		f, ok, err := r.next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if !isRepeated(f.num, repeated) {
			if err := r.once(f); err != nil {
				return err
			}
		}
		if err := fn(f); err != nil {
			return err
		}
	}
}

func isRepeated(num protowire.Number, repeated []protowire.Number) bool {
	for _, n := range repeated {
		if n == num {
			return true
		}
	}
	return false
}
