package session

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/roach88/mockvm/internal/record"
	"github.com/roach88/mockvm/internal/store"
)

// EntryPoint returns the entry point set by SetEntryPoint.
func (s *Session) EntryPoint() (uint32, error) {
	var vr record.ValueRecord
	if err := s.getMeta(KeyEntryPoint, &vr); err != nil {
		return 0, err
	}
	n, ok := vr.Value.(record.Int32)
	if !ok {
		return 0, fmt.Errorf("%s: %w: want %s, got %s", KeyEntryPoint, record.ErrInvalidRecord, record.KindInt32, vr.Value.Kind())
	}
	return uint32(n), nil
}

// ContractArguments returns the bytes set by SetContractArguments.
func (s *Session) ContractArguments() ([]byte, error) {
	return s.getMetaBytes(KeyContractArguments)
}

// ContractID returns the bytes set by SetContractID.
func (s *Session) ContractID() ([]byte, error) {
	return s.getMetaBytes(KeyContractID)
}

// HeadInfo returns the record set by SetHeadInfo.
func (s *Session) HeadInfo() (record.HeadInfo, error) {
	var h record.HeadInfo
	err := s.getMeta(KeyHeadInfo, &h)
	return h, err
}

// LastIrreversibleBlock returns the height set by SetLastIrreversibleBlock.
func (s *Session) LastIrreversibleBlock() (uint64, error) {
	var vr record.ValueRecord
	if err := s.getMeta(KeyLastIrreversibleBlock, &vr); err != nil {
		return 0, err
	}
	n, ok := vr.Value.(record.Uint64)
	if !ok {
		return 0, fmt.Errorf("%s: %w: want %s, got %s", KeyLastIrreversibleBlock, record.ErrInvalidRecord, record.KindUint64, vr.Value.Kind())
	}
	return uint64(n), nil
}

// Caller returns the record set by SetCaller.
func (s *Session) Caller() (record.CallerData, error) {
	var c record.CallerData
	err := s.getMeta(KeyCaller, &c)
	return c, err
}

// Transaction returns the record set by SetTransaction.
func (s *Session) Transaction() (record.Transaction, error) {
	var tx record.Transaction
	err := s.getMeta(KeyTransaction, &tx)
	return tx, err
}

// TransactionField returns one field of the current transaction as a Value.
//
// Names use dotted paths: id, header.chain_id, header.rc_limit, header.nonce,
// header.operation_merkle_root, header.payer, header.payee.
func (s *Session) TransactionField(name string) (record.Value, error) {
	tx, err := s.Transaction()
	if err != nil {
		return nil, err
	}
	switch name {
	case "id":
		return record.Bytes(tx.ID), nil
	case "header.chain_id":
		return record.Bytes(tx.Header.ChainID), nil
	case "header.rc_limit":
		return record.Uint64(tx.Header.RCLimit), nil
	case "header.nonce":
		return record.Bytes(tx.Header.Nonce), nil
	case "header.operation_merkle_root":
		return record.Bytes(tx.Header.OperationMerkleRoot), nil
	case "header.payer":
		return record.Bytes(tx.Header.Payer), nil
	case "header.payee":
		return record.Bytes(tx.Header.Payee), nil
	default:
		return nil, fmt.Errorf("transaction field %q: %w", name, ErrUnknownField)
	}
}

// Block returns the record set by SetBlock.
func (s *Session) Block() (record.Block, error) {
	var b record.Block
	err := s.getMeta(KeyBlock, &b)
	return b, err
}

// BlockField returns one field of the current block as a Value.
//
// Names use dotted paths: id, signature, header.previous, header.height,
// header.timestamp, header.previous_state_merkle_root,
// header.transaction_merkle_root, header.signer.
func (s *Session) BlockField(name string) (record.Value, error) {
	b, err := s.Block()
	if err != nil {
		return nil, err
	}
	switch name {
	case "id":
		return record.Bytes(b.ID), nil
	case "signature":
		return record.Bytes(b.Signature), nil
	case "header.previous":
		return record.Bytes(b.Header.Previous), nil
	case "header.height":
		return record.Uint64(b.Header.Height), nil
	case "header.timestamp":
		return record.Uint64(b.Header.Timestamp), nil
	case "header.previous_state_merkle_root":
		return record.Bytes(b.Header.PreviousStateMerkleRoot), nil
	case "header.transaction_merkle_root":
		return record.Bytes(b.Header.TransactionMerkleRoot), nil
	case "header.signer":
		return record.Bytes(b.Header.Signer), nil
	default:
		return nil, fmt.Errorf("block field %q: %w", name, ErrUnknownField)
	}
}

// CheckAuthority reports whether the mocked authorities grant typ to
// account. The first matching entry decides. No authority list, or no
// matching entry, means not authorized.
func (s *Session) CheckAuthority(typ record.AuthorizationType, account []byte) (bool, error) {
	err := s.RequireAuthority(typ, account)
	if IsAuthorityError(err) {
		return false, nil
	}
	return err == nil, err
}

// RequireAuthority is CheckAuthority returning an *AuthorityError instead
// of false.
func (s *Session) RequireAuthority(typ record.AuthorizationType, account []byte) error {
	var auths record.AuthorityList
	err := s.getMeta(KeyAuthority, &auths)
	if errors.Is(err, ErrNotSet) {
		return &AuthorityError{Type: typ, Account: account}
	}
	if err != nil {
		return err
	}
	for _, a := range auths {
		if a.Type == typ && bytes.Equal(a.Account, account) {
			if !a.Authorized {
				return &AuthorityError{Type: typ, Account: account, Mocked: true}
			}
			return nil
		}
	}
	return &AuthorityError{Type: typ, Account: account}
}

// CallContract simulates a call into another contract by returning the next
// injected result. ok is false once the results are exhausted.
func (s *Session) CallContract(contractID []byte, entryPoint uint32, args []byte) ([]byte, bool, error) {
	res, ok, err := s.results.ConsumeNext()
	if err != nil {
		return nil, false, fmt.Errorf("call contract: %w", err)
	}
	s.logger.Debug("call contract",
		"contract_id", fmt.Sprintf("%x", contractID),
		"entry_point", entryPoint,
		"args_size", len(args),
		"result", ok,
	)
	return res, ok, nil
}

// Log appends msg to the session logs.
func (s *Session) Log(msg string) error {
	if err := s.logs.Append(record.String(msg)); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

// Event appends an event to the session events. The event's sequence is
// its position in the events list and its source is the current contract
// ID, when one is set.
func (s *Session) Event(name string, data []byte, impacted [][]byte) error {
	n, err := s.events.Len()
	if err != nil {
		return fmt.Errorf("event: %w", err)
	}
	source, ok, err := s.GetBytes(store.MetadataSpace, KeyContractID)
	if err != nil {
		return fmt.Errorf("event: %w", err)
	}
	if !ok {
		source = nil
	}

	encoded, err := record.Encode(&record.EventData{
		Sequence: uint32(n),
		Source:   source,
		Name:     name,
		Data:     data,
		Impacted: accounts(impacted),
	})
	if err != nil {
		return fmt.Errorf("event %q: %w", name, err)
	}
	if err := s.events.Append(record.Bytes(encoded)); err != nil {
		return fmt.Errorf("event %q: %w", name, err)
	}
	return nil
}

// accounts maps an empty impacted list to nil and nil accounts to empty
// ones, the only forms an encoded event can hold.
func accounts(impacted [][]byte) [][]byte {
	if len(impacted) == 0 {
		return nil
	}
	out := make([][]byte, len(impacted))
	for i, acct := range impacted {
		if acct == nil {
			acct = []byte{}
		}
		out[i] = acct
	}
	return out
}
