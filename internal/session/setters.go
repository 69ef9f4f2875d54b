package session

import (
	"fmt"

	"github.com/roach88/mockvm/internal/record"
	"github.com/roach88/mockvm/internal/store"
)

// SetEntryPoint sets the value EntryPoint returns.
// Stored as an int32 Value; the bits round-trip unchanged.
func (s *Session) SetEntryPoint(entryPoint uint32) error {
	return s.putMeta(KeyEntryPoint, &record.ValueRecord{Value: record.Int32(int32(entryPoint))})
}

// SetContractArguments sets the raw bytes ContractArguments returns.
func (s *Session) SetContractArguments(args []byte) error {
	return s.putMetaBytes(KeyContractArguments, args)
}

// SetContractID sets the raw bytes ContractID returns.
func (s *Session) SetContractID(id []byte) error {
	return s.putMetaBytes(KeyContractID, id)
}

// SetHeadInfo sets the record HeadInfo returns.
func (s *Session) SetHeadInfo(h record.HeadInfo) error {
	return s.putMeta(KeyHeadInfo, &h)
}

// SetLastIrreversibleBlock sets the height LastIrreversibleBlock returns.
func (s *Session) SetLastIrreversibleBlock(height uint64) error {
	return s.putMeta(KeyLastIrreversibleBlock, &record.ValueRecord{Value: record.Uint64(height)})
}

// SetCaller sets the record Caller returns.
func (s *Session) SetCaller(c record.CallerData) error {
	return s.putMeta(KeyCaller, &c)
}

// SetTransaction sets the record Transaction and TransactionField serve.
func (s *Session) SetTransaction(tx record.Transaction) error {
	return s.putMeta(KeyTransaction, &tx)
}

// SetBlock sets the record Block and BlockField serve.
func (s *Session) SetBlock(b record.Block) error {
	return s.putMeta(KeyBlock, &b)
}

// SetAuthorities sets the decisions CheckAuthority consults.
func (s *Session) SetAuthorities(auths record.AuthorityList) error {
	if auths == nil {
		auths = record.AuthorityList{}
	}
	return s.putMeta(KeyAuthority, &auths)
}

// SetCallContractResults replaces the FIFO of CallContract results.
// The first CallContract returns results[0], the second results[1], and so on.
func (s *Session) SetCallContractResults(results [][]byte) error {
	return s.results.SetResults(results)
}

// GetLogs returns every message passed to Log, oldest first.
func (s *Session) GetLogs() ([]string, error) {
	l, err := s.logs.All()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(l))
	for i, v := range l {
		msg, err := record.AsString(v)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", KeyLogs, i, err)
		}
		out = append(out, msg)
	}
	return out, nil
}

// GetEvents returns the encoded EventData of every Event call, oldest first.
func (s *Session) GetEvents() ([][]byte, error) {
	l, err := s.events.All()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, 0, len(l))
	for i, v := range l {
		data, err := record.AsBytes(v)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", KeyEvents, i, err)
		}
		out = append(out, data)
	}
	return out, nil
}

// DecodedEvents returns GetEvents decoded into EventData records.
func (s *Session) DecodedEvents() ([]record.EventData, error) {
	raw, err := s.GetEvents()
	if err != nil {
		return nil, err
	}
	out := make([]record.EventData, len(raw))
	for i, data := range raw {
		if err := record.Decode(data, &out[i]); err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", KeyEvents, i, err)
		}
	}
	return out, nil
}

// ResultsRemaining returns how many injected CallContract results are unread.
func (s *Session) ResultsRemaining() (int, error) {
	return s.results.Len()
}

// Reset clears every space, queue and log, and drops any snapshot.
func (s *Session) Reset() error {
	return s.putMarker(MarkerReset)
}

// BeginTransaction snapshots the store.
func (s *Session) BeginTransaction() error {
	return s.putMarker(MarkerBeginTransaction)
}

// RollbackTransaction restores the snapshot taken by BeginTransaction.
// No-op without one.
func (s *Session) RollbackTransaction() error {
	return s.putMarker(MarkerRollbackTransaction)
}

// CommitTransaction drops the snapshot, making rollback impossible.
// No-op without one.
func (s *Session) CommitTransaction() error {
	return s.putMarker(MarkerCommitTransaction)
}

func (s *Session) putMarker(marker string) error {
	return s.PutBytes(store.MetadataSpace, marker, []byte{})
}
