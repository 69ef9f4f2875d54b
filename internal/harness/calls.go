package harness

import (
	"fmt"

	"github.com/roach88/mockvm/internal/record"
	"github.com/roach88/mockvm/internal/session"
)

// hostCalls lists the calls a step may make.
var hostCalls = []string{
	"log", "event", "call_contract",
	"put", "get", "remove",
	session.MarkerBeginTransaction, session.MarkerRollbackTransaction,
	session.MarkerCommitTransaction, session.MarkerReset,
	"check_authority", "require_authority",
	session.KeyEntryPoint, session.KeyContractID, session.KeyContractArguments,
	session.KeyCaller, session.KeyHeadInfo, session.KeyLastIrreversibleBlock,
	"transaction_field", "block_field",
}

// call makes one host call and returns what goes into the trace.
func (h *Harness) call(name string, a StepArgs) (any, error) {
	s := h.session
	switch name {
	case "log":
		return nil, s.Log(a.Message)
	case "event":
		return nil, s.Event(a.Name, a.Data, byteSlices(a.Impacted))
	case "call_contract":
		return lookup(s.CallContract(a.ContractID, a.EntryPoint, a.Args))

	case "put":
		return nil, s.PutBytes(a.Resolve(), a.Key, a.Value)
	case "get":
		return lookup(s.GetBytes(a.Resolve(), a.Key))
	case "remove":
		return nil, s.Remove(a.Resolve(), a.Key)

	case session.MarkerBeginTransaction:
		return nil, s.BeginTransaction()
	case session.MarkerRollbackTransaction:
		return nil, s.RollbackTransaction()
	case session.MarkerCommitTransaction:
		return nil, s.CommitTransaction()
	case session.MarkerReset:
		return nil, s.Reset()

	case "check_authority", "require_authority":
		typ, err := record.ParseAuthorizationType(a.Type)
		if err != nil {
			return nil, err
		}
		if name == "require_authority" {
			return nil, s.RequireAuthority(typ, a.Account)
		}
		ok, err := s.CheckAuthority(typ, a.Account)
		if err != nil {
			return nil, err
		}
		return map[string]any{"authorized": ok}, nil

	case session.KeyEntryPoint:
		return scalar(s.EntryPoint())
	case session.KeyContractID:
		return scalar(s.ContractID())
	case session.KeyContractArguments:
		return scalar(s.ContractArguments())
	case session.KeyLastIrreversibleBlock:
		return scalar(s.LastIrreversibleBlock())
	case session.KeyCaller:
		return structured(s.Caller())
	case session.KeyHeadInfo:
		return structured(s.HeadInfo())
	case "transaction_field":
		return structured(s.TransactionField(a.Field))
	case "block_field":
		return structured(s.BlockField(a.Field))

	default:
		return nil, fmt.Errorf("unknown call %q", name)
	}
}

// lookup renders a (value, found) pair.
func lookup(value []byte, ok bool, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	if !ok {
		return map[string]any{"found": false}, nil
	}
	return map[string]any{"found": true, "value": value}, nil
}

func scalar[T any](v T, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return map[string]any{"value": v}, nil
}

func structured[T any](v T, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return v, nil
}
