package harness

import (
	"fmt"

	"github.com/roach88/mockvm/internal/record"
	"github.com/roach88/mockvm/internal/session"
)

// setterAuthorities names the authorities setter. Its storage key is
// session.KeyAuthority.
const setterAuthorities = "authorities"

// setters maps setter names to whether they take a values list.
var setters = map[string]bool{
	session.KeyEntryPoint:            false,
	session.KeyContractArguments:     false,
	session.KeyContractID:            false,
	session.KeyHeadInfo:              false,
	session.KeyLastIrreversibleBlock: false,
	session.KeyCaller:                false,
	session.KeyTransaction:           false,
	session.KeyBlock:                 false,
	setterAuthorities:                true,
	session.KeyCallContractResults:   true,
}

type topologyYAML struct {
	ID       Bytes  `yaml:"id"`
	Height   uint64 `yaml:"height"`
	Previous Bytes  `yaml:"previous"`
}

type headInfoYAML struct {
	HeadTopology          topologyYAML `yaml:"head_topology"`
	HeadBlockTime         uint64       `yaml:"head_block_time"`
	LastIrreversibleBlock uint64       `yaml:"last_irreversible_block"`
	HeadStateMerkleRoot   Bytes        `yaml:"head_state_merkle_root"`
}

type callerYAML struct {
	Caller          Bytes `yaml:"caller"`
	CallerPrivilege int32 `yaml:"caller_privilege"`
}

type transactionHeaderYAML struct {
	ChainID             Bytes  `yaml:"chain_id"`
	RCLimit             uint64 `yaml:"rc_limit"`
	Nonce               Bytes  `yaml:"nonce"`
	OperationMerkleRoot Bytes  `yaml:"operation_merkle_root"`
	Payer               Bytes  `yaml:"payer"`
	Payee               Bytes  `yaml:"payee"`
}

type transactionYAML struct {
	ID         Bytes                 `yaml:"id"`
	Header     transactionHeaderYAML `yaml:"header"`
	Operations []Bytes               `yaml:"operations"`
	Signatures []Bytes               `yaml:"signatures"`
}

type blockHeaderYAML struct {
	Previous                Bytes  `yaml:"previous"`
	Height                  uint64 `yaml:"height"`
	Timestamp               uint64 `yaml:"timestamp"`
	PreviousStateMerkleRoot Bytes  `yaml:"previous_state_merkle_root"`
	TransactionMerkleRoot   Bytes  `yaml:"transaction_merkle_root"`
	Signer                  Bytes  `yaml:"signer"`
}

type blockYAML struct {
	ID           Bytes             `yaml:"id"`
	Header       blockHeaderYAML   `yaml:"header"`
	Transactions []transactionYAML `yaml:"transactions"`
	Signature    Bytes             `yaml:"signature"`
}

type authorityYAML struct {
	Type       string `yaml:"type"`
	Account    Bytes  `yaml:"account"`
	Authorized bool   `yaml:"authorized"`
}

// applySetter decodes a setup payload and calls the matching setter.
func (h *Harness) applySetter(step SetupStep) error {
	s := h.session
	switch step.Set {
	case session.KeyEntryPoint:
		var ep uint32
		if err := decodeNode(&step.Value, &ep); err != nil {
			return err
		}
		return s.SetEntryPoint(ep)

	case session.KeyContractArguments:
		var b Bytes
		if err := decodeNode(&step.Value, &b); err != nil {
			return err
		}
		return s.SetContractArguments(b)

	case session.KeyContractID:
		var b Bytes
		if err := decodeNode(&step.Value, &b); err != nil {
			return err
		}
		return s.SetContractID(b)

	case session.KeyHeadInfo:
		var v headInfoYAML
		if err := decodeNode(&step.Value, &v); err != nil {
			return err
		}
		return s.SetHeadInfo(record.HeadInfo{
			HeadTopology: record.BlockTopology{
				ID:       v.HeadTopology.ID,
				Height:   v.HeadTopology.Height,
				Previous: v.HeadTopology.Previous,
			},
			HeadBlockTime:         v.HeadBlockTime,
			LastIrreversibleBlock: v.LastIrreversibleBlock,
			HeadStateMerkleRoot:   v.HeadStateMerkleRoot,
		})

	case session.KeyLastIrreversibleBlock:
		var n uint64
		if err := decodeNode(&step.Value, &n); err != nil {
			return err
		}
		return s.SetLastIrreversibleBlock(n)

	case session.KeyCaller:
		var v callerYAML
		if err := decodeNode(&step.Value, &v); err != nil {
			return err
		}
		return s.SetCaller(record.CallerData{
			Caller:          v.Caller,
			CallerPrivilege: record.Privilege(v.CallerPrivilege),
		})

	case session.KeyTransaction:
		var v transactionYAML
		if err := decodeNode(&step.Value, &v); err != nil {
			return err
		}
		return s.SetTransaction(v.record())

	case session.KeyBlock:
		var v blockYAML
		if err := decodeNode(&step.Value, &v); err != nil {
			return err
		}
		return s.SetBlock(v.record())

	case setterAuthorities:
		var v []authorityYAML
		if err := decodeNode(&step.Values, &v); err != nil {
			return err
		}
		auths := make(record.AuthorityList, 0, len(v))
		for _, a := range v {
			typ, err := record.ParseAuthorizationType(a.Type)
			if err != nil {
				return err
			}
			auths = append(auths, record.Authority{Type: typ, Account: a.Account, Authorized: a.Authorized})
		}
		return s.SetAuthorities(auths)

	case session.KeyCallContractResults:
		var v []Bytes
		if err := decodeNode(&step.Values, &v); err != nil {
			return err
		}
		return s.SetCallContractResults(byteSlices(v))

	default:
		return fmt.Errorf("unknown setter %q", step.Set)
	}
}

func (v transactionYAML) record() record.Transaction {
	return record.Transaction{
		ID: v.ID,
		Header: record.TransactionHeader{
			ChainID:             v.Header.ChainID,
			RCLimit:             v.Header.RCLimit,
			Nonce:               v.Header.Nonce,
			OperationMerkleRoot: v.Header.OperationMerkleRoot,
			Payer:               v.Header.Payer,
			Payee:               v.Header.Payee,
		},
		Operations: byteSlices(v.Operations),
		Signatures: byteSlices(v.Signatures),
	}
}

func (v blockYAML) record() record.Block {
	var txs []record.Transaction
	for _, tx := range v.Transactions {
		txs = append(txs, tx.record())
	}
	return record.Block{
		ID: v.ID,
		Header: record.BlockHeader{
			Previous:                v.Header.Previous,
			Height:                  v.Header.Height,
			Timestamp:               v.Header.Timestamp,
			PreviousStateMerkleRoot: v.Header.PreviousStateMerkleRoot,
			TransactionMerkleRoot:   v.Header.TransactionMerkleRoot,
			Signer:                  v.Header.Signer,
		},
		Transactions: txs,
		Signature:    v.Signature,
	}
}

func byteSlices(in []Bytes) [][]byte {
	if len(in) == 0 {
		return nil
	}
	out := make([][]byte, len(in))
	for i, b := range in {
		out[i] = b
	}
	return out
}
