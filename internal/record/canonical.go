package record

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 style canonical JSON.
//
// Differences from json.Marshal:
//  1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Strings are NFC normalized
//  4. No floats, no null (returns error)
//  5. Byte strings render as standard base64
//
// Record values (Value, List, HeadInfo, ...) are accepted and rendered through
// ToJSON first.
func MarshalCanonical(v any) ([]byte, error) {
	plain, err := ToJSON(v)
	if err != nil {
		return nil, err
	}
	return marshalCanonical(plain)
}

func marshalCanonical(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		return marshalCanonicalString(val)
	case bool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case int64:
		return []byte(strconv.FormatInt(val, 10)), nil
	case uint64:
		return []byte(strconv.FormatUint(val, 10)), nil
	case []any:
		return marshalCanonicalArray(val)
	case map[string]any:
		return marshalCanonicalObject(val)
	case float64, float32:
		return nil, fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

// marshalCanonicalString produces a canonical JSON string with NFC normalization.
// Only control characters, backslash and quote are escaped.
func marshalCanonicalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}

	result := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	return unescapeLineSeparators(result), nil
}

// unescapeLineSeparators turns the \u2028 and \u2029 escapes json.Encoder
// emits back into literal characters. An escape preceded by an odd number of
// backslashes is literal text and stays as is.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == '\\' && i+5 < len(data) &&
			data[i+1] == 'u' && data[i+2] == '2' && data[i+3] == '0' && data[i+4] == '2' &&
			(data[i+5] == '8' || data[i+5] == '9') {
			run := 0
			for j := len(out) - 1; j >= 0 && out[j] == '\\'; j-- {
				run++
			}
			if run%2 == 0 {
				if data[i+5] == '8' {
					out = append(out, "\u2028"...)
				} else {
					out = append(out, "\u2029"...)
				}
				i += 5
				continue
			}
		}
		out = append(out, data[i])
	}
	return out
}

func marshalCanonicalArray(arr []any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		elemBytes, err := marshalCanonical(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(elemBytes)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func marshalCanonicalObject(obj map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range sortedKeys(obj) {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := marshalCanonicalString(k)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := marshalCanonical(obj[k])
		if err != nil {
			return nil, fmt.Errorf("value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// sortedKeys returns keys in RFC 8785 order (UTF-16 code units).
// Go's string comparison uses UTF-8 which orders supplementary characters
// differently.
func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
}

// ToJSON converts records and Go values into the plain tree MarshalCanonical
// serializes: string, bool, int64, uint64, []any and map[string]any.
func ToJSON(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is forbidden")
	case string:
		return val, nil
	case bool:
		return val, nil
	case int:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case int64:
		return val, nil
	case uint32:
		return uint64(val), nil
	case uint64:
		return val, nil
	case []byte:
		return base64.StdEncoding.EncodeToString(val), nil
	case float64, float32:
		return nil, fmt.Errorf("floats are forbidden: %v", val)
	case Value:
		return valueJSON(val), nil
	case ValueRecord:
		return ToJSON(val.Value)
	case *ValueRecord:
		return ToJSON(val.Value)
	case List:
		return listJSON(val), nil
	case *List:
		return listJSON(*val), nil
	case HeadInfo:
		return headInfoJSON(&val), nil
	case *HeadInfo:
		return headInfoJSON(val), nil
	case CallerData:
		return callerJSON(&val), nil
	case *CallerData:
		return callerJSON(val), nil
	case Transaction:
		return transactionJSON(&val), nil
	case *Transaction:
		return transactionJSON(val), nil
	case Block:
		return blockJSON(&val), nil
	case *Block:
		return blockJSON(val), nil
	case EventData:
		return eventJSON(&val), nil
	case *EventData:
		return eventJSON(val), nil
	case AuthorityList:
		return authoritiesJSON(val), nil
	case *AuthorityList:
		return authoritiesJSON(*val), nil
	case []string:
		out := make([]any, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out, nil
	case [][]byte:
		return bytesListJSON(val), nil
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			j, err := ToJSON(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = j
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			j, err := ToJSON(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			out[k] = j
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

func valueJSON(v Value) map[string]any {
	var inner any
	switch val := v.(type) {
	case Int32:
		inner = int64(val)
	case Uint64:
		inner = uint64(val)
	case Bytes:
		inner = base64.StdEncoding.EncodeToString(val)
	case Bool:
		inner = bool(val)
	case String:
		inner = string(val)
	}
	return map[string]any{v.Kind(): inner}
}

func listJSON(l List) []any {
	out := make([]any, len(l))
	for i, v := range l {
		if v == nil {
			out[i] = map[string]any{}
			continue
		}
		out[i] = valueJSON(v)
	}
	return out
}

func bytesListJSON(items [][]byte) []any {
	out := make([]any, len(items))
	for i, it := range items {
		out[i] = base64.StdEncoding.EncodeToString(it)
	}
	return out
}

func b64(p []byte) string {
	return base64.StdEncoding.EncodeToString(p)
}

func headInfoJSON(h *HeadInfo) map[string]any {
	return map[string]any{
		"head_topology": map[string]any{
			"id":       b64(h.HeadTopology.ID),
			"height":   h.HeadTopology.Height,
			"previous": b64(h.HeadTopology.Previous),
		},
		"head_block_time":         h.HeadBlockTime,
		"last_irreversible_block": h.LastIrreversibleBlock,
		"head_state_merkle_root":  b64(h.HeadStateMerkleRoot),
	}
}

func callerJSON(c *CallerData) map[string]any {
	return map[string]any{
		"caller":           b64(c.Caller),
		"caller_privilege": int64(c.CallerPrivilege),
	}
}

func transactionJSON(t *Transaction) map[string]any {
	return map[string]any{
		"id": b64(t.ID),
		"header": map[string]any{
			"chain_id":              b64(t.Header.ChainID),
			"rc_limit":              t.Header.RCLimit,
			"nonce":                 b64(t.Header.Nonce),
			"operation_merkle_root": b64(t.Header.OperationMerkleRoot),
			"payer":                 b64(t.Header.Payer),
			"payee":                 b64(t.Header.Payee),
		},
		"operations": bytesListJSON(t.Operations),
		"signatures": bytesListJSON(t.Signatures),
	}
}

func blockJSON(bl *Block) map[string]any {
	txs := make([]any, len(bl.Transactions))
	for i := range bl.Transactions {
		txs[i] = transactionJSON(&bl.Transactions[i])
	}
	return map[string]any{
		"id": b64(bl.ID),
		"header": map[string]any{
			"previous":                   b64(bl.Header.Previous),
			"height":                     bl.Header.Height,
			"timestamp":                  bl.Header.Timestamp,
			"previous_state_merkle_root": b64(bl.Header.PreviousStateMerkleRoot),
			"transaction_merkle_root":    b64(bl.Header.TransactionMerkleRoot),
			"signer":                     b64(bl.Header.Signer),
		},
		"transactions": txs,
		"signature":    b64(bl.Signature),
	}
}

func authoritiesJSON(l AuthorityList) []any {
	out := make([]any, len(l))
	for i, a := range l {
		out[i] = map[string]any{
			"type":       a.Type.String(),
			"account":    b64(a.Account),
			"authorized": a.Authorized,
		}
	}
	return out
}

func eventJSON(e *EventData) map[string]any {
	return map[string]any{
		"sequence": uint64(e.Sequence),
		"source":   b64(e.Source),
		"name":     e.Name,
		"data":     b64(e.Data),
		"impacted": bytesListJSON(e.Impacted),
	}
}
