package cli

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/mockvm/internal/record"
)

// EncodeOptions holds flags for the encode command.
type EncodeOptions struct {
	*RootOptions
	Kind string
}

// EncodeOutput is the JSON payload of the encode command.
type EncodeOutput struct {
	Hex string `json:"hex"`
}

// NewEncodeCommand creates the encode command.
func NewEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EncodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "encode <json>",
		Short: "Encode a value or list and print hex",
		Long: `Encode a value or a list of values given in the JSON form decode
prints, and print the binary encoding as hex.

A value is an object with exactly one variant:
  {"int32_value": -1}  {"uint64_value": 7}  {"bytes_value": "AQID"}
  {"bool_value": true}  {"string_value": "hello"}

bytes_value is standard base64. A list is an array of values.

Example:
  mockvm encode --kind list '[{"string_value":"l1"},{"string_value":"l2"}]'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "value", "value|list")

	return cmd
}

func runEncode(opts *EncodeOptions, input string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	var doc any
	dec := json.NewDecoder(bytes.NewReader([]byte(input)))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		_ = formatter.Error(ErrCodeBadInput, fmt.Sprintf("invalid JSON: %v", err), nil)
		return WrapExitError(ExitCommandError, "invalid JSON", err)
	}

	var (
		data []byte
		err  error
	)
	switch opts.Kind {
	case "value":
		var v record.Value
		if v, err = parseValue(doc); err == nil {
			data, err = record.EncodeValue(v)
		}
	case "list":
		var l record.List
		if l, err = parseList(doc); err == nil {
			data, err = record.EncodeList(l)
		}
	default:
		_ = formatter.Error(ErrCodeUnknownKind, fmt.Sprintf("unknown kind %q", opts.Kind), []string{"value", "list"})
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown kind %q", opts.Kind))
	}
	if err != nil {
		_ = formatter.Error(ErrCodeBadInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "encode failed", err)
	}

	out := hex.EncodeToString(data)
	if opts.Format == "json" {
		return formatter.Success(EncodeOutput{Hex: out})
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

// parseList parses a JSON array of values.
func parseList(doc any) (record.List, error) {
	items, ok := doc.([]any)
	if !ok {
		return nil, fmt.Errorf("list must be a JSON array")
	}
	l := make(record.List, 0, len(items))
	for i, item := range items {
		v, err := parseValue(item)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		l = append(l, v)
	}
	return l, nil
}

// parseValue parses the single-variant object form of a value.
func parseValue(doc any) (record.Value, error) {
	obj, ok := doc.(map[string]any)
	if !ok || len(obj) != 1 {
		return nil, fmt.Errorf("value must be an object with exactly one variant")
	}

	for kind, raw := range obj {
		switch kind {
		case record.KindInt32:
			n, err := strconv.ParseInt(numberText(raw), 10, 32)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", kind, err)
			}
			return record.Int32(n), nil
		case record.KindUint64:
			n, err := strconv.ParseUint(numberText(raw), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", kind, err)
			}
			return record.Uint64(n), nil
		case record.KindBytes:
			s, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("%s: want base64 string", kind)
			}
			b, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", kind, err)
			}
			return record.Bytes(b), nil
		case record.KindBool:
			b, ok := raw.(bool)
			if !ok {
				return nil, fmt.Errorf("%s: want boolean", kind)
			}
			return record.Bool(b), nil
		case record.KindString:
			s, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("%s: want string", kind)
			}
			return record.String(s), nil
		default:
			return nil, fmt.Errorf("unknown variant %q", kind)
		}
	}
	return nil, fmt.Errorf("value must be an object with exactly one variant")
}

// numberText returns the literal text of a JSON number, or of a string
// holding one.
func numberText(raw any) string {
	switch v := raw.(type) {
	case json.Number:
		return v.String()
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
