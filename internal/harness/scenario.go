package harness

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/mockvm/internal/session"
	"github.com/roach88/mockvm/internal/store"
)

// Scenario defines a harness scenario: setter calls that prepare the
// simulated chain, host calls made the way a contract would make them, and
// assertions on the resulting session state.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Backend selects the store backend. Empty means memory.
	Backend string `yaml:"backend,omitempty"`

	// SessionID fixes the session ID. If empty, an ID derived from Name is used.
	SessionID string `yaml:"session_id,omitempty"`

	// Setup contains setter calls made before the steps. A failing setter
	// aborts the run.
	Setup []SetupStep `yaml:"setup,omitempty"`

	// Steps contains the host calls under test.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final session state.
	Assertions []Assertion `yaml:"assertions"`
}

// SetupStep is one setter call. Value carries scalar and structured
// payloads; Values carries list payloads.
type SetupStep struct {
	Set    string    `yaml:"set"`
	Value  yaml.Node `yaml:"value,omitempty"`
	Values yaml.Node `yaml:"values,omitempty"`
}

// Step is one host call.
type Step struct {
	// Call names the host function.
	Call string `yaml:"call"`

	// Args are decoded into StepArgs for the call and kept verbatim for the
	// trace.
	Args yaml.Node `yaml:"args,omitempty"`

	// ExpectError, when set, requires the call to fail with an error whose
	// message contains it.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// StepArgs is the union of host call arguments. Each call reads the fields
// it needs.
type StepArgs struct {
	Message    string  `yaml:"message,omitempty"`
	Name       string  `yaml:"name,omitempty"`
	Data       Bytes   `yaml:"data,omitempty"`
	Impacted   []Bytes `yaml:"impacted,omitempty"`
	ContractID Bytes   `yaml:"contract_id,omitempty"`
	EntryPoint uint32  `yaml:"entry_point,omitempty"`
	Args       Bytes   `yaml:"args,omitempty"`
	SpaceRef   `yaml:",inline"`
	Key        string `yaml:"key,omitempty"`
	Value      Bytes  `yaml:"value,omitempty"`
	Type       string `yaml:"type,omitempty"`
	Account    Bytes  `yaml:"account,omitempty"`
	Field      string `yaml:"field,omitempty"`
}

// SpaceRef addresses a store space from YAML. The zero value is user
// space 0 in the empty zone.
type SpaceRef struct {
	System bool   `yaml:"system,omitempty"`
	Zone   Bytes  `yaml:"zone,omitempty"`
	Space  uint32 `yaml:"space,omitempty"`
}

// Resolve returns the store space the reference names.
func (r SpaceRef) Resolve() store.Space {
	if !r.System && len(r.Zone) == 0 {
		return store.UserSpace(r.Space)
	}
	return store.Space{System: r.System, Zone: []byte(r.Zone), ID: r.Space}
}

// Assertion validates final session state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "logs_equal": logs match Values exactly, in order
	// - "event_names": decoded event names match Values, in order
	// - "events_count": Count events were emitted
	// - "results_remaining": Count call results are still queued
	// - "value_equals": the value at (space, Key) equals Value
	// - "absent": nothing is stored at (space, Key)
	// - "entries_count": the store holds Count entries
	Type string `yaml:"type"`

	Values []string `yaml:"values,omitempty"`
	Count  int      `yaml:"count,omitempty"`

	SpaceRef `yaml:",inline"`
	Key      string `yaml:"key,omitempty"`
	Value    Bytes  `yaml:"value,omitempty"`
}

// Assertion type constants.
const (
	AssertLogsEqual        = "logs_equal"
	AssertEventNames       = "event_names"
	AssertEventsCount      = "events_count"
	AssertResultsRemaining = "results_remaining"
	AssertValueEquals      = "value_equals"
	AssertAbsent           = "absent"
	AssertEntriesCount     = "entries_count"
)

// Bytes is a byte string written as standard base64 in scenario YAML.
type Bytes []byte

// UnmarshalYAML decodes a base64 scalar.
func (b *Bytes) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return fmt.Errorf("line %d: invalid base64 %q: %w", n.Line, s, err)
	}
	*b = raw
	return nil
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), is missing required fields or does not
// match the scenario schema.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML already in memory.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	if err := checkSchema(data); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Backend != "" && !slices.Contains(store.Kinds(), s.Backend) {
		return fmt.Errorf("backend %q: %w", s.Backend, store.ErrUnknownBackend)
	}

	for i, st := range s.Setup {
		if err := validateSetup(st); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, st := range s.Steps {
		if err := validateStep(st); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(&a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}

	return nil
}

func validateSetup(st SetupStep) error {
	list, ok := setters[st.Set]
	if !ok {
		return fmt.Errorf("unknown setter %q", st.Set)
	}
	if list && st.Values.Kind == 0 {
		return fmt.Errorf("%s requires values", st.Set)
	}
	if !list && st.Value.Kind == 0 {
		return fmt.Errorf("%s requires value", st.Set)
	}
	return nil
}

// validateStep rejects unknown calls, and raw writes to reserved metadata
// keys, which have setters. Control markers stay writable.
func validateStep(st Step) error {
	if !slices.Contains(hostCalls, st.Call) {
		return fmt.Errorf("unknown call %q", st.Call)
	}
	if st.Call != "put" && st.Call != "remove" {
		return nil
	}
	var args StepArgs
	if err := decodeNode(&st.Args, &args); err != nil {
		return fmt.Errorf("%s args: %w", st.Call, err)
	}
	if args.System && slices.Contains(session.ReservedKeys(), args.Key) {
		return fmt.Errorf("%s of reserved metadata key %q", st.Call, args.Key)
	}
	return nil
}

// validateAssertion checks assertion-specific required fields.
func validateAssertion(a *Assertion) error {
	switch a.Type {
	case AssertLogsEqual, AssertEventNames:
		// Values may be empty: no logs or no events.
	case AssertEventsCount, AssertResultsRemaining, AssertEntriesCount:
		if a.Count < 0 {
			return fmt.Errorf("%s count must be >= 0", a.Type)
		}
	case AssertValueEquals:
		if a.Key == "" {
			return fmt.Errorf("value_equals requires key")
		}
		if a.Value == nil {
			return fmt.Errorf("value_equals requires value")
		}
	case AssertAbsent:
		if a.Key == "" {
			return fmt.Errorf("absent requires key")
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
