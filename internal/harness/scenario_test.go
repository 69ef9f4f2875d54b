package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mockvm/internal/store"
)

// writeScenario writes content to a scenario file in a temp dir.
func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const minimalScenario = `
name: minimal
description: "Minimal scenario"
steps:
  - call: log
    args: { message: "hello" }
assertions:
  - type: logs_equal
    values: ["hello"]
`

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, `
name: test_scenario
description: "Test scenario for validation"
backend: sqlite
setup:
  - set: entry_point
    value: 7
  - set: call_contract_results
    values: ["AQ=="]
steps:
  - call: put
    args: { space: 2, zone: "AQI=", key: balance, value: "Kg==" }
  - call: contract_id
    expect_error: "not set"
assertions:
  - type: value_equals
    space: 2
    zone: "AQI="
    key: balance
    value: "Kg=="
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Test scenario for validation", scenario.Description)
	assert.Equal(t, store.KindSQLite, scenario.Backend)
	require.Len(t, scenario.Setup, 2)
	require.Len(t, scenario.Steps, 2)
	require.Len(t, scenario.Assertions, 1)

	assert.Equal(t, "entry_point", scenario.Setup[0].Set)
	assert.Equal(t, "put", scenario.Steps[0].Call)
	assert.Equal(t, "not set", scenario.Steps[1].ExpectError)

	var args StepArgs
	require.NoError(t, decodeNode(&scenario.Steps[0].Args, &args))
	assert.Equal(t, "balance", args.Key)
	assert.Equal(t, []byte{0x2a}, []byte(args.Value))
	assert.True(t, args.Resolve().Equal(store.Space{Zone: []byte{1, 2}, ID: 2}))

	a := scenario.Assertions[0]
	assert.Equal(t, []byte{0x2a}, []byte(a.Value))
	assert.Equal(t, uint32(2), a.Space)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_Minimal(t *testing.T) {
	scenario, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)
	assert.Empty(t, scenario.Backend)
	assert.Empty(t, scenario.Setup)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing name",
			content: `
description: "x"
steps: [{ call: reset }]
assertions: [{ type: entries_count }]
`,
			wantErr: "name is required",
		},
		{
			name: "missing description",
			content: `
name: x
steps: [{ call: reset }]
assertions: [{ type: entries_count }]
`,
			wantErr: "description is required",
		},
		{
			name: "put of reserved metadata key",
			content: `
name: x
description: "x"
steps: [{ call: put, args: { system: true, key: logs, value: "" } }]
assertions: [{ type: entries_count }]
`,
			wantErr: `steps[0]: put of reserved metadata key "logs"`,
		},
		{
			name: "remove of reserved metadata key",
			content: `
name: x
description: "x"
steps: [{ call: remove, args: { system: true, key: authority } }]
assertions: [{ type: entries_count }]
`,
			wantErr: `steps[0]: remove of reserved metadata key "authority"`,
		},
		{
			name: "put args typo",
			content: `
name: x
description: "x"
steps: [{ call: put, args: { kee: x } }]
assertions: [{ type: entries_count }]
`,
			wantErr: "put args",
		},
		{
			name: "no steps",
			content: `
name: x
description: "x"
steps: []
assertions: [{ type: entries_count }]
`,
			wantErr: "steps list is required",
		},
		{
			name: "no assertions",
			content: `
name: x
description: "x"
steps: [{ call: reset }]
assertions: []
`,
			wantErr: "assertions list is required",
		},
		{
			name: "unknown top-level field",
			content: `
name: x
description: "x"
step: [{ call: reset }]
assertions: [{ type: entries_count }]
`,
			wantErr: "failed to parse YAML",
		},
		{
			name: "unknown backend",
			content: `
name: x
description: "x"
backend: rocksdb
steps: [{ call: reset }]
assertions: [{ type: entries_count }]
`,
			wantErr: "unknown backend",
		},
		{
			name: "unknown setter",
			content: `
name: x
description: "x"
setup: [{ set: gas_limit, value: 1 }]
steps: [{ call: reset }]
assertions: [{ type: entries_count }]
`,
			wantErr: `unknown setter "gas_limit"`,
		},
		{
			name: "list setter without values",
			content: `
name: x
description: "x"
setup: [{ set: call_contract_results, value: "AQ==" }]
steps: [{ call: reset }]
assertions: [{ type: entries_count }]
`,
			wantErr: "call_contract_results requires values",
		},
		{
			name: "unknown call",
			content: `
name: x
description: "x"
steps: [{ call: transfer }]
assertions: [{ type: entries_count }]
`,
			wantErr: `unknown call "transfer"`,
		},
		{
			name: "unknown assertion",
			content: `
name: x
description: "x"
steps: [{ call: reset }]
assertions: [{ type: trace_contains }]
`,
			wantErr: `unknown assertion type "trace_contains"`,
		},
		{
			name: "value_equals without value",
			content: `
name: x
description: "x"
steps: [{ call: reset }]
assertions: [{ type: value_equals, key: k }]
`,
			wantErr: "value_equals requires value",
		},
		{
			name: "absent without key",
			content: `
name: x
description: "x"
steps: [{ call: reset }]
assertions: [{ type: absent }]
`,
			wantErr: "absent requires key",
		},
		{
			name: "bad base64",
			content: `
name: x
description: "x"
steps: [{ call: reset }]
assertions: [{ type: value_equals, key: k, value: "!!" }]
`,
			wantErr: "invalid base64",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseScenario_SchemaRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "unknown arg",
			content: `
name: x
description: "x"
steps: [{ call: log, args: { msg: "typo" } }]
assertions: [{ type: entries_count }]
`,
		},
		{
			name: "entry point out of range",
			content: `
name: x
description: "x"
steps: [{ call: call_contract, args: { entry_point: 4294967296 } }]
assertions: [{ type: entries_count }]
`,
		},
		{
			name: "unknown authorization type",
			content: `
name: x
description: "x"
steps: [{ call: check_authority, args: { type: root, account: "AQ==" } }]
assertions: [{ type: entries_count }]
`,
		},
		{
			name: "negative count",
			content: `
name: x
description: "x"
steps: [{ call: reset }]
assertions: [{ type: events_count, count: -1 }]
`,
		},
		{
			name: "values not a list",
			content: `
name: x
description: "x"
setup: [{ set: call_contract_results, values: "AQ==" }]
steps: [{ call: reset }]
assertions: [{ type: entries_count }]
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
		})
	}
}

func TestSchemaEnumsMatchGo(t *testing.T) {
	schema, err := scenarioSchema()
	require.NoError(t, err)

	for name := range setters {
		doc := map[string]any{
			"name":        "x",
			"description": "x",
			"setup":       []any{map[string]any{"set": name}},
			"steps":       []any{map[string]any{"call": "reset"}},
			"assertions":  []any{map[string]any{"type": "entries_count"}},
		}
		v := schema.Unify(schema.Context().Encode(doc))
		assert.NoError(t, v.Validate(), "setter %s", name)
	}

	for _, call := range hostCalls {
		doc := map[string]any{
			"name":        "x",
			"description": "x",
			"steps":       []any{map[string]any{"call": call}},
			"assertions":  []any{map[string]any{"type": "entries_count"}},
		}
		v := schema.Unify(schema.Context().Encode(doc))
		assert.NoError(t, v.Validate(), "call %s", call)
	}

	for _, kind := range store.Kinds() {
		doc := map[string]any{
			"name":        "x",
			"description": "x",
			"backend":     kind,
			"steps":       []any{map[string]any{"call": "reset"}},
			"assertions":  []any{map[string]any{"type": "entries_count"}},
		}
		v := schema.Unify(schema.Context().Encode(doc))
		assert.NoError(t, v.Validate(), "backend %s", kind)
	}
}

func TestParseScenario_ReservedKeyInUserSpaceIsData(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: x
description: "x"
steps:
  - call: put
    args: { key: logs, value: "AQ==" }
  - call: put
    args: { system: true, key: begin_transaction, value: "" }
assertions: [{ type: entries_count, count: 1 }]
`))
	require.NoError(t, err)
	assert.Len(t, s.Steps, 2)
}

func TestSpaceRef_Resolve(t *testing.T) {
	assert.True(t, SpaceRef{Space: 3}.Resolve().Equal(store.UserSpace(3)))
	assert.True(t, SpaceRef{System: true}.Resolve().Equal(store.MetadataSpace))
	zoned := SpaceRef{Zone: Bytes("z"), Space: 1}.Resolve()
	assert.Equal(t, []byte("z"), zoned.Zone)
	assert.False(t, zoned.System)
}

func TestLoadScenario_Testdata(t *testing.T) {
	paths, err := FindScenarios("testdata/scenarios", "")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		_, err := LoadScenario(path)
		assert.NoError(t, err, path)
	}
}
