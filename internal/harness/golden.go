package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/mockvm/internal/record"
)

// Snapshot captures everything a scenario run produced.
// It is serialized as canonical JSON for deterministic comparison.
type Snapshot struct {
	ScenarioName string
	SessionID    string
	Result       *Result
}

// toCanonicalMap converts a Snapshot to the plain tree
// record.MarshalCanonical serializes. The backend is left out so one golden
// file holds for every backend.
func (s *Snapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Result.Trace))
	for i, event := range s.Result.Trace {
		eventMap := map[string]any{
			"seq":  event.Seq,
			"kind": event.Kind,
			"name": event.Name,
		}
		if event.Args != nil {
			eventMap["args"] = event.Args
		}
		if event.Result != nil {
			eventMap["result"] = event.Result
		}
		if event.Error != "" {
			eventMap["error"] = event.Error
		}
		traceList[i] = eventMap
	}

	logs := make([]any, len(s.Result.Logs))
	for i, l := range s.Result.Logs {
		logs[i] = l
	}

	events := make([]any, len(s.Result.Events))
	for i, ev := range s.Result.Events {
		events[i] = ev
	}

	entries := make([]any, len(s.Result.Entries))
	for i, e := range s.Result.Entries {
		entries[i] = map[string]any{
			"space": e.Space.String(),
			"key":   e.Key,
			"value": e.Value,
		}
	}

	return map[string]any{
		"scenario":   s.ScenarioName,
		"session_id": s.SessionID,
		"trace":      traceList,
		"logs":       logs,
		"events":     events,
		"entries":    entries,
	}
}

// MarshalSnapshot renders a run as canonical JSON.
func MarshalSnapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := Snapshot{
		ScenarioName: scenarioName,
		SessionID:    result.SessionID,
		Result:       result,
	}
	return record.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
