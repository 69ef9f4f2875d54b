package harness

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/mockvm/internal/session"
	"github.com/roach88/mockvm/internal/testutil"
)

// Harness runs one scenario against one session.
type Harness struct {
	session *session.Session
	clock   *testutil.DeterministicClock
	logger  *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh session for isolation, opened on the
// scenario's backend with a session ID derived from the scenario name.
//
// Execution flow:
// 1. Open a fresh session
// 2. Execute setup setters (a failure aborts the run)
// 3. Execute steps, recording each host call in the trace
// 4. Capture logs, events and store entries
// 5. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, slog.New(slog.NewTextHandler(io.Discard, nil))) // Suppress logs in tests
}

// RunWithLogger is Run with session and harness logs sent to logger.
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	opts := []session.Option{
		session.WithBackend(scenario.Backend),
		session.WithLogger(logger),
		session.WithIDGenerator(testutil.NewFixedIDGenerator(scenario.Name)),
	}
	if scenario.SessionID != "" {
		opts = append(opts, session.WithID(scenario.SessionID))
	}

	s, err := session.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	defer s.Close()

	h := &Harness{
		session: s,
		clock:   testutil.NewDeterministicClock(),
		logger:  logger,
	}

	result := NewResult()
	result.SessionID = s.ID()

	if err := h.executeSetup(scenario.Setup, result); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	h.executeSteps(scenario.Steps, result)

	if err := h.captureState(result); err != nil {
		return nil, fmt.Errorf("failed to capture state: %w", err)
	}

	actx := &AssertionContext{Session: s}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeSetup runs all setters in order. Setters are assumed to succeed.
func (h *Harness) executeSetup(setup []SetupStep, result *Result) error {
	for i, step := range setup {
		args, err := traceArgs(step)
		if err != nil {
			return fmt.Errorf("setup step %d: %w", i, err)
		}

		seq := h.clock.Next()
		if err := h.applySetter(step); err != nil {
			return fmt.Errorf("setup step %d (%s): %w", i, step.Set, err)
		}

		result.AddTrace(TraceEvent{Seq: seq, Kind: KindSet, Name: step.Set, Args: args})
		h.logger.Debug("setup applied", "setter", step.Set, "seq", seq)
	}
	return nil
}

// executeSteps runs all host calls. A failing call is recorded in the trace
// and, unless the step expects it, in the result errors. Later steps still
// run.
func (h *Harness) executeSteps(steps []Step, result *Result) {
	for i, step := range steps {
		seq := h.clock.Next()
		ev := TraceEvent{Seq: seq, Kind: KindCall, Name: step.Call}

		var args StepArgs
		err := decodeNode(&step.Args, &args)
		if err == nil {
			ev.Args, err = nodeValue(&step.Args)
		}
		if err == nil {
			ev.Result, err = h.call(step.Call, args)
		}
		if err != nil {
			ev.Error = err.Error()
		}
		result.AddTrace(ev)

		switch {
		case err != nil && step.ExpectError == "":
			result.AddError(fmt.Sprintf("steps[%d] %s: %v", i, step.Call, err))
		case err != nil && !strings.Contains(err.Error(), step.ExpectError):
			result.AddError(fmt.Sprintf("steps[%d] %s: expected error containing %q, got %v",
				i, step.Call, step.ExpectError, err))
		case err == nil && step.ExpectError != "":
			result.AddError(fmt.Sprintf("steps[%d] %s: expected error containing %q, got none",
				i, step.Call, step.ExpectError))
		}
	}
}

// captureState copies the session's final logs, events and entries into
// the result.
func (h *Harness) captureState(result *Result) error {
	logs, err := h.session.GetLogs()
	if err != nil {
		return err
	}
	events, err := h.session.DecodedEvents()
	if err != nil {
		return err
	}
	entries, err := h.session.Entries()
	if err != nil {
		return err
	}
	result.Logs = logs
	result.Events = events
	result.Entries = entries
	return nil
}

// traceArgs renders a setter's payload for the trace.
func traceArgs(step SetupStep) (map[string]any, error) {
	args := map[string]any{}
	if step.Value.Kind != 0 {
		v, err := nodeValue(&step.Value)
		if err != nil {
			return nil, err
		}
		args["value"] = v
	}
	if step.Values.Kind != 0 {
		v, err := nodeValue(&step.Values)
		if err != nil {
			return nil, err
		}
		args["values"] = v
	}
	return args, nil
}

// nodeValue decodes a YAML node into plain Go values. An absent node is nil.
func nodeValue(n *yaml.Node) (any, error) {
	if n.Kind == 0 {
		return nil, nil
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// decodeNode decodes a YAML node into out, rejecting unknown fields.
// An absent node leaves out untouched.
func decodeNode(n *yaml.Node, out any) error {
	if n.Kind == 0 {
		return nil
	}
	raw, err := yaml.Marshal(n)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	return dec.Decode(out)
}
