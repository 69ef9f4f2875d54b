package harness

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/mockvm/internal/session"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s %s", event.Seq, event.Kind, event.Name)
		if event.Args != nil {
			fmt.Fprintf(&buf, " %v", event.Args)
		}
		if event.Error != "" {
			fmt.Fprintf(&buf, " error=%q", event.Error)
		}
		buf.WriteByte('\n')
	}

	return buf.String()
}

// AssertionContext gives assertions access to the live session.
type AssertionContext struct {
	Session *session.Session
}

// assertStrings checks an ordered list of strings. Nil and empty are equal.
func assertStrings(typ string, actual, expected []string, trace []TraceEvent) error {
	if len(actual) == 0 && len(expected) == 0 {
		return nil
	}
	if slices.Equal(actual, expected) {
		return nil
	}
	return &AssertionError{
		Type:     typ,
		Expected: fmt.Sprintf("%q", expected),
		Actual:   fmt.Sprintf("%q", actual),
		Trace:    trace,
	}
}

// assertCount checks a count.
func assertCount(typ string, actual, expected int, trace []TraceEvent) error {
	if actual == expected {
		return nil
	}
	return &AssertionError{
		Type:     typ,
		Expected: fmt.Sprintf("%d", expected),
		Actual:   fmt.Sprintf("%d", actual),
		Trace:    trace,
	}
}

// assertValue checks value_equals and absent against the value at
// (space, key).
func assertValue(s *session.Session, a Assertion, trace []TraceEvent) error {
	space := a.Resolve()
	got, ok, err := s.GetBytes(space, a.Key)
	if err != nil {
		return fmt.Errorf("%s %s %q: %w", a.Type, space, a.Key, err)
	}

	if a.Type == AssertAbsent {
		if !ok {
			return nil
		}
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("no value at %s %q", space, a.Key),
			Actual:   fmt.Sprintf("value %s", b64(got)),
			Trace:    trace,
		}
	}

	if !ok {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("value %s at %s %q", b64(a.Value), space, a.Key),
			Actual:   "absent",
			Trace:    trace,
		}
	}
	if !bytes.Equal(got, a.Value) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("value %s at %s %q", b64(a.Value), space, a.Key),
			Actual:   fmt.Sprintf("value %s", b64(got)),
			Trace:    trace,
		}
	}
	return nil
}

func b64(p []byte) string {
	return base64.StdEncoding.EncodeToString(p)
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides session access for results_remaining,
// value_equals and absent.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertLogsEqual:
			err = assertStrings(assertion.Type, result.Logs, assertion.Values, result.Trace)
		case AssertEventNames:
			names := make([]string, len(result.Events))
			for j, ev := range result.Events {
				names[j] = ev.Name
			}
			err = assertStrings(assertion.Type, names, assertion.Values, result.Trace)
		case AssertEventsCount:
			err = assertCount(assertion.Type, len(result.Events), assertion.Count, result.Trace)
		case AssertEntriesCount:
			err = assertCount(assertion.Type, len(result.Entries), assertion.Count, result.Trace)
		case AssertResultsRemaining, AssertValueEquals, AssertAbsent:
			if actx == nil || actx.Session == nil {
				err = fmt.Errorf("assertion[%d]: %s requires session context", i, assertion.Type)
				break
			}
			if assertion.Type == AssertResultsRemaining {
				var n int
				n, err = actx.Session.ResultsRemaining()
				if err == nil {
					err = assertCount(assertion.Type, n, assertion.Count, result.Trace)
				}
				break
			}
			err = assertValue(actx.Session, assertion, result.Trace)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
