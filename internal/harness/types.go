package harness

import (
	"github.com/roach88/mockvm/internal/record"
	"github.com/roach88/mockvm/internal/store"
)

// Trace event kinds.
const (
	KindSet  = "set"
	KindCall = "call"
)

// TraceEvent records one setter or host call made while running a scenario.
type TraceEvent struct {
	Seq    int64  `json:"seq"`
	Kind   string `json:"kind"` // "set" or "call"
	Name   string `json:"name"`
	Args   any    `json:"args,omitempty"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step behaved as expected and every assertion held.
	Pass bool `json:"pass"`

	// Trace contains every setter and host call in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains step and assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// SessionID is the deterministic ID of the session the scenario ran in.
	SessionID string `json:"session_id"`

	// Final session state, captured after the last step.
	Logs    []string           `json:"logs"`
	Events  []record.EventData `json:"-"`
	Entries []store.Entry      `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a trace event.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
