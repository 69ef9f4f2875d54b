// Package harness runs YAML scenarios against a mock VM session.
//
// A scenario prepares the simulated chain with setter calls, makes host
// calls the way a contract would, and asserts on the session state left
// behind.
//
// # Scenario Format
//
//	name: transfer_reverts
//	description: "What this scenario validates"
//	backend: memory            # memory|sqlite|leveldb|badger|pebble
//	setup:
//	  - set: entry_point
//	    value: 3282800625
//	  - set: call_contract_results
//	    values: ["cmVzMQ=="]     # base64
//	steps:
//	  - call: log
//	    args: { message: "l1" }
//	  - call: begin_transaction
//	  - call: put
//	    args: { space: 0, key: x, value: "AQID" }
//	  - call: entry_point
//	    expect_error: "not set"
//	assertions:
//	  - type: logs_equal
//	    values: ["l1"]
//	  - type: value_equals
//	    key: x
//	    value: "AQID"
//
// Byte strings are standard base64 throughout. Files are validated twice:
// the Go decoder rejects unknown top-level fields and checks required ones,
// and an embedded CUE schema (schema.cue) constrains every enum and every
// nested key.
//
// # Assertion Types
//
//   - logs_equal: logs match values exactly, in order
//   - event_names: decoded event names match values, in order
//   - events_count: count events were emitted
//   - results_remaining: count injected call results are still queued
//   - value_equals: the value at (space, key) equals value
//   - absent: nothing is stored at (space, key)
//   - entries_count: the store holds count entries
//
// # Deterministic Testing
//
// The harness uses:
//   - A session ID derived from the scenario name (or scenario.session_id)
//   - Deterministic logical clock (testutil.DeterministicClock) for trace seq
//   - A fresh memory-resident store per run
//
// The golden snapshot leaves the backend out, so the same golden file must
// hold for every backend.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/rollback.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
