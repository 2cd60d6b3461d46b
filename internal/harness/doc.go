// Package harness runs graph event scenarios against a fresh store and
// checks the resulting state.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	events:
//	  - kind: add-graph
//	    body:
//	      resource: {ship: "~zod", name: chat}
//	      graph: {}
//	  - kind: sidebar-toggled
//	assertions:
//	  - type: keys_equal
//	    keys: ["~zod/chat"]
//	  - type: node_present
//	    resource: "~zod/chat"
//	    index: /1/2
//	  - type: sidebar_shown
//	    shown: false
//
// Events are decoded exactly as on the wire. Bodies that fail to decode are
// counted as rejected and never reach the store; unknown kinds are
// dispatched and ignored by the reducer.
//
// # Golden Files
//
// RunWithGolden writes the trace and final snapshot as canonical JSON and
// compares it with testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
