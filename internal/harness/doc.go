// Package harness runs driver scenarios against a live driver over HTTP.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: counter_click
//	description: "Clicking increment updates the label"
//	content: counter
//	setup:
//	  - get: /waitForIdle
//	steps:
//	  - get: /click
//	    params: { nodeTag: increment }
//	  - get: /screenshot
//	    params: { nodeTag: counter }
//	    expect:
//	      content_type: image/png
//	      image: { width: 200, height: 40 }
//	assertions:
//	  - type: trace_count
//	    endpoint: /click
//	    count: 1
//	  - type: final_tree
//	    params: { nodeTag: counter }
//	    contains: ["Count: 1"]
//
// When content is set the runner resets the driver to it first. A step
// without expect must answer 200.
//
// # Assertion Types
//
//   - trace_contains: an endpoint was called with matching params
//   - trace_order: endpoints were called in order
//   - trace_count: an endpoint was called exactly N times
//   - final_tree: the printTree dump after the last step contains strings
//
// # Deterministic Traces
//
// The driver runs on a virtual clock, so the same scenario against the same
// content produces the same trace. Binary bodies are summarized (image size,
// byte count) so traces can be compared with golden files.
package harness
