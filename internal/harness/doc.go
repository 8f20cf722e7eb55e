// Package harness runs YAML scenarios against a real engine.
//
// A scenario names a catalog (file path or inline tables), places machines,
// then drives the engine step by step: placing world-owned shapes, reporting
// them entering and leaving proximity, and issuing player commands. Every
// step goes through engine.Dispatch with a deterministic clock and
// sequential handles, so the resulting trace is byte-stable and can be
// compared against a golden file.
//
// Scenario format:
//
//	name: merge_basic
//	catalog: ../../catalog/testdata/shapes.yaml
//	machines:
//	  - {name: forge, recipes: [Merge]}
//	steps:
//	  - place: {id: c1, kind: Cube}
//	  - enter: {machine: forge, id: c1}
//	  - spawn: {recipe: Merge}
//	    expect_error: no_selection
//	assertions:
//	  - {type: count, machine: forge, kind: Cube, count: 1}
//
// Assertion types: count, live, spawned, transactions, enabled, selected,
// effects, journal. Each scenario runs with its own in-memory journal.
package harness
