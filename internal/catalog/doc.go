// Package catalog provides the read-only Recipe Catalog.
//
// The catalog maps recipe names to their input/output shape kinds and shape
// kinds to spawn metadata. It is loaded once, eagerly and synchronously, from
// one of three table formats:
//
//   - YAML (.yaml, .yml): strict field checking via yaml.v3
//   - JSON (.json): validated against an embedded JSON Schema before decoding
//   - CUE (.cue): compiled and decoded through the CUE Go API
//
// All formats share the same shape:
//
//	spawn_effect: "fx/spawn"
//	shapes:
//	  - { name: Cube, description: "A cube", class: "/Game/Shapes/BP_Cube", effect: "" }
//	recipes:
//	  - { name: Merge, inputs: [Cube, Sphere], output: Cylinder }
//
// A missing or empty table, a recipe without inputs, or a shape without a
// spawnable class is a configuration error: Load refuses to return partial data.
//
// Lookups are exact-match and case-sensitive. Unknown names are reported as
// *LookupError (wrapping ErrNotFound); callers decide how loudly to fail.
//
// The Catalog is immutable after construction and safe for concurrent reads.
package catalog
