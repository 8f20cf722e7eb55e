// Package ir provides the shared data model for shapeforge.
//
// This package contains type definitions and identity helpers only. All other
// internal packages import ir; ir imports nothing internal. This keeps the
// model the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - ShapeKind values are interned through Kind (NFC normalized, case-sensitive)
//   - Handles are opaque; ir never assumes the referent is alive
//   - All JSON/YAML tags use snake_case
//   - Logical clocks (seq) only, never wall-clock timestamps
package ir
