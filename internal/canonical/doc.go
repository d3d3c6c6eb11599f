// Package canonical produces the byte-stable JSON serialization used as
// the hashing basis for run identity and artifact integrity. Two
// structurally equal documents always canonicalize to identical bytes:
// object keys are emitted in sorted order, no insignificant whitespace
// is written, and numeric literals keep a fixed form (json.Number
// values are written verbatim, floats in encoding/json's shortest
// round-trip form).
package canonical
