package artifact

import "time"

// ParentRef identifies one input artifact consumed to produce another.
type ParentRef struct {
	Type Type   `json:"type"`
	Hash string `json:"hash"`
}

// Meta is the sidecar record stored next to every artifact body. Its
// Hash field must equal the SHA-256 of the body's canonical form at all
// times; any mismatch marks the artifact corrupt and disqualifies it
// from skip reuse.
type Meta struct {
	Hash          string      `json:"hash"`
	SchemaVersion string      `json:"schema_version"`
	Parents       []ParentRef `json:"parents"`
	ComputeOrigin string      `json:"compute_origin"`
	CreatedAt     time.Time   `json:"created_at"`
}
