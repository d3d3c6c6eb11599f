// Package registry owns all persisted pipeline state. Artifacts live
// under <root>/<project_id>/<run_id>/ as a canonical body file plus a
// metadata sidecar, written atomically via temp-file rename. The
// registry is the sole mutator of this tree; the pipeline engine never
// touches storage directly.
package registry
