// Package bundle assembles a completed pipeline run into a portable
// episode bundle: the artifact bodies and sidecars plus a manifest
// with per-file checksums and a content hash over the manifest itself.
package bundle
