// Package artifact defines the five pipeline artifact types, the
// generic document shape they share, and the metadata sidecar that
// records provenance for every stored artifact.
package artifact
