// Package project loads the project configuration a pipeline run is
// executed against. The configuration is an opaque JSON document whose
// canonical hash is the default basis for run identity; it is immutable
// once a run begins.
package project
