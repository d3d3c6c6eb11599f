// Package pipeline executes the fixed five-stage production pipeline:
// script, shot list, asset manifest, render plan, render output. Each
// stage declares its read-set and single write artifact type; the
// engine decides skip vs execute per stage, invokes the stage function,
// and records provenance through the registry.
package pipeline
