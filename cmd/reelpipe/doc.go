// Command reelpipe drives the deterministic episode production
// pipeline: run executes the five stages against the artifact
// registry, runs lists recorded invocations, explain and verify
// inspect stored artifacts, and package assembles a completed run
// into a portable bundle.
package main
