// Package runindex keeps a local SQLite history of pipeline
// invocations. The registry on disk is authoritative; the index only
// exists so `reelpipe runs` can answer without walking artifact
// directories.
package runindex
