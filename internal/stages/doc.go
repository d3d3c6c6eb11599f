// Package stages provides the five deterministic stage functions the
// pipeline engine invokes. Each one is a pure mapping from its input
// artifacts to one output document: given byte-identical inputs it
// produces byte-identical output.
package stages
