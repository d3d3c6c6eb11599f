package schema

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"reelpipe/internal/artifact"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// ErrSchemaNotFound reports a (type, version) pair with no registered
// schema. This is a deployment/version mismatch, never a content
// problem, and callers treat it as fatal.
var ErrSchemaNotFound = errors.New("schema not registered")

// Violation describes one failed schema constraint.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError reports that a document does not conform to its
// schema. It is a cache-miss signal, not a fatal pipeline error.
type ValidationError struct {
	Type       artifact.Type
	Version    string
	Violations []Violation
}

func (e *ValidationError) Error() string {
	detail := ""
	if len(e.Violations) > 0 {
		detail = ": " + e.Violations[0].Message
		if e.Violations[0].Path != "" {
			detail = fmt.Sprintf(": at %s: %s", e.Violations[0].Path, e.Violations[0].Message)
		}
	}
	return fmt.Sprintf("schema: %s@%s: %d violation(s)%s", e.Type, e.Version, len(e.Violations), detail)
}

// Validator holds the compiled schema for every registered
// (artifact type, version) pair.
type Validator struct {
	compiled map[string]*jsonschema.Schema
}

// schemas/<Type>.v<version>.json
var schemaFilePattern = regexp.MustCompile(`^([A-Za-z]+)\.v([0-9][0-9.]*)\.json$`)

// NewValidator compiles all embedded schemas.
func NewValidator() (*Validator, error) {
	entries, err := fs.ReadDir(schemaFS, "schemas")
	if err != nil {
		return nil, fmt.Errorf("schema: list embedded schemas: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7

	names := make(map[string]string, len(entries))
	for _, entry := range entries {
		match := schemaFilePattern.FindStringSubmatch(entry.Name())
		if match == nil {
			return nil, fmt.Errorf("schema: unexpected schema file name %q", entry.Name())
		}
		data, err := schemaFS.ReadFile("schemas/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("schema: read %s: %w", entry.Name(), err)
		}
		url := "reelpipe:///" + entry.Name()
		if err := compiler.AddResource(url, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("schema: register %s: %w", entry.Name(), err)
		}
		names[key(artifact.Type(match[1]), match[2])] = url
	}

	compiled := make(map[string]*jsonschema.Schema, len(names))
	for k, url := range names {
		sch, err := compiler.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("schema: compile %s: %w", k, err)
		}
		compiled[k] = sch
	}
	return &Validator{compiled: compiled}, nil
}

// Validate checks doc against the schema registered for (t, version).
// It returns ErrSchemaNotFound when no such schema exists, a
// *ValidationError when the document does not conform, and nil on pass.
func (v *Validator) Validate(t artifact.Type, version string, doc artifact.Document) error {
	sch, ok := v.compiled[key(t, version)]
	if !ok {
		return fmt.Errorf("%w: %s@%s", ErrSchemaNotFound, t, version)
	}
	if err := sch.Validate(map[string]any(doc)); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return &ValidationError{Type: t, Version: version, Violations: flatten(ve)}
		}
		return fmt.Errorf("schema: validate %s@%s: %w", t, version, err)
	}
	return nil
}

// Registered reports whether a schema exists for (t, version).
func (v *Validator) Registered(t artifact.Type, version string) bool {
	_, ok := v.compiled[key(t, version)]
	return ok
}

func key(t artifact.Type, version string) string {
	return string(t) + "@" + strings.TrimSpace(version)
}

// flatten collects leaf causes so a ValidationError lists concrete
// violated constraints rather than the summary node.
func flatten(ve *jsonschema.ValidationError) []Violation {
	if len(ve.Causes) == 0 {
		return []Violation{{Path: instancePath(ve.InstanceLocation), Message: ve.Message}}
	}
	var out []Violation
	for _, cause := range ve.Causes {
		out = append(out, flatten(cause)...)
	}
	return out
}

func instancePath(location string) string {
	if location == "" {
		return "$"
	}
	return "$" + strings.ReplaceAll(location, "/", ".")
}
