package schema

import (
	"errors"
	"testing"

	"reelpipe/internal/artifact"
)

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator()
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	return v
}

func minimalScript() artifact.Document {
	return artifact.Document{
		"schema_version": "1.0.0",
		"script_id":      "script-demo-abc",
		"project_id":     "demo",
		"title":          "Demo",
		"scenes":         []any{},
	}
}

func TestValidatorRegistersAllArtifactTypes(t *testing.T) {
	v := newTestValidator(t)
	for _, typ := range artifact.Types() {
		if !v.Registered(typ, "1.0.0") {
			t.Errorf("no schema registered for %s@1.0.0", typ)
		}
	}
}

func TestValidateAcceptsConformingDocument(t *testing.T) {
	v := newTestValidator(t)
	if err := v.Validate(artifact.TypeScript, "1.0.0", minimalScript()); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateReportsViolations(t *testing.T) {
	v := newTestValidator(t)
	doc := minimalScript()
	delete(doc, "title")

	err := v.Validate(artifact.TypeScript, "1.0.0", doc)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	if len(ve.Violations) == 0 {
		t.Fatal("expected at least one violation")
	}
}

func TestValidateRejectsEnumViolation(t *testing.T) {
	v := newTestValidator(t)
	doc := minimalScript()
	doc["scenes"] = []any{
		map[string]any{
			"scene_id": "scene-001",
			"actions": []any{
				map[string]any{"type": "monologue", "text": "nope"},
			},
		},
	}

	err := v.Validate(artifact.TypeScript, "1.0.0", doc)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
}

func TestValidateUnknownVersionIsNotFound(t *testing.T) {
	v := newTestValidator(t)
	err := v.Validate(artifact.TypeScript, "9.9.9", minimalScript())
	if !errors.Is(err, ErrSchemaNotFound) {
		t.Fatalf("error = %v, want ErrSchemaNotFound", err)
	}
}
